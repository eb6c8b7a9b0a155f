package generator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/domain"
	"google.golang.org/genai"
)

// SDKClient は google.golang.org/genai の GenerateImages で :predict を呼び出す Predictor です。
// キーは呼び出しごとに異なり得るため、genai.Client は Predict のたびに作ります。
type SDKClient struct {
	baseURL    string
	apiVersion string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// NewSDKClient は REST の Client と同じ Options で SDKClient を初期化します。
// genai は *http.Client しか受け付けないため、それ以外の HTTPClient は使わず SDK の既定に任せます。
func NewSDKClient(opts Options) *SDKClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	httpClient, _ := opts.HTTPClient.(*http.Client)
	return &SDKClient{
		baseURL:    strings.TrimSpace(opts.BaseURL),
		apiVersion: strings.TrimSpace(opts.APIVersion),
		httpClient: httpClient,
		timeout:    timeout,
		logger:     logger,
	}
}

// Predict は GenerateImages を1回だけ呼び出し、結果を predictions 形式で返します。
func (s *SDKClient) Predict(ctx context.Context, model, apiKey string, payload domain.PredictRequest) (*domain.PredictResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: s.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    s.baseURL,
			APIVersion: s.apiVersion,
		},
	})
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindTransport, Message: "create genai client", Cause: err}
	}

	prompt := ""
	if len(payload.Instances) > 0 {
		prompt = payload.Instances[0].Prompt
	}

	s.logger.DebugContext(ctx, "genai SDK で画像生成を呼び出します",
		"model", model, "sample_count", payload.Parameters.SampleCount)

	resp, err := client.Models.GenerateImages(ctx, model, prompt, toImagesConfig(payload.Parameters))
	if err != nil {
		mapped := mapSDKError(err)
		s.logger.WarnContext(ctx, "genai SDK の画像生成に失敗しました",
			"model", model, "kind", domain.KindOf(mapped), "error", err)
		return nil, mapped
	}
	return fromImagesResponse(resp)
}

func toImagesConfig(p domain.PredictParameters) *genai.GenerateImagesConfig {
	return &genai.GenerateImagesConfig{
		NumberOfImages:   int32(p.SampleCount),
		AspectRatio:      p.AspectRatio,
		ImageSize:        p.SampleImageSize,
		PersonGeneration: genai.PersonGeneration(strings.ToUpper(p.PersonGeneration)),
	}
}

// fromImagesResponse は SDK の結果を REST と同じ predictions 形式に戻します。
// デコード処理を REST と共通にするためです。
func fromImagesResponse(resp *genai.GenerateImagesResponse) (*domain.PredictResponse, error) {
	if resp == nil {
		return nil, &domain.Error{Kind: domain.KindMalformedResponse, Message: "genai returned a nil response"}
	}

	out := &domain.PredictResponse{}
	for _, gi := range resp.GeneratedImages {
		if gi == nil {
			continue
		}
		pred := domain.Prediction{RAIFilteredReason: gi.RAIFilteredReason}
		if gi.Image != nil {
			pred.MimeType = gi.Image.MIMEType
			if len(gi.Image.ImageBytes) > 0 {
				pred.BytesBase64Encoded = base64.StdEncoding.EncodeToString(gi.Image.ImageBytes)
			}
		}
		out.Predictions = append(out.Predictions, pred)
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindMalformedResponse, Message: "re-encode genai response", Cause: err}
	}
	out.Raw = raw
	return out, nil
}

func mapSDKError(err error) error {
	if code, msg, body, ok := asAPIError(err); ok {
		return &domain.Error{
			Kind:       domain.KindAPIHTTP,
			Message:    fmt.Sprintf("API error (status %d)", code),
			StatusCode: code,
			Body:       body,
			Cause:      errors.New(msg),
		}
	}
	if isTimeout(err) {
		return &domain.Error{Kind: domain.KindTransportTimeout, Message: "genai request timed out", Cause: err}
	}
	return &domain.Error{Kind: domain.KindTransport, Message: "genai request failed", Cause: err}
}

// asAPIError は値とポインタどちらの genai.APIError も受け付けます。
func asAPIError(err error) (code int, msg, body string, ok bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Message, apiErrorBody(apiErr), true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Message, apiErrorBody(*apiErrPtr), true
	}
	return 0, "", "", false
}

func apiErrorBody(e genai.APIError) string {
	b, err := json.Marshal(map[string]any{"error": e})
	if err != nil {
		return e.Message
	}
	return string(b)
}
