package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/domain"
	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// maxLogBody はログや MalformedResponse に載せるボディの上限バイト数です。
const maxLogBody = 8 << 10

// Options は Client の設定です。ゼロ値の項目は既定値になります。
type Options struct {
	BaseURL    string
	APIVersion string
	// HTTPClient が nil なら httpkit のクライアントをリトライなしで使います。
	HTTPClient httpkit.Doer
	// SkipNetworkValidation はプライベートアドレスへの接続を許可します。
	// ローカルのプロキシやエミュレーターを BaseURL に指定する場合に使います。
	SkipNetworkValidation bool
	Timeout               time.Duration
	Logger                *slog.Logger
}

// Client は Generative Language API の :predict を REST で呼び出します。
type Client struct {
	baseURL    string
	apiVersion string
	httpClient httpkit.Doer
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient は Client を初期化します。
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	apiVersion := strings.Trim(strings.TrimSpace(opts.APIVersion), "/")
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = httpkit.New(timeout,
			httpkit.WithMaxRetries(0),
			httpkit.WithSkipNetworkValidation(opts.SkipNetworkValidation),
		)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    baseURL,
		apiVersion: apiVersion,
		httpClient: httpClient,
		timeout:    timeout,
		logger:     logger,
	}
}

// Endpoint はキーを含まない :predict の URL です。ログやエラーにはこちらを使います。
func (c *Client) Endpoint(model string) string {
	return fmt.Sprintf("%s/%s/models/%s:predict", c.baseURL, c.apiVersion, url.PathEscape(model))
}

// Predict はリクエストを1回だけ送信し、成功レスポンスを解析して返します。
func (c *Client) Predict(ctx context.Context, model, apiKey string, payload domain.PredictRequest) (*domain.PredictResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.Endpoint(model)
	reqURL := endpoint + "?" + url.Values{"key": {apiKey}}.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.DebugContext(ctx, "Imagen API にリクエストを送信します",
		"endpoint", endpoint, "sample_count", payload.Parameters.SampleCount)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, endpoint, err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.transportError(ctx, endpoint, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		errBody := strings.TrimSpace(string(rawBody))
		c.logger.WarnContext(ctx, "Imagen API がエラーを返しました",
			"endpoint", endpoint, "status", httpResp.StatusCode, "body", truncate(errBody, maxLogBody))
		return nil, &domain.Error{
			Kind:       domain.KindAPIHTTP,
			Message:    fmt.Sprintf("API error (status %d)", httpResp.StatusCode),
			StatusCode: httpResp.StatusCode,
			Body:       errBody,
		}
	}

	c.logger.DebugContext(ctx, "Imagen API から応答を受信しました",
		"status", httpResp.StatusCode, "bytes", len(rawBody), "elapsed", time.Since(start))

	return decodeResponse(rawBody)
}

func (c *Client) transportError(ctx context.Context, endpoint string, err error) error {
	kind := domain.KindTransport
	if isTimeout(err) {
		kind = domain.KindTransportTimeout
	}

	// url.Error の文字列にはクエリの API キーが含まれるため中身だけを残す
	cause := err
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		cause = urlErr.Err
	}

	c.logger.WarnContext(ctx, "Imagen API リクエストに失敗しました",
		"endpoint", endpoint, "kind", kind, "error", cause)

	msg := fmt.Sprintf("API request failed: POST %s", endpoint)
	if kind == domain.KindTransportTimeout {
		msg = fmt.Sprintf("API request timed out after %s: POST %s", c.timeout, endpoint)
	}
	return &domain.Error{Kind: kind, Message: msg, Cause: cause}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func decodeResponse(raw []byte) (*domain.PredictResponse, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, malformed(raw, errors.New("response body is not a JSON object"))
	}

	var resp domain.PredictResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, malformed(raw, err)
	}
	resp.Raw = json.RawMessage(trimmed)
	return &resp, nil
}

func malformed(raw []byte, cause error) error {
	return &domain.Error{
		Kind:    domain.KindMalformedResponse,
		Message: "could not decode API response",
		Body:    truncate(strings.TrimSpace(string(raw)), maxLogBody),
		Cause:   cause,
	}
}

// truncate は n バイト以内に収まるよう文字の境界で切り詰めます。
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}
