package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/domain"
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/imgutil"
)

// ResponseDecoder は :predict の応答を画像バッチに組み立てるコンポーネントです。
type ResponseDecoder struct {
	policy imgutil.SizePolicy
	logger *slog.Logger
}

// NewResponseDecoder は ResponseDecoder を生成します。logger が nil なら出力を捨てます。
func NewResponseDecoder(policy imgutil.SizePolicy, logger *slog.Logger) *ResponseDecoder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ResponseDecoder{policy: policy, logger: logger}
}

// Decode は predictions を応答順にデコードしてスタックします。
// 個々の画像の失敗はログに残して読み飛ばし、1枚も残らなかった場合だけエラーにします。
func (d *ResponseDecoder) Decode(ctx context.Context, resp *domain.PredictResponse) (*imgutil.Batch, error) {
	if resp == nil || len(resp.Predictions) == 0 {
		return nil, &domain.Error{
			Kind:    domain.KindEmptyResult,
			Message: "no images returned. API response",
			Body:    prettyRaw(resp),
		}
	}

	images := make([]*imgutil.Image, 0, len(resp.Predictions))
	for i, pred := range resp.Predictions {
		if pred.BytesBase64Encoded == "" {
			d.logger.WarnContext(ctx, "画像データを含まない prediction をスキップします",
				"index", i, "rai_filtered_reason", pred.RAIFilteredReason)
			continue
		}

		img, err := imgutil.DecodeBase64(pred.BytesBase64Encoded)
		if err != nil {
			d.logger.WarnContext(ctx, "画像のデコードに失敗しました。スキップして続行します",
				"index", i, "mime_type", pred.MimeType, "error", err)
			continue
		}
		images = append(images, img)
	}

	if len(images) == 0 {
		return nil, &domain.Error{
			Kind:    domain.KindNoDecodableImages,
			Message: fmt.Sprintf("failed to decode any images from the response (%d predictions)", len(resp.Predictions)),
		}
	}

	if skipped := len(resp.Predictions) - len(images); skipped > 0 {
		d.logger.InfoContext(ctx, "一部の画像を除外してバッチを作成します",
			"decoded", len(images), "skipped", skipped)
	}

	return imgutil.Stack(images, d.policy)
}

// prettyRaw は診断用に応答を2スペースでインデントした文字列にします。
func prettyRaw(resp *domain.PredictResponse) string {
	if resp == nil {
		return "null"
	}
	raw := []byte(resp.Raw)
	if len(raw) == 0 {
		var err error
		if raw, err = json.Marshal(resp); err != nil {
			return ""
		}
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
