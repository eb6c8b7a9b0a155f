package adapters

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/domain"
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/imgutil"
	"github.com/stretchr/testify/require"
)

// mockPredictor は generator.Predictor のテスト用モックです。
type mockPredictor struct {
	calls       int
	lastModel   string
	lastKey     string
	lastPayload domain.PredictRequest
	predictFunc func(model, apiKey string, payload domain.PredictRequest) (*domain.PredictResponse, error)
}

func (m *mockPredictor) Predict(ctx context.Context, model, apiKey string, payload domain.PredictRequest) (*domain.PredictResponse, error) {
	m.calls++
	m.lastModel = model
	m.lastKey = apiKey
	m.lastPayload = payload
	if m.predictFunc != nil {
		return m.predictFunc(model, apiKey, payload)
	}
	return &domain.PredictResponse{}, nil
}

// mockDecoder は BatchDecoder のテスト用モックです。
type mockDecoder struct {
	decodeFunc func(resp *domain.PredictResponse) (*imgutil.Batch, error)
}

func (m *mockDecoder) Decode(ctx context.Context, resp *domain.PredictResponse) (*imgutil.Batch, error) {
	if m.decodeFunc != nil {
		return m.decodeFunc(resp)
	}
	return nil, nil
}

// pngBase64 は単色 PNG を base64 文字列で返すヘルパーです。
func pngBase64(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
