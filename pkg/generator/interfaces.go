package generator

import (
	"context"

	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/domain"
)

// Predictor は :predict を1回だけ呼び出す通信クライアントです。
// リトライは行いません。必要なら呼び出し側で包んでください。
type Predictor interface {
	Predict(ctx context.Context, model, apiKey string, payload domain.PredictRequest) (*domain.PredictResponse, error)
}
