package generator

import "github.com/comrender/ComfyUI-Imagen-Gemini/pkg/domain"

// BuildPayload は生成パラメータを :predict のリクエストボディに写像します。
// プロンプトも列挙値も加工しません。入力検証は呼び出し側の責務です。
func BuildPayload(req domain.GenerationRequest) domain.PredictRequest {
	return domain.PredictRequest{
		Instances: []domain.PredictInstance{
			{Prompt: req.Prompt},
		},
		Parameters: domain.PredictParameters{
			SampleCount:      req.NumImages,
			AspectRatio:      req.AspectRatio,
			SampleImageSize:  req.Resolution,
			PersonGeneration: req.PersonGeneration,
		},
	}
}
