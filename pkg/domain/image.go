package domain

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Imagen のモデル識別子です。ノードの選択肢と同じ並びで保持します。
const (
	ModelImagen4Ultra  = "imagen-4.0-ultra-generate-001"
	ModelImagen4       = "imagen-4.0-generate-001"
	ModelImagen4Fast   = "imagen-4.0-fast-generate-001"
	ModelImagen3       = "imagen-3.0-generate-002"
	ModelImagen3Fast   = "imagen-3.0-fast-generate-001"
	ModelImagen3Legacy = "imagen-3.0-generate-001"
)

const (
	DefaultPrompt           = "A futuristic city with flying cars, cinematic lighting"
	DefaultModel            = ModelImagen4
	DefaultAspectRatio      = "1:1"
	DefaultResolution       = "1K"
	DefaultPersonGeneration = "allow_adult"
	DefaultNumImages        = 1

	MinNumImages = 1
	MaxNumImages = 4
)

var (
	// Models は選択可能なモデルの一覧です。
	Models = []string{
		ModelImagen4Ultra,
		ModelImagen4,
		ModelImagen4Fast,
		ModelImagen3,
		ModelImagen3Fast,
		ModelImagen3Legacy,
	}
	AspectRatios      = []string{"1:1", "3:4", "4:3", "9:16", "16:9"}
	Resolutions       = []string{"1K", "2K"}
	PersonGenerations = []string{"allow_adult", "dont_allow", "allow_all"}
)

// GenerationRequest は1回のノード実行で受け取る生成パラメータです。
// APIKey は空でも構いません。その場合は環境変数から解決されます。
type GenerationRequest struct {
	Prompt           string
	Model            string
	AspectRatio      string
	Resolution       string
	NumImages        int
	PersonGeneration string
	APIKey           string
}

// WithDefaults はゼロ値のフィールドにノードの既定値を埋めたコピーを返します。
// Prompt と APIKey は補完しません。
func (r GenerationRequest) WithDefaults() GenerationRequest {
	if r.Model == "" {
		r.Model = DefaultModel
	}
	if r.AspectRatio == "" {
		r.AspectRatio = DefaultAspectRatio
	}
	if r.Resolution == "" {
		r.Resolution = DefaultResolution
	}
	if r.PersonGeneration == "" {
		r.PersonGeneration = DefaultPersonGeneration
	}
	if r.NumImages == 0 {
		r.NumImages = DefaultNumImages
	}
	return r
}

// Validate はホスト側の入力制約を改めて検証します。
// 列挙値は大文字小文字を含めて完全一致で比較します。
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return invalidParameter("prompt", "must not be empty")
	}
	if err := checkChoice("model", r.Model, Models); err != nil {
		return err
	}
	if err := checkChoice("aspect_ratio", r.AspectRatio, AspectRatios); err != nil {
		return err
	}
	if err := checkChoice("resolution", r.Resolution, Resolutions); err != nil {
		return err
	}
	if err := checkChoice("person_generation", r.PersonGeneration, PersonGenerations); err != nil {
		return err
	}
	if r.NumImages < MinNumImages || r.NumImages > MaxNumImages {
		return invalidParameter("num_images", fmt.Sprintf("must be between %d and %d, got %d", MinNumImages, MaxNumImages, r.NumImages))
	}
	return nil
}

func checkChoice(field, value string, choices []string) error {
	if lo.Contains(choices, value) {
		return nil
	}
	return invalidParameter(field, fmt.Sprintf("%q is not one of %s", value, strings.Join(choices, ", ")))
}

func invalidParameter(field, reason string) error {
	return &Error{
		Kind:    KindInvalidParameter,
		Message: fmt.Sprintf("invalid %s: %s", field, reason),
	}
}
