package adapters

import (
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/domain"
	"github.com/samber/lo"
)

// NodeID はホストに登録するノードの内部識別子です。
const NodeID = "ImagenGemini"

// InputSpec はノード入力1件の定義です。
type InputSpec struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Choices   []string `json:"choices,omitempty"`
	Default   any      `json:"default"`
	Min       *int     `json:"min,omitempty"`
	Max       *int     `json:"max,omitempty"`
	Step      *int     `json:"step,omitempty"`
	Multiline bool     `json:"multiline,omitempty"`
}

// NodeDescriptor はホストがノードを登録するための記述子です。
type NodeDescriptor struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Category    string      `json:"category"`
	Function    string      `json:"function"`
	OutputNode  bool        `json:"output_node"`
	Inputs      []InputSpec `json:"inputs"`
	ReturnTypes []string    `json:"return_types"`
	ReturnNames []string    `json:"return_names"`
}

// Descriptor は ImagenNode の記述子を返します。
func Descriptor() NodeDescriptor {
	return NodeDescriptor{
		ID:          NodeID,
		DisplayName: "Imagen Gemini",
		Category:    NodeID,
		Function:    "process",
		OutputNode:  true,
		Inputs: []InputSpec{
			{Name: "prompt", Type: "STRING", Default: domain.DefaultPrompt, Multiline: true},
			{Name: "model", Type: "COMBO", Choices: domain.Models, Default: domain.DefaultModel},
			{Name: "gemini_api_key", Type: "STRING", Default: ""},
			{Name: "aspect_ratio", Type: "COMBO", Choices: domain.AspectRatios, Default: domain.DefaultAspectRatio},
			{Name: "resolution", Type: "COMBO", Choices: domain.Resolutions, Default: domain.DefaultResolution},
			{
				Name:    "num_images",
				Type:    "INT",
				Default: domain.DefaultNumImages,
				Min:     lo.ToPtr(domain.MinNumImages),
				Max:     lo.ToPtr(domain.MaxNumImages),
				Step:    lo.ToPtr(1),
			},
			{Name: "person_generation", Type: "COMBO", Choices: domain.PersonGenerations, Default: domain.DefaultPersonGeneration},
		},
		ReturnTypes: []string{"IMAGE", "STRING"},
		ReturnNames: []string{"images", "guidance"},
	}
}

// DisplayNames は内部識別子から表示名への対応表です。
func DisplayNames() map[string]string {
	d := Descriptor()
	return map[string]string{d.ID: d.DisplayName}
}
