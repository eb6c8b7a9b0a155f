package domain

import "encoding/json"

// PredictRequest は :predict エンドポイントに送るリクエストボディです。
type PredictRequest struct {
	Instances  []PredictInstance `json:"instances"`
	Parameters PredictParameters `json:"parameters"`
}

// PredictInstance は生成単位です。このノードでは常に1件だけ送ります。
type PredictInstance struct {
	Prompt string `json:"prompt"`
}

// PredictParameters は生成パラメータです。値は加工せずにそのまま送ります。
type PredictParameters struct {
	SampleCount      int    `json:"sampleCount"`
	AspectRatio      string `json:"aspectRatio"`
	SampleImageSize  string `json:"sampleImageSize"`
	PersonGeneration string `json:"personGeneration"`
}

// PredictResponse は :predict の成功レスポンスです。
// Raw には診断用に受信したボディをそのまま保持します。
type PredictResponse struct {
	Predictions []Prediction    `json:"predictions"`
	Raw         json.RawMessage `json:"-"`
}

// Prediction は生成された画像1件です。
// 安全フィルターで除外された場合は BytesBase64Encoded が空になり RAIFilteredReason が入ります。
type Prediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded,omitempty"`
	MimeType           string `json:"mimeType,omitempty"`
	RAIFilteredReason  string `json:"raiFilteredReason,omitempty"`
}
