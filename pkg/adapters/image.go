package adapters

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/domain"
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/generator"
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/guidance"
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/imgutil"
)

// ImageNode はホストから1回の実行ごとに呼ばれるノードの口です。
type ImageNode interface {
	Process(ctx context.Context, req domain.GenerationRequest) (*imgutil.Batch, string, error)
}

// CredentialResolver は API キーを決定します。
type CredentialResolver interface {
	Resolve(explicit string) (string, error)
}

// BatchDecoder は応答を画像バッチに変換します。
type BatchDecoder interface {
	Decode(ctx context.Context, resp *domain.PredictResponse) (*imgutil.Batch, error)
}

// ImagenNode は Imagen の :predict をホストの IMAGE 出力につなぐアダプターです。
// 状態を持たないため、1つのインスタンスを何度呼び出しても構いません。
type ImagenNode struct {
	resolver  CredentialResolver
	predictor generator.Predictor
	decoder   BatchDecoder
	logger    *slog.Logger
}

// NewImagenNode は依存関係を注入して ImagenNode を初期化します。
func NewImagenNode(resolver CredentialResolver, predictor generator.Predictor, decoder BatchDecoder, logger *slog.Logger) (*ImagenNode, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if predictor == nil {
		return nil, fmt.Errorf("predictor is required")
	}
	if decoder == nil {
		return nil, fmt.Errorf("decoder is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &ImagenNode{
		resolver:  resolver,
		predictor: predictor,
		decoder:   decoder,
		logger:    logger,
	}, nil
}

// Process はキー解決、ペイロード構築、API 呼び出し、デコードを順に行い、
// 画像バッチとプロンプトガイドを返します。途中のエラーは種別を保ったまま返します。
func (n *ImagenNode) Process(ctx context.Context, req domain.GenerationRequest) (*imgutil.Batch, string, error) {
	req = req.WithDefaults()

	apiKey, err := n.resolver.Resolve(req.APIKey)
	if err != nil {
		return nil, "", n.fail(ctx, req, err)
	}

	if err := req.Validate(); err != nil {
		return nil, "", n.fail(ctx, req, err)
	}

	resp, err := n.predictor.Predict(ctx, req.Model, apiKey, generator.BuildPayload(req))
	if err != nil {
		return nil, "", n.fail(ctx, req, err)
	}

	batch, err := n.decoder.Decode(ctx, resp)
	if err != nil {
		return nil, "", n.fail(ctx, req, err)
	}

	n.logger.InfoContext(ctx, "Imagen 画像生成が完了しました",
		"model", req.Model, "requested", req.NumImages, "shape", batch.Shape())

	return batch, guidance.Text(), nil
}

func (n *ImagenNode) fail(ctx context.Context, req domain.GenerationRequest, err error) error {
	n.logger.ErrorContext(ctx, "Imagen 画像生成に失敗しました",
		"model", req.Model, "kind", domain.KindOf(err), "error", err)
	return err
}
