package inject

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/comrender/ComfyUI-Imagen-Gemini/internal/config"
	"github.com/comrender/ComfyUI-Imagen-Gemini/internal/logging"
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/adapters"
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/credential"
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/generator"
	"github.com/samber/do"
)

// Setup はコマンドで使う依存関係を登録した Injector を返します。
func Setup(ctx context.Context, cfg config.Config) *do.Injector {
	log := logging.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		},
	})
	do.ProvideValue[config.Config](injector, cfg)
	do.ProvideValue[*slog.Logger](injector, log)

	do.Provide[credential.Provider](injector, func(i *do.Injector) (credential.Provider, error) {
		key := do.MustInvoke[config.Config](i).GeminiAPIKey
		return credential.MapProvider{credential.EnvAPIKey: key}, nil
	})
	do.Provide[adapters.CredentialResolver](injector, func(i *do.Injector) (adapters.CredentialResolver, error) {
		return credential.NewResolver(do.MustInvoke[credential.Provider](i)), nil
	})
	do.Provide[generator.Predictor](injector, NewPredictor)
	do.Provide[adapters.BatchDecoder](injector, func(i *do.Injector) (adapters.BatchDecoder, error) {
		return adapters.NewResponseDecoder(do.MustInvoke[config.Config](i).SizePolicy, do.MustInvoke[*slog.Logger](i)), nil
	})
	do.Provide[adapters.ImageNode](injector, func(i *do.Injector) (adapters.ImageNode, error) {
		return adapters.NewImagenNode(
			do.MustInvoke[adapters.CredentialResolver](i),
			do.MustInvoke[generator.Predictor](i),
			do.MustInvoke[adapters.BatchDecoder](i),
			do.MustInvoke[*slog.Logger](i),
		)
	})

	return injector
}

// NewPredictor は IMAGEN_BACKEND に応じて REST か genai SDK の Predictor を返します。
func NewPredictor(i *do.Injector) (generator.Predictor, error) {
	cfg := do.MustInvoke[config.Config](i)
	opts := generator.Options{
		BaseURL:               cfg.GeminiBaseURL,
		APIVersion:            cfg.GeminiAPIVersion,
		SkipNetworkValidation: cfg.SkipNetworkValidation,
		Timeout:               cfg.RequestTimeout,
		Logger:                do.MustInvoke[*slog.Logger](i),
	}
	switch cfg.Backend {
	case config.BackendSDK:
		return generator.NewSDKClient(opts), nil
	case config.BackendREST, "":
		return generator.NewClient(opts), nil
	}
	return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
}
