package inject

import (
	"context"
	"testing"
	"time"

	"github.com/comrender/ComfyUI-Imagen-Gemini/internal/config"
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/adapters"
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/credential"
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/domain"
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/generator"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() config.Config {
	return config.Config{
		GeminiBaseURL:    "https://generativelanguage.googleapis.com",
		GeminiAPIVersion: "v1beta",
		Backend:          config.BackendREST,
		RequestTimeout:   time.Minute,
	}
}

func TestSetup(t *testing.T) {
	t.Run("ノードを組み立てられる", func(t *testing.T) {
		injector := Setup(context.Background(), baseConfig())

		node, err := do.Invoke[adapters.ImageNode](injector)

		require.NoError(t, err)
		assert.NotNil(t, node)
	})

	t.Run("バックエンド設定で Predictor が切り替わる", func(t *testing.T) {
		rest := do.MustInvoke[generator.Predictor](Setup(context.Background(), baseConfig()))
		assert.IsType(t, &generator.Client{}, rest)

		cfg := baseConfig()
		cfg.Backend = config.BackendSDK
		sdk := do.MustInvoke[generator.Predictor](Setup(context.Background(), cfg))
		assert.IsType(t, &generator.SDKClient{}, sdk)
	})

	t.Run("設定の API キーが資格情報の既定値になる", func(t *testing.T) {
		cfg := baseConfig()
		cfg.GeminiAPIKey = "from-config"
		resolver := do.MustInvoke[adapters.CredentialResolver](Setup(context.Background(), cfg))

		key, err := resolver.Resolve("")

		require.NoError(t, err)
		assert.Equal(t, "from-config", key)
	})

	t.Run("キーが無ければ通信前に失敗する", func(t *testing.T) {
		node := do.MustInvoke[adapters.ImageNode](Setup(context.Background(), baseConfig()))

		_, _, err := node.Process(context.Background(), domain.GenerationRequest{Prompt: "p"})

		assert.ErrorIs(t, err, domain.ErrMissingCredential)
		assert.Contains(t, err.Error(), credential.EnvAPIKey)
	})
}
