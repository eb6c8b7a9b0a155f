package credential

import (
	"testing"

	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	t.Run("明示キーが空なら環境の値を使う", func(t *testing.T) {
		r := NewResolver(MapProvider{EnvAPIKey: "X"})

		key, err := r.Resolve("")

		require.NoError(t, err)
		assert.Equal(t, "X", key)
	})

	t.Run("明示キーは環境の値より優先される", func(t *testing.T) {
		r := NewResolver(MapProvider{EnvAPIKey: "from-env"})

		key, err := r.Resolve("  from-ui ")

		require.NoError(t, err)
		assert.Equal(t, "from-ui", key)
	})

	t.Run("空白だけの明示キーは未指定として扱う", func(t *testing.T) {
		r := NewResolver(MapProvider{EnvAPIKey: "from-env"})

		key, err := r.Resolve(" \t ")

		require.NoError(t, err)
		assert.Equal(t, "from-env", key)
	})

	t.Run("どちらもなければ MissingCredential", func(t *testing.T) {
		for _, p := range []Provider{MapProvider{}, MapProvider{EnvAPIKey: "   "}} {
			key, err := NewResolver(p).Resolve("")

			assert.Empty(t, key)
			assert.ErrorIs(t, err, domain.ErrMissingCredential)
			assert.Contains(t, err.Error(), EnvAPIKey)
		}
	})

	t.Run("nil の Provider は環境変数を参照する", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "env-key")

		key, err := NewResolver(nil).Resolve("")

		require.NoError(t, err)
		assert.Equal(t, "env-key", key)
	})
}
