package guidance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	t.Run("繰り返し呼んでもバイト単位で同一であること", func(t *testing.T) {
		first := Text()
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, Text())
		}
	})

	t.Run("ガイドの見出しから始まり末尾に改行がないこと", func(t *testing.T) {
		got := Text()
		assert.True(t, strings.HasPrefix(got, "# Imagen 4 Prompting Guidance\n"))
		assert.Contains(t, got, "Limit prompts to **480 tokens**")
		assert.Contains(t, got, "## Prompt Parameterization")
		assert.False(t, strings.HasSuffix(got, "\n"))
		assert.NotContains(t, got, "\r")
	})
}
