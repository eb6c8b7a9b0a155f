package credential

import (
	"os"

	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/domain"
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/utils"
)

// EnvAPIKey は UI で鍵が指定されなかった場合に参照する環境変数名です。
const EnvAPIKey = "GEMINI_API_KEY"

// Provider はプロセス全体の設定値を参照する口です。
type Provider interface {
	Lookup(key string) (string, bool)
}

// EnvProvider は環境変数から値を引きます。
type EnvProvider struct{}

// Lookup は os.LookupEnv と同じです。
func (EnvProvider) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapProvider は固定のマップから値を引きます。テストや組み込みホスト向けです。
type MapProvider map[string]string

// Lookup はマップにキーがあればその値を返します。
func (m MapProvider) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Resolver は API キーを決定します。
type Resolver struct {
	provider Provider
}

// NewResolver は Provider を注入して Resolver を作ります。nil なら環境変数を使います。
func NewResolver(provider Provider) *Resolver {
	if provider == nil {
		provider = EnvProvider{}
	}
	return &Resolver{provider: provider}
}

// Resolve は明示されたキーを優先し、空なら GEMINI_API_KEY を使います。
// どちらも空白のみの場合は MissingCredential を返します。
func (r *Resolver) Resolve(explicit string) (string, error) {
	fallback, _ := r.provider.Lookup(EnvAPIKey)
	if key := utils.FirstNonBlank(explicit, fallback); key != "" {
		return key, nil
	}
	return "", &domain.Error{
		Kind:    domain.KindMissingCredential,
		Message: "please provide a valid Google Gemini API key via the node input or the " + EnvAPIKey + " environment variable",
	}
}
