package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/imgutil"
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/utils"
)

// Predictor の実装を選ぶ IMAGEN_BACKEND の値です。
const (
	BackendREST = "rest"
	BackendSDK  = "sdk"
)

// Config は環境変数から読み込んだコマンドの設定です。
type Config struct {
	GeminiAPIKey     string
	GeminiBaseURL    string
	GeminiAPIVersion string
	// SkipNetworkValidation はプライベートアドレスの GEMINI_BASE_URL を許可します。
	SkipNetworkValidation bool

	Backend        string
	RequestTimeout time.Duration
	SizePolicy     imgutil.SizePolicy

	LogLevel  string
	LogFormat string
}

// Load は環境変数から設定を読み込みます。API キーは必須ではありません。
func Load() (Config, error) {
	cfg := Config{
		GeminiAPIKey:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIVersion:      getEnv("GEMINI_API_VERSION", "v1beta"),
		SkipNetworkValidation: getEnvBool("IMAGEN_SKIP_NETWORK_VALIDATION", false),
		Backend:               strings.ToLower(getEnv("IMAGEN_BACKEND", BackendREST)),
		RequestTimeout:        time.Duration(getEnvInt("IMAGEN_TIMEOUT_SECONDS", 120)) * time.Second,
		LogLevel:              strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:             strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	policy, err := imgutil.ParseSizePolicy(os.Getenv("IMAGEN_SIZE_POLICY"))
	if err != nil {
		return Config{}, fmt.Errorf("IMAGEN_SIZE_POLICY: %w", err)
	}
	cfg.SizePolicy = policy

	switch cfg.Backend {
	case BackendREST, BackendSDK:
	default:
		return Config{}, fmt.Errorf("IMAGEN_BACKEND must be %q or %q, got %q", BackendREST, BackendSDK, cfg.Backend)
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 120 * time.Second
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	return utils.FirstNonBlank(os.Getenv(key), fallback)
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return parsed
}
