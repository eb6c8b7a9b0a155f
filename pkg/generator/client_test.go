package generator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/domain"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload() domain.PredictRequest {
	return BuildPayload(domain.GenerationRequest{
		Prompt:           "cat astronaut",
		AspectRatio:      "1:1",
		Resolution:       "1K",
		NumImages:        2,
		PersonGeneration: "allow_adult",
	})
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL + "/", HTTPClient: srv.Client()})
}

func TestClient_Predict(t *testing.T) {
	ctx := context.Background()

	t.Run("成功: リクエストの形式とレスポンスの解析", func(t *testing.T) {
		var gotPath, gotKey, gotContentType string
		var gotBody map[string]any
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotKey = r.URL.Query().Get("key")
			gotContentType = r.Header.Get("Content-Type")
			assert.Equal(t, http.MethodPost, r.Method)
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, &gotBody)
			_, _ = io.WriteString(w, `{"predictions":[{"bytesBase64Encoded":"AAA=","mimeType":"image/png"},{"raiFilteredReason":"blocked"}]}`)
		})

		resp, err := client.Predict(ctx, domain.ModelImagen4, "k-123", samplePayload())

		require.NoError(t, err)
		assert.Equal(t, "/v1beta/models/imagen-4.0-generate-001:predict", gotPath)
		assert.Equal(t, "k-123", gotKey)
		assert.Equal(t, "application/json", gotContentType)
		assert.Equal(t, "cat astronaut", gotBody["instances"].([]any)[0].(map[string]any)["prompt"])
		assert.EqualValues(t, 2, gotBody["parameters"].(map[string]any)["sampleCount"])

		require.Len(t, resp.Predictions, 2)
		assert.Equal(t, "AAA=", resp.Predictions[0].BytesBase64Encoded)
		assert.Equal(t, "image/png", resp.Predictions[0].MimeType)
		assert.Equal(t, "blocked", resp.Predictions[1].RAIFilteredReason)
		assert.Contains(t, string(resp.Raw), "raiFilteredReason")
	})

	t.Run("失敗: 429 は ApiHttpError で生ボディを含む", func(t *testing.T) {
		body := `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, body+"\n")
		})

		resp, err := client.Predict(ctx, domain.ModelImagen4, "k", samplePayload())

		assert.Nil(t, resp)
		require.ErrorIs(t, err, domain.ErrAPIHTTP)
		var de *domain.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, http.StatusTooManyRequests, de.StatusCode)
		assert.Equal(t, body, de.Body)
		assert.Contains(t, err.Error(), "Resource has been exhausted")
	})

	t.Run("失敗: 長いマルチバイトのエラーボディも省略せず壊さずに返す", func(t *testing.T) {
		body := `{"error":{"message":"` + strings.Repeat("あ", 3000) + `"}}`
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, body)
		})

		_, err := client.Predict(ctx, domain.ModelImagen4, "k", samplePayload())

		require.ErrorIs(t, err, domain.ErrAPIHTTP)
		assert.True(t, utf8.ValidString(err.Error()))
		assert.Contains(t, err.Error(), body)
	})

	t.Run("失敗: 200 でも JSON でなければ MalformedResponse", func(t *testing.T) {
		for _, body := range []string{"<html>oops</html>", "", "[]", "null", `{"predictions": "nope"}`} {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			})

			_, err := client.Predict(ctx, domain.ModelImagen4, "k", samplePayload())

			assert.ErrorIs(t, err, domain.ErrMalformedResponse, "body %q", body)
		}
	})

	t.Run("成功: predictions が無いオブジェクトは空の応答として返す", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{}`)
		})

		resp, err := client.Predict(ctx, domain.ModelImagen4, "k", samplePayload())

		require.NoError(t, err)
		assert.Empty(t, resp.Predictions)
		assert.JSONEq(t, `{}`, string(resp.Raw))
	})

	t.Run("失敗: タイムアウトは TransportTimeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(srv.Close)
		t.Cleanup(func() { close(release) })
		client := NewClient(Options{BaseURL: srv.URL, SkipNetworkValidation: true, Timeout: 50 * time.Millisecond})

		_, err := client.Predict(ctx, domain.ModelImagen4, "k", samplePayload())

		require.ErrorIs(t, err, domain.ErrTransportTimeout)
		assert.Contains(t, err.Error(), "timed out")
	})

	t.Run("失敗: 接続できなければ Transport でキーを漏らさない", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		addr := srv.URL
		srv.Close()
		client := NewClient(Options{BaseURL: addr, SkipNetworkValidation: true, Timeout: 5 * time.Second})

		_, err := client.Predict(ctx, domain.ModelImagen4, "super-secret-key", samplePayload())

		require.ErrorIs(t, err, domain.ErrTransport)
		assert.NotErrorIs(t, err, domain.ErrTransportTimeout)
		assert.NotContains(t, err.Error(), "super-secret-key")
		assert.Contains(t, err.Error(), ":predict")
	})

	t.Run("失敗: 既定のクライアントはループバックへ接続しない", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			_, _ = io.WriteString(w, `{"predictions":[]}`)
		}))
		t.Cleanup(srv.Close)
		client := NewClient(Options{BaseURL: srv.URL, Timeout: 5 * time.Second})

		_, err := client.Predict(ctx, domain.ModelImagen4, "super-secret-key", samplePayload())

		require.ErrorIs(t, err, domain.ErrTransport)
		assert.NotContains(t, err.Error(), "super-secret-key")
		assert.Zero(t, hits.Load())
	})
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Options{})

	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/models/imagen-3.0-generate-002:predict", c.Endpoint(domain.ModelImagen3))
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.IsType(t, &httpkit.Client{}, c.httpClient)
	assert.Zero(t, c.httpClient.(*httpkit.Client).RetryConfig.MaxRetries)
}

func TestTruncate(t *testing.T) {
	t.Run("上限以内ならそのまま", func(t *testing.T) {
		assert.Equal(t, "abc", truncate("abc", 3))
	})

	t.Run("上限を超えたら切り詰める", func(t *testing.T) {
		assert.Equal(t, "abc...(truncated)", truncate("abcdef", 3))
	})

	t.Run("マルチバイト文字の途中では切らない", func(t *testing.T) {
		got := truncate("xあい", 5)
		assert.Equal(t, "xあ...(truncated)", got)
		assert.True(t, utf8.ValidString(got))
	})
}
