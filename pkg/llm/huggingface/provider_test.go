package huggingface

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"sponsor-advisor-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat_ReturnsFirstChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("secret", srv.URL, "some-model")
	out, err := p.Generate(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestChat_QuotaExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"You have exceeded your monthly included credits"}}`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("secret", srv.URL, "some-model")
	_, err := p.Generate(context.Background(), "ping")
	assert.ErrorIs(t, err, llm.ErrQuotaExhausted)
}
