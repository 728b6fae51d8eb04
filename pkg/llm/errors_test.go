package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", 429, `{"error":"slow down"}`, ErrRateLimited},
		{"payment required", 402, ``, ErrQuotaExhausted},
		{"credit balance text", 400, `Your credit balance is too low to access the API`, ErrQuotaExhausted},
		{"quota text on 429", 429, `{"code":"insufficient_quota"}`, ErrQuotaExhausted},
		{"server error", 503, `overloaded`, ErrUnavailable},
		{"bad request", 400, `invalid model`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyStatus("test", tt.status, tt.body)
			assert.Error(t, err)
			if tt.want == nil {
				assert.False(t, errors.Is(err, ErrRateLimited))
				assert.False(t, errors.Is(err, ErrQuotaExhausted))
				assert.False(t, errors.Is(err, ErrUnavailable))
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, RoleAssistant, NormalizeRole("model"))
	assert.Equal(t, RoleUser, NormalizeRole(""))
	assert.Equal(t, RoleSystem, NormalizeRole("system"))
}
