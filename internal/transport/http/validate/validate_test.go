package validate

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("decodes valid body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x"}`))
		var p payload
		assert.NoError(t, DecodeJSON(req, &p))
		assert.Equal(t, "x", p.Name)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x","bogus":1}`))
		var p payload
		assert.Error(t, DecodeJSON(req, &p))
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":`))
		var p payload
		assert.Error(t, DecodeJSON(req, &p))
	})
}

func TestIsUUID(t *testing.T) {
	assert.True(t, IsUUID("7c9e6679-7425-40de-944b-e07fc1f90ae7"))
	assert.False(t, IsUUID("not-a-uuid"))
	assert.False(t, IsUUID(""))
}
