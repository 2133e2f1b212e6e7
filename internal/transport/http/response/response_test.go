package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatherly/event-service/internal/domain"
)

func TestErr(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not_found",
			err:        domain.ErrNotFound("event missing"),
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "validation",
			err:        domain.ErrValidation("invalid name"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation_error",
		},
		{
			name:       "missing_fields",
			err:        domain.ErrMissingFields([]string{"location", "image"}),
			wantStatus: http.StatusBadRequest,
			wantCode:   "missing_fields",
		},
		{
			name:       "forbidden",
			err:        domain.ErrForbidden("no access"),
			wantStatus: http.StatusForbidden,
			wantCode:   "forbidden",
		},
		{
			name:       "invalid_state",
			err:        domain.ErrInvalidState("cancelled event cannot be public"),
			wantStatus: http.StatusConflict,
			wantCode:   "invalid_state",
		},
		{
			name:       "generation_exhausted",
			err:        domain.ErrGenerationExhausted(5),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "generation_exhausted",
		},
		{
			name:       "generic_error",
			err:        errors.New("db crash"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
			Err(rr, req, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)

			var body ErrorBody
			err := json.Unmarshal(rr.Body.Bytes(), &body)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestErr_MissingFieldsMeta(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "http://example.com", nil)
	Err(rr, req, domain.ErrMissingFields([]string{"location", "image"}))

	var body ErrorBody
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"location": "required", "image": "required"}, body.Error.Meta)
}

func TestErr_EchoesRequestID(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("X-Request-Id", "req-42")
	Err(rr, req, domain.ErrNotFound("nope"))

	var body ErrorBody
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "req-42", body.Error.RequestID)
}
