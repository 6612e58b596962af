package api_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/bookxchange/internal/http/api"
	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
		wantMsg    string
	}{
		{"InvalidInput", fmt.Errorf("price: %w", ledger.ErrInvalidInput), http.StatusBadRequest, "invalid_input", "price: invalid input"},
		{"AccountNotFound", ledger.ErrAccountNotFound, http.StatusNotFound, "account_not_found", "account not found"},
		{"BookUnavailable", ledger.ErrBookUnavailable, http.StatusConflict, "book_unavailable", "book unavailable"},
		{"InvalidState", ledger.ErrInvalidState, http.StatusConflict, "invalid_state", "invalid state"},
		{"Conflict", ledger.ErrConflict, http.StatusServiceUnavailable, "conflict", "concurrent modification conflict"},
		{"Internal", errors.New("connection reset"), http.StatusInternalServerError, "internal", "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			api.WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantKind, body["error"])
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}

func TestWriteError_InsufficientCredits(t *testing.T) {
	rec := httptest.NewRecorder()
	err := fmt.Errorf("purchase: %w", &ledger.InsufficientCreditsError{Required: 105, Available: 100})

	api.WriteError(rec, httptest.NewRequest(http.MethodPost, "/", nil), err)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.EqualValues(t, 105, body["required"])
	assert.EqualValues(t, 100, body["available"])
	assert.EqualValues(t, 5, body["shortfall"])
}

func TestWriteError_ConflictSetsRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	api.WriteError(rec, httptest.NewRequest(http.MethodPost, "/", nil), ledger.ErrConflict)

	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

type payload struct {
	Name    string `json:"name" validate:"max=5"`
	Credits int64  `json:"credits" validate:"required,gt=0"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantOK  bool
		wantMsg string
	}{
		{"Valid", `{"name":"bob","credits":3}`, true, ""},
		{"Malformed", `{"name":`, false, "invalid request body"},
		{"MissingCredits", `{"name":"bob"}`, false, "credits is required"},
		{"NameTooLong", `{"name":"bartholomew","credits":1}`, false, "name must satisfy max=5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var p payload
			ok := api.Decode(rec, req, &p)

			assert.Equal(t, tt.wantOK, ok)

			if tt.wantOK {
				assert.Equal(t, "bob", p.Name)
				return
			}

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
		})
	}
}
