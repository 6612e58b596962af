// Package api holds what every v1 handler shares: JSON encoding, the mapping
// from ledger error kinds to HTTP status codes, and the response shapes.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bookxchange/internal/auth"
	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Required  *int64 `json:"required,omitempty"`
	Available *int64 `json:"available,omitempty"`
	Shortfall *int64 `json:"shortfall,omitempty"`
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind ledger.Kind) int {
	switch kind {
	case ledger.KindInvalidInput:
		return http.StatusBadRequest
	case ledger.KindNotFound, ledger.KindAccountNotFound, ledger.KindRequestNotFound:
		return http.StatusNotFound
	case ledger.KindBookUnavailable, ledger.KindInvalidState:
		return http.StatusConflict
	case ledger.KindInsufficientCredits:
		return http.StatusUnprocessableEntity
	case ledger.KindConflict:
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

// WriteError classifies err and writes it. Internal errors are logged and
// their message is not exposed.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := ledger.KindOf(err)
	status := StatusOf(kind)

	resp := errorResponse{Error: kind.String(), Message: err.Error()}

	var ice *ledger.InsufficientCreditsError
	if errors.As(err, &ice) {
		resp.Required = new(ice.Required)
		resp.Available = new(ice.Available)
		resp.Shortfall = new(ice.Shortfall())
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		resp.Message = "internal error"
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}

	WriteJSON(w, status, resp)
}

// BadRequest writes a plain invalid_input error.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusBadRequest, errorResponse{Error: ledger.KindInvalidInput.String(), Message: msg})
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// Decode reads a JSON body into v and checks its validate tags.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "invalid request body: "+err.Error())
		return false
	}

	if err := validate.Struct(v); err != nil {
		BadRequest(w, "invalid request body: "+validationMessage(err))
		return false
	}

	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}

		msgs = append(msgs, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
	}

	return strings.Join(msgs, "; ")
}

// IDParam parses the {id} path parameter as a uuid.
func IDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		BadRequest(w, "invalid id")
		return uuid.Nil, false
	}

	return id, true
}

// Caller returns the authenticated identity. Routes using it sit behind auth.Middleware.
func Caller(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing token", http.StatusUnauthorized)
	}

	return id, ok
}
