package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/bookxchange/internal/account"
	"github.com/MrJamesThe3rd/bookxchange/internal/http/api"
)

type Handler struct {
	svc *account.Service
}

func NewHandler(svc *account.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.register)
	r.Get("/me", h.me)
}

type registerRequest struct {
	DisplayName string `json:"display_name" validate:"max=64"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.Caller(w, r)
	if !ok {
		return
	}

	var req registerRequest
	if r.ContentLength != 0 && !api.Decode(w, r, &req) {
		return
	}

	name := req.DisplayName
	if name == "" {
		name = caller.Name
	}

	a, err := h.svc.Register(r.Context(), caller.ID, name)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, api.ToAccount(a))
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.Caller(w, r)
	if !ok {
		return
	}

	a, err := h.svc.Get(r.Context(), caller.ID)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, api.ToAccount(a))
}
