package request

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bookxchange/internal/auth"
	"github.com/MrJamesThe3rd/bookxchange/internal/exchange"
	"github.com/MrJamesThe3rd/bookxchange/internal/http/api"
	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

type Handler struct {
	svc *exchange.Service
}

func NewHandler(svc *exchange.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/{id}", h.get)
	r.Post("/{id}/accept", h.accept)
	r.Post("/{id}/reject", h.reject)
	r.Post("/{id}/cancel", h.cancel)
}

// party is who may act on a request.
type party int

const (
	owner party = iota
	requester
	either
)

// authorize loads the request and checks the caller is the given party. It
// writes the response itself when it returns false.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, who party) (uuid.UUID, *ledger.ExchangeRequest, bool) {
	caller, ok := api.Caller(w, r)
	if !ok {
		return uuid.Nil, nil, false
	}

	id, ok := api.IDParam(w, r)
	if !ok {
		return uuid.Nil, nil, false
	}

	req, err := h.svc.GetRequest(r.Context(), id)
	if err != nil {
		api.WriteError(w, r, err)
		return uuid.Nil, nil, false
	}

	if !allowed(caller, req, who) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return uuid.Nil, nil, false
	}

	return id, req, true
}

func allowed(caller auth.Identity, req *ledger.ExchangeRequest, who party) bool {
	switch who {
	case owner:
		return caller.ID == req.OwnerID
	case requester:
		return caller.ID == req.RequesterID
	}

	return caller.ID == req.OwnerID || caller.ID == req.RequesterID
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	_, req, ok := h.authorize(w, r, either)
	if !ok {
		return
	}

	api.WriteJSON(w, http.StatusOK, api.ToRequest(req))
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.authorize(w, r, owner)
	if !ok {
		return
	}

	rec, err := h.svc.AcceptRequest(r.Context(), id)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, api.ToRecord(rec))
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.authorize(w, r, owner)
	if !ok {
		return
	}

	if err := h.svc.RejectRequest(r.Context(), id); err != nil {
		api.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.authorize(w, r, requester)
	if !ok {
		return
	}

	if err := h.svc.CancelRequest(r.Context(), id); err != nil {
		api.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
