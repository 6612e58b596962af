package admin

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/bookxchange/internal/account"
	"github.com/MrJamesThe3rd/bookxchange/internal/approval"
	"github.com/MrJamesThe3rd/bookxchange/internal/http/api"
	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
	"github.com/MrJamesThe3rd/bookxchange/internal/readmodel"
)

type Handler struct {
	approvals *approval.Service
	accounts  *account.Service
	reads     *readmodel.Service
}

func NewHandler(approvals *approval.Service, accounts *account.Service, reads *readmodel.Service) *Handler {
	return &Handler{
		approvals: approvals,
		accounts:  accounts,
		reads:     reads,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/pending", h.pending)
	r.Get("/stats", h.stats)
	r.Get("/transactions", h.transactions)
	r.Get("/requests", h.requests)
	r.Get("/accounts", h.listAccounts)
	r.Patch("/accounts/{id}/role", h.setRole)
	r.Post("/books/{id}/approve", h.approve)
	r.Post("/books/{id}/reject", h.reject)
}

func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, api.List(h.reads.ListPending(r.Context()), api.ToBook))
}

type statsResponse struct {
	Users        int64 `json:"users"`
	Books        int64 `json:"books"`
	Transactions int64 `json:"transactions"`
	Requests     int64 `json:"requests"`
	Revenue      int64 `json:"revenue"`
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	s := h.reads.GetStats(r.Context())

	api.WriteJSON(w, http.StatusOK, statsResponse{
		Users:        s.Users,
		Books:        s.Books,
		Transactions: s.Transactions,
		Requests:     s.Requests,
		Revenue:      s.Revenue,
	})
}

// limit reads the limit query parameter. Zero lets the read model apply its default.
func limit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, true
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		api.BadRequest(w, "invalid limit")
		return 0, false
	}

	return n, true
}

func (h *Handler) transactions(w http.ResponseWriter, r *http.Request) {
	n, ok := limit(w, r)
	if !ok {
		return
	}

	api.WriteJSON(w, http.StatusOK, api.List(h.reads.RecentTransactions(r.Context(), n), api.ToRecord))
}

func (h *Handler) requests(w http.ResponseWriter, r *http.Request) {
	n, ok := limit(w, r)
	if !ok {
		return
	}

	api.WriteJSON(w, http.StatusOK, api.List(h.reads.RecentRequests(r.Context(), n), api.ToRequest))
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	n, ok := limit(w, r)
	if !ok {
		return
	}

	api.WriteJSON(w, http.StatusOK, api.List(h.reads.ListAccounts(r.Context(), n), api.ToAccount))
}

type roleRequest struct {
	Role ledger.Role `json:"role" validate:"required"`
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !api.Decode(w, r, &req) {
		return
	}

	if err := h.accounts.SetRole(r.Context(), chi.URLParam(r, "id"), req.Role); err != nil {
		api.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type approveRequest struct {
	Credits int64 `json:"credits" validate:"required,gt=0"`
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := api.IDParam(w, r)
	if !ok {
		return
	}

	var req approveRequest
	if !api.Decode(w, r, &req) {
		return
	}

	b, err := h.reads.Book(r.Context(), id)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	if err := h.approvals.ApproveListing(r.Context(), id, b.SellerID, req.Credits); err != nil {
		api.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := api.IDParam(w, r)
	if !ok {
		return
	}

	if err := h.approvals.RejectListing(r.Context(), id); err != nil {
		api.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
