package book

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/bookxchange/internal/approval"
	"github.com/MrJamesThe3rd/bookxchange/internal/catalog"
	"github.com/MrJamesThe3rd/bookxchange/internal/exchange"
	"github.com/MrJamesThe3rd/bookxchange/internal/http/api"
	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
	"github.com/MrJamesThe3rd/bookxchange/internal/readmodel"
)

const maxUploadSize = 10 << 20

type Handler struct {
	approvals *approval.Service
	catalog   *catalog.Service
	exchange  *exchange.Service
	reads     *readmodel.Service
}

func NewHandler(approvals *approval.Service, cat *catalog.Service, ex *exchange.Service, reads *readmodel.Service) *Handler {
	return &Handler{
		approvals: approvals,
		catalog:   cat,
		exchange:  ex,
		reads:     reads,
	}
}

// PublicRoutes need no identity.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/", h.browse)
	r.Get("/{id}", h.get)
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.submit)
	r.Post("/import", h.importCSV)
	r.Post("/{id}/purchase", h.purchase)
	r.Post("/{id}/requests", h.createRequest)
}

func (h *Handler) browse(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, api.List(h.reads.Browse(r.Context()), api.ToBook))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := api.IDParam(w, r)
	if !ok {
		return
	}

	b, err := h.reads.Book(r.Context(), id)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, api.ToBook(b))
}

type submitRequest struct {
	ISBN        string           `json:"isbn"`
	Title       string           `json:"title"`
	Authors     []string         `json:"authors"`
	Description string           `json:"description" validate:"max=4000"`
	Condition   ledger.Condition `json:"condition"`
	CoverURL    string           `json:"cover_url" validate:"omitempty,url"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.Caller(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if !api.Decode(w, r, &req) {
		return
	}

	b, err := h.approvals.SubmitListing(r.Context(), catalog.Listing{
		SellerID:    caller.ID,
		ISBN:        req.ISBN,
		Title:       req.Title,
		Authors:     req.Authors,
		Description: req.Description,
		Condition:   req.Condition,
		CoverURL:    req.CoverURL,
	})
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, api.ToBook(b))
}

type rowErrorResponse struct {
	Line  int    `json:"line"`
	Title string `json:"title"`
	Error string `json:"error"`
}

type importResponse struct {
	Imported int                `json:"imported"`
	Books    []api.BookResponse `json:"books"`
	Failed   []rowErrorResponse `json:"failed"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.Caller(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		api.BadRequest(w, "failed to parse form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		api.BadRequest(w, "file field is required")
		return
	}
	defer file.Close()

	res, err := h.catalog.Import(r.Context(), caller.ID, file)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	failed := make([]rowErrorResponse, 0, len(res.Failed))
	for _, f := range res.Failed {
		failed = append(failed, rowErrorResponse{Line: f.Line, Title: f.Title, Error: f.Err.Error()})
	}

	status := http.StatusCreated
	if len(res.Created) == 0 && len(failed) > 0 {
		status = http.StatusUnprocessableEntity
	}

	api.WriteJSON(w, status, importResponse{
		Imported: len(res.Created),
		Books:    api.List(res.Created, api.ToBook),
		Failed:   failed,
	})
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.Caller(w, r)
	if !ok {
		return
	}

	id, ok := api.IDParam(w, r)
	if !ok {
		return
	}

	rec, err := h.exchange.Purchase(r.Context(), id, caller.ID, caller.Name)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, api.ToRecord(rec))
}

type createRequestRequest struct {
	// Credits is the price the requester offers to pay. Defaults to the listed price.
	Credits *int64 `json:"credits,omitempty" validate:"omitempty,gte=0"`
}

type createRequestResponse struct {
	ID string `json:"id"`
}

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.Caller(w, r)
	if !ok {
		return
	}

	id, ok := api.IDParam(w, r)
	if !ok {
		return
	}

	var req createRequestRequest
	if r.ContentLength != 0 && !api.Decode(w, r, &req) {
		return
	}

	var price int64
	if req.Credits != nil {
		price = *req.Credits
	} else {
		b, err := h.reads.Book(r.Context(), id)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		price = b.Credits
	}

	reqID, err := h.exchange.CreateRequest(r.Context(), id, caller.ID, caller.Name, price)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, createRequestResponse{ID: reqID.String()})
}
