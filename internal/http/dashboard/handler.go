package dashboard

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/bookxchange/internal/export"
	"github.com/MrJamesThe3rd/bookxchange/internal/http/api"
	"github.com/MrJamesThe3rd/bookxchange/internal/readmodel"
)

type Handler struct {
	reads   *readmodel.Service
	exports *export.Service
}

func NewHandler(reads *readmodel.Service, exports *export.Service) *Handler {
	return &Handler{reads: reads, exports: exports}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/books", h.books)
	r.Get("/purchases", h.purchases)
	r.Get("/sales", h.sales)
	r.Get("/transactions", h.transactions)
	r.Get("/exchanges", h.exchanges)
	r.Get("/statement", h.statement)
	r.Get("/statement.zip", h.statementZip)
}

func (h *Handler) books(w http.ResponseWriter, r *http.Request) {
	h.byUser(w, r, readmodel.SideSeller)
}

func (h *Handler) purchases(w http.ResponseWriter, r *http.Request) {
	h.byUser(w, r, readmodel.SideBuyer)
}

func (h *Handler) byUser(w http.ResponseWriter, r *http.Request, side readmodel.Side) {
	caller, ok := api.Caller(w, r)
	if !ok {
		return
	}

	items, err := h.reads.ListByUser(r.Context(), caller.ID, side)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	if side == readmodel.SideSeller {
		api.WriteJSON(w, http.StatusOK, api.List(items.Books, api.ToBook))
		return
	}

	api.WriteJSON(w, http.StatusOK, api.List(items.Records, api.ToRecord))
}

func (h *Handler) sales(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.Caller(w, r)
	if !ok {
		return
	}

	api.WriteJSON(w, http.StatusOK, api.List(h.reads.Sales(r.Context(), caller.ID), api.ToRecord))
}

func (h *Handler) transactions(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.Caller(w, r)
	if !ok {
		return
	}

	api.WriteJSON(w, http.StatusOK, api.List(h.reads.ListTransactions(r.Context(), caller.ID), api.ToRecord))
}

type exchangesResponse struct {
	Incoming []api.RequestResponse `json:"incoming"`
	Outgoing []api.RequestResponse `json:"outgoing"`
}

func (h *Handler) exchanges(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.Caller(w, r)
	if !ok {
		return
	}

	ex := h.reads.UserExchanges(r.Context(), caller.ID)

	api.WriteJSON(w, http.StatusOK, exchangesResponse{
		Incoming: api.List(ex.Incoming, api.ToRequest),
		Outgoing: api.List(ex.Outgoing, api.ToRequest),
	})
}

// parseFilter reads the optional from/to query parameters. to is inclusive
// of the whole day.
func parseFilter(r *http.Request) (export.Filter, error) {
	var f export.Filter

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return f, fmt.Errorf("invalid from date: %w", err)
		}

		f.Start = &t
	}

	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return f, fmt.Errorf("invalid to date: %w", err)
		}

		f.End = new(t.AddDate(0, 0, 1))
	}

	return f, nil
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.Caller(w, r)
	if !ok {
		return
	}

	f, err := parseFilter(r)
	if err != nil {
		api.BadRequest(w, err.Error())
		return
	}

	lines, err := h.exports.Statement(r.Context(), caller.ID, f)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"statement_%s.csv\"", time.Now().Format("20060102")))

	if err := export.WriteCSV(w, lines); err != nil {
		slog.Error("failed to write statement", "error", err)
	}
}

func (h *Handler) statementZip(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.Caller(w, r)
	if !ok {
		return
	}

	f, err := parseFilter(r)
	if err != nil {
		api.BadRequest(w, err.Error())
		return
	}

	lines, err := h.exports.Statement(r.Context(), caller.ID, f)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	tmpDir, err := os.MkdirTemp("", "bookxchange-statement-*")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tmpDir)

	if err := writeStatementFiles(tmpDir, lines); err != nil {
		slog.Error("failed to write statement files", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"statement_%s.zip\"", time.Now().Format("20060102")))

	if err := zipDir(w, tmpDir); err != nil {
		slog.Error("failed to create zip", "error", err)
	}
}

func writeStatementFiles(dir string, lines []export.Line) error {
	f, err := os.Create(filepath.Join(dir, "statement.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := export.WriteCSV(f, lines); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "summary.txt"), []byte(export.Summary(lines)), 0o644)
}

func zipDir(w io.Writer, dir string) error {
	zipWriter := zip.NewWriter(w)
	defer zipWriter.Close()

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		relPath, _ := filepath.Rel(dir, path)

		zf, err := zipWriter.Create(filepath.ToSlash(relPath))
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(zf, f)

		return err
	})
}
