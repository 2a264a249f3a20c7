// Package api exposes the document and page-operation services over HTTP.
// All endpoints speak JSON; routes use Go 1.22+ ServeMux patterns.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/kuitang/inkpad/internal/docs"
	"github.com/kuitang/inkpad/internal/errs"
	"github.com/kuitang/inkpad/internal/pageops"
)

// Handler wraps the docs service and provides HTTP handlers.
type Handler struct {
	docsService *docs.Service
}

// NewHandler creates a new API handler with the given docs service.
func NewHandler(docsService *docs.Service) *Handler {
	return &Handler{docsService: docsService}
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Documents CRUD
	mux.HandleFunc("GET /documents", h.ListDocuments)
	mux.HandleFunc("POST /documents", h.CreateDocument)
	mux.HandleFunc("GET /documents/{id}", h.GetDocument)
	mux.HandleFunc("DELETE /documents/{id}", h.DeleteDocument)

	// Pages
	mux.HandleFunc("GET /documents/{id}/pages", h.ListPages)
	mux.HandleFunc("POST /documents/{id}/pages", h.CreatePage)
	mux.HandleFunc("GET /documents/{id}/pages/{index}", h.GetPage)
	mux.HandleFunc("PUT /documents/{id}/pages/{index}", h.UpdatePage)
	mux.HandleFunc("GET /documents/{id}/pages/{index}/html", h.GetPageHTML)

	// Batch page operations
	mux.HandleFunc("POST /documents/{id}/pageops/validate", h.ValidatePageOps)
	mux.HandleFunc("POST /documents/{id}/pageops/apply", h.ApplyPageOps)
}

// ListDocuments handles GET /documents - returns a paginated list of documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := docs.DefaultLimit
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	result, err := h.docsService.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CreateDocument handles POST /documents - creates a new document.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var params docs.CreateDocumentParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	doc, err := h.docsService.Create(r.Context(), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// GetDocument handles GET /documents/{id} - returns a single document by ID.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docsService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /documents/{id} - deletes a document and its pages.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.docsService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPages handles GET /documents/{id}/pages - returns page summaries in order.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.docsService.Pages(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"pages": pages})
}

// CreatePageRequest is the request body for POST /documents/{id}/pages.
// When Index is nil the page is appended; otherwise it is inserted at Index.
type CreatePageRequest struct {
	Content string `json:"content"`
	Index   *int   `json:"index,omitempty"`
}

// CreatePage handles POST /documents/{id}/pages - appends or inserts a page.
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var req CreatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	var (
		page *docs.Page
		err  error
	)
	if req.Index == nil {
		page, err = h.docsService.AppendPage(r.Context(), r.PathValue("id"), req.Content)
	} else {
		page, err = h.docsService.InsertPage(r.Context(), r.PathValue("id"), *req.Index, req.Content)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, page)
}

// GetPage handles GET /documents/{id}/pages/{index} - returns full page content.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	index, ok := pageIndex(w, r)
	if !ok {
		return
	}

	page, err := h.docsService.Page(r.Context(), r.PathValue("id"), index)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// UpdatePageRequest is the request body for PUT /documents/{id}/pages/{index}.
type UpdatePageRequest struct {
	Content string `json:"content"`
}

// UpdatePage handles PUT /documents/{id}/pages/{index} - replaces page content.
func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	index, ok := pageIndex(w, r)
	if !ok {
		return
	}

	var req UpdatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	page, err := h.docsService.UpdatePage(r.Context(), r.PathValue("id"), index, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// GetPageHTML handles GET /documents/{id}/pages/{index}/html - returns the
// page's markdown rendered to sanitized HTML.
func (h *Handler) GetPageHTML(w http.ResponseWriter, r *http.Request) {
	index, ok := pageIndex(w, r)
	if !ok {
		return
	}

	html, err := h.docsService.PageHTML(r.Context(), r.PathValue("id"), index)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}

// OperationRequest is the wire form of one queued page operation.
// InsertAfter defaults to true when omitted; TargetIndex is required for
// moves.
type OperationRequest struct {
	Type        string `json:"type"`
	PageIndex   int    `json:"page_index"`
	InsertAfter *bool  `json:"insert_after,omitempty"`
	TargetIndex *int   `json:"target_index,omitempty"`
}

// PageOpsRequest is the request body for the pageops endpoints.
type PageOpsRequest struct {
	Operations []OperationRequest `json:"operations"`
}

func (req *PageOpsRequest) toOperations() ([]pageops.Operation, error) {
	ops := make([]pageops.Operation, 0, len(req.Operations))
	for _, o := range req.Operations {
		switch pageops.Kind(o.Type) {
		case pageops.KindDelete:
			ops = append(ops, pageops.NewDelete(o.PageIndex))
		case pageops.KindDuplicate:
			insertAfter := true
			if o.InsertAfter != nil {
				insertAfter = *o.InsertAfter
			}
			ops = append(ops, pageops.NewDuplicate(o.PageIndex, insertAfter))
		case pageops.KindMove:
			if o.TargetIndex == nil {
				return nil, errs.New(errs.InvalidArgument, "target_index is required for move operations")
			}
			ops = append(ops, pageops.NewMove(o.PageIndex, *o.TargetIndex))
		default:
			return nil, errs.New(errs.InvalidArgument, "unknown operation type: "+o.Type)
		}
	}
	return ops, nil
}

// ValidatePageOps handles POST /documents/{id}/pageops/validate - checks a
// queued operation list without applying it. Returns 200 with the validation
// result whether or not the queue is valid.
func (h *Handler) ValidatePageOps(w http.ResponseWriter, r *http.Request) {
	var req PageOpsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	ops, err := req.toOperations()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := h.docsService.ValidateBatch(r.Context(), r.PathValue("id"), ops)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ApplyPageOps handles POST /documents/{id}/pageops/apply - validates,
// normalizes, and applies a queued operation list atomically. A queue that
// fails validation gets a 400 with the full validation result; nothing is
// applied.
func (h *Handler) ApplyPageOps(w http.ResponseWriter, r *http.Request) {
	var req PageOpsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	ops, err := req.toOperations()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := h.docsService.ApplyBatch(r.Context(), r.PathValue("id"), ops)
	if err != nil {
		var invalid *docs.BatchInvalidError
		if errors.As(err, &invalid) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":      "batch validation failed",
				"validation": invalid.Result,
			})
			return
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func pageIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "Page index must be a non-negative integer")
		return 0, false
	}
	return index, true
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps a service error to an HTTP status via its code.
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, errs.HTTPStatus(errs.CodeOf(err)), errs.MessageOf(err))
}
