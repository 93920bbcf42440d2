package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/avelore/consignpos-import-service/internal/auth"
	"github.com/avelore/consignpos-import-service/internal/httputil"
	"github.com/avelore/consignpos-import-service/internal/model"
	"github.com/avelore/consignpos-import-service/internal/pendingimport"
	"github.com/avelore/consignpos-import-service/internal/pendingimport/dto"
	"github.com/avelore/consignpos-import-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PendingImportHandler struct {
	uc     pendingimport.UseCase
	logger logger.ZapLogger
}

func NewPendingImportHandler(uc pendingimport.UseCase, log logger.ZapLogger) *PendingImportHandler {
	return &PendingImportHandler{uc: uc, logger: log}
}

func (h *PendingImportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/pending-imports", h.list)
	r.Patch("/pending-imports/{id}", h.patch)
	r.Delete("/pending-imports/{id}", h.delete)

	r.Get("/reconcile/selection", h.selection)
	r.Post("/reconcile/selection", h.selectIDs)
	r.Delete("/reconcile/selection", h.clearSelection)
	r.Post("/reconcile/selection/all", h.selectAll)

	r.Put("/reconcile/edits/{id}", h.edit)
	r.Delete("/reconcile/edits/{id}", h.discardEdits)
	r.Post("/reconcile/edits/{id}/save", h.saveEdits)

	r.Post("/reconcile/bulk-assign", h.bulkAssign)
	r.Post("/reconcile/verify/{id}", h.verify)
	r.Delete("/reconcile/verify/{id}", h.unverify)
	r.Post("/reconcile/verify-all", h.verifyAll)
	r.Post("/reconcile/submit", h.submit)
	r.Delete("/reconcile/session", h.endSession)

	r.Get("/catalog/search", h.searchCatalog)
}

func (h *PendingImportHandler) scope(r *http.Request) dto.SessionScope {
	return dto.SessionScope{
		MerchantID:      auth.GetMerchantID(r.Context()),
		SourceReference: r.URL.Query().Get("sourceRef"),
	}
}

func (h *PendingImportHandler) list(w http.ResponseWriter, r *http.Request) {
	filters, err := parseListFilters(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.uc.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list pending imports failed", zap.Error(err))
		httputil.RespondFromError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"total": total,
	})
}

func (h *PendingImportHandler) patch(w http.ResponseWriter, r *http.Request) {
	merchantID := auth.GetMerchantID(r.Context())
	id := chi.URLParam(r, "id")

	var body struct {
		Price     *string `json:"price"`
		Category  *string `json:"category"`
		Condition *string `json:"condition"`
		Notes     *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	input := &dto.PatchInput{
		Category:  body.Category,
		Condition: body.Condition,
		Notes:     body.Notes,
	}
	if body.Price != nil {
		price, err := decimal.NewFromString(*body.Price)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "price must be a decimal number")
			return
		}
		input.Price = &price
	}

	item, err := h.uc.Patch(r.Context(), merchantID, id, input)
	if err != nil {
		httputil.RespondFromError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, item)
}

func (h *PendingImportHandler) delete(w http.ResponseWriter, r *http.Request) {
	merchantID := auth.GetMerchantID(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.uc.Delete(r.Context(), merchantID, id); err != nil {
		httputil.RespondFromError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusNoContent, nil)
}

// --- Selection ---

func (h *PendingImportHandler) selection(w http.ResponseWriter, r *http.Request) {
	respondSelection(w, h.uc.Selection(h.scope(r)))
}

func (h *PendingImportHandler) selectIDs(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs      []string `json:"ids"`
		Deselect bool     `json:"deselect"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	scope := h.scope(r)
	if body.Deselect {
		respondSelection(w, h.uc.Deselect(scope, body.IDs))
		return
	}
	respondSelection(w, h.uc.Select(scope, body.IDs))
}

func (h *PendingImportHandler) selectAll(w http.ResponseWriter, r *http.Request) {
	filters, err := parseListFilters(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	selection, err := h.uc.SelectAll(r.Context(), h.scope(r), filters)
	if err != nil {
		httputil.RespondFromError(w, err)
		return
	}
	respondSelection(w, selection)
}

func (h *PendingImportHandler) clearSelection(w http.ResponseWriter, r *http.Request) {
	h.uc.ClearSelection(h.scope(r))
	httputil.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *PendingImportHandler) endSession(w http.ResponseWriter, r *http.Request) {
	h.uc.EndSession(h.scope(r))
	httputil.RespondJSON(w, http.StatusNoContent, nil)
}

// --- Inline edits ---

func (h *PendingImportHandler) edit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := h.uc.Edit(h.scope(r), id, body.Field, body.Value); err != nil {
		httputil.RespondFromError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *PendingImportHandler) discardEdits(w http.ResponseWriter, r *http.Request) {
	h.uc.DiscardEdits(h.scope(r), chi.URLParam(r, "id"))
	httputil.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *PendingImportHandler) saveEdits(w http.ResponseWriter, r *http.Request) {
	item, err := h.uc.SaveEdits(r.Context(), h.scope(r), chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondFromError(w, err)
		return
	}
	if item == nil {
		// Nothing dirty to flush.
		httputil.RespondJSON(w, http.StatusNoContent, nil)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, item)
}

// --- Bulk assignment / verification / commit ---

func (h *PendingImportHandler) bulkAssign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs           []string `json:"ids"`
		ConsignorID   string   `json:"consignor_id"`
		AutoVerify    bool     `json:"auto_verify"`
		AssignAnother bool     `json:"assign_another"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	outcome, err := h.uc.BulkAssign(r.Context(), &dto.BulkAssignInput{
		Scope:         h.scope(r),
		IDs:           body.IDs,
		ConsignorID:   body.ConsignorID,
		AutoVerify:    body.AutoVerify,
		AssignAnother: body.AssignAnother,
	})
	if err != nil {
		h.logger.Error("bulk assign failed", zap.Error(err))
		httputil.RespondFromError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, outcome)
}

func (h *PendingImportHandler) verify(w http.ResponseWriter, r *http.Request) {
	h.toggleVerify(w, r, true)
}

func (h *PendingImportHandler) unverify(w http.ResponseWriter, r *http.Request) {
	h.toggleVerify(w, r, false)
}

func (h *PendingImportHandler) toggleVerify(w http.ResponseWriter, r *http.Request, verified bool) {
	id := chi.URLParam(r, "id")
	if err := h.uc.ToggleVerify(r.Context(), h.scope(r), id, verified); err != nil {
		httputil.RespondFromError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *PendingImportHandler) verifyAll(w http.ResponseWriter, r *http.Request) {
	filters, err := parseListFilters(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.uc.VerifyAll(r.Context(), h.scope(r), filters)
	if err != nil {
		httputil.RespondFromError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

func (h *PendingImportHandler) submit(w http.ResponseWriter, r *http.Request) {
	result, err := h.uc.SubmitVerified(r.Context(), h.scope(r))
	if err != nil {
		h.logger.Error("submit verified failed", zap.Error(err))
		httputil.RespondFromError(w, err)
		return
	}

	// Zero successes means the whole batch failed; the staged items are all
	// untouched and retryable.
	status := http.StatusOK
	if result.Successful == 0 {
		status = http.StatusBadGateway
	}
	httputil.RespondJSON(w, status, result)
}

func (h *PendingImportHandler) searchCatalog(w http.ResponseWriter, r *http.Request) {
	merchantID := auth.GetMerchantID(r.Context())
	q := r.URL.Query()

	result, err := h.uc.SearchImported(r.Context(), merchantID, q.Get("q"), intParam(q.Get("size"), 20))
	if err != nil {
		httputil.RespondFromError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// --- helpers ---

func respondSelection(w http.ResponseWriter, selection []string) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"selection": selection,
		"count":     len(selection),
	})
}

func parseListFilters(r *http.Request) (*dto.ListFilters, error) {
	q := r.URL.Query()

	filters := &dto.ListFilters{
		MerchantID:      auth.GetMerchantID(r.Context()),
		SourceReference: q.Get("sourceRef"),
		Search:          q.Get("search"),
		ConsignorID:     q.Get("consignorId"),
		Page:            intParam(q.Get("page"), 1),
		PageSize:        intParam(q.Get("pageSize"), 50),
	}

	if raw := q.Get("priceMin"); raw != "" {
		min, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, errParam("priceMin")
		}
		filters.PriceMin = &min
	}
	if raw := q.Get("priceMax"); raw != "" {
		max, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, errParam("priceMax")
		}
		filters.PriceMax = &max
	}
	if raw := q.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filters.Statuses = append(filters.Statuses, model.ImportStatus(strings.TrimSpace(s)))
		}
	}

	return filters, nil
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}

type paramError string

func errParam(name string) error { return paramError(name) }

func (e paramError) Error() string { return "invalid query parameter: " + string(e) }
