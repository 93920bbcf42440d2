package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/avelore/consignpos-import-service/internal/auth"
	"github.com/avelore/consignpos-import-service/internal/httputil"
	"github.com/avelore/consignpos-import-service/internal/importer"
	"github.com/avelore/consignpos-import-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxUploadBytes = 10 << 20

type ImporterHandler struct {
	uc     importer.UseCase
	logger logger.ZapLogger
}

func NewImporterHandler(uc importer.UseCase, log logger.ZapLogger) *ImporterHandler {
	return &ImporterHandler{uc: uc, logger: log}
}

func (h *ImporterHandler) RegisterRoutes(r chi.Router) {
	r.Post("/imports/csv", h.ingestCSV)
	r.Get("/imports/template", h.template)
	r.Get("/imports/{token}/errors", h.errorReport)
	r.Post("/manifests/{manifestID}/convert", h.convertManifest)
}

// ingestCSV stages the valid rows of an uploaded CSV body and returns the
// ingest summary, including per-row errors for the rejected rows.
func (h *ImporterHandler) ingestCSV(w http.ResponseWriter, r *http.Request) {
	merchantID := auth.GetMerchantID(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if len(body) > maxUploadBytes {
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, "upload exceeds 10MB")
		return
	}

	result, err := h.uc.IngestCSV(r.Context(), merchantID, string(body))
	if err != nil {
		h.logger.Error("csv ingestion failed", zap.String("merchant_id", merchantID), zap.Error(err))
		httputil.RespondFromError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

func (h *ImporterHandler) template(w http.ResponseWriter, r *http.Request) {
	respondCSV(w, "import-template.csv", h.uc.Template())
}

func (h *ImporterHandler) errorReport(w http.ResponseWriter, r *http.Request) {
	merchantID := auth.GetMerchantID(r.Context())
	token := chi.URLParam(r, "token")

	report, err := h.uc.ErrorReport(r.Context(), merchantID, token)
	if err != nil {
		httputil.RespondFromError(w, err)
		return
	}
	respondCSV(w, "import-errors.csv", report)
}

func (h *ImporterHandler) convertManifest(w http.ResponseWriter, r *http.Request) {
	merchantID := auth.GetMerchantID(r.Context())
	manifestID := chi.URLParam(r, "manifestID")
	autoAssign, _ := strconv.ParseBool(r.URL.Query().Get("autoAssign"))

	items, err := h.uc.IngestManifest(r.Context(), merchantID, manifestID, autoAssign)
	if err != nil {
		h.logger.Error("manifest conversion failed",
			zap.String("merchant_id", merchantID),
			zap.String("manifest_id", manifestID),
			zap.Error(err))
		httputil.RespondFromError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"items": items,
		"total": len(items),
	})
}

func respondCSV(w http.ResponseWriter, filename, content string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}
