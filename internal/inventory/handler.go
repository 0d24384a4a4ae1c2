package inventory

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stockpilot/stockpilot/internal/platform/httpx"
)

const requestTimeout = 5 * time.Second

// Handler serves the forecast report and batch endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// Routes mounts the inventory endpoints under /skus/{sku}.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/forecast", h.handleForecast)
	r.Post("/batches/{batch}/receive", h.handleReceiveBatch)
}

func (h *Handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	if sku == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "missing sku")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.service.BuildForecastReport(ctx, sku)
	if err != nil {
		h.logger.Error("build forecast report failed", "error", err, "sku", sku)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleReceiveBatch(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	batch := chi.URLParam(r, "batch")

	if err := h.service.ReceiveBatch(r.Context(), sku, batch); err != nil {
		h.logger.Error("receive batch failed", "error", err, "sku", sku, "batch", batch)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "received"})
}
