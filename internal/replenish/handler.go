package replenish

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockpilot/stockpilot/internal/platform/httpx"
)

// Handler serves the replenishment endpoints.
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

// SKURoutes mounts the per-SKU endpoints under /skus/{sku}.
func (h *Handler) SKURoutes(r chi.Router) {
	r.Get("/replenishment", h.handleEvaluate)
	r.Get("/policy", h.handleGetPolicy)
	r.Put("/policy", h.handlePutPolicy)
	r.Post("/proposals", h.handleCreateProposal)
}

// ProposalRoutes mounts the cross-SKU proposal listing.
func (h *Handler) ProposalRoutes(r chi.Router) {
	r.Get("/", h.handleListProposals)
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	decision, err := h.service.Evaluate(r.Context(), sku)
	if err != nil {
		h.logger.Error("evaluate replenishment failed", "error", err, "sku", sku)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, decision)
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	policy, err := h.service.PolicyFor(r.Context(), sku)
	if err != nil {
		h.logger.Error("load policy failed", "error", err, "sku", sku)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, policy)
}

func (h *Handler) handlePutPolicy(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	var policy Policy
	if err := httpx.DecodeJSON(r, &policy); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid policy payload")
		return
	}
	policy.SKU = sku

	if err := h.service.SavePolicy(r.Context(), policy); err != nil {
		h.logger.Warn("save policy rejected", "error", err, "sku", sku)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, policy)
}

func (h *Handler) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	var payload struct {
		Quantity float64 `json:"quantity"`
	}
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid proposal payload")
		return
	}

	proposal, err := h.service.CreateManualProposal(r.Context(), sku, payload.Quantity)
	if err != nil {
		h.logger.Error("create manual proposal failed", "error", err, "sku", sku)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, proposal)
}

func (h *Handler) handleListProposals(w http.ResponseWriter, r *http.Request) {
	sku := r.URL.Query().Get("sku")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	proposals, pagination, err := h.service.ListProposals(r.Context(), sku, page, perPage)
	if err != nil {
		h.logger.Error("list proposals failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"proposals":  proposals,
		"pagination": pagination,
	})
}
