package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"discounter/internal/middleware"
	"discounter/internal/model"
	"discounter/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// DiscountHandler handles campaign registration and voucher issuance requests.
type DiscountHandler struct {
	service  service.DiscountService
	validate *validator.Validate
	now      func() time.Time
	logger   zerolog.Logger
}

// NewDiscountHandler creates a new discount handler. now supplies the
// issuance time for every request.
func NewDiscountHandler(service service.DiscountService, now func() time.Time, logger zerolog.Logger) *DiscountHandler {
	return &DiscountHandler{
		service:  service,
		validate: validator.New(),
		now:      now,
		logger:   logger.With().Str("handler", "discount").Logger(),
	}
}

// Register handles POST /discounts/register requests.
func (h *DiscountHandler) Register(w http.ResponseWriter, r *http.Request) {
	brand := middleware.Identity(r.Context(), middleware.HeaderCurrentBrand)

	var req model.CampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, model.ErrCodeValidation, err.Error(), h.logger)
		return
	}

	id, err := h.service.RegisterCampaign(r.Context(), req.Campaign(brand))
	if err != nil {
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) {
			writeError(w, http.StatusUnprocessableEntity, domainErr.Code, domainErr.Message, h.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to register campaign", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.CampaignReply{Identifier: id})
}

// View handles GET /discounts/{identifier} requests.
func (h *DiscountHandler) View(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "identifier")

	campaign, err := h.service.View(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCampaign) {
			writeError(w, http.StatusNotFound, model.ErrCodeInvalidCampaign, model.ErrInvalidCampaign.Message, h.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to retrieve campaign", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.NewCampaignView(id, campaign, h.now()))
}

// Issue handles POST /discounts/{identifier} requests.
func (h *DiscountHandler) Issue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "identifier")
	user := middleware.Identity(r.Context(), middleware.HeaderCurrentUser)

	voucher, err := h.service.IssueVoucher(r.Context(), id, user, h.now())
	if err != nil {
		var domainErr *model.DomainError
		switch {
		case errors.Is(err, model.ErrInvalidCampaign), errors.Is(err, model.ErrExpiredCampaign):
			errors.As(err, &domainErr)
			writeError(w, http.StatusNotFound, domainErr.Code, domainErr.Message, h.logger)
		case errors.Is(err, model.ErrInvalidClaimant):
			writeError(w, http.StatusUnprocessableEntity, model.ErrCodeInvalidClaimant, model.ErrInvalidClaimant.Message, h.logger)
		default:
			writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to issue voucher", h.logger)
		}
		return
	}

	writeJSON(w, http.StatusOK, model.NewVoucherReply(voucher))
}
