package handlers

import (
	"net/http"
	"strings"

	"resto-admin-services/internal/billing"
	"resto-admin-services/pkg/response"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (h *Handler) AdminTaxSettingsGet(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Store.GetTaxConfig(r.Context())
	if err != nil {
		h.writeError(w, r, err, "Tax settings are not configured")
		return
	}
	response.Success(w, taxConfigView(cfg))
}

type taxSettingsRequest struct {
	TaxRate        decimal.Decimal `json:"taxRate"`
	ServiceTaxRate decimal.Decimal `json:"serviceTaxRate"`
	TaxName        string          `json:"taxName"`
	CurrencySymbol string          `json:"currencySymbol"`
}

func (h *Handler) AdminTaxSettingsPut(w http.ResponseWriter, r *http.Request) {
	var body taxSettingsRequest
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	cfg := billing.TaxConfig{
		TaxRate:        body.TaxRate,
		ServiceTaxRate: body.ServiceTaxRate,
		TaxName:        strings.TrimSpace(body.TaxName),
		CurrencySymbol: strings.TrimSpace(body.CurrencySymbol),
	}
	if cfg.TaxName == "" || cfg.CurrencySymbol == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Tax name and currency symbol are required")
		return
	}
	if err := cfg.Validate(); err != nil {
		response.FromError(w, err)
		return
	}

	if err := h.Store.UpdateTaxConfig(r.Context(), cfg, userID(r)); err != nil {
		h.writeError(w, r, err, "Tax settings are not configured")
		return
	}

	h.Logger.Info("tax settings updated",
		zap.Int64("userId", userID(r)),
		zap.String("taxRate", cfg.TaxRate.String()),
		zap.String("serviceTaxRate", cfg.ServiceTaxRate.String()),
	)
	response.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    taxConfigView(cfg),
		"message": "Tax settings updated",
	})
}
