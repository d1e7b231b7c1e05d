package handler

import (
	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// CurrencyHandler serves the catalog and conversion rates.
type CurrencyHandler struct {
	currencies ports.CurrencyRegistry
	rates      ports.RateService
}

// NewCurrencyHandler creates a new CurrencyHandler.
func NewCurrencyHandler(currencies ports.CurrencyRegistry, rates ports.RateService) *CurrencyHandler {
	return &CurrencyHandler{currencies: currencies, rates: rates}
}

// List handles GET /api/v1/currencies.
func (h *CurrencyHandler) List(c *gin.Context) {
	list, err := h.currencies.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.CurrencyResponse, 0, len(list))
	for _, cur := range list {
		out = append(out, dto.CurrencyResponse{Code: cur.Code, Name: cur.Name})
	}
	response.OK(c, out)
}

// GetRate handles GET /api/v1/fx/rates/:base/:target. Both codes must be in
// the catalog before the provider is consulted.
func (h *CurrencyHandler) GetRate(c *gin.Context) {
	ctx := c.Request.Context()
	base, target := c.Param("base"), c.Param("target")

	if _, err := h.currencies.Validate(ctx, base); err != nil {
		response.Error(c, err)
		return
	}
	if _, err := h.currencies.Validate(ctx, target); err != nil {
		response.Error(c, err)
		return
	}

	rate, err := h.rates.Rate(ctx, base, target)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToRateResponse(rate))
}
