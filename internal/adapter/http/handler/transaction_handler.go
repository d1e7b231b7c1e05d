package handler

import (
	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// TransactionHandler serves the transaction log.
type TransactionHandler struct {
	query ports.TransactionQueryService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(query ports.TransactionQueryService) *TransactionHandler {
	return &TransactionHandler{query: query}
}

// List handles GET /api/v1/transactions.
// Query params: type, start_date, end_date, limit, offset.
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var q dto.TransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	page, err := h.query.ListTransactions(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := dto.ToTransactionList(page.Items)
	response.Page(c, items, len(items), page.Limit, page.Offset)
}
