package credit

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/pixelmuse/server/internal/shared/errors"
	"github.com/pixelmuse/server/internal/shared/response"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler handles HTTP requests for the credit ledger.
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new credit handler.
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the ledger routes under r.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users/:user_id/credits")
	{
		users.GET("/balance", h.GetBalance)
		users.GET("/transactions", h.ListTransactions)
		users.POST("/consume", h.Consume)
	}
	r.POST("/credits/entries", h.RecordEntry)
}

// writeError renders ledger errors as application errors; anything else is
// a 500.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		err = apperrors.ValidationError(err.Error())
	case errors.Is(err, ErrInsufficientBalance):
		err = apperrors.InsufficientCredits(err.Error())
	case errors.Is(err, ErrDuplicateEntry):
		err = apperrors.Conflict(err.Error())
	}
	response.HandleErrorWithDefault(c, err, nil)
}

// GetBalance returns the user's usable balance.
func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	balance, err := h.service.GetUsableBalance(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, BalanceResponse{UserID: userID, Balance: balance})
}

// ListTransactions returns a page of the user's ledger, newest first.
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit < 1 {
		response.BadRequest(c, "limit must be a positive integer")
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		response.BadRequest(c, "offset must be a non-negative integer")
		return
	}

	entries, total, err := h.service.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, TransactionsResponse{
		Transactions: entries,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	})
}

// Consume spends credits for the user.
func (h *Handler) Consume(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req ConsumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entry, err := h.service.RecordConsumption(c.Request.Context(), userID, req.Amount, req.Context)
	if err != nil {
		writeError(c, err)
		return
	}

	balance, err := h.service.UsableBalance(c.Request.Context(), userID, entry.CreatedAt)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ConsumeResponse{Entry: entry, Balance: balance})
}

// RecordEntry appends an operator-issued entry (purchase, refund, adjustment).
func (h *Handler) RecordEntry(c *gin.Context) {
	var req RecordEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entry, err := h.service.RecordEntry(c.Request.Context(), req.ToInput())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil || userID == uuid.Nil {
		response.AppError(c, apperrors.BadRequest("invalid user id"))
		return uuid.Nil, false
	}
	return userID, true
}
