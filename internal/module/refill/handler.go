package refill

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pixelmuse/server/internal/shared/response"
)

// Trigger starts a sweep on demand.
type Trigger interface {
	RunNow(ctx context.Context) (*Report, error)
}

// Handler exposes the sweep to the external scheduler.
type Handler struct {
	trigger Trigger
}

// NewHandler creates a new refill handler.
func NewHandler(trigger Trigger) *Handler {
	return &Handler{trigger: trigger}
}

// RegisterRoutes registers the cron routes under r.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/activate-monthly-credits", h.ActivateMonthlyCredits)
	r.POST("/activate-monthly-credits", h.ActivateMonthlyCredits)
}

// SweepResponse wraps the report returned to the scheduler.
type SweepResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	*Report
}

// ActivateMonthlyCredits runs one sweep. Individual subscription failures are
// reported inside a 200 response; only a failed selection returns 500.
func (h *Handler) ActivateMonthlyCredits(c *gin.Context) {
	// A scheduler hanging up must not cancel a sweep mid-batch.
	ctx := context.WithoutCancel(c.Request.Context())

	report, err := h.trigger.RunNow(ctx)
	switch {
	case errors.Is(err, ErrSweepInProgress):
		response.ErrorWithCode(c, http.StatusConflict, "SWEEP_IN_PROGRESS", err.Error())
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, SweepResponse{Success: false, Error: err.Error(), Report: report})
	default:
		c.JSON(http.StatusOK, SweepResponse{Success: true, Report: report})
	}
}
