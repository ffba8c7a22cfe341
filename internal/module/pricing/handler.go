package pricing

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pixelmuse/server/internal/shared/response"
)

// Handler serves the cost preview and model catalog.
type Handler struct{}

// NewHandler creates a pricing handler.
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes registers the pricing routes under r.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	credits := r.Group("/credits")
	{
		credits.GET("/cost-preview", h.CostPreview)
		credits.GET("/models", h.ListModels)
	}
}

// CostPreviewResponse is returned by CostPreview.
type CostPreviewResponse struct {
	Model      Model      `json:"model"`
	Resolution Resolution `json:"resolution"`
	Mode       Mode       `json:"mode"`
	BatchCount int        `json:"batch_count"`
	UnitCost   int64      `json:"unit_cost"`
	TotalCost  int64      `json:"total_cost"`
}

var costErrors = []response.ErrorMapping{
	{Err: ErrInvalidCombination, Status: http.StatusBadRequest, Code: "INVALID_COMBINATION"},
	{Err: ErrInvalidBatchCount, Status: http.StatusBadRequest, Code: "INVALID_BATCH_COUNT"},
}

// CostPreview handles GET /credits/cost-preview. With normalize=true an
// unsupported resolution falls back to the model's default.
func (h *Handler) CostPreview(c *gin.Context) {
	batch := 1
	if raw := c.Query("batch_count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "batch_count must be an integer")
			return
		}
		batch = n
	}

	normalize := false
	if raw := c.Query("normalize"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(c, "normalize must be a boolean")
			return
		}
		normalize = b
	}

	model := Model(c.Query("model"))
	resolution := ParseResolution(c.Query("resolution"))
	mode := Mode(c.DefaultQuery("mode", string(ModeTextToImage)))

	var err error
	if normalize {
		if resolution, err = NormalizeResolution(model, resolution); err != nil {
			response.HandleErrorWithDefault(c, err, costErrors)
			return
		}
	}

	quote, err := QuoteCost(model, resolution, mode, batch)
	if err != nil {
		response.HandleErrorWithDefault(c, err, costErrors)
		return
	}

	c.JSON(http.StatusOK, CostPreviewResponse{
		Model:      model,
		Resolution: resolution,
		Mode:       mode,
		BatchCount: batch,
		UnitCost:   quote.Unit,
		TotalCost:  quote.Total,
	})
}

// ListModels handles GET /credits/models.
func (h *Handler) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": Models()})
}
