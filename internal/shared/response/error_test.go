package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	apperrors "github.com/pixelmuse/server/internal/shared/errors"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var errQuotaSpent = errors.New("quota spent")

func render(err error) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	HandleErrorWithDefault(c, err, []ErrorMapping{
		{Err: errQuotaSpent, Status: http.StatusTooManyRequests, Code: "QUOTA_SPENT"},
	})
	return w
}

func TestHandleErrorWithDefault(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"mapping", fmt.Errorf("generate: %w", errQuotaSpent), http.StatusTooManyRequests, `"code":"QUOTA_SPENT"`},
		{"app error", fmt.Errorf("wrapped: %w", apperrors.Conflict("key taken")), http.StatusConflict, `"code":"CONFLICT"`},
		{"bare kind", fmt.Errorf("entry: %w", apperrors.ErrBadRequest), http.StatusBadRequest, `"error":"entry: bad request"`},
		{"unknown", errors.New("db down"), http.StatusInternalServerError, `"code":"INTERNAL_ERROR"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := render(tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
			assert.NotContains(t, w.Body.String(), "db down")
		})
	}
}
