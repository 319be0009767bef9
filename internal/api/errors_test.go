package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pesto-students/backend-repo-titans/internal/apperr"
	"github.com/stretchr/testify/assert"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"validation", apperr.Validation("date", "date must be DD/MM/YYYY"), http.StatusBadRequest, `{"error":"date must be DD/MM/YYYY","code":"invalid_date","field":"date"}`},
		{"not found", apperr.NotFound("booking not found"), http.StatusNotFound, `{"error":"booking not found","code":"not_found"}`},
		{"conflict wrapped", fmt.Errorf("x: %w", apperr.Conflict("overlap", "overlapping booking")), http.StatusConflict, `{"error":"overlapping booking","code":"overlap"}`},
		{"forbidden", apperr.Forbidden("not your booking"), http.StatusForbidden, `{"error":"not your booking","code":"forbidden"}`},
		{"temporal", apperr.Temporal("cancellation_window_closed", "too late"), http.StatusUnprocessableEntity, `{"error":"too late","code":"cancellation_window_closed"}`},
		{"internal hides detail", apperr.Internal("load booking", errors.New("pq: connection refused")), http.StatusInternalServerError, `{"error":"internal server error"}`},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			RespondError(c, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}
