package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	Email  string `json:"email" binding:"required,email" validate:"required,email"`
	Rating int    `json:"rating" binding:"gte=1,lte=5" validate:"gte=1,lte=5"`
}

func TestValidateStruct(t *testing.T) {
	errs := ValidateStruct(sampleRequest{Email: "nope", Rating: 9})

	assert.Len(t, errs, 2)
	assert.Equal(t, "Email", errs[0].Field)
	assert.Equal(t, "email", errs[0].Tag)
	assert.Equal(t, "Rating must be less than or equal to 5", errs[1].Message)

	assert.Empty(t, ValidateStruct(sampleRequest{Email: "a@b.co", Rating: 3}))
}

func TestBindJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		body     string
		wantOK   bool
		wantCode int
	}{
		{"valid", `{"email":"a@b.co","rating":4}`, true, http.StatusOK},
		{"validation failure", `{"email":"a@b.co","rating":0}`, false, http.StatusBadRequest},
		{"malformed json", `{"email":`, false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req sampleRequest
			ok := BindJSON(c, &req)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
