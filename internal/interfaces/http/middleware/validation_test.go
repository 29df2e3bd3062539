package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smartinvoice/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationLine struct {
	ItemRef string `json:"item_ref" binding:"required,max=20"`
}

type validationInput struct {
	Email  string           `json:"email" binding:"omitempty,email"`
	Amount decimal.Decimal  `json:"amount" binding:"required,decimal_places=2"`
	Date   string           `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Lines  []validationLine `json:"lines" binding:"max=2,dive"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req validationInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"amount": req.Amount.String()})
	})
	return router
}

func postValidation(t *testing.T, body string) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	validationRouter().ServeHTTP(w, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func detailFor(resp dto.Response, field string) string {
	if resp.Error == nil {
		return ""
	}
	for _, d := range resp.Error.Details {
		if d.Field == field {
			return d.Message
		}
	}
	return ""
}

func TestValidation_Accepts(t *testing.T) {
	w, _ := postValidation(t, `{"amount":"45.50","date":"2026-03-01","lines":[{"item_ref":"travel"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"amount":"45.5"`)

	w, _ = postValidation(t, `{"amount":0}`)
	assert.Equal(t, http.StatusOK, w.Code, "zero is a present value")
}

func TestValidation_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		field   string
		message string
	}{
		{"too many places", `{"amount":"10.005"}`, "amount", "Must be a number with at most 2 decimal places"},
		{"bad email", `{"amount":1,"email":"nope"}`, "email", "Invalid email format"},
		{"bad date", `{"amount":1,"date":"03/01/2026"}`, "date", "Must be a date formatted as 2006-01-02"},
		{"nested required", `{"amount":1,"lines":[{"item_ref":""}]}`, "lines[0].item_ref", "This field is required"},
		{"too many lines", `{"amount":1,"lines":[{"item_ref":"a"},{"item_ref":"b"},{"item_ref":"c"}]}`, "lines", "Must contain at most 2 items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := postValidation(t, tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			assert.Equal(t, "Request validation failed", resp.Error.Message)
			assert.NotEmpty(t, resp.Error.RequestID)
			assert.Equal(t, tt.message, detailFor(resp, tt.field))
		})
	}
}

func TestValidation_MalformedBody(t *testing.T) {
	w, resp := postValidation(t, `{"amount":"twelve"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Malformed request body", detailFor(resp, "body"))
}
