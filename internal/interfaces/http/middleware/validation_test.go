package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/interfaces/http/dto"
)

type validationRequest struct {
	Name      string           `json:"name" binding:"required,max=10"`
	Type      string           `json:"type" binding:"omitempty,oneof=preparado 'materia prima'"`
	UnitCost  decimal.Decimal  `json:"unit_cost" binding:"dec_nonneg"`
	SalePrice *decimal.Decimal `json:"sale_price" binding:"omitempty,dec_nonneg"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	r := gin.New()
	r.POST("/test", func(c *gin.Context) {
		var req validationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func postJSON(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return serve(r, req)
}

func TestValidation(t *testing.T) {
	r := newValidationRouter()

	tests := []struct {
		name   string
		body   string
		status int
		fields []string
	}{
		{"valid", `{"name":"Latte","type":"materia prima","unit_cost":"1200","sale_price":"2500"}`, http.StatusOK, nil},
		{"missing name", `{"unit_cost":"1"}`, http.StatusBadRequest, []string{"name"}},
		{"unknown type", `{"name":"Latte","type":"bebida","unit_cost":"1"}`, http.StatusBadRequest, []string{"type"}},
		{"negative cost", `{"name":"Latte","unit_cost":"-1"}`, http.StatusBadRequest, []string{"unit_cost"}},
		{"negative optional price", `{"name":"Latte","unit_cost":"1","sale_price":"-0.5"}`, http.StatusBadRequest, []string{"sale_price"}},
		{"several fields", `{"name":"a very long product name","unit_cost":"-3"}`, http.StatusBadRequest, []string{"name", "unit_cost"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.fields == nil {
				return
			}

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			fields := make([]string, 0, len(resp.Error.Details))
			for _, d := range resp.Error.Details {
				fields = append(fields, d.Field)
			}
			assert.ElementsMatch(t, tt.fields, fields)
		})
	}
}

func TestValidation_Messages(t *testing.T) {
	w := postJSON(newValidationRouter(), `{"name":"Latte","type":"bebida","unit_cost":"-1"}`)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	messages := map[string]string{}
	for _, d := range resp.Error.Details {
		messages[d.Field] = d.Message
	}
	assert.Equal(t, "Must be one of: preparado 'materia prima'", messages["type"])
	assert.Equal(t, "Must be a non-negative amount", messages["unit_cost"])
}
