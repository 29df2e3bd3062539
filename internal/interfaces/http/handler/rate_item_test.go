package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ratecardapp "github.com/smartinvoice/backend/internal/application/ratecard"
	"github.com/smartinvoice/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateItemHandler_CreateAndGet(t *testing.T) {
	env := newAPIEnv(t)
	items := env.seedRateCard(t)

	breaker := items["30-amp breaker"]
	assert.True(t, breaker.UnitPrice.Equal(dec("45")))
	assert.Equal(t, "each", breaker.Unit)
	assert.Equal(t, 1, breaker.Revision)
	assert.True(t, breaker.Active)

	w := env.do(t, http.MethodGet, "/rate-items/"+breaker.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got ratecardapp.RateItemResponse
	decode(t, w, &got)
	assert.Equal(t, breaker.ID, got.ID)
	assert.Equal(t, "30-amp breaker", got.Name)
}

func TestRateItemHandler_CreateRejects(t *testing.T) {
	env := newAPIEnv(t)
	env.seedRateCard(t)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing name", gin.H{"unit_price": "10.00"}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"sub-cent price", gin.H{"name": "panel", "unit_price": "10.005"}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"unknown unit", gin.H{"name": "panel", "unit_price": "10", "unit": "parsec"}, http.StatusBadRequest, dto.ErrCodeValidationFormat},
		{"malformed json", `{"name":`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"duplicate active name", gin.H{"name": "travel", "unit_price": "60"}, http.StatusConflict, dto.ErrCodeAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/rate-items", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestRateItemHandler_CreateCanonicalizesUnit(t *testing.T) {
	env := newAPIEnv(t)

	for spelling, want := range map[string]string{"linear-ft": "linear_ft", " Hours ": "hour", "SQ FT": "sqft"} {
		w := env.do(t, http.MethodPost, "/rate-items", gin.H{"name": "trim " + spelling, "unit_price": "4.50", "unit": spelling})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var item ratecardapp.RateItemResponse
		decode(t, w, &item)
		assert.Equal(t, want, item.Unit, spelling)
	}
}

func TestRateItemHandler_List(t *testing.T) {
	env := newAPIEnv(t)
	env.seedRateCard(t)

	w := env.do(t, http.MethodGet, "/rate-items", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []ratecardapp.RateItemResponse
	resp := decode(t, w, &all)
	require.Len(t, all, 3)
	assert.Equal(t, "troubleshooting", all[0].Name, "listed in creation order")
	assert.Equal(t, int64(3), resp.Meta.Total)

	w = env.do(t, http.MethodGet, "/rate-items?category=materials", nil)
	var materials []ratecardapp.RateItemResponse
	decode(t, w, &materials)
	require.Len(t, materials, 1)
	assert.Equal(t, "30-amp breaker", materials[0].Name)

	w = env.do(t, http.MethodGet, "/rate-items?category=snacks", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.doAs(t, uuid.New(), http.MethodGet, "/rate-items", nil)
	var foreign []ratecardapp.RateItemResponse
	decode(t, w, &foreign)
	assert.Empty(t, foreign, "rate cards are private to their owner")
}

func TestRateItemHandler_ReviseKeepsHistory(t *testing.T) {
	env := newAPIEnv(t)
	travel := env.seedRateCard(t)["travel"]

	w := env.do(t, http.MethodPut, "/rate-items/"+travel.ID.String(),
		gin.H{"name": "travel", "category": "other", "unit_price": "55.00", "unit": "hour"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var revised ratecardapp.RateItemResponse
	decode(t, w, &revised)
	assert.NotEqual(t, travel.ID, revised.ID)
	assert.Equal(t, travel.LineageID, revised.LineageID)
	assert.Equal(t, 2, revised.Revision)
	assert.True(t, revised.UnitPrice.Equal(dec("55")))

	w = env.do(t, http.MethodGet, "/rate-items/"+travel.ID.String()+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []ratecardapp.RateItemResponse
	decode(t, w, &history)
	require.Len(t, history, 2)
	assert.True(t, history[0].UnitPrice.Equal(dec("50")))
	assert.False(t, history[0].Active)
	assert.True(t, history[1].Active)

	w = env.do(t, http.MethodPut, "/rate-items/"+travel.ID.String(),
		gin.H{"name": "travel", "unit_price": "60.00"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "retired revisions cannot be revised again")
	assert.Equal(t, dto.ErrCodeRateItemInactive, errorCode(t, w))
}

func TestRateItemHandler_Deactivate(t *testing.T) {
	env := newAPIEnv(t)
	travel := env.seedRateCard(t)["travel"]

	w := env.do(t, http.MethodDelete, "/rate-items/"+travel.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/rate-items", nil)
	var active []ratecardapp.RateItemResponse
	decode(t, w, &active)
	assert.Len(t, active, 2)

	w = env.do(t, http.MethodGet, "/rate-items?include_inactive=true", nil)
	var all []ratecardapp.RateItemResponse
	decode(t, w, &all)
	assert.Len(t, all, 3)

	w = env.do(t, http.MethodGet, "/rate-items/"+travel.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code, "inactive items stay readable")
}

func TestRateItemHandler_NotFoundAndBadID(t *testing.T) {
	env := newAPIEnv(t)
	travel := env.seedRateCard(t)["travel"]

	w := env.do(t, http.MethodGet, "/rate-items/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/rate-items/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w))

	w = env.doAs(t, uuid.New(), http.MethodDelete, "/rate-items/"+travel.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
