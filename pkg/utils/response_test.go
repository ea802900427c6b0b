package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/davicafu/vehiclecatalog/internal/shared/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSendFaults_StatusByFaultType(t *testing.T) {
	tests := []struct {
		name      string
		faultType sharedDomain.FaultType
		want      int
	}{
		{name: "no encontrado", faultType: sharedDomain.ResourceNotFound, want: http.StatusNotFound},
		{name: "operación inválida", faultType: sharedDomain.InvalidOperation, want: http.StatusBadRequest},
		{name: "validación", faultType: sharedDomain.ValidationError, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			out := sharedDomain.NewOutput()
			out.AddFault(tt.faultType, "boom")
			SendFaults(c, out)

			assert.Equal(t, tt.want, w.Code)

			var body struct {
				Error ErrorResponse `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "boom", body.Error.Message)
			require.Len(t, body.Error.Faults, 1)
			assert.Equal(t, tt.faultType, body.Error.Faults[0].Type)
		})
	}
}

func TestSendSuccess_WrapsData(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SendSuccess(c, http.StatusCreated, gin.H{"id": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"data":{"id":1}}`, w.Body.String())
}
