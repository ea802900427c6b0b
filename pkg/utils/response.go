package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	sharedDomain "github.com/davicafu/vehiclecatalog/internal/shared/domain"
)

// ErrorResponse define la estructura estándar para las respuestas de error.
type ErrorResponse struct {
	Message string               `json:"message"`
	Faults  []sharedDomain.Fault `json:"faults,omitempty"`
}

// SendSuccess envía una respuesta exitosa con un payload de datos.
func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"data": data,
	})
}

// SendError envía una respuesta de error con un formato estandarizado.
func SendError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error": ErrorResponse{
			Message: message,
		},
	})
}

// SendFaults responde con los faults de un caso de uso.
// ResourceNotFound se traduce a 404; el resto de faults son 400.
func SendFaults(c *gin.Context, out *sharedDomain.Output) {
	status := http.StatusBadRequest
	if out.HasFault(sharedDomain.ResourceNotFound) {
		status = http.StatusNotFound
	}

	message := ""
	if len(out.Faults) > 0 {
		message = out.Faults[0].Message
	}

	c.JSON(status, gin.H{
		"error": ErrorResponse{
			Message: message,
			Faults:  out.Faults,
		},
	})
}

// --- Helpers específicos para errores comunes ---

func SendBadRequest(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, message)
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, message)
}

func SendInternalServerError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, message)
}
