package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/vehiclecatalog/internal/shared/domain"
	vehicleApp "github.com/davicafu/vehiclecatalog/internal/vehicle/application"
	vehicleDomain "github.com/davicafu/vehiclecatalog/internal/vehicle/domain"
	"github.com/davicafu/vehiclecatalog/pkg/utils"
)

// VehicleService son los casos de uso que expone la API HTTP.
type VehicleService interface {
	RegisterVehicle(ctx context.Context, cmd vehicleApp.RegisterVehicleCommand) (*sharedDomain.QueryOutput[int64], error)
	ListVehicles(ctx context.Context, q vehicleApp.ListVehiclesQuery) (*sharedDomain.QueryOutput[[]vehicleApp.VehicleView], error)
	ReserveVehicle(ctx context.Context, cmd vehicleApp.ReserveVehicleCommand) (*sharedDomain.Output, error)
	SellVehicle(ctx context.Context, cmd vehicleApp.SellVehicleCommand) (*sharedDomain.Output, error)
	ReleaseVehicle(ctx context.Context, cmd vehicleApp.ReleaseVehicleCommand) (*sharedDomain.Output, error)
}

// VehicleHandler encapsula los endpoints HTTP relacionados con Vehicle.
type VehicleHandler struct {
	service VehicleService
	log     *zap.Logger
}

// NewVehicleHandler crea un nuevo VehicleHandler.
func NewVehicleHandler(service VehicleService, log *zap.Logger) *VehicleHandler {
	return &VehicleHandler{service: service, log: log}
}

// RegisterVehicle endpoint POST /api/vehicle/register
func (h *VehicleHandler) RegisterVehicle(c *gin.Context) {
	var cmd vehicleApp.RegisterVehicleCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	out, err := h.service.RegisterVehicle(c.Request.Context(), cmd)
	if err != nil {
		h.internalError(c, "register", err)
		return
	}
	if !out.IsValid() {
		utils.SendFaults(c, &out.Output)
		return
	}

	utils.SendSuccess(c, http.StatusCreated, out)
}

// ListVehicles endpoint GET /api/vehicle?saleStatus=
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	var query vehicleApp.ListVehiclesQuery
	if raw := c.Query("saleStatus"); raw != "" {
		status, err := vehicleDomain.ParseSaleStatus(raw)
		if err != nil {
			utils.SendBadRequest(c, "invalid saleStatus")
			return
		}
		query.Status = &status
	}

	out, err := h.service.ListVehicles(c.Request.Context(), query)
	if err != nil {
		h.internalError(c, "list", err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, out)
}

// ReserveVehicle endpoint POST /api/vehicle/:vehicleId/reserve
func (h *VehicleHandler) ReserveVehicle(c *gin.Context) {
	id, ok := vehicleIDParam(c)
	if !ok {
		return
	}

	var req struct {
		CustomerDocument string `json:"customerDocument" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	out, err := h.service.ReserveVehicle(c.Request.Context(), vehicleApp.ReserveVehicleCommand{
		VehicleID:        id,
		CustomerDocument: req.CustomerDocument,
	})
	h.respond(c, "reserve", out, err)
}

// SellVehicle endpoint POST /api/vehicle/:vehicleId/sell
func (h *VehicleHandler) SellVehicle(c *gin.Context) {
	id, ok := vehicleIDParam(c)
	if !ok {
		return
	}

	out, err := h.service.SellVehicle(c.Request.Context(), vehicleApp.SellVehicleCommand{VehicleID: id})
	h.respond(c, "sell", out, err)
}

// ReleaseVehicle endpoint POST /api/vehicle/:vehicleId/release
func (h *VehicleHandler) ReleaseVehicle(c *gin.Context) {
	id, ok := vehicleIDParam(c)
	if !ok {
		return
	}

	out, err := h.service.ReleaseVehicle(c.Request.Context(), vehicleApp.ReleaseVehicleCommand{VehicleID: id})
	h.respond(c, "release", out, err)
}

// respond traduce el resultado de una transición: 202 si es válida, faults si no.
func (h *VehicleHandler) respond(c *gin.Context, operation string, out *sharedDomain.Output, err error) {
	if err != nil {
		h.internalError(c, operation, err)
		return
	}
	if !out.IsValid() {
		utils.SendFaults(c, out)
		return
	}
	utils.SendSuccess(c, http.StatusAccepted, out)
}

func (h *VehicleHandler) internalError(c *gin.Context, operation string, err error) {
	h.log.Error("Unexpected error in vehicle endpoint",
		zap.String("operation", operation),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	utils.SendInternalServerError(c, "an unexpected error occurred")
}

func vehicleIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("vehicleId"))
	if err != nil {
		utils.SendBadRequest(c, "invalid vehicle id")
		return uuid.Nil, false
	}
	return id, true
}
