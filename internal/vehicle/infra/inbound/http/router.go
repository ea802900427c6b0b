package http

import "github.com/gin-gonic/gin"

// RegisterVehicleRoutes registra las rutas HTTP del catálogo de vehículos.
func RegisterVehicleRoutes(r *gin.Engine, handler *VehicleHandler) {
	vehicles := r.Group("/api/vehicle")
	{
		vehicles.POST("/register", handler.RegisterVehicle)          // Alta de un vehículo
		vehicles.GET("", handler.ListVehicles)                       // Catálogo, filtro opcional ?saleStatus=
		vehicles.POST("/:vehicleId/reserve", handler.ReserveVehicle) // Reserva y crea el pedido
		vehicles.POST("/:vehicleId/sell", handler.SellVehicle)       // Venta de un vehículo reservado
		vehicles.POST("/:vehicleId/release", handler.ReleaseVehicle) // Libera una reserva
	}
}
