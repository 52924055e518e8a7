package http

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// NewRouter собирает gin-роутер со всеми маршрутами API заказов.
func NewRouter(h *OrderHandler, logger *log.Entry) *gin.Engine {
	if logger == nil {
		logger = log.WithField("component", "http")
	}

	r := gin.New()
	r.Use(gin.Recovery(), metricsMiddleware(), loggingMiddleware(logger))

	api := r.Group("/api")
	{
		api.POST("/orders", h.CreateOrder)
		api.GET("/orders", h.ListOrders)
		api.GET("/orders/:id", h.GetOrder)
		api.GET("/orders/customer/:email", h.ListOrdersByCustomer)
		api.POST("/orders/:id/complete", h.CompleteOrder)
		api.POST("/orders/:id/cancel", h.CancelOrder)
		api.DELETE("/orders/:id", h.DeleteOrder)
		api.POST("/orders/:id/payment-intent", h.CreatePaymentIntent)
	}

	return r
}
