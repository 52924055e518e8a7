package http

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/ichad17/retro-configurator/internal/domain"
	"github.com/ichad17/retro-configurator/internal/service/order"
)

const (
	idempotencyKeyHeader = "X-Idempotency-Key"
	idempotencyTTL       = 24 * time.Hour

	// Лимит списков, когда клиент не передал ?limit.
	defaultListLimit = 100
)

// OrderHandler — REST-обвязка поверх сервиса заказов.
type OrderHandler struct {
	svc         *order.Service
	payments    domain.PaymentService
	idempotency domain.IdempotencyRepository
	logger      *log.Entry
}

// NewOrderHandler создаёт handler. Payments и idempotency опциональны:
// без них соответствующие возможности отключены.
func NewOrderHandler(svc *order.Service, payments domain.PaymentService, idempotency domain.IdempotencyRepository, logger *log.Entry) *OrderHandler {
	if logger == nil {
		logger = log.WithField("component", "http-handler")
	}
	return &OrderHandler{
		svc:         svc,
		payments:    payments,
		idempotency: idempotency,
		logger:      logger,
	}
}

// CreateOrder обрабатывает POST /api/orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
		return
	}

	var req createOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	idemKey := strings.TrimSpace(c.GetHeader(idempotencyKeyHeader))
	if idemKey != "" && h.idempotency != nil {
		if done := h.beginIdempotent(c, idemKey, body); done {
			return
		}
	}

	cfg, err := domain.NewConsoleConfig(
		domain.ConsoleType(req.ConsoleType),
		req.NumberOfControllers,
		req.HDMISupport,
		req.CustomColor,
		req.ColorHex,
	)
	if err != nil {
		status := errorStatus(err)
		if idemKey != "" && h.idempotency != nil {
			h.finishIdempotent(idemKey, errorResponse{Error: err.Error()}, status, false)
		}
		c.JSON(status, errorResponse{Error: err.Error()})
		return
	}

	created, err := h.svc.CreateOrder(&cfg, req.CustomerEmail)
	if err != nil {
		status := errorStatus(err)
		if idemKey != "" && h.idempotency != nil {
			h.finishIdempotent(idemKey, errorResponse{Error: err.Error()}, status, false)
		}
		c.JSON(status, errorResponse{Error: err.Error()})
		return
	}

	resp := toOrderResponse(created)
	if idemKey != "" && h.idempotency != nil {
		h.finishIdempotent(idemKey, resp, http.StatusCreated, true)
	}

	c.Header("Location", "/api/orders/"+created.ID)
	c.JSON(http.StatusCreated, resp)
}

// beginIdempotent регистрирует ключ и, если запрос повторный,
// сразу пишет ответ. Возвращает true, когда обработка завершена.
func (h *OrderHandler) beginIdempotent(c *gin.Context, key string, body []byte) bool {
	hash := requestHash(c.Request.Method, c.FullPath(), body)

	record, err := h.idempotency.CreateProcessing(key, hash, time.Now().UTC().Add(idempotencyTTL))
	switch {
	case err == nil:
		return false
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
		return true
	case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
		if !record.Replayable() {
			c.JSON(http.StatusConflict, errorResponse{Error: "request with this idempotency key is still processing"})
			return true
		}
		// Повтор запроса: отдаём сохранённый ответ.
		c.Data(record.HTTPStatus, "application/json", record.ResponseBody)
		return true
	default:
		h.logger.WithError(err).WithField("idempotency_key", key).Warn("idempotency check failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "idempotency check failed"})
		return true
	}
}

func (h *OrderHandler) finishIdempotent(key string, payload any, status int, ok bool) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to marshal idempotent response")
		return
	}

	if ok {
		err = h.idempotency.MarkDone(key, body, status)
	} else {
		err = h.idempotency.MarkFailed(key, body, status)
	}
	if err != nil {
		h.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to finalize idempotency record")
	}
}

// GetOrder обрабатывает GET /api/orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	found, err := h.svc.GetOrder(c.Param("id"))
	if err != nil {
		c.JSON(errorStatus(err), errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(found))
}

// ListOrders обрабатывает GET /api/orders?limit=N.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	orders, err := h.svc.ListOrders(limit)
	if err != nil {
		c.JSON(errorStatus(err), errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, toOrderResponses(orders))
}

// ListOrdersByCustomer обрабатывает GET /api/orders/customer/:email.
func (h *OrderHandler) ListOrdersByCustomer(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	orders, err := h.svc.ListOrdersByEmail(c.Param("email"), limit)
	if err != nil {
		c.JSON(errorStatus(err), errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, toOrderResponses(orders))
}

// CompleteOrder обрабатывает POST /api/orders/:id/complete.
func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	if _, err := h.svc.CompleteOrder(c.Param("id")); err != nil {
		c.JSON(errorStatus(err), errorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// CancelOrder обрабатывает POST /api/orders/:id/cancel.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	if _, err := h.svc.CancelOrder(c.Param("id")); err != nil {
		c.JSON(errorStatus(err), errorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteOrder обрабатывает DELETE /api/orders/:id.
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.svc.DeleteOrder(c.Param("id")); err != nil {
		c.JSON(errorStatus(err), errorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// CreatePaymentIntent обрабатывает POST /api/orders/:id/payment-intent.
// Оплата не блокирует жизненный цикл заказа: endpoint только создаёт
// намерение у провайдера.
func (h *OrderHandler) CreatePaymentIntent(c *gin.Context) {
	if h.payments == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "payment provider is not configured"})
		return
	}

	found, err := h.svc.GetOrder(c.Param("id"))
	if err != nil {
		c.JSON(errorStatus(err), errorResponse{Error: err.Error()})
		return
	}

	intentID, err := h.payments.CreateIntent(found.TotalPrice, "USD")
	if err != nil {
		h.logger.WithError(err).WithField("order_id", found.ID).Error("failed to create payment intent")
		c.JSON(http.StatusBadGateway, errorResponse{Error: "payment provider error"})
		return
	}

	c.JSON(http.StatusOK, paymentIntentResponse{PaymentIntentID: intentID})
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return defaultListLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
		return 0, false
	}
	return limit, true
}

// errorStatus переводит доменные ошибки в HTTP-статусы:
// валидация — 400, отсутствие — 404, конфликт перехода/версии — 409,
// отказ хранилища — 500.
func errorStatus(err error) int {
	switch {
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case domain.IsInvalidTransition(err), domain.IsVersionConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func requestHash(method, path string, body []byte) string {
	sum := sha256.New()
	sum.Write([]byte(method))
	sum.Write([]byte(":"))
	sum.Write([]byte(path))
	sum.Write([]byte(":"))
	sum.Write(body)
	return hex.EncodeToString(sum.Sum(nil))
}
