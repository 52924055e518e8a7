package http

import (
	"time"

	"github.com/ichad17/retro-configurator/internal/domain"
)

// createOrderRequest — тело POST /api/orders. Поля в camelCase,
// consoleType и status — целочисленные коды внешнего API.
type createOrderRequest struct {
	ConsoleType         int    `json:"consoleType"`
	NumberOfControllers int    `json:"numberOfControllers"`
	HDMISupport         bool   `json:"hdmiSupport"`
	CustomColor         bool   `json:"customColor"`
	ColorHex            string `json:"colorHex"`
	CustomerEmail       string `json:"customerEmail"`
}

// consoleConfigResponse — вложенный снимок конфигурации в ответе API.
type consoleConfigResponse struct {
	ConsoleType         int    `json:"consoleType"`
	ConsoleName         string `json:"consoleName"`
	NumberOfControllers int    `json:"numberOfControllers"`
	HDMISupport         bool   `json:"hdmiSupport"`
	CustomColor         bool   `json:"customColor"`
	ColorHex            string `json:"colorHex,omitempty"`
}

type orderResponse struct {
	ID            string                `json:"id"`
	Configuration consoleConfigResponse `json:"configuration"`
	TotalPrice    string                `json:"totalPrice"`
	Status        int                   `json:"status"`
	StatusName    string                `json:"statusName"`
	CustomerEmail string                `json:"customerEmail"`
	CreatedAt     string                `json:"createdAt"`
	CompletedAt   *string               `json:"completedAt,omitempty"`
}

type paymentIntentResponse struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toOrderResponse(order domain.Order) orderResponse {
	resp := orderResponse{
		ID: order.ID,
		Configuration: consoleConfigResponse{
			ConsoleType:         int(order.Configuration.ConsoleType),
			ConsoleName:         order.Configuration.ConsoleType.String(),
			NumberOfControllers: order.Configuration.NumberOfControllers,
			HDMISupport:         order.Configuration.HDMISupport,
			CustomColor:         order.Configuration.CustomColor,
			ColorHex:            order.Configuration.ColorHex,
		},
		TotalPrice:    order.TotalPrice.StringFixed(2),
		Status:        order.Status.Code(),
		StatusName:    string(order.Status),
		CustomerEmail: order.CustomerEmail,
		CreatedAt:     order.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if order.CompletedAt != nil {
		completed := order.CompletedAt.UTC().Format(time.RFC3339Nano)
		resp.CompletedAt = &completed
	}
	return resp
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	result := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		result = append(result, toOrderResponse(order))
	}
	return result
}
