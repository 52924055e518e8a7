package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ConsoleType — закрытый перечень поддерживаемых ретро-консолей.
// Числовые коды совпадают с кодами внешнего API (1..5).
type ConsoleType int

const (
	ConsoleTypeNES ConsoleType = iota + 1
	ConsoleTypeSNES
	ConsoleTypeGenesis
	ConsoleTypeN64
	ConsoleTypePlayStation
)

// basePrices — базовая цена консоли по типу. Все суммы — точные decimal,
// бинарные float в ценообразовании не используются.
var basePrices = map[ConsoleType]decimal.Decimal{
	ConsoleTypeNES:         decimal.New(19999, -2),
	ConsoleTypeSNES:        decimal.New(24999, -2),
	ConsoleTypeGenesis:     decimal.New(22999, -2),
	ConsoleTypeN64:         decimal.New(29999, -2),
	ConsoleTypePlayStation: decimal.New(34999, -2),
}

// Valid проверяет, что тип входит в закрытый перечень.
func (t ConsoleType) Valid() bool {
	_, ok := basePrices[t]
	return ok
}

// BasePrice возвращает базовую цену консоли или ErrUnknownConsoleType.
func (t ConsoleType) BasePrice() (decimal.Decimal, error) {
	price, ok := basePrices[t]
	if !ok {
		return decimal.Decimal{}, ErrUnknownConsoleType
	}
	return price, nil
}

func (t ConsoleType) String() string {
	switch t {
	case ConsoleTypeNES:
		return "NES"
	case ConsoleTypeSNES:
		return "SNES"
	case ConsoleTypeGenesis:
		return "Genesis"
	case ConsoleTypeN64:
		return "N64"
	case ConsoleTypePlayStation:
		return "PlayStation"
	default:
		return "Unknown"
	}
}

// ConsoleConfig — неизменяемый value object конфигурации консоли.
// Сравнивается по значению всех пяти полей (обычное сравнение структур);
// ColorHex хранится ровно в том виде, в котором пришёл от клиента.
type ConsoleConfig struct {
	ConsoleType         ConsoleType
	NumberOfControllers int
	HDMISupport         bool
	CustomColor         bool
	ColorHex            string
}

// NewConsoleConfig валидирует и собирает конфигурацию атомарно:
// при любой ошибке конфигурация не создаётся.
func NewConsoleConfig(consoleType ConsoleType, controllers int, hdmi, customColor bool, colorHex string) (ConsoleConfig, error) {
	if !consoleType.Valid() {
		return ConsoleConfig{}, ErrUnknownConsoleType
	}
	if controllers < 1 || controllers > 4 {
		return ConsoleConfig{}, ErrControllerCountInvalid
	}
	if customColor && strings.TrimSpace(colorHex) == "" {
		return ConsoleConfig{}, ErrColorHexRequired
	}
	if customColor && !isValidHexColor(colorHex) {
		return ConsoleConfig{}, ErrColorHexInvalid
	}

	return ConsoleConfig{
		ConsoleType:         consoleType,
		NumberOfControllers: controllers,
		HDMISupport:         hdmi,
		CustomColor:         customColor,
		ColorHex:            colorHex,
	}, nil
}

// isValidHexColor принимает ровно 6 hex-символов с опциональным ведущим '#'.
func isValidHexColor(hex string) bool {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return false
	}
	for _, c := range hex {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
