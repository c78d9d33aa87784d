package httpx

import (
	"errors"
	"fmt"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// Response is the single envelope every endpoint answers with.
type Response struct {
	Success   bool        `json:"sucesso"`
	Message   string      `json:"mensagem,omitempty"`
	Data      interface{} `json:"dados,omitempty"`
	Error     string      `json:"erro,omitempty"`
	Errors    []string    `json:"erros,omitempty"`
	Code      string      `json:"codigo,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func requestID(c *fiber.Ctx) string {
	if v := c.Locals("requestid"); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func OK(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{Success: true, Message: message, Data: data})
}

func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{Success: true, Message: message, Data: data})
}

func Error(c *fiber.Ctx, status int, code string, message string, details ...string) error {
	if message == "" {
		message = "Falha na requisição"
	}
	return c.Status(status).JSON(Response{
		Success:   false,
		Error:     message,
		Errors:    details,
		Code:      code,
		RequestID: requestID(c),
	})
}

func BadRequest(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusBadRequest, code, message)
}

func Unauthorized(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusUnauthorized, code, message)
}

func Forbidden(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusForbidden, code, message)
}

func Internal(c *fiber.Ctx, code string) error {
	return Error(c, fiber.StatusInternalServerError, code, "Erro interno do servidor")
}

// StatusFor maps a service error kind to its HTTP status.
func StatusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return fiber.StatusBadRequest
	case service.KindUnauthenticated:
		return fiber.StatusUnauthorized
	case service.KindForbidden:
		return fiber.StatusForbidden
	case service.KindNotFound, service.KindExpired:
		return fiber.StatusNotFound
	case service.KindConflict:
		return fiber.StatusConflict
	case service.KindUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// FromError writes err as an envelope. Errors that are not service errors
// are logged and reported as a generic 500.
func FromError(c *fiber.Ctx, err error) error {
	var se *service.Error
	if errors.As(err, &se) {
		return Error(c, StatusFor(se.Kind), se.Code, se.Message, se.Details...)
	}
	log.WithError(err).WithFields(log.Fields{
		"method":     c.Method(),
		"path":       c.Path(),
		"request_id": requestID(c),
	}).Error("request failed")
	return Internal(c, "internal_error")
}

func LocalUint(c *fiber.Ctx, key string) (uint, error) {
	v := c.Locals(key)
	if v == nil {
		return 0, fmt.Errorf("missing local %s", key)
	}
	u, ok := v.(uint)
	if !ok {
		return 0, fmt.Errorf("invalid local %s", key)
	}
	return u, nil
}

// ParamUint reads a positive integer path parameter.
func ParamUint(c *fiber.Ctx, name string) (uint, error) {
	n, err := c.ParamsInt(name)
	if err != nil || n <= 0 {
		return 0, service.Validation(fmt.Sprintf("%s inválido", name))
	}
	return uint(n), nil
}
