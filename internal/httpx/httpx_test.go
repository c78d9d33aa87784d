package httpx

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind service.Kind
		want int
	}{
		{service.KindValidation, 400},
		{service.KindUnauthenticated, 401},
		{service.KindForbidden, 403},
		{service.KindNotFound, 404},
		{service.KindConflict, 409},
		{service.KindExpired, 404},
		{service.KindUnavailable, 503},
		{"", 500},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.kind); got != tt.want {
			t.Errorf("StatusFor(%q) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
		wantDetails int
	}{
		{"validation", service.Validation("nome é obrigatório", "email é inválido"), 400, "validation_failed", "Dados inválidos", 2},
		{"coded forbidden", service.Forbidden("Conta desativada").WithCode("account_deactivated"), 403, "account_deactivated", "Conta desativada", 0},
		{"internal", errors.New("pq: connection refused"), 500, "internal_error", "Erro interno do servidor", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return FromError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var body Response
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Success || body.Code != tt.wantCode || body.Error != tt.wantMessage || len(body.Errors) != tt.wantDetails {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestOKEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return OK(c, "pronto", fiber.Map{"n": 1}) })

	resp, _ := app.Test(httptest.NewRequest("GET", "/", nil))
	var body map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["sucesso"] != true || body["mensagem"] != "pronto" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["erro"]; ok {
		t.Error("success envelope carries an error field")
	}
}
