package handlers

import (
	"strings"
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/httpx"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
)

var errNotAuthenticated = service.Unauthenticated("Não autenticado")

func currentUser(c *fiber.Ctx) (uint, error) {
	id, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return 0, errNotAuthenticated
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Corpo da requisição inválido")
	}
	return nil
}

// queryTime reads an optional RFC 3339 query parameter.
func queryTime(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, service.Validation(name + " deve estar no formato RFC 3339")
	}
	return &t, nil
}

func normalizeETag(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "W/")
	return strings.Trim(v, "\"")
}

// notModified sets etag and reports whether the client copy is current.
func notModified(c *fiber.Ctx, etag string) bool {
	c.Set("ETag", etag)
	inm := c.Get("If-None-Match")
	if inm == "" {
		return false
	}
	want := normalizeETag(etag)
	for _, candidate := range strings.Split(inm, ",") {
		if normalizeETag(candidate) == want {
			return true
		}
	}
	return false
}
