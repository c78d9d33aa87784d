package ws

import (
	"strings"
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/httpx"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	log "github.com/sirupsen/logrus"
)

// Upgrade authenticates the handshake and hands the socket to the hub.
// Browsers cannot set headers on a websocket handshake, so the token may
// also come in the "token" query parameter.
func (h *Hub) Upgrade(secret string) fiber.Handler {
	accept := websocket.New(h.serve)
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		token := c.Query("token")
		if token == "" {
			if parts := strings.Fields(c.Get("Authorization")); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				token = parts[1]
			}
		}
		if token == "" {
			return httpx.Unauthorized(c, "missing_access_token", "Token de acesso não informado")
		}
		claims, err := middleware.ParseToken(token, secret)
		if err != nil {
			return httpx.Unauthorized(c, "invalid_access_token", "Token inválido ou expirado")
		}
		c.Locals("userID", claims.UserID)
		c.Locals("gzip", c.Query("gzip") == "1" || c.Get("X-Supports-Gzip") == "1")
		return accept(c)
	}
}

func (h *Hub) serve(c *websocket.Conn) {
	userID, _ := c.Locals("userID").(uint)
	gz, _ := c.Locals("gzip").(bool)

	client, detach := h.attach(userID, c, gz)
	defer detach()

	_ = c.SetReadDeadline(time.Now().Add(h.pongTimeout))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(h.pongTimeout))
	})

	// Clients only send keepalives; anything else is ignored.
	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Debug("ws: read loop ended")
			return
		}
		_ = c.SetReadDeadline(time.Now().Add(h.pongTimeout))
		if strings.TrimSpace(string(msg)) == "ping" || strings.Contains(string(msg), `"ping"`) {
			h.enqueue(client, frame{kind: websocket.TextMessage, data: []byte(`{"tipo":"pong"}`)})
		}
	}
}
