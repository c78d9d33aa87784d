package handlers

import (
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/httpx"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Handlers groups every HTTP handler mounted under /api.
type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Group        *GroupHandler
	Invite       *InviteHandler
	Event        *EventHandler
	Notification *NotificationHandler
	File         *FileHandler
	Admin        *AdminHandler
}

// Register mounts the API. Static segments are registered before the
// parameterised routes that would otherwise shadow them.
func Register(app *fiber.App, h Handlers, jwtSecret string) {
	auth := middleware.AuthRequired(jwtSecret)
	api := app.Group("/api")

	authLimiter := limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return httpx.Error(c, fiber.StatusTooManyRequests, "rate_limited", "Muitas tentativas, aguarde um minuto")
		},
	})
	api.Post("/auth/registro", authLimiter, h.Auth.Register)
	api.Post("/auth/login", authLimiter, h.Auth.Login)

	api.Get("/usuarios/disponivel/:username", h.User.CheckUsername)
	usuarios := api.Group("/usuarios", auth)
	usuarios.Get("/me", h.User.GetCurrentUser)
	usuarios.Put("/me", h.User.UpdateProfile)
	usuarios.Delete("/me", h.User.Deactivate)
	usuarios.Put("/me/senha", h.User.ChangePassword)

	grupos := api.Group("/grupos", auth)
	grupos.Post("/", h.Group.CreateGroup)
	grupos.Get("/", h.Group.GetMyGroups)
	grupos.Get("/buscar", h.Group.SearchGroups)
	grupos.Get("/:id", h.Group.GetGroup)
	grupos.Put("/:id", h.Group.UpdateGroup)
	grupos.Delete("/:id", h.Group.DeleteGroup)
	grupos.Get("/:id/membros", h.Group.GetGroupMembers)
	grupos.Post("/:id/membros", h.Group.AddMember)
	grupos.Put("/:id/membros/:usuarioId", h.Group.UpdateMemberLevel)
	grupos.Delete("/:id/membros/:usuarioId", h.Group.RemoveMember)
	grupos.Post("/:id/entrar", h.Group.JoinGroup)
	grupos.Post("/:id/sair", h.Group.LeaveGroup)
	grupos.Get("/:id/eventos", h.Event.ListByGroup)
	grupos.Post("/:id/eventos", h.Event.Create)
	grupos.Get("/:id/arquivos", h.File.ListByGroup)
	grupos.Post("/:id/arquivos", h.File.Upload)

	api.Get("/convites/validar/:codigo", h.Invite.Validate)
	convites := api.Group("/convites", auth)
	convites.Post("/", h.Invite.Create)
	convites.Get("/meus", h.Invite.ListMine)
	convites.Get("/grupo/:grupoId", h.Invite.ListByGroup)
	convites.Post("/aceitar/:codigo", h.Invite.Accept)
	convites.Post("/recusar/:codigo", h.Invite.Decline)
	convites.Get("/:grupoId", h.Invite.ListByGroup)
	convites.Delete("/:codigo", h.Invite.Cancel)

	eventos := api.Group("/eventos", auth)
	eventos.Get("/:id", h.Event.Get)
	eventos.Put("/:id", h.Event.Update)
	eventos.Delete("/:id", h.Event.Delete)
	eventos.Post("/:id/participantes", h.Event.AddParticipants)
	eventos.Put("/:id/resposta", h.Event.Respond)

	notificacoes := api.Group("/notificacoes", auth)
	notificacoes.Get("/", h.Notification.List)
	notificacoes.Get("/nao-lidas/contagem", h.Notification.UnreadCount)
	notificacoes.Put("/lidas", h.Notification.MarkAllRead)
	notificacoes.Get("/configuracoes", h.Notification.GetSettings)
	notificacoes.Put("/configuracoes", h.Notification.UpdateSettings)
	notificacoes.Put("/:id/lida", h.Notification.MarkRead)
	notificacoes.Delete("/:id", h.Notification.Delete)

	arquivos := api.Group("/arquivos", auth)
	arquivos.Get("/:id", h.File.Get)
	arquivos.Put("/:id", h.File.Update)
	arquivos.Delete("/:id", h.File.Delete)
	arquivos.Get("/:id/download", h.File.Download)
	arquivos.Get("/:id/versoes", h.File.ListVersions)

	admin := api.Group("/admin", auth, middleware.RequireRole("admin"))
	admin.Post("/convites/expirar", h.Admin.ExpireInvites)
}
