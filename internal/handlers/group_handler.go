package handlers

import (
	"github.com/GabrielInacior/FatecTeams-sub000/internal/httpx"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
)

type GroupHandler struct {
	groupService *service.GroupService
}

func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// groupAndUser reads the :id group parameter and the caller.
func groupAndUser(c *fiber.Ctx) (uint, uint, error) {
	userID, err := currentUser(c)
	if err != nil {
		return 0, 0, err
	}
	groupID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return 0, 0, err
	}
	return groupID, userID, nil
}

func (h *GroupHandler) CreateGroup(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var input service.CreateGroupInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	group, err := h.groupService.CreateGroup(userID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Created(c, "Grupo criado com sucesso", group)
}

func (h *GroupHandler) GetMyGroups(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groups, err := h.groupService.GetUserGroups(userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "", groups)
}

func (h *GroupHandler) SearchGroups(c *fiber.Ctx) error {
	groups, err := h.groupService.SearchPublicGroups(c.Query("q"), c.QueryInt("limite", 20))
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "", groups)
}

func (h *GroupHandler) GetGroup(c *fiber.Ctx) error {
	groupID, userID, err := groupAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	group, membership, err := h.groupService.GetGroup(groupID, userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "", fiber.Map{"grupo": group, "membro": membership})
}

func (h *GroupHandler) UpdateGroup(c *fiber.Ctx) error {
	groupID, userID, err := groupAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var input service.UpdateGroupInput
	if err := parseBody(c, &input); err != nil {
		return err
	}
	group, err := h.groupService.UpdateGroup(groupID, userID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Grupo atualizado", group)
}

func (h *GroupHandler) DeleteGroup(c *fiber.Ctx) error {
	groupID, userID, err := groupAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	if err := h.groupService.DeleteGroup(groupID, userID); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Grupo excluído", nil)
}

func (h *GroupHandler) GetGroupMembers(c *fiber.Ctx) error {
	groupID, userID, err := groupAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	members, err := h.groupService.GetGroupMembers(groupID, userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "", members)
}

func (h *GroupHandler) AddMember(c *fiber.Ctx) error {
	groupID, userID, err := groupAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var input service.AddMemberInput
	if err := parseBody(c, &input); err != nil {
		return err
	}
	membership, err := h.groupService.AddMember(groupID, userID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Created(c, "Membro adicionado", membership)
}

func (h *GroupHandler) RemoveMember(c *fiber.Ctx) error {
	groupID, userID, err := groupAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	targetID, err := httpx.ParamUint(c, "usuarioId")
	if err != nil {
		return httpx.FromError(c, err)
	}
	if err := h.groupService.RemoveMember(groupID, userID, targetID); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Membro removido", nil)
}

type updateLevelRequest struct {
	Level string `json:"nivel_permissao"`
}

func (h *GroupHandler) UpdateMemberLevel(c *fiber.Ctx) error {
	groupID, userID, err := groupAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	targetID, err := httpx.ParamUint(c, "usuarioId")
	if err != nil {
		return httpx.FromError(c, err)
	}
	var req updateLevelRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	membership, err := h.groupService.UpdateMemberLevel(groupID, userID, targetID, req.Level)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Permissão atualizada", membership)
}

func (h *GroupHandler) JoinGroup(c *fiber.Ctx) error {
	groupID, userID, err := groupAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	membership, err := h.groupService.JoinGroup(groupID, userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Você entrou no grupo", membership)
}

func (h *GroupHandler) LeaveGroup(c *fiber.Ctx) error {
	groupID, userID, err := groupAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	if err := h.groupService.LeaveGroup(groupID, userID); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Você saiu do grupo", nil)
}
