package service

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/repository"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GroupService struct {
	groupRepo repository.GroupRepositoryInterface
	userRepo  repository.UserRepositoryInterface
}

func NewGroupService(
	groupRepo repository.GroupRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
	}
}

type CreateGroupInput struct {
	Name        string                 `json:"nome" validate:"required,min=3,max=100"`
	Description string                 `json:"descricao" validate:"max=500"`
	Category    string                 `json:"categoria" validate:"max=50"`
	Privacy     string                 `json:"privacidade" validate:"omitempty,oneof=public private"`
	Settings    map[string]interface{} `json:"configuracoes"`
}

type UpdateGroupInput struct {
	Name        *string                `json:"nome" validate:"omitempty,min=3,max=100"`
	Description *string                `json:"descricao" validate:"omitempty,max=500"`
	Category    *string                `json:"categoria" validate:"omitempty,max=50"`
	Privacy     *string                `json:"privacidade" validate:"omitempty,oneof=public private"`
	Settings    map[string]interface{} `json:"configuracoes"`
}

type AddMemberInput struct {
	UserID uint   `json:"usuario_id"`
	Email  string `json:"email" validate:"omitempty,email"`
	Level  string `json:"nivel_permissao" validate:"omitempty,oneof=admin moderator member visitor"`
}

func encodeSettings(settings map[string]interface{}) (datatypes.JSON, error) {
	if settings == nil {
		return nil, nil
	}
	b, err := json.Marshal(settings)
	if err != nil {
		return nil, Validation("configuracoes inválidas")
	}
	return datatypes.JSON(b), nil
}

func (s *GroupService) CreateGroup(creatorID uint, input CreateGroupInput) (*models.Group, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	if input.Privacy == "" {
		input.Privacy = string(models.PrivacyPrivate)
	}
	if errs := validation.Struct(input); len(errs) > 0 {
		return nil, Validation(errs...)
	}
	settings, err := encodeSettings(input.Settings)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Privacy:     models.GroupPrivacy(input.Privacy),
		Settings:    settings,
		CreatorID:   creatorID,
	}
	if err := s.groupRepo.CreateWithOwner(group); err != nil {
		return nil, err
	}
	return s.groupRepo.FindByID(group.ID)
}

// membershipOf resolves userID inside groupID. The group creator is always
// reported as admin, whatever the stored row says. A nil Membership with a
// nil error means the user is not in the group.
func (s *GroupService) membershipOf(groupID, userID uint) (*models.Group, *models.Membership, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errGroupNotFound
		}
		return nil, nil, err
	}

	isCreator := group.CreatorID == userID
	level := models.PermissionLevel("")
	member, err := s.groupRepo.GetMember(groupID, userID)
	switch {
	case err == nil:
		level = member.Level
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, err
	}
	if isCreator {
		level = models.LevelAdmin
	}
	if level == "" {
		return group, nil, nil
	}
	return group, &models.Membership{
		GroupID:      groupID,
		UserID:       userID,
		Level:        level,
		IsCreator:    isCreator,
		Capabilities: models.CapabilitiesFor(level),
	}, nil
}

// requireMember is membershipOf with non-members rejected.
func (s *GroupService) requireMember(groupID, userID uint) (*models.Group, *models.Membership, error) {
	group, m, err := s.membershipOf(groupID, userID)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, errNotGroupMember
	}
	return group, m, nil
}

func (s *GroupService) Membership(groupID, userID uint) (*models.Membership, error) {
	_, m, err := s.requireMember(groupID, userID)
	return m, err
}

// GetGroup returns a group to its members, or to anyone when it is public.
func (s *GroupService) GetGroup(groupID, userID uint) (*models.Group, *models.Membership, error) {
	group, m, err := s.membershipOf(groupID, userID)
	if err != nil {
		return nil, nil, err
	}
	if m == nil && !group.IsPublic() {
		return nil, nil, errNotGroupMember
	}
	return group, m, nil
}

func (s *GroupService) GetUserGroups(userID uint) ([]models.Group, error) {
	return s.groupRepo.GetUserGroups(userID)
}

func (s *GroupService) SearchPublicGroups(query string, limit int) ([]models.Group, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.groupRepo.SearchPublic(strings.TrimSpace(query), limit)
}

func (s *GroupService) UpdateGroup(groupID, userID uint, input UpdateGroupInput) (*models.Group, error) {
	group, m, err := s.requireMember(groupID, userID)
	if err != nil {
		return nil, err
	}
	if !m.Capabilities.CanConfigure {
		return nil, Forbidden("Sem permissão para alterar o grupo")
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
	}
	if errs := validation.Struct(input); len(errs) > 0 {
		return nil, Validation(errs...)
	}

	if input.Name != nil {
		group.Name = *input.Name
	}
	if input.Description != nil {
		group.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		group.Category = strings.TrimSpace(*input.Category)
	}
	if input.Privacy != nil {
		group.Privacy = models.GroupPrivacy(*input.Privacy)
	}
	if input.Settings != nil {
		settings, err := encodeSettings(input.Settings)
		if err != nil {
			return nil, err
		}
		group.Settings = settings
	}
	if err := s.groupRepo.Update(group); err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup soft-deletes the group. Only the creator or an admin may do it.
func (s *GroupService) DeleteGroup(groupID, userID uint) error {
	_, m, err := s.requireMember(groupID, userID)
	if err != nil {
		return err
	}
	if m.Level != models.LevelAdmin {
		return Forbidden("Apenas o criador ou um administrador pode excluir o grupo")
	}
	return s.groupRepo.SoftDelete(groupID)
}

func (s *GroupService) GetGroupMembers(groupID, userID uint) ([]models.MemberResponse, error) {
	group, _, err := s.requireMember(groupID, userID)
	if err != nil {
		return nil, err
	}
	members, err := s.groupRepo.GetMembers(groupID)
	if err != nil {
		return nil, err
	}
	out := make([]models.MemberResponse, 0, len(members))
	for i := range members {
		resp := members[i].ToResponse()
		if members[i].UserID == group.CreatorID {
			resp.Level = models.LevelAdmin
			resp.Capabilities = models.CapabilitiesFor(models.LevelAdmin)
		}
		out = append(out, resp)
	}
	return out, nil
}

// AddMember adds an existing account directly, by id or by email.
// Granting a level above member needs the configure capability.
func (s *GroupService) AddMember(groupID, actorID uint, input AddMemberInput) (*models.Membership, error) {
	input.Email = validation.NormalizeEmail(input.Email)
	if errs := validation.Struct(input); len(errs) > 0 {
		return nil, Validation(errs...)
	}
	if input.UserID == 0 && input.Email == "" {
		return nil, Validation("usuario_id ou email é obrigatório")
	}

	_, m, err := s.requireMember(groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !m.Capabilities.CanInvite {
		return nil, Forbidden("Sem permissão para adicionar membros")
	}
	level := models.LevelMember
	if input.Level != "" {
		level = models.PermissionLevel(input.Level)
	}
	if (level == models.LevelAdmin || level == models.LevelModerator) && !m.Capabilities.CanConfigure {
		return nil, Forbidden("Sem permissão para conceder este nível")
	}

	var user *models.User
	if input.UserID != 0 {
		user, err = s.userRepo.FindByID(input.UserID)
	} else {
		user, err = s.userRepo.FindByEmail(input.Email)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Usuário não encontrado")
		}
		return nil, err
	}
	if !user.Active {
		return nil, Conflict("Usuário desativado")
	}

	if err := s.groupRepo.AddMember(groupID, user.ID, level); err != nil {
		if errors.Is(err, repository.ErrAlreadyMember) {
			return nil, errAlreadyMember
		}
		return nil, err
	}
	return &models.Membership{
		GroupID:      groupID,
		UserID:       user.ID,
		Level:        level,
		Capabilities: models.CapabilitiesFor(level),
	}, nil
}

// RemoveMember removes targetID. The creator can not be removed, and only
// admins can remove other admins.
func (s *GroupService) RemoveMember(groupID, actorID, targetID uint) error {
	if actorID == targetID {
		return s.LeaveGroup(groupID, actorID)
	}
	group, m, err := s.requireMember(groupID, actorID)
	if err != nil {
		return err
	}
	if !m.Capabilities.CanRemove {
		return Forbidden("Sem permissão para remover membros")
	}
	if targetID == group.CreatorID {
		return Forbidden("O criador do grupo não pode ser removido")
	}
	target, err := s.groupRepo.GetMember(groupID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound("Membro não encontrado")
		}
		return err
	}
	if target.Level == models.LevelAdmin && m.Level != models.LevelAdmin {
		return Forbidden("Apenas administradores podem remover administradores")
	}
	return s.groupRepo.RemoveMember(groupID, targetID)
}

func (s *GroupService) UpdateMemberLevel(groupID, actorID, targetID uint, level string) (*models.Membership, error) {
	newLevel := models.PermissionLevel(strings.TrimSpace(level))
	if !newLevel.Valid() {
		return nil, Validation("nivel_permissao deve ser um de: admin, moderator, member, visitor")
	}
	group, m, err := s.requireMember(groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !m.Capabilities.CanConfigure {
		return nil, Forbidden("Sem permissão para alterar níveis")
	}
	if targetID == group.CreatorID {
		return nil, Forbidden("O nível do criador do grupo não pode ser alterado")
	}
	if err := s.groupRepo.UpdateMemberLevel(groupID, targetID, newLevel); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Membro não encontrado")
		}
		return nil, err
	}
	_, updated, err := s.membershipOf(groupID, targetID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// LeaveGroup removes the caller. The creator must delete the group instead.
func (s *GroupService) LeaveGroup(groupID, userID uint) error {
	_, m, err := s.requireMember(groupID, userID)
	if err != nil {
		return err
	}
	if m.IsCreator {
		return Forbidden("O criador não pode sair do grupo; exclua o grupo")
	}
	if err := s.groupRepo.RemoveMember(groupID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNotGroupMember
		}
		return err
	}
	return nil
}

// JoinGroup adds the caller to a public group as a member.
func (s *GroupService) JoinGroup(groupID, userID uint) (*models.Membership, error) {
	group, m, err := s.membershipOf(groupID, userID)
	if err != nil {
		return nil, err
	}
	if !group.IsPublic() {
		return nil, Forbidden("Grupo privado; é necessário um convite")
	}
	if m != nil {
		return nil, errAlreadyMember
	}
	if err := s.groupRepo.AddMember(groupID, userID, models.LevelMember); err != nil {
		if errors.Is(err, repository.ErrAlreadyMember) {
			return nil, errAlreadyMember
		}
		return nil, err
	}
	return &models.Membership{
		GroupID:      groupID,
		UserID:       userID,
		Level:        models.LevelMember,
		Capabilities: models.CapabilitiesFor(models.LevelMember),
	}, nil
}

func (s *GroupService) IsMember(groupID, userID uint) (bool, error) {
	_, m, err := s.membershipOf(groupID, userID)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}
