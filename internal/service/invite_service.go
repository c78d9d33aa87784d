package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/metrics"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/repository"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/validation"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultInviteTTL = 7 * 24 * time.Hour
	inviteCodeLength = 10
	codeAttempts     = 3
)

type InviteService struct {
	inviteRepo repository.InviteRepositoryInterface
	userRepo   repository.UserRepositoryInterface
	groups     *GroupService
	notifier   Notifier
	ttl        time.Duration
	now        func() time.Time
}

func NewInviteService(
	inviteRepo repository.InviteRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	groups *GroupService,
	notifier Notifier,
	ttl time.Duration,
) *InviteService {
	if ttl <= 0 {
		ttl = DefaultInviteTTL
	}
	return &InviteService{
		inviteRepo: inviteRepo,
		userRepo:   userRepo,
		groups:     groups,
		notifier:   notifier,
		ttl:        ttl,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type CreateInviteInput struct {
	GroupID   uint       `json:"grupo_id" validate:"required"`
	Email     string     `json:"email" validate:"required,email,max=255"`
	Message   string     `json:"mensagem" validate:"max=500"`
	ExpiresAt *time.Time `json:"data_expiracao"`
}

// generateInviteCode strips the hyphens from a random UUID and keeps the
// first ten characters, upper-cased.
func generateInviteCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:inviteCodeLength])
}

// Create checks, in order: caller identity, group, membership, invite
// capability, own email, existing membership and pending invite.
func (s *InviteService) Create(inviterID uint, input CreateInviteInput) (*models.Invite, error) {
	if inviterID == 0 {
		return nil, Unauthenticated("Autenticação necessária")
	}
	now := s.now()
	input.Email = validation.NormalizeEmail(input.Email)
	input.Message = strings.TrimSpace(input.Message)
	errs := validation.Struct(input)
	if input.ExpiresAt != nil && !input.ExpiresAt.After(now) {
		errs = append(errs, "data_expiracao deve estar no futuro")
	}
	if len(errs) > 0 {
		return nil, Validation(errs...)
	}

	inviter, err := s.userRepo.FindByID(inviterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Unauthenticated("Usuário não encontrado")
		}
		return nil, err
	}
	if !inviter.Active {
		return nil, errAccountDisabled
	}

	group, m, err := s.groups.requireMember(input.GroupID, inviterID)
	if err != nil {
		return nil, err
	}
	if !m.Capabilities.CanInvite {
		return nil, Forbidden("Sem permissão para convidar membros")
	}
	if validation.SameEmail(inviter.Email, input.Email) {
		return nil, Validation("Não é possível convidar o próprio email")
	}
	isMember, err := s.groups.groupRepo.IsEmailMember(group.ID, input.Email)
	if err != nil {
		return nil, err
	}
	if isMember {
		return nil, errAlreadyMember
	}

	expiresAt := now.Add(s.ttl)
	if input.ExpiresAt != nil {
		expiresAt = input.ExpiresAt.UTC()
	}
	invite := &models.Invite{
		GroupID:   group.ID,
		InviterID: inviterID,
		Email:     input.Email,
		Status:    models.InvitePending,
		Message:   input.Message,
		ExpiresAt: expiresAt,
	}
	if invitee, err := s.userRepo.FindByEmail(input.Email); err == nil {
		id := invitee.ID
		invite.InviteeID = &id
	}

	if err := s.insertWithFreshCode(invite, now); err != nil {
		return nil, err
	}
	metrics.InvitesCreated.Inc()
	invite.Group = *group
	invite.Inviter = *inviter

	if invite.InviteeID != nil {
		notifyQuietly(s.notifier, NotifyInput{
			UserID:     *invite.InviteeID,
			Title:      "Convite para grupo",
			Message:    fmt.Sprintf("%s convidou você para o grupo %s", displayName(inviter), group.Name),
			Type:       models.NotificationInvite,
			OriginType: "convite",
			OriginID:   &invite.ID,
			Metadata:   map[string]interface{}{"codigo": invite.Code, "grupo_id": group.ID},
		})
	}
	return invite, nil
}

// insertWithFreshCode retries only on a unique violation, which is either a
// code collision or a concurrent create for the same pair. The retry sees
// the concurrent row and reports the conflict.
func (s *InviteService) insertWithFreshCode(invite *models.Invite, now time.Time) error {
	var err error
	for attempt := 0; attempt < codeAttempts; attempt++ {
		invite.ID = 0
		invite.Code = generateInviteCode()
		err = s.inviteRepo.CreatePending(invite, now)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, repository.ErrPendingInviteExists):
			return Conflict("Já existe um convite pendente para este email")
		case errors.Is(err, gorm.ErrDuplicatedKey):
			log.WithField("attempt", attempt+1).Debug("invite code collision, retrying")
			continue
		default:
			return err
		}
	}
	return fmt.Errorf("invite: no unique code after %d attempts: %w", codeAttempts, err)
}

func displayName(u *models.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// ListByGroup is visible to group members only. status filters when set.
func (s *InviteService) ListByGroup(groupID, userID uint, status string) ([]models.Invite, error) {
	st := models.InviteStatus(strings.TrimSpace(status))
	if st != "" && !st.Valid() {
		return nil, Validation("status deve ser um de: pending, accepted, declined, expired")
	}
	if _, _, err := s.groups.requireMember(groupID, userID); err != nil {
		return nil, err
	}
	return s.inviteRepo.ListByGroup(groupID, st)
}

// ListMine returns redeemable invites addressed to the caller's email.
func (s *InviteService) ListMine(userID uint) ([]models.InvitePreview, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Unauthenticated("Usuário não encontrado")
		}
		return nil, err
	}
	invites, err := s.inviteRepo.ListRedeemableForEmail(validation.NormalizeEmail(user.Email), s.now())
	if err != nil {
		return nil, err
	}
	out := make([]models.InvitePreview, 0, len(invites))
	for i := range invites {
		if invites[i].Group.ID == 0 {
			continue
		}
		out = append(out, invites[i].ToPreview())
	}
	return out, nil
}

// findRedeemable treats unknown, answered, expired and orphaned invites alike.
func (s *InviteService) findRedeemable(code string, now time.Time) (*models.Invite, error) {
	invite, err := s.findByCode(code)
	if err != nil {
		return nil, err
	}
	if !invite.Redeemable(now) {
		return nil, errInviteNotFound
	}
	return invite, nil
}

func (s *InviteService) findByCode(code string) (*models.Invite, error) {
	code = validation.NormalizeCode(code)
	if code == "" {
		return nil, errInviteNotFound
	}
	invite, err := s.inviteRepo.FindByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInviteNotFound
		}
		return nil, err
	}
	if invite.Group.ID == 0 {
		return nil, errInviteNotFound
	}
	return invite, nil
}

// Validate is public. Every non-redeemable case is the same not-found.
func (s *InviteService) Validate(code string) (*models.InvitePreview, error) {
	invite, err := s.findRedeemable(code, s.now())
	if err != nil {
		return nil, err
	}
	preview := invite.ToPreview()
	return &preview, nil
}

// answerer loads the caller and the invite and checks the invite is theirs.
// Someone else's invite that can no longer be redeemed reads as not found.
func (s *InviteService) answerer(code string, userID uint, now time.Time) (*models.User, *models.Invite, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, Unauthenticated("Usuário não encontrado")
		}
		return nil, nil, err
	}
	if !user.Active {
		return nil, nil, errAccountDisabled
	}
	invite, err := s.findByCode(code)
	if err != nil {
		return nil, nil, err
	}
	if !validation.SameEmail(user.Email, invite.Email) {
		if !invite.Redeemable(now) {
			return nil, nil, errInviteNotFound
		}
		return nil, nil, Forbidden("Este convite foi enviado para outro email")
	}
	return user, invite, nil
}

// Accept adds the caller as a member and flips the invite in one transaction.
func (s *InviteService) Accept(code string, userID uint) (*models.Membership, error) {
	now := s.now()
	user, invite, err := s.answerer(code, userID, now)
	if err != nil {
		return nil, err
	}
	isMember, err := s.groups.groupRepo.IsMember(invite.GroupID, user.ID)
	if err != nil {
		return nil, err
	}
	if isMember || invite.Group.CreatorID == user.ID {
		return nil, errAlreadyMember
	}
	if !invite.Redeemable(now) {
		return nil, errInviteNotFound
	}

	if err := s.inviteRepo.Accept(invite, user.ID, now); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyMember):
			return nil, errAlreadyMember
		case errors.Is(err, repository.ErrInviteNotRedeemable):
			return nil, errInviteNotFound
		}
		return nil, err
	}
	metrics.InvitesAnswered.WithLabelValues(string(models.InviteAccepted)).Inc()

	notifyQuietly(s.notifier, NotifyInput{
		UserID:     invite.InviterID,
		Title:      "Convite aceito",
		Message:    fmt.Sprintf("%s entrou no grupo %s", displayName(user), invite.Group.Name),
		Type:       models.NotificationInvite,
		OriginType: "grupo",
		OriginID:   &invite.GroupID,
	})

	return &models.Membership{
		GroupID:      invite.GroupID,
		UserID:       user.ID,
		Level:        models.LevelMember,
		Capabilities: models.CapabilitiesFor(models.LevelMember),
	}, nil
}

func (s *InviteService) Decline(code string, userID uint) error {
	now := s.now()
	_, invite, err := s.answerer(code, userID, now)
	if err != nil {
		return err
	}
	if !invite.Redeemable(now) {
		return errInviteNotFound
	}
	if err := s.inviteRepo.Decline(invite.ID, now); err != nil {
		if errors.Is(err, repository.ErrInviteNotRedeemable) {
			return errInviteNotFound
		}
		return err
	}
	metrics.InvitesAnswered.WithLabelValues(string(models.InviteDeclined)).Inc()
	return nil
}

// Cancel deletes a pending invite. Allowed for the inviter and for group
// admins and moderators.
func (s *InviteService) Cancel(code string, userID uint) error {
	invite, err := s.findByCode(code)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return NotFound("Convite não encontrado")
		}
		return err
	}
	if invite.InviterID != userID {
		_, m, err := s.groups.membershipOf(invite.GroupID, userID)
		if err != nil {
			return err
		}
		if m == nil || (m.Level != models.LevelAdmin && m.Level != models.LevelModerator) {
			return Forbidden("Sem permissão para cancelar este convite")
		}
	}
	if invite.Status != models.InvitePending {
		return Conflict("Convite já respondido")
	}
	if err := s.inviteRepo.DeletePending(invite.ID); err != nil {
		if errors.Is(err, repository.ErrInviteAnswered) {
			return Conflict("Convite já respondido")
		}
		return err
	}
	return nil
}

// ExpireStale flips every pending invite past its expiration to expired.
func (s *InviteService) ExpireStale() (int64, error) {
	n, err := s.inviteRepo.ExpireStale(s.now())
	if err != nil {
		return 0, err
	}
	metrics.InvitesExpired.Add(float64(n))
	if n > 0 {
		log.WithField("count", n).Info("expired stale invites")
	}
	return n, nil
}

// LinkInvitee attaches a newly registered account to pending invites for its email.
func (s *InviteService) LinkInvitee(email string, userID uint) {
	if err := s.inviteRepo.LinkInvitee(validation.NormalizeEmail(email), userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("failed to link pending invites")
	}
}
