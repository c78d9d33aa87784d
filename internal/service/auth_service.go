package service

import (
	"errors"
	"strings"
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/repository"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/validation"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InviteLinker attaches pending invites to a freshly registered account.
type InviteLinker interface {
	LinkInvitee(email string, userID uint)
}

type AuthService struct {
	userRepo  repository.UserRepositoryInterface
	invites   InviteLinker
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time

	passwordMin int
	adminEmails map[string]bool
}

func NewAuthService(userRepo repository.UserRepositoryInterface, invites InviteLinker, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		userRepo:  userRepo,
		invites:   invites,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,

		passwordMin: validation.DefaultPasswordMinLength,
	}
}

// WithPasswordMinLength sets the minimum accepted password length.
func (s *AuthService) WithPasswordMinLength(n int) *AuthService {
	s.passwordMin = n
	return s
}

// WithAdminEmails lists the accounts that hold the admin platform role.
// Matching accounts get the role on registration and on their next login.
func (s *AuthService) WithAdminEmails(emails []string) *AuthService {
	s.adminEmails = make(map[string]bool, len(emails))
	for _, e := range emails {
		if e = validation.NormalizeEmail(e); e != "" {
			s.adminEmails[e] = true
		}
	}
	return s
}

func (s *AuthService) roleFor(email string) string {
	if s.adminEmails[validation.NormalizeEmail(email)] {
		return models.PlatformRoleAdmin
	}
	return models.PlatformRoleUser
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"senha" validate:"required"`
	FullName string `json:"nome" validate:"max=120"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"senha" validate:"required"`
}

type AuthResponse struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expira_em"`
	User      models.UserResponse `json:"usuario"`
}

var errInvalidCredentials = Unauthenticated("Email ou senha inválidos")

func (s *AuthService) Register(input RegisterInput) (*AuthResponse, error) {
	input.Email = validation.NormalizeEmail(input.Email)
	input.Username = validation.NormalizeUsername(input.Username)
	input.FullName = strings.TrimSpace(input.FullName)
	errs := validation.Struct(input)
	if input.Password != "" && !validation.ValidatePassword(input.Password, s.passwordMin) {
		errs = append(errs, "senha muito curta")
	}
	if len(errs) > 0 {
		return nil, Validation(errs...)
	}

	// Check if user exists
	if _, err := s.userRepo.FindByEmail(input.Email); err == nil {
		return nil, Conflict("Email já cadastrado")
	}
	if _, err := s.userRepo.FindByUsername(input.Username); err == nil {
		return nil, Conflict("Nome de usuário já em uso")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		FullName:     input.FullName,
		Role:         s.roleFor(input.Email),
		Active:       true,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, Conflict("Email ou nome de usuário já cadastrado")
		}
		return nil, err
	}

	if s.invites != nil {
		s.invites.LinkInvitee(user.Email, user.ID)
	}
	return s.issue(user)
}

func (s *AuthService) Login(input LoginInput) (*AuthResponse, error) {
	if errs := validation.Struct(input); len(errs) > 0 {
		return nil, Validation(errs...)
	}
	user, err := s.userRepo.FindByEmail(validation.NormalizeEmail(input.Email))
	if err != nil {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errInvalidCredentials
	}
	if !user.Active {
		return nil, errAccountDisabled
	}
	if user.Role != models.PlatformRoleAdmin && s.roleFor(user.Email) == models.PlatformRoleAdmin {
		user.Role = models.PlatformRoleAdmin
		if err := s.userRepo.Update(user); err != nil {
			return nil, err
		}
		log.WithField("user_id", user.ID).Info("admin role granted")
	}

	now := s.now()
	if err := s.userRepo.TouchLastLogin(user.ID, now); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("last login not recorded")
	} else {
		user.LastLoginAt = &now
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResponse, error) {
	expiresAt := s.now().Add(s.tokenTTL)
	token, err := s.generateToken(user, expiresAt)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.ToResponse(),
	}, nil
}

func (s *AuthService) generateToken(user *models.User, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"iat":     s.now().Unix(),
		"exp":     expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
