package service

import (
	"errors"
	"strings"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/repository"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	userRepo    repository.UserRepositoryInterface
	passwordMin int
}

func NewUserService(userRepo repository.UserRepositoryInterface) *UserService {
	return &UserService{userRepo: userRepo, passwordMin: validation.DefaultPasswordMinLength}
}

// WithPasswordMinLength sets the minimum accepted length for new passwords.
func (s *UserService) WithPasswordMinLength(n int) *UserService {
	s.passwordMin = n
	return s
}

type UpdateProfileInput struct {
	Username string `json:"username" validate:"omitempty,username"`
	FullName string `json:"nome" validate:"max=120"`
}

type ChangePasswordInput struct {
	Current string `json:"senha_atual" validate:"required"`
	New     string `json:"nova_senha" validate:"required"`
}

func (s *UserService) IsUsernameAvailable(username string) (bool, error) {
	username = validation.NormalizeUsername(username)
	if username == "" {
		return false, Validation("username é obrigatório")
	}

	// Username not found = available
	if _, err := s.userRepo.FindByUsername(username); err != nil {
		return true, nil
	}
	return false, nil
}

func (s *UserService) GetUserByID(userID uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Usuário não encontrado")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateProfile(userID uint, input UpdateProfileInput) (*models.User, error) {
	input.Username = validation.NormalizeUsername(input.Username)
	input.FullName = strings.TrimSpace(input.FullName)
	if errs := validation.Struct(input); len(errs) > 0 {
		return nil, Validation(errs...)
	}

	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	// Only check availability if username is different
	if input.Username != "" && !strings.EqualFold(input.Username, user.Username) {
		available, err := s.IsUsernameAvailable(input.Username)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, Conflict("Nome de usuário já em uso")
		}
		user.Username = input.Username
	}
	if input.FullName != "" {
		user.FullName = input.FullName
	}

	if err := s.userRepo.Update(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, Conflict("Nome de usuário já em uso")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(userID uint, input ChangePasswordInput) error {
	errs := validation.Struct(input)
	if input.New != "" && !validation.ValidatePassword(input.New, s.passwordMin) {
		errs = append(errs, "nova_senha muito curta")
	}
	if len(errs) > 0 {
		return Validation(errs...)
	}
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Current)); err != nil {
		return Forbidden("Senha atual incorreta")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.New), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashed)
	return s.userRepo.Update(user)
}

// Deactivate flags the account inactive. Logins then fail with account_deactivated.
func (s *UserService) Deactivate(userID uint) error {
	if _, err := s.GetUserByID(userID); err != nil {
		return err
	}
	return s.userRepo.SetActive(userID, false)
}
