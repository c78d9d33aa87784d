package service

import (
	"errors"
	"testing"
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-key-12345"

type recordingLinker struct {
	calls map[string]uint
}

func (r *recordingLinker) LinkInvitee(email string, userID uint) {
	if r.calls == nil {
		r.calls = map[string]uint{}
	}
	r.calls[email] = userID
}

// Tests for AuthService

func TestRegister(t *testing.T) {
	mockUserRepo := NewMockUserRepository()
	linker := &recordingLinker{}
	authService := NewAuthService(mockUserRepo, linker, testJWTSecret, time.Hour)

	mockUserRepo.addUser(50, "duplicate_user", "duplicate@example.com")

	tests := []struct {
		name     string
		input    RegisterInput
		wantKind Kind
	}{
		{
			name: "Valid registration",
			input: RegisterInput{
				Username: "john_doe",
				Email:    "  John@Example.com ",
				Password: "securepassword123",
				FullName: "John Doe",
			},
		},
		{
			name: "Duplicate email",
			input: RegisterInput{
				Username: "jane_doe",
				Email:    "DUPLICATE@example.com",
				Password: "securepassword123",
			},
			wantKind: KindConflict,
		},
		{
			name: "Duplicate username",
			input: RegisterInput{
				Username: "duplicate_user",
				Email:    "another@example.com",
				Password: "securepassword123",
			},
			wantKind: KindConflict,
		},
		{
			name: "Short password",
			input: RegisterInput{
				Username: "short_pw",
				Email:    "short@example.com",
				Password: "123",
			},
			wantKind: KindValidation,
		},
		{
			name: "Invalid email",
			input: RegisterInput{
				Username: "bad_mail",
				Email:    "not-an-email",
				Password: "securepassword123",
			},
			wantKind: KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := authService.Register(tt.input)
			if KindOf(err) != tt.wantKind {
				t.Fatalf("Register error = %v, want kind %q", err, tt.wantKind)
			}
			if tt.wantKind != "" {
				return
			}
			if result == nil || result.Token == "" {
				t.Fatalf("Register returned no token: %+v", result)
			}
			if result.User.Email != "john@example.com" {
				t.Errorf("email not normalized: %q", result.User.Email)
			}
			if !result.User.Active || result.User.Role != models.PlatformRoleUser {
				t.Errorf("new account should be an active user: %+v", result.User)
			}
			if linker.calls["john@example.com"] != result.User.ID {
				t.Errorf("pending invites not linked: %v", linker.calls)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	mockUserRepo := NewMockUserRepository()
	authService := NewAuthService(mockUserRepo, nil, testJWTSecret, time.Hour)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("securepassword123"), bcrypt.MinCost)
	active := mockUserRepo.addUser(1, "john_doe", "john@example.com")
	active.PasswordHash = string(hashedPassword)
	disabled := mockUserRepo.addUser(2, "old_user", "old@example.com")
	disabled.PasswordHash = string(hashedPassword)
	disabled.Active = false

	tests := []struct {
		name     string
		input    LoginInput
		wantKind Kind
		wantCode string
	}{
		{"Valid login", LoginInput{Email: "john@example.com", Password: "securepassword123"}, "", ""},
		{"Email in other case", LoginInput{Email: "JOHN@example.com", Password: "securepassword123"}, "", ""},
		{"Unknown email", LoginInput{Email: "nobody@example.com", Password: "securepassword123"}, KindUnauthenticated, string(KindUnauthenticated)},
		{"Wrong password", LoginInput{Email: "john@example.com", Password: "wrongpassword"}, KindUnauthenticated, string(KindUnauthenticated)},
		{"Deactivated account", LoginInput{Email: "old@example.com", Password: "securepassword123"}, KindForbidden, CodeAccountDeactivated},
		{"Missing password", LoginInput{Email: "john@example.com"}, KindValidation, string(KindValidation)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := authService.Login(tt.input)
			if KindOf(err) != tt.wantKind {
				t.Fatalf("Login error = %v, want kind %q", err, tt.wantKind)
			}
			if err != nil {
				var se *Error
				if !errors.As(err, &se) || se.Code != tt.wantCode {
					t.Errorf("Login error code = %v, want %q", err, tt.wantCode)
				}
				return
			}
			if result.Token == "" {
				t.Error("Login returned empty token")
			}
			if result.User.LastLoginAt == nil {
				t.Error("last login not recorded")
			}
		})
	}
}

func TestTokenClaims(t *testing.T) {
	mockUserRepo := NewMockUserRepository()
	authService := NewAuthService(mockUserRepo, nil, testJWTSecret, 2*time.Hour)
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	authService.now = func() time.Time { return fixed }

	user := mockUserRepo.addUser(7, "maria", "maria@example.com")
	resp, err := authService.issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !resp.ExpiresAt.Equal(fixed.Add(2 * time.Hour)) {
		t.Errorf("ExpiresAt = %v", resp.ExpiresAt)
	}

	parser := jwt.NewParser(jwt.WithTimeFunc(func() time.Time { return fixed }))
	token, err := parser.Parse(resp.Token, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token did not verify: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["user_id"].(float64) != 7 || claims["email"] != "maria@example.com" || claims["role"] != models.PlatformRoleUser {
		t.Errorf("unexpected claims: %v", claims)
	}

	if _, err := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) {
		return []byte("another-secret"), nil
	}); err == nil {
		t.Error("token verified with the wrong secret")
	}
}

func TestRegisterHonorsConfiguredPasswordLength(t *testing.T) {
	authService := NewAuthService(NewMockUserRepository(), nil, testJWTSecret, time.Hour).WithPasswordMinLength(12)

	_, err := authService.Register(RegisterInput{Username: "ana", Email: "ana@example.com", Password: "elevenchars"})
	if KindOf(err) != KindValidation {
		t.Fatalf("11-char password error = %v, want validation", err)
	}
	if _, err := authService.Register(RegisterInput{Username: "ana", Email: "ana@example.com", Password: "twelve_chars"}); err != nil {
		t.Fatalf("12-char password rejected: %v", err)
	}
}

func TestAdminEmailsGrantRole(t *testing.T) {
	mockUserRepo := NewMockUserRepository()
	authService := NewAuthService(mockUserRepo, nil, testJWTSecret, time.Hour).
		WithAdminEmails([]string{" Coord@Fatec.sp.gov.br ", "", "diretoria@fatec.sp.gov.br"})

	resp, err := authService.Register(RegisterInput{Username: "coord", Email: "coord@fatec.sp.gov.br", Password: "securepassword123"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.User.Role != models.PlatformRoleAdmin {
		t.Errorf("listed account registered as %q", resp.User.Role)
	}

	resp, err = authService.Register(RegisterInput{Username: "aluno", Email: "aluno@fatec.sp.gov.br", Password: "securepassword123"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.User.Role != models.PlatformRoleUser {
		t.Errorf("unlisted account registered as %q", resp.User.Role)
	}

	// Accounts created before the address was listed are promoted on login.
	hash, _ := bcrypt.GenerateFromPassword([]byte("securepassword123"), bcrypt.MinCost)
	existing := mockUserRepo.addUser(40, "diretora", "diretoria@fatec.sp.gov.br")
	existing.PasswordHash = string(hash)

	resp, err = authService.Login(LoginInput{Email: "diretoria@fatec.sp.gov.br", Password: "securepassword123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.User.Role != models.PlatformRoleAdmin || mockUserRepo.users[40].Role != models.PlatformRoleAdmin {
		t.Errorf("listed account not promoted: response %q, stored %q", resp.User.Role, mockUserRepo.users[40].Role)
	}

	token, err := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if token.Claims.(jwt.MapClaims)["role"] != models.PlatformRoleAdmin {
		t.Errorf("token role claim = %v", token.Claims.(jwt.MapClaims)["role"])
	}
}
