package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/internal/users"
	pkgauth "github.com/mypackmx/logistics-backend/pkg/auth"
	"github.com/mypackmx/logistics-backend/pkg/auth/session"
	"github.com/mypackmx/logistics-backend/pkg/config"
	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	pkgerrors "github.com/mypackmx/logistics-backend/pkg/errors"
	"github.com/mypackmx/logistics-backend/pkg/security"
)

type stubUserRepo struct {
	byEmail    map[string]*models.User
	created    []users.CreateUserDTO
	createErr  error
	lastLogins []uuid.UUID
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, dto)
	user := dto.ToModel()
	user.ID = uuid.New()
	return user, nil
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, _ time.Time) error {
	s.lastLogins = append(s.lastLogins, id)
	return nil
}

type stubSessionManager struct {
	tokens     map[string]string
	rotateErr  error
	revoked    []string
	generated  []string
	rotateFrom []string
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{tokens: map[string]string{}}
}

func (s *stubSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.tokens[accessID] = token
	s.generated = append(s.generated, accessID)
	return token, nil
}

func (s *stubSessionManager) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokens, oldAccessID)
	s.rotateFrom = append(s.rotateFrom, oldAccessID)
	newID := session.NewAccessID()
	token := "refresh-" + newID
	s.tokens[newID] = token
	return newID, token, nil
}

func (s *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	delete(s.tokens, accessID)
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-test-secret-test-secret",
		Issuer:            "mypackmx-test",
		ExpirationMinutes: 15,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func seedUser(t *testing.T, repo *stubUserRepo, email, password string, active bool) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Ana",
		LastName:     "Lopez",
		Role:         enums.UserRoleCustomer,
		IsActive:     active,
	}
	if repo.byEmail == nil {
		repo.byEmail = map[string]*models.User{}
	}
	repo.byEmail[email] = user
	return user
}

func newTestService(t *testing.T, repo *stubUserRepo, sessions *stubSessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	var coded *pkgerrors.Error
	if !errors.As(err, &coded) {
		t.Fatalf("expected coded error, got %v", err)
	}
	if coded.Code() != code {
		t.Fatalf("expected code %s, got %s", code, coded.Code())
	}
}

func TestLoginIssuesTokenPair(t *testing.T) {
	repo := &stubUserRepo{}
	user := seedUser(t, repo, "ana@example.com", "hunter2hunter2", true)
	sessions := newStubSessionManager()
	svc := newTestService(t, repo, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "  Ana@Example.com ", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected both tokens to be set")
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatal("expected the authenticated user in the response")
	}
	if len(repo.lastLogins) != 1 || repo.lastLogins[0] != user.ID {
		t.Fatalf("expected last login recorded for %s", user.ID)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id %s in claims, got %s", user.ID, claims.UserID)
	}
	if len(sessions.generated) != 1 || sessions.generated[0] != claims.ID {
		t.Fatal("expected refresh token stored under the token's access id")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	repo := &stubUserRepo{}
	seedUser(t, repo, "ana@example.com", "hunter2hunter2", true)
	svc := newTestService(t, repo, newStubSessionManager())

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "wrong-password"})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
	if !strings.Contains(err.Error(), invalidCredentialsMessage) {
		t.Fatalf("expected generic credentials message, got %q", err.Error())
	}
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc := newTestService(t, &stubUserRepo{}, newStubSessionManager())
	_, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "whatever123"})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	repo := &stubUserRepo{}
	seedUser(t, repo, "ana@example.com", "hunter2hunter2", false)
	svc := newTestService(t, repo, newStubSessionManager())

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "hunter2hunter2"})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRegisterCreatesCustomerAndLogsIn(t *testing.T) {
	repo := &stubUserRepo{}
	sessions := newStubSessionManager()
	svc := newTestService(t, repo, sessions)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Ana",
		LastName:  "Lopez",
		Email:     "Ana@Example.com",
		Password:  "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one user created, got %d", len(repo.created))
	}
	created := repo.created[0]
	if created.Email != "ana@example.com" {
		t.Fatalf("expected lowercased email, got %q", created.Email)
	}
	if created.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", created.Role)
	}
	if created.PasswordHash == "hunter2hunter2" || created.PasswordHash == "" {
		t.Fatal("expected the password to be hashed")
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected register to auto-login")
	}
	if resp.User == nil || resp.User.Role != enums.UserRoleCustomer {
		t.Fatal("expected customer user in response")
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newTestService(t, &stubUserRepo{}, newStubSessionManager())
	_, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Ana",
		LastName:  "Lopez",
		Email:     "ana@example.com",
		Password:  "short",
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestRefreshRotatesSession(t *testing.T) {
	repo := &stubUserRepo{}
	user := seedUser(t, repo, "ana@example.com", "hunter2hunter2", true)
	sessions := newStubSessionManager()
	svc := newTestService(t, repo, sessions)

	first, err := svc.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	resp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  first.AccessToken,
		RefreshToken: first.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if resp.AccessToken == first.AccessToken {
		t.Fatal("expected a freshly minted access token")
	}
	if resp.RefreshToken == first.RefreshToken {
		t.Fatal("expected a new refresh token after rotation")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected claims to carry user %s", user.ID)
	}
	if _, ok := sessions.tokens[claims.ID]; !ok {
		t.Fatal("expected the new access id to hold the rotated refresh token")
	}
}

func TestRefreshRejectsReusedToken(t *testing.T) {
	repo := &stubUserRepo{}
	seedUser(t, repo, "ana@example.com", "hunter2hunter2", true)
	sessions := newStubSessionManager()
	svc := newTestService(t, repo, sessions)

	first, err := svc.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  first.AccessToken,
		RefreshToken: first.RefreshToken,
	}); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  first.AccessToken,
		RefreshToken: first.RefreshToken,
	})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRefreshRejectsGarbageAccessToken(t *testing.T) {
	svc := newTestService(t, &stubUserRepo{}, newStubSessionManager())
	_, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  "not-a-jwt",
		RefreshToken: "whatever",
	})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := newStubSessionManager()
	svc := newTestService(t, &stubUserRepo{}, sessions)

	if err := svc.Logout(context.Background(), "access-123"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "access-123" {
		t.Fatal("expected the session to be revoked")
	}
}
