package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/shotbook/shotbook-api/internal/domain/user"
	"github.com/shotbook/shotbook-api/internal/pkg/apperror"
	"github.com/shotbook/shotbook-api/internal/pkg/authz"
	"github.com/shotbook/shotbook-api/internal/pkg/jwt"
	"github.com/shotbook/shotbook-api/internal/pkg/password"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*user.User
	byEmail map[string]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[uuid.UUID]*user.User{}, byEmail: map[string]*user.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[u.Email]; ok {
		return user.ErrEmailAlreadyExists
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.byID[u.ID] = &cp
	f.byEmail[u.Email] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) UpdateRole(_ context.Context, id uuid.UUID, role authz.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Role = role
	return nil
}

type memoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]uuid.UUID
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: map[string]uuid.UUID{}}
}

func (m *memoryTokenStore) Save(_ context.Context, hash string, userID uuid.UUID, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[hash] = userID
	return nil
}

func (m *memoryTokenStore) Take(_ context.Context, hash string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.tokens[hash]
	if !ok {
		return uuid.Nil, ErrInvalidRefreshToken
	}
	delete(m.tokens, hash)
	return id, nil
}

func (m *memoryTokenStore) Delete(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, hash)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeUserRepo, *memoryTokenStore) {
	t.Helper()
	password.Cost = bcrypt.MinCost
	repo := newFakeUserRepo()
	tokens := newMemoryTokenStore()
	svc := NewService(repo, jwt.NewService("test-secret", time.Minute, time.Hour), tokens)
	return svc, repo, tokens
}

func TestRegisterCreatesClient(t *testing.T) {
	svc, repo, tokens := newTestService(t)

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "  Ana@Example.com ",
		Password: "secret1",
		FullName: "Ana Lima",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Email != "ana@example.com" {
		t.Fatalf("email not normalized: %q", resp.User.Email)
	}
	if resp.User.Role != string(authz.RoleClient) {
		t.Fatalf("expected client role, got %q", resp.User.Role)
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected both tokens")
	}
	if len(tokens.tokens) != 1 {
		t.Fatalf("expected refresh token to be stored, have %d", len(tokens.tokens))
	}

	stored, _ := repo.GetByEmail(context.Background(), "ana@example.com")
	if stored == nil || stored.PasswordHash == "secret1" {
		t.Fatalf("password must be stored hashed")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	req := &RegisterRequest{Email: "ana@example.com", Password: "secret1", FullName: "Ana"}

	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), req); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, &RegisterRequest{Email: "ana@example.com", Password: "secret1", FullName: "Ana"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := svc.Login(ctx, &LoginRequest{Email: "ANA@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := svc.jwtService.ValidateAccessToken(resp.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims.Email != "ana@example.com" || claims.Role != "client" || claims.UserID != resp.User.ID {
		t.Fatalf("unexpected claims %+v", claims)
	}

	for name, req := range map[string]*LoginRequest{
		"wrong password": {Email: "ana@example.com", Password: "nope"},
		"unknown email":  {Email: "bob@example.com", Password: "secret1"},
	} {
		if _, err := svc.Login(ctx, req); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", name, err)
		}
	}
}

func TestRefreshTokenIsSingleUse(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	reg, err := svc.Register(ctx, &RegisterRequest{Email: "ana@example.com", Password: "secret1", FullName: "Ana"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	rotated, err := svc.Refresh(ctx, reg.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.Tokens.RefreshToken == reg.Tokens.RefreshToken {
		t.Fatalf("refresh token must rotate")
	}

	if _, err := svc.Refresh(ctx, reg.Tokens.RefreshToken); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("reused refresh token must fail, got %v", err)
	}
	if _, err := svc.Refresh(ctx, rotated.Tokens.AccessToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("access token must not refresh, got %v", err)
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	reg, err := svc.Register(ctx, &RegisterRequest{Email: "ana@example.com", Password: "secret1", FullName: "Ana"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.Logout(ctx, reg.Tokens.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, reg.Tokens.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected revoked token, got %v", err)
	}
}

func TestMe(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	reg, err := svc.Register(ctx, &RegisterRequest{Email: "ana@example.com", Password: "secret1", FullName: "Ana", Phone: "+351 900"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	me, err := svc.Me(ctx, authz.Caller{UserID: reg.User.ID, Role: authz.RoleClient})
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Phone != "+351 900" || me.FullName != "Ana" {
		t.Fatalf("unexpected profile %+v", me)
	}

	if _, err := svc.Me(ctx, authz.Caller{}); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("anonymous caller must be rejected, got %v", err)
	}
	if _, err := svc.Me(ctx, authz.Caller{UserID: uuid.New(), Role: authz.RoleClient}); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("deleted user must be not found, got %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "root@example.com", "adminpass"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	admin, _ := repo.GetByEmail(ctx, "root@example.com")
	if admin == nil || !admin.IsAdmin() {
		t.Fatalf("admin not created: %+v", admin)
	}

	// second call is a no-op
	if err := svc.EnsureAdmin(ctx, "root@example.com", "other"); err != nil {
		t.Fatalf("ensure admin again: %v", err)
	}

	reg, err := svc.Register(ctx, &RegisterRequest{Email: "ana@example.com", Password: "secret1", FullName: "Ana"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.EnsureAdmin(ctx, "ana@example.com", ""); err != nil {
		t.Fatalf("promote: %v", err)
	}
	promoted, _ := repo.GetByID(ctx, reg.User.ID)
	if !promoted.IsAdmin() {
		t.Fatalf("existing user should be promoted")
	}

	if err := svc.EnsureAdmin(ctx, "new@example.com", "123"); !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("short password must be rejected, got %v", err)
	}
}
