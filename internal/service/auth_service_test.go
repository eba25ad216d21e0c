package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordicdesk/helpdesk/internal/config"
	"github.com/nordicdesk/helpdesk/internal/domain"
	apperrors "github.com/nordicdesk/helpdesk/pkg/util"
)

// fakeUserRepo stores users keyed by the exact email string, like the unique
// index on the real table.
type fakeUserRepo struct {
	mu      sync.Mutex
	seq     int
	byID    map[string]domain.User
	byEmail map[string]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byEmail[user.Email]; exists {
		return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}
	f.seq++
	user.ID = fmt.Sprintf("user-%d", f.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.byID[user.ID] = *user
	f.byEmail[user.Email] = user.ID
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.byID[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := user
	return &clone, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user := f.byID[id]
	clone := user
	return &clone, nil
}

func (f *fakeUserRepo) List(context.Context) ([]domain.User, error) { return nil, nil }

func (f *fakeUserRepo) ListByCompany(context.Context, string) ([]domain.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) CountByCompany(context.Context, string) (int, error) { return 0, nil }

func (f *fakeUserRepo) CountByRole(context.Context, domain.Role) (int, error) { return 0, nil }

func newAuthFixture() (*AuthService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	svc := NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		BcryptCost:            4,
	}, repo)
	return svc, repo
}

func TestAuthService_Register_StoresNormalizedEmail(t *testing.T) {
	svc, _ := newAuthFixture()

	user, token, _, err := svc.Register(context.Background(), "Kari", "  Kari@Example.COM ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "kari@example.com", user.Email)
	assert.Equal(t, domain.RoleEndUser, user.Role)
	assert.NotEmpty(t, token)
}

func TestAuthService_Register_CaseVariantDuplicateIsConflict(t *testing.T) {
	svc, _ := newAuthFixture()

	_, _, _, err := svc.Register(context.Background(), "Kari", "foo@x.com", "hunter22")
	require.NoError(t, err)

	// Same mailbox, different casing: caught by the pre-check against the
	// normalized form, never reaching the unique index.
	_, _, _, err = svc.Register(context.Background(), "Impostor", "FOO@x.com", "hunter22")
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "CONFLICT", domainErr.Code)
	assert.Equal(t, "duplicate field value entered", domainErr.Message)
}

func TestAuthService_Register_RacedDuplicateIsConflict(t *testing.T) {
	svc, repo := newAuthFixture()

	// A concurrent registration lands between the pre-check and the insert;
	// the unique violation from the index maps to a conflict, not a 500.
	_, _, _, err := svc.Register(context.Background(), "Kari", "foo@x.com", "hunter22")
	require.NoError(t, err)

	racedRepo := &raceUserRepo{fakeUserRepo: repo}
	racedSvc := NewAuthService(config.AuthConfig{JWTSecret: "test-secret", BcryptCost: 4}, racedRepo)

	_, _, _, err = racedSvc.Register(context.Background(), "Impostor", "foo@x.com", "hunter22")
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "CONFLICT", domainErr.Code)
	assert.Equal(t, 400, domainErr.HTTPStatus)
}

// raceUserRepo makes the pre-check miss while the insert still collides, the
// window a concurrent writer exploits.
type raceUserRepo struct {
	*fakeUserRepo
}

func (r *raceUserRepo) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func TestAuthService_LoginRoundTrip(t *testing.T) {
	svc, _ := newAuthFixture()

	_, _, _, err := svc.Register(context.Background(), "Kari", "kari@x.com", "hunter22")
	require.NoError(t, err)

	user, token, _, err := svc.Login(context.Background(), "KARI@x.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "kari@x.com", user.Email)
	assert.NotEmpty(t, token)

	_, _, _, err = svc.Login(context.Background(), "kari@x.com", "wrong")
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
	assert.Equal(t, "invalid credentials", domainErr.Message)
}
