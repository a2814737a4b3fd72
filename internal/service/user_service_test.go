package service

import (
	"context"
	"testing"
	"time"

	"hwops-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	if u, ok := r.users[parsed]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(_ context.Context, page, limit int) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return gorm.ErrRecordNotFound
	}
	delete(r.users, parsed)
	return nil
}

type fakeRefreshTokenRepo struct {
	tokens map[string]*model.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[string]*model.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) Create(_ context.Context, token *model.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	cp := *token
	r.tokens[token.Token] = &cp
	return nil
}

func (r *fakeRefreshTokenRepo) FindByToken(_ context.Context, token string) (*model.RefreshToken, error) {
	if t, ok := r.tokens[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRefreshTokenRepo) DeleteByToken(_ context.Context, token string) error {
	delete(r.tokens, token)
	return nil
}

func (r *fakeRefreshTokenRepo) DeleteForUser(_ context.Context, userID string) error {
	for k, t := range r.tokens {
		if t.UserID.String() == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

func newUserServiceEnv() (UserService, *fakeUserRepo, *fakeRefreshTokenRepo) {
	users := newFakeUserRepo()
	refresh := newFakeRefreshTokenRepo()
	return NewUserService(users, refresh), users, refresh
}

func TestCreateUserHashesPasswordAndValidatesRole(t *testing.T) {
	svc, users, _ := newUserServiceEnv()

	resp, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "office1",
		Email:    "office1@example.com",
		Phone:    "0912345678",
		Password: "secret123",
		Role:     model.RoleOffice,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleOffice, resp.Role)

	stored := users.users[resp.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret123", stored.Password, "password must be stored hashed")

	_, err = svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "other",
		Email:    "other@example.com",
		Phone:    "0912345678",
		Password: "secret123",
		Role:     "superuser",
	})
	require.Error(t, err)
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	svc, _, _ := newUserServiceEnv()

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "office1", Email: "office1@example.com", Phone: "09", Password: "secret123", Role: model.RoleOffice,
	})
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "office1", Email: "new@example.com", Phone: "09", Password: "secret123", Role: model.RoleOffice,
	})
	require.Error(t, err)

	_, err = svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "office2", Email: "office1@example.com", Phone: "09", Password: "secret123", Role: model.RoleOffice,
	})
	require.Error(t, err)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, _, refresh := newUserServiceEnv()
	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "admin1", Email: "admin@example.com", Phone: "09", Password: "secret123", Role: model.RoleAdmin,
	})
	require.NoError(t, err)

	tokens, err := svc.Login(context.Background(), LoginUserRequest{Email: "admin@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.Token)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Contains(t, refresh.tokens, tokens.RefreshToken)

	_, err = svc.Login(context.Background(), LoginUserRequest{Email: "admin@example.com", Password: "wrong"})
	require.Error(t, err)
}

func TestRefreshTokenRotates(t *testing.T) {
	svc, _, refresh := newUserServiceEnv()
	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "admin1", Email: "admin@example.com", Phone: "09", Password: "secret123", Role: model.RoleAdmin,
	})
	require.NoError(t, err)
	tokens, err := svc.Login(context.Background(), LoginUserRequest{Email: "admin@example.com", Password: "secret123"})
	require.NoError(t, err)

	rotated, err := svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)
	assert.NotContains(t, refresh.tokens, tokens.RefreshToken, "the used token is consumed")

	// A consumed token cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	require.Error(t, err)
}

func TestRefreshTokenRejectsExpired(t *testing.T) {
	svc, users, refresh := newUserServiceEnv()
	user := &model.User{Username: "admin1", Email: "a@example.com", Role: model.RoleAdmin}
	require.NoError(t, users.Create(context.Background(), user))
	require.NoError(t, refresh.Create(context.Background(), &model.RefreshToken{
		UserID:    user.ID,
		Token:     "stale-token",
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	_, err := svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: "stale-token"})
	require.Error(t, err)
	assert.NotContains(t, refresh.tokens, "stale-token", "expired tokens are purged on sight")
}

func TestDeleteUserRevokesSessions(t *testing.T) {
	svc, _, refresh := newUserServiceEnv()
	resp, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "sales1", Email: "sales@example.com", Phone: "09", Password: "secret123", Role: model.RoleSales,
	})
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), LoginUserRequest{Email: "sales@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, refresh.tokens)

	require.NoError(t, svc.DeleteUser(context.Background(), resp.ID.String()))
	assert.Empty(t, refresh.tokens)
}
