package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bancaflow/internal/core/apperror"
	"bancaflow/internal/core/id"
)

type fakeUserRepo struct {
	byEmail map[string]*User
	byID    map[id.ID]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*User), byID: make(map[id.ID]*User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *User) error {
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, userID id.ID) (*User, error) {
	u, ok := f.byID[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, apperror.NewNotFound("user", email)
	}
	return u, nil
}

func (f *fakeUserRepo) Exists(_ context.Context, email string) (bool, error) {
	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *User) error {
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return nil
}

type fakeTokenRepo struct {
	byHash  map[string]*RefreshToken
	revoked map[id.ID]string
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{byHash: make(map[string]*RefreshToken), revoked: make(map[id.ID]string)}
}

func (f *fakeTokenRepo) SaveRefreshToken(_ context.Context, token *RefreshToken) error {
	f.byHash[token.TokenHash] = token
	return nil
}

func (f *fakeTokenRepo) GetRefreshToken(_ context.Context, tokenHash string) (*RefreshToken, error) {
	t, ok := f.byHash[tokenHash]
	if !ok {
		return nil, apperror.NewNotFound("refresh token", tokenHash)
	}
	return t, nil
}

func (f *fakeTokenRepo) RevokeRefreshToken(_ context.Context, tokenID id.ID, reason string) error {
	f.revoked[tokenID] = reason
	for _, t := range f.byHash {
		if t.ID == tokenID {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func (f *fakeTokenRepo) RevokeAllUserTokens(_ context.Context, userID id.ID, reason string) error {
	for _, t := range f.byHash {
		if t.UserID == userID {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func newAuthService() (*Service, *fakeUserRepo, *fakeTokenRepo) {
	users := newFakeUserRepo()
	tokens := newFakeTokenRepo()
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	return NewService(users, tokens, jwtSvc, DefaultServiceConfig()), users, tokens
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, users, _ := newAuthService()

		user, err := svc.Register(ctx, RegisterRequest{
			Email:    "banca@example.com",
			Password: "long-enough-password",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotEqual(t, "long-enough-password", user.PasswordHash)
		assert.Contains(t, users.byEmail, "banca@example.com")
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, _, _ := newAuthService()

		_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.c", Password: "long-enough-password"})
		require.NoError(t, err)

		_, err = svc.Register(ctx, RegisterRequest{Email: "a@b.c", Password: "long-enough-password"})
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeConflict, appErr.Code)
	})

	t.Run("short password", func(t *testing.T) {
		svc, _, _ := newAuthService()

		_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.c", Password: "short"})
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	register := func(t *testing.T, svc *Service) *User {
		t.Helper()
		user, err := svc.Register(ctx, RegisterRequest{
			Email:    "banca@example.com",
			Password: "long-enough-password",
		})
		require.NoError(t, err)
		return user
	}

	t.Run("valid credentials yield a token pair", func(t *testing.T) {
		svc, _, _ := newAuthService()
		user := register(t, svc)

		tokens, got, err := svc.Login(ctx, Credentials{Email: user.Email, Password: "long-enough-password"})
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)
		assert.Equal(t, "Bearer", tokens.TokenType)

		// The access token round-trips through validation.
		jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
		claims, err := jwtSvc.ValidateToken(tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID)
		assert.Equal(t, user.Email, claims.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _, _ := newAuthService()
		user := register(t, svc)

		_, _, err := svc.Login(ctx, Credentials{Email: user.Email, Password: "wrong"})
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
	})

	t.Run("repeated failures lock the account", func(t *testing.T) {
		svc, users, _ := newAuthService()
		user := register(t, svc)

		for i := 0; i < DefaultServiceConfig().MaxLoginAttempts; i++ {
			_, _, err := svc.Login(ctx, Credentials{Email: user.Email, Password: "wrong"})
			require.Error(t, err)
		}

		assert.True(t, users.byEmail[user.Email].IsLocked())

		_, _, err := svc.Login(ctx, Credentials{Email: user.Email, Password: "long-enough-password"})
		require.Error(t, err)
		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, apperror.CodeForbidden, appErr.Code)
	})
}

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the token", func(t *testing.T) {
		svc, _, tokens := newAuthService()
		user, err := svc.Register(ctx, RegisterRequest{Email: "a@b.c", Password: "long-enough-password"})
		require.NoError(t, err)

		pair, _, err := svc.Login(ctx, Credentials{Email: user.Email, Password: "long-enough-password"})
		require.NoError(t, err)

		next, err := svc.RefreshToken(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

		// The old token is revoked and cannot be used again.
		old := tokens.byHash[hashToken(pair.RefreshToken)]
		assert.NotNil(t, old.RevokedAt)
		_, err = svc.RefreshToken(ctx, pair.RefreshToken)
		require.Error(t, err)
	})

	t.Run("unknown token", func(t *testing.T) {
		svc, _, _ := newAuthService()

		_, err := svc.RefreshToken(ctx, "never-issued")
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
	})
}
