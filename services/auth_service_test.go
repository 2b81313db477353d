package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lostal/creative-hands-sub001/models"
	"github.com/lostal/creative-hands-sub001/pkg"
)

type fakeSessionRepo struct {
	sessions map[string]*models.Session // refresh token → session
	nextID   int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *models.Session) error {
	r.nextID++
	session.ID = fmt.Sprintf("session-%d", r.nextID)
	copied := *session
	r.sessions[session.RefreshToken] = &copied
	return nil
}

func (r *fakeSessionRepo) GetByRefreshToken(_ context.Context, token string) (*models.Session, error) {
	session, ok := r.sessions[token]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) DeleteByID(_ context.Context, id string) error {
	for token, session := range r.sessions {
		if session.ID == id {
			delete(r.sessions, token)
			return nil
		}
	}
	return pkg.ErrNotFound
}

func (r *fakeSessionRepo) DeleteByUserID(_ context.Context, userID string) error {
	for token, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, token)
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context) error {
	now := time.Now()
	for token, session := range r.sessions {
		if now.After(session.ExpiresAt) {
			delete(r.sessions, token)
		}
	}
	return nil
}

func newTestAuthService() (AuthService, *fakeUserRepo, *fakeSessionRepo) {
	userRepo := newFakeUserRepo()
	sessionRepo := newFakeSessionRepo()
	svc := NewAuthService(userRepo, sessionRepo, "test-secret", 15, 7)
	return svc, userRepo, sessionRepo
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	tokens, err := svc.Register(ctx, &models.CreateUserRequest{
		Username: "alice",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	// Self-service kayıt HER ZAMAN buyer rolüyle başlar
	assert.Equal(t, models.RoleBuyer, tokens.User.Role)
	// Hash response'a asla sızmaz
	assert.Empty(t, tokens.User.PasswordHash)

	// Aynı şifreyle giriş çalışır
	loginTokens, err := svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, loginTokens.AccessToken)

	// Yanlış şifre ve bilinmeyen kullanıcı AYNI mesajı döner (enumeration koruması)
	_, wrongPass := svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "wrong"})
	_, unknownUser := svc.Login(ctx, &models.LoginRequest{Username: "nobody", Password: "wrong"})
	require.ErrorIs(t, wrongPass, pkg.ErrUnauthorized)
	require.ErrorIs(t, unknownUser, pkg.ErrUnauthorized)
	assert.Equal(t, wrongPass.Error(), unknownUser.Error())
}

func TestAuthServiceValidateAccessToken(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	tokens, err := svc.Register(ctx, &models.CreateUserRequest{
		Username: "alice",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.User.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	// Bozuk token → ErrUnauthorized
	_, err = svc.ValidateAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	// Farklı secret ile imzalanmış token da reddedilir
	otherSvc := NewAuthService(newFakeUserRepo(), newFakeSessionRepo(), "other-secret", 15, 7)
	_, err = otherSvc.ValidateAccessToken(tokens.AccessToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestAuthServiceResolveIdentity(t *testing.T) {
	svc, userRepo, _ := newTestAuthService()
	ctx := context.Background()

	tokens, err := svc.Register(ctx, &models.CreateUserRequest{
		Username: "alice",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	user, err := svc.ResolveIdentity(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.User.ID, user.ID)
	assert.Equal(t, "alice", user.Username)

	// Token geçerli ama kullanıcı silinmiş → yine 401'e düşen ErrUnauthorized
	delete(userRepo.users, user.ID)
	_, err = svc.ResolveIdentity(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestAuthServiceRefreshTokenRotation(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService()
	ctx := context.Background()

	tokens, err := svc.Register(ctx, &models.CreateUserRequest{
		Username: "alice",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, refreshed.RefreshToken)

	// Eski refresh token artık geçersizdir (rotation)
	_, err = svc.RefreshToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	// Yeni token store'da tek session olarak durur
	assert.Len(t, sessionRepo.sessions, 1)
}

func TestAuthServiceLogout(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService()
	ctx := context.Background()

	tokens, err := svc.Register(ctx, &models.CreateUserRequest{
		Username: "alice",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, tokens.RefreshToken))
	assert.Empty(t, sessionRepo.sessions)

	// Logout idempotent — bilinmeyen token hata değildir
	assert.NoError(t, svc.Logout(ctx, tokens.RefreshToken))
}
