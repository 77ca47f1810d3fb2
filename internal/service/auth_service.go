package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/screenpro/account-server/config"
	"github.com/screenpro/account-server/internal/model"
	"github.com/screenpro/account-server/internal/model/dto"
	"github.com/screenpro/account-server/internal/pkg/authcode"
	"github.com/screenpro/account-server/internal/pkg/jwt"
	"github.com/screenpro/account-server/internal/pkg/oauth"
	"github.com/screenpro/account-server/internal/repository"
)

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrSessionRevoked      = errors.New("session has been revoked")
	ErrSessionExpired      = errors.New("session has expired")
	ErrUserNotFound        = errors.New("user not found")
)

type AuthService struct {
	userRepo    *repository.UserRepository
	sessionRepo *repository.SessionRepository
	providers   *oauth.Registry
	states      *oauth.StateStore
	codes       *authcode.Store
	cfg         *config.Config
}

func NewAuthService(
	userRepo *repository.UserRepository,
	sessionRepo *repository.SessionRepository,
	providers *oauth.Registry,
	states *oauth.StateStore,
	codes *authcode.Store,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		providers:   providers,
		states:      states,
		codes:       codes,
		cfg:         cfg,
	}
}

// SignInURL builds the vendor authorization URL for the provider,
// binding the origin tag to a one-time state token
func (s *AuthService) SignInURL(ctx context.Context, provider, origin string) (string, error) {
	p, err := s.providers.Get(provider)
	if err != nil {
		return "", err
	}

	state, err := s.states.GenerateState(ctx, oauth.StateData{
		Origin:   origin,
		Provider: provider,
	})
	if err != nil {
		return "", err
	}

	return p.AuthCodeURL(state), nil
}

// CallbackResult is everything the callback handler needs to finish a
// sign-in: the session tokens, the user, and the origin data recovered
// from the state token
type CallbackResult struct {
	Tokens dto.TokenPair
	User   *model.User
	State  *oauth.StateData
	// RawState echoes the state string so the deep-link handoff can
	// forward it to the native app
	RawState string
}

// HandleCallback completes the OAuth flow: validates the state,
// exchanges the code, resolves or creates the user, and issues a token
// pair
func (s *AuthService) HandleCallback(ctx context.Context, code, state string) (*CallbackResult, error) {
	data, err := s.states.ValidateState(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("state validation failed: %w", err)
	}

	p, err := s.providers.Get(data.Provider)
	if err != nil {
		return nil, err
	}

	token, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	profile, err := p.FetchProfile(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("profile fetch failed: %w", err)
	}

	user, err := s.findOrCreateUser(data.Provider, profile)
	if err != nil {
		return nil, err
	}

	pair, err := s.IssueTokenPair(user.ID)
	if err != nil {
		return nil, err
	}

	return &CallbackResult{
		Tokens:   *pair,
		User:     user,
		State:    data,
		RawState: state,
	}, nil
}

func (s *AuthService) findOrCreateUser(provider string, profile *oauth.Profile) (*model.User, error) {
	user, err := s.userRepo.GetByProviderUID(provider, profile.UID)
	if err == nil {
		// Keep name and avatar current with the provider
		if user.Name != profile.Name || user.AvatarURL != profile.AvatarURL {
			user.Name = profile.Name
			user.AvatarURL = profile.AvatarURL
			if err := s.userRepo.Update(user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = &model.User{
		Email:       profile.Email,
		Name:        profile.Name,
		AvatarURL:   profile.AvatarURL,
		Provider:    provider,
		ProviderUID: profile.UID,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// IssueTokenPair creates a JWT access token and an opaque refresh
// token. The refresh token is "<token id>.<secret>"; only a bcrypt
// hash of the secret hits the database.
func (s *AuthService) IssueTokenPair(userID int64) (*dto.TokenPair, error) {
	access, err := jwt.GenerateToken(userID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return nil, err
	}
	secret := hex.EncodeToString(secretBytes)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	tokenID := uuid.NewString()
	session := &model.Session{
		TokenID:    tokenID,
		SecretHash: string(hash),
		UserID:     userID,
		ExpiresAt:  time.Now().Add(time.Duration(s.cfg.JWT.RefreshExpireHours) * time.Hour),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}

	return &dto.TokenPair{
		AccessToken:  access,
		RefreshToken: tokenID + "." + secret,
	}, nil
}

// lookupSession resolves and verifies a refresh token against its
// stored session
func (s *AuthService) lookupSession(refreshToken string) (*model.Session, error) {
	tokenID, secret, ok := strings.Cut(refreshToken, ".")
	if !ok || tokenID == "" || secret == "" {
		return nil, ErrInvalidRefreshToken
	}

	session, err := s.sessionRepo.GetByTokenID(tokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if session.RevokedAt != nil {
		return nil, ErrSessionRevoked
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, ErrSessionExpired
	}

	if err := bcrypt.CompareHashAndPassword([]byte(session.SecretHash), []byte(secret)); err != nil {
		return nil, ErrInvalidRefreshToken
	}

	return session, nil
}

// Refresh rotates the refresh token and issues a new access token. The
// presented token is revoked so each refresh token works exactly once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	session, err := s.lookupSession(refreshToken)
	if err != nil {
		return nil, err
	}

	if err := s.sessionRepo.Revoke(session.TokenID); err != nil {
		return nil, err
	}

	return s.IssueTokenPair(session.UserID)
}

// SignOut invalidates the session. The local session is revoked no
// matter what the vendor call does; a failed remote revocation must
// never leave the client believing it is still signed in.
func (s *AuthService) SignOut(ctx context.Context, userID int64, refreshToken string) error {
	defer func() {
		if err := s.sessionRepo.RevokeAllForUser(userID); err != nil {
			log.Printf("SignOut: failed to revoke sessions for user %d: %v", userID, err)
		}
	}()

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		// Nothing to revoke remotely; the deferred local revoke still runs
		return nil
	}

	p, err := s.providers.Get(user.Provider)
	if err != nil {
		return nil
	}

	// Best effort. Sign-out fails open to logged-out.
	if refreshToken != "" {
		if err := p.Revoke(ctx, refreshToken); err != nil {
			log.Printf("SignOut: provider revoke failed for user %d: %v", userID, err)
		}
	}
	return nil
}

// GenerateCode issues a one-time exchange code for the deep-link
// handoff. The refresh token must belong to the calling user.
func (s *AuthService) GenerateCode(ctx context.Context, userID int64, accessToken, refreshToken string) (string, error) {
	session, err := s.lookupSession(refreshToken)
	if err != nil {
		return "", err
	}
	if session.UserID != userID {
		return "", ErrInvalidRefreshToken
	}

	return s.codes.Issue(ctx, authcode.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// ExchangeCode redeems a one-time code for the token pair it carries
func (s *AuthService) ExchangeCode(ctx context.Context, code string) (*dto.TokenPair, error) {
	pair, err := s.codes.Redeem(ctx, code)
	if err != nil {
		return nil, err
	}
	return &dto.TokenPair{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// UserInfo returns the public view of a user
func (s *AuthService) UserInfo(userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &dto.UserInfo{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		Provider:  user.Provider,
	}, nil
}
