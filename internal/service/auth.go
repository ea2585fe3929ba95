package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamoski/relaydeck/internal/config"
	"github.com/mamoski/relaydeck/internal/models"
)

// SessionEvent notifies subscribers about session lifecycle changes.
type SessionEvent struct {
	Type     string // "signed_in" or "signed_out"
	Identity Identity
}

// AuthService is the session provider: email/password accounts with an
// optional TOTP second factor, JWT session tokens revocable through the
// session store.
type AuthService struct {
	users       UserStore
	sessions    SessionStore
	logger      *zap.Logger
	jwtSecret   []byte
	tokenTTL    time.Duration
	totpIssuer  string
	requireTOTP bool

	mu          sync.RWMutex
	subscribers []func(SessionEvent)
}

func NewAuthService(cfg *config.AuthConfig, users UserStore, sessions SessionStore, logger *zap.Logger) (*AuthService, error) {
	ttl, err := time.ParseDuration(cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid token TTL: %w", err)
	}

	return &AuthService{
		users:       users,
		sessions:    sessions,
		logger:      logger,
		jwtSecret:   []byte(cfg.JWTSecret),
		tokenTTL:    ttl,
		totpIssuer:  cfg.TOTPIssuer,
		requireTOTP: cfg.RequireTOTP,
	}, nil
}

// OnSessionChange registers a callback invoked after every sign-in and
// sign-out.
func (a *AuthService) OnSessionChange(fn func(SessionEvent)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subscribers = append(a.subscribers, fn)
}

func (a *AuthService) notify(event SessionEvent) {
	a.mu.RLock()
	subscribers := make([]func(SessionEvent), len(a.subscribers))
	copy(subscribers, a.subscribers)
	a.mu.RUnlock()

	for _, fn := range subscribers {
		fn(event)
	}
}

// SignUp registers a new operator account.
func (a *AuthService) SignUp(ctx context.Context, email, password string) (Identity, error) {
	_, err := a.users.FindByEmail(ctx, email)
	if err == nil {
		return Identity{}, ErrEmailTaken
	}
	if !errors.Is(err, ErrUserNotFound) {
		return Identity{}, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := a.users.Create(ctx, user); err != nil {
		return Identity{}, err
	}

	a.logger.Info("Operator registered", zap.String("email", email))
	return Identity{UserID: user.ID, Email: user.Email}, nil
}

// SignInWithPassword checks the credentials (and the TOTP code when the
// account has a secret enrolled) and issues a session token.
func (a *AuthService) SignInWithPassword(ctx context.Context, email, password, totpCode string) (string, Identity, error) {
	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", Identity{}, ErrInvalidCredentials
		}
		return "", Identity{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		a.logger.Warn("Password verification failed", zap.String("email", email))
		return "", Identity{}, ErrInvalidCredentials
	}

	if user.TOTPSecret != "" || a.requireTOTP {
		if user.TOTPSecret == "" {
			return "", Identity{}, ErrTOTPRequired
		}
		if !totp.Validate(totpCode, user.TOTPSecret) {
			a.logger.Warn("TOTP token validation failed", zap.String("email", email))
			return "", Identity{}, ErrInvalidCredentials
		}
	}

	identity := Identity{UserID: user.ID, Email: user.Email}

	token, err := a.issueToken(ctx, identity)
	if err != nil {
		return "", Identity{}, err
	}

	a.logger.Info("Operator signed in", zap.String("email", email))
	a.notify(SessionEvent{Type: "signed_in", Identity: identity})
	return token, identity, nil
}

// SignOut revokes the session behind the token.
func (a *AuthService) SignOut(ctx context.Context, token string) error {
	identity, jti, err := a.parseToken(token)
	if err != nil {
		return ErrSessionNotFound
	}

	if err := a.sessions.Delete(ctx, jti); err != nil {
		return err
	}

	a.notify(SessionEvent{Type: "signed_out", Identity: identity})
	return nil
}

// Session resolves a token to the identity it was issued for, rejecting
// expired and revoked sessions.
func (a *AuthService) Session(ctx context.Context, token string) (Identity, error) {
	identity, jti, err := a.parseToken(token)
	if err != nil {
		return Identity{}, ErrSessionNotFound
	}

	exists, err := a.sessions.Exists(ctx, jti)
	if err != nil {
		return Identity{}, err
	}
	if !exists {
		return Identity{}, ErrSessionNotFound
	}

	return identity, nil
}

// EnrollTOTP generates and stores a TOTP secret for the account, returning
// the otpauth URL for the authenticator app.
func (a *AuthService) EnrollTOTP(ctx context.Context, identity Identity) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      a.totpIssuer,
		AccountName: identity.Email,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	if err := a.users.SetTOTPSecret(ctx, identity.UserID, key.Secret()); err != nil {
		return "", err
	}

	return key.URL(), nil
}

func (a *AuthService) issueToken(ctx context.Context, identity Identity) (string, error) {
	jti := uuid.NewString()
	now := time.Now()

	claims := jwt.MapClaims{
		"sub":   identity.UserID,
		"email": identity.Email,
		"jti":   jti,
		"iat":   now.Unix(),
		"exp":   now.Add(a.tokenTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	if err := a.sessions.Put(ctx, jti, identity.UserID, a.tokenTTL); err != nil {
		return "", err
	}

	return token, nil
}

func (a *AuthService) parseToken(token string) (Identity, string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, "", ErrSessionNotFound
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, "", ErrSessionNotFound
	}

	userID, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	jti, _ := claims["jti"].(string)
	if userID == "" || jti == "" {
		return Identity{}, "", ErrSessionNotFound
	}

	return Identity{UserID: userID, Email: email}, jti, nil
}
