package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"wccleanup/config"
	"wccleanup/models"
	"wccleanup/repositories"
)

type NonceOutput struct {
	Nonce     string    `json:"nonce"`
	Action    string    `json:"action"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Actor is an authenticated caller allowed to run cleanup operations.
type Actor struct {
	UserID uint64   `json:"user_id"`
	Login  string   `json:"login"`
	Roles  []string `json:"roles"`
}

type AuthService interface {
	Authenticate(token string) (uint64, error)
	IssueNonce(userID uint64) NonceOutput
	VerifyNonce(userID uint64, nonce string) error
	Authorize(ctx context.Context, userID uint64) (Actor, error)
}

type authService struct {
	users  repositories.UserRepository
	cfg    config.AuthConfig
	tokens map[string]uint64
	now    func() time.Time
}

func NewAuthService(users repositories.UserRepository, cfg config.AuthConfig) AuthService {
	tokens := make(map[string]uint64, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		tokens[t.Token] = t.UserID
	}
	return &authService{users: users, cfg: cfg, tokens: tokens, now: time.Now}
}

func (s *authService) Authenticate(token string) (uint64, error) {
	token = strings.TrimSpace(token)
	if token != "" {
		for known, userID := range s.tokens {
			if subtle.ConstantTimeCompare([]byte(known), []byte(token)) == 1 {
				return userID, nil
			}
		}
	}
	return 0, newAppError(http.StatusUnauthorized, CodeSecurityCheckFailed, "Invalid or missing access token.", nil)
}

// tickLength is half the nonce lifetime: a nonce stays valid for the tick it was issued in and the next.
func (s *authService) tickLength() time.Duration {
	hours := s.cfg.NonceLifetimeHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour / 2
}

func (s *authService) tick(at time.Time) int64 {
	length := int64(s.tickLength() / time.Second)
	return (at.Unix() + length - 1) / length
}

func (s *authService) nonceFor(tick int64, userID uint64) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.NonceSecret))
	fmt.Fprintf(mac, "%d|%s|%d", tick, s.cfg.NonceAction, userID)
	sum := hex.EncodeToString(mac.Sum(nil))
	return sum[len(sum)-12 : len(sum)-2]
}

func (s *authService) IssueNonce(userID uint64) NonceOutput {
	tick := s.tick(s.now())
	length := int64(s.tickLength() / time.Second)
	return NonceOutput{
		Nonce:     s.nonceFor(tick, userID),
		Action:    s.cfg.NonceAction,
		ExpiresAt: time.Unix((tick+1)*length, 0).UTC(),
	}
}

func (s *authService) VerifyNonce(userID uint64, nonce string) error {
	nonce = strings.TrimSpace(nonce)
	if nonce != "" {
		tick := s.tick(s.now())
		for _, candidate := range []int64{tick, tick - 1} {
			if hmac.Equal([]byte(nonce), []byte(s.nonceFor(candidate, userID))) {
				return nil
			}
		}
	}
	return newAppError(http.StatusForbidden, CodeSecurityCheckFailed, msgSecurityCheckFailed, nil)
}

func (s *authService) Authorize(ctx context.Context, userID uint64) (Actor, error) {
	denied := newAppError(http.StatusForbidden, CodePermissionDenied, msgPermissionDenied, nil)

	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return Actor{}, denied
		}
		return Actor{}, internalError("Failed to load the current user.", err)
	}

	roles := models.ParseRoles(user.Capabilities)
	for _, role := range roles {
		if slices.Contains(s.cfg.RoleCapabilities[role], s.cfg.RequiredCapability) {
			return Actor{UserID: user.ID, Login: user.UserLogin, Roles: roles}, nil
		}
	}
	return Actor{}, denied
}
