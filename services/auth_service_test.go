package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"wccleanup/config"
	"wccleanup/models"
)

func newTestAuthService(users *fakeUserRepo, at *time.Time) *authService {
	svc := NewAuthService(users, config.AuthConfig{
		NonceSecret:        "secret",
		NonceAction:        "wc-data-cleanup-nonce",
		NonceLifetimeHours: 24,
		RequiredCapability: "manage_woocommerce",
		RoleCapabilities: map[string][]string{
			"administrator": {"manage_options", "manage_woocommerce"},
			"shop_manager":  {"manage_woocommerce"},
			"customer":      {"read"},
		},
		Tokens: []config.AuthToken{{Token: "tok-admin", UserID: 1}},
	}).(*authService)
	svc.now = func() time.Time { return *at }
	return svc
}

const halfDay = int64(12 * 60 * 60)

func TestAuthenticateMatchesConfiguredTokens(t *testing.T) {
	at := time.Unix(0, 0)
	svc := newTestAuthService(newFakeUserRepo(), &at)

	userID, err := svc.Authenticate(" tok-admin ")
	if err != nil || userID != 1 {
		t.Fatalf("expected user 1, got %d %v", userID, err)
	}

	var appErr *AppError
	for _, token := range []string{"", "tok-other"} {
		_, err := svc.Authenticate(token)
		if !errors.As(err, &appErr) || appErr.HTTPCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %q, got %v", token, err)
		}
	}
}

func TestNonceValidForTwoTicks(t *testing.T) {
	at := time.Unix(halfDay*100, 0)
	svc := newTestAuthService(newFakeUserRepo(), &at)

	issued := svc.IssueNonce(1)
	if len(issued.Nonce) != 10 {
		t.Fatalf("expected 10 character nonce, got %q", issued.Nonce)
	}
	if !issued.ExpiresAt.Equal(time.Unix(halfDay*101, 0)) {
		t.Fatalf("unexpected expiry %v", issued.ExpiresAt)
	}
	if err := svc.VerifyNonce(1, issued.Nonce); err != nil {
		t.Fatalf("expected fresh nonce valid, got %v", err)
	}

	at = time.Unix(halfDay*100+5, 0)
	if err := svc.VerifyNonce(1, issued.Nonce); err != nil {
		t.Fatalf("expected nonce from previous tick valid, got %v", err)
	}
	if err := svc.VerifyNonce(2, issued.Nonce); err == nil {
		t.Fatalf("expected nonce bound to its user")
	}

	at = time.Unix(halfDay*101+5, 0)
	var appErr *AppError
	err := svc.VerifyNonce(1, issued.Nonce)
	if !errors.As(err, &appErr) || appErr.HTTPCode != http.StatusForbidden || appErr.Message != "Security check failed." {
		t.Fatalf("expected expired nonce rejected, got %v", err)
	}
}

func TestAuthorizeByRoleCapability(t *testing.T) {
	at := time.Unix(0, 0)
	users := newFakeUserRepo()
	users.add(1, "owner", models.RoleAdministrator)
	users.add(2, "manager", "shop_manager")
	users.add(3, "buyer", models.RoleCustomer)
	svc := newTestAuthService(users, &at)

	for _, id := range []uint64{1, 2} {
		actor, err := svc.Authorize(context.Background(), id)
		if err != nil || actor.UserID != id {
			t.Fatalf("expected user %d authorized, got %+v %v", id, actor, err)
		}
	}

	var appErr *AppError
	for _, id := range []uint64{3, 42} {
		_, err := svc.Authorize(context.Background(), id)
		if !errors.As(err, &appErr) || appErr.Code != CodePermissionDenied {
			t.Fatalf("expected permission denied for %d, got %v", id, err)
		}
	}
}
