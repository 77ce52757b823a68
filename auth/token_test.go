// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()

	issuer, err := NewIssuer("test-secret", time.Hour, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	return issuer
}

func TestIssueAndParse(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t)

	pair, err := issuer.IssuePair("user-1", "admin")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	claims, err := issuer.Parse(pair.AccessToken, TokenAccess)
	if err != nil {
		t.Fatalf("Parse access: %v", err)
	}

	if claims.Subject != "user-1" || claims.Role != "admin" || claims.ID == "" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := issuer.Parse(pair.RefreshToken, TokenRefresh); err != nil {
		t.Fatalf("Parse refresh: %v", err)
	}
}

func TestParseRejectsWrongType(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t)

	pair, err := issuer.IssuePair("user-1", "user")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	if _, err := issuer.Parse(pair.RefreshToken, TokenAccess); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("refresh as access: err = %v", err)
	}

	if _, err := issuer.Parse(pair.AccessToken, TokenRefresh); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("access as refresh: err = %v", err)
	}
}

func TestParseExpired(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.Issue("user-1", "user", TokenAccess)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	issuer.now = time.Now

	if _, err := issuer.Parse(token, TokenAccess); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestParseWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := newTestIssuer(t).Issue("user-1", "user", TokenAccess)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other, err := NewIssuer("other-secret", time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	if _, err := other.Parse(token, TokenAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}

	if _, err := other.Parse("garbage", TokenAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage err = %v, want ErrInvalidToken", err)
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewIssuer("", time.Hour, time.Hour); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("err = %v, want ErrMissingSecret", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("err = %v, want ErrPasswordTooShort", err)
	}

	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if !CheckPassword(hash, "correct horse battery") {
		t.Fatal("expected password to match")
	}

	if CheckPassword(hash, "wrong password") {
		t.Fatal("expected mismatch")
	}
}
