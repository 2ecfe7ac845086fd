package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

func signTestToken(t *testing.T, claims *JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestValidateTokenRoundTrip(t *testing.T) {
	svc := &AuthService{}
	userID := uuid.New()
	accountID := uuid.New()

	signed := signTestToken(t, &JWTClaims{
		UserID:    userID,
		AccountID: accountID,
		Username:  "operador",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "vende",
		},
	})

	claims, err := svc.ValidateToken(signed, testSecret)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("user ID = %s, want %s", claims.UserID, userID)
	}
	if claims.AccountID != accountID {
		t.Errorf("account ID = %s, want %s", claims.AccountID, accountID)
	}
	if claims.Username != "operador" {
		t.Errorf("username = %q", claims.Username)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := &AuthService{}
	signed := signTestToken(t, &JWTClaims{
		UserID:    uuid.New(),
		AccountID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	})

	if _, err := svc.ValidateToken(signed, testSecret); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := &AuthService{}
	signed := signTestToken(t, &JWTClaims{
		UserID:    uuid.New(),
		AccountID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	if _, err := svc.ValidateToken(signed, "other-secret"); err == nil {
		t.Fatal("expected error for wrong signing secret")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := &AuthService{}
	if _, err := svc.ValidateToken("not-a-token", testSecret); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
