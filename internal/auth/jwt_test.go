package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testIssuer = "https://chat.example.com"

func TestNewAccessTokenAndValidate(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	secret := "test-secret-key-for-jwt"

	tokenStr, err := NewAccessToken(userID, secret, 15*time.Minute, testIssuer)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}

	claims, err := ValidateAccessToken(tokenStr, secret, testIssuer)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}

	if claims.Subject != userID.String() {
		t.Errorf("Subject = %q, want %q", claims.Subject, userID.String())
	}
}

func TestNewAccessTokenEmptySecret(t *testing.T) {
	t.Parallel()
	if _, err := NewAccessToken(uuid.New(), "", 15*time.Minute, testIssuer); err == nil {
		t.Fatal("NewAccessToken() with empty secret should return error")
	}
}

func TestValidateAccessTokenExpired(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	secret := "test-secret"

	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    testIssuer,
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-1 * time.Second)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := ValidateAccessToken(tokenStr, secret, testIssuer); err == nil {
		t.Fatal("ValidateAccessToken() with expired token should return error")
	}
}

func TestValidateAccessTokenWrongIssuer(t *testing.T) {
	t.Parallel()
	secret := "test-secret"
	tokenStr, err := NewAccessToken(uuid.New(), secret, time.Minute, "https://other.example.com")
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	if _, err := ValidateAccessToken(tokenStr, secret, testIssuer); err == nil {
		t.Fatal("ValidateAccessToken() with mismatched issuer should return error")
	}
}

func TestVerifyUser(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	secret := "test-secret-key-for-jwt"

	tokenStr, err := NewAccessToken(userID, secret, time.Minute, testIssuer)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}

	got, err := VerifyUser(tokenStr, secret, testIssuer)
	if err != nil {
		t.Fatalf("VerifyUser() error = %v", err)
	}
	if got != userID {
		t.Errorf("VerifyUser() = %v, want %v", got, userID)
	}

	if _, err := VerifyUser(tokenStr, "wrong-secret", testIssuer); err == nil {
		t.Fatal("VerifyUser() with wrong secret should return error")
	}
}

func TestVerifyUserNonUUIDSubject(t *testing.T) {
	t.Parallel()
	secret := "test-secret"
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			Issuer:    testIssuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := VerifyUser(tokenStr, secret, testIssuer); err == nil {
		t.Fatal("VerifyUser() with non-UUID subject should return error")
	}
}
