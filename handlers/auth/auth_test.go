package auth

import (
	"os"
	"testing"

	"caseforge/core"
)

func TestTokenRoundTrip(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	InitAuth()

	operator := &core.Operator{
		Subject: "github:42",
		Login:   "printshop-anna",
		Email:   "anna@example.com",
		Name:    "Anna",
	}
	token, err := TokenForOperator(operator)
	if err != nil {
		t.Fatalf("TokenForOperator failed: %v", err)
	}

	claims, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT failed: %v", err)
	}
	if claims.Subject != "github:42" || claims.Login != "printshop-anna" || claims.Email != "anna@example.com" {
		t.Errorf("claims do not match operator: %+v", claims)
	}
}

func TestParseJWT_WrongSecret(t *testing.T) {
	os.Setenv("JWT_SECRET", "secret-a")
	InitAuth()
	token, err := TokenForOperator(&core.Operator{Subject: "oidc:abc", Login: "op"})
	if err != nil {
		t.Fatal(err)
	}

	os.Setenv("JWT_SECRET", "secret-b")
	InitAuth()
	if _, err := ParseJWT(token); err == nil {
		t.Error("token signed with a different secret must not verify")
	}
}
