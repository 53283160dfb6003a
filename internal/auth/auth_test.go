package auth

import (
	"testing"
	"time"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword(hash, "correct horse battery staple") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong password") {
		t.Fatal("wrong password accepted")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := SignJWT(42, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	uid, err := ParseJWT(token, "test-secret")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if uid != 42 {
		t.Fatalf("uid = %d, want 42", uid)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token, err := SignJWT(7, "secret-a", time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	if _, err := ParseJWT(token, "secret-b"); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestJWTRejectsExpired(t *testing.T) {
	token, err := SignJWT(7, "test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	if _, err := ParseJWT(token, "test-secret"); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	if _, err := ParseJWT("not.a.token", "test-secret"); err == nil {
		t.Fatal("malformed token accepted")
	}
}
