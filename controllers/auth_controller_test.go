package controllers

import (
	"net/http"
	"testing"

	"golang.org/x/crypto/bcrypt"

	middleware "github.com/phillip/eventhub-go/middleware"
)

func TestLoginDisabledWithoutSecret(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(http.MethodPost, "/api/auth/login", map[string]string{"username": "admin", "password": "pw"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", w.Code)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	env.deps.Config.JWTSecret = "test-secret"
	env.deps.Config.AdminUsername = "admin"
	env.deps.Config.AdminPasswordHash = string(hash)

	tests := []struct {
		name     string
		username string
		password string
		want     int
	}{
		{"valid", "admin", "s3cret", http.StatusOK},
		{"wrong password", "admin", "guess", http.StatusUnauthorized},
		{"wrong user", "root", "s3cret", http.StatusUnauthorized},
		{"missing password", "admin", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.doJSON(http.MethodPost, "/api/auth/login", map[string]string{
				"username": tt.username, "password": tt.password,
			})
			if w.Code != tt.want {
				t.Fatalf("status %d, want %d (body %s)", w.Code, tt.want, w.Body)
			}
			if tt.want != http.StatusOK {
				return
			}

			var reply struct {
				Token     string `json:"token"`
				ExpiresIn int    `json:"expires_in"`
			}
			decode(t, w, &reply)
			claims, err := middleware.ParseToken("test-secret", reply.Token)
			if err != nil {
				t.Fatalf("parse token: %v", err)
			}
			if claims.Role != middleware.RoleAdmin || reply.ExpiresIn != 43200 {
				t.Errorf("claims = %+v, expires_in = %d", claims, reply.ExpiresIn)
			}
		})
	}
}
