package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reelkit/reels/internal/middleware"
	"github.com/reelkit/reels/internal/users"
	"golang.org/x/crypto/bcrypt"
)

type mockUsersRepo struct {
	create     func(ctx context.Context, email, username, passwordHash string) (*users.User, error)
	getByEmail func(ctx context.Context, email string) (*users.User, error)
	getByID    func(ctx context.Context, id uuid.UUID) (*users.User, error)
}

func (m *mockUsersRepo) Create(ctx context.Context, email, username, passwordHash string) (*users.User, error) {
	if m.create != nil {
		return m.create(ctx, email, username, passwordHash)
	}
	return &users.User{ID: uuid.New(), Email: email, Username: username, PasswordHash: passwordHash}, nil
}

func (m *mockUsersRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	if m.getByEmail != nil {
		return m.getByEmail(ctx, email)
	}
	return nil, users.ErrNotFound
}

func (m *mockUsersRepo) GetByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	if m.getByID != nil {
		return m.getByID(ctx, id)
	}
	return nil, users.ErrNotFound
}

func testAuthHandler(repo *mockUsersRepo) *AuthHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := users.NewService(repo, []byte(testJWTSecret), time.Hour)
	return NewAuthHandler(svc, logger)
}

func testAuthMux(h *AuthHandler) http.Handler {
	requireAuth := middleware.RequireAuth([]byte(testJWTSecret))
	router := http.NewServeMux()
	router.HandleFunc("POST /auth/register", h.Register())
	router.HandleFunc("POST /auth/login", h.Login())
	router.Handle("GET /me", requireAuth(h.Me()))
	return middleware.RequestID(router)
}

func TestAuthHandler_Register(t *testing.T) {
	h := testAuthHandler(&mockUsersRepo{})

	body := bytes.NewBufferString(`{"email":"a@b.c","username":"alice","password":"hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rec := httptest.NewRecorder()
	testAuthMux(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.Bytes())
	}
	var result users.AuthResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Token == "" || result.User == nil || result.User.Username != "alice" {
		t.Errorf("got %+v", result)
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	for name, body := range map[string]string{
		"bad email":       `{"email":"nope","username":"alice","password":"hunter2"}`,
		"short username":  `{"email":"a@b.c","username":"al","password":"hunter2"}`,
		"bad characters":  `{"email":"a@b.c","username":"al ice!","password":"hunter2"}`,
		"short password":  `{"email":"a@b.c","username":"alice","password":"12345"}`,
	} {
		t.Run(name, func(t *testing.T) {
			h := testAuthHandler(&mockUsersRepo{create: func(context.Context, string, string, string) (*users.User, error) {
				t.Error("Create must not be called")
				return nil, nil
			}})
			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
			rec := httptest.NewRecorder()
			testAuthMux(h).ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	h := testAuthHandler(&mockUsersRepo{create: func(context.Context, string, string, string) (*users.User, error) {
		return nil, users.ErrEmailTaken
	}})
	body := bytes.NewBufferString(`{"email":"a@b.c","username":"alice","password":"hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rec := httptest.NewRecorder()
	testAuthMux(h).ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	user := &users.User{ID: uuid.New(), Email: "a@b.c", Username: "alice", PasswordHash: string(hash)}

	t.Run("success", func(t *testing.T) {
		h := testAuthHandler(&mockUsersRepo{getByEmail: func(context.Context, string) (*users.User, error) {
			return user, nil
		}})
		body := bytes.NewBufferString(`{"email":"a@b.c","password":"hunter2"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
		rec := httptest.NewRecorder()
		testAuthMux(h).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, body %s", rec.Code, rec.Body.Bytes())
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		h := testAuthHandler(&mockUsersRepo{getByEmail: func(context.Context, string) (*users.User, error) {
			return user, nil
		}})
		body := bytes.NewBufferString(`{"email":"a@b.c","password":"wrong"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
		rec := httptest.NewRecorder()
		testAuthMux(h).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_Me(t *testing.T) {
	userID := uuid.New()
	h := testAuthHandler(&mockUsersRepo{getByID: func(_ context.Context, id uuid.UUID) (*users.User, error) {
		if id != userID {
			t.Errorf("looked up %v", id)
		}
		return &users.User{ID: id, Email: "a@b.c", Username: "alice"}, nil
	}})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", authHeader(t, userID))
	rec := httptest.NewRecorder()
	testAuthMux(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var u users.User
	if err := json.NewDecoder(rec.Body).Decode(&u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.Username != "alice" {
		t.Errorf("got %+v", u)
	}
	if u.PasswordHash != "" {
		t.Error("password hash leaked in response")
	}
}
