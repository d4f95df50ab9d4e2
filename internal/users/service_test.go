package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reelkit/reels/internal/auth"
	"golang.org/x/crypto/bcrypt"
)

type mockRepo struct {
	create     func(ctx context.Context, email, username, passwordHash string) (*User, error)
	getByEmail func(ctx context.Context, email string) (*User, error)
	getByID    func(ctx context.Context, id uuid.UUID) (*User, error)
}

func (m *mockRepo) Create(ctx context.Context, email, username, passwordHash string) (*User, error) {
	if m.create != nil {
		return m.create(ctx, email, username, passwordHash)
	}
	return nil, nil
}

func (m *mockRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	if m.getByEmail != nil {
		return m.getByEmail(ctx, email)
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	if m.getByID != nil {
		return m.getByID(ctx, id)
	}
	return nil, ErrNotFound
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("hashes password and issues token", func(t *testing.T) {
		var storedHash string
		repo := &mockRepo{create: func(_ context.Context, email, username, passwordHash string) (*User, error) {
			if email != "a@b.c" || username != "alice" {
				t.Errorf("Create got email=%q username=%q", email, username)
			}
			storedHash = passwordHash
			return &User{ID: uuid.New(), Email: email, Username: username, PasswordHash: passwordHash}, nil
		}}
		svc := NewService(repo, []byte("secret"), time.Hour)

		result, err := svc.Register(ctx, "a@b.c", "alice", "hunter2")
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if storedHash == "hunter2" {
			t.Error("password stored in plaintext")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("hunter2")); err != nil {
			t.Errorf("stored hash does not verify: %v", err)
		}
		uid, err := auth.GetUserIDFromToken(result.Token, []byte("secret"))
		if err != nil {
			t.Fatalf("token does not parse: %v", err)
		}
		if uid != result.User.ID.String() {
			t.Errorf("token user id = %q", uid)
		}
	})

	t.Run("duplicate email propagates", func(t *testing.T) {
		repo := &mockRepo{create: func(context.Context, string, string, string) (*User, error) {
			return nil, ErrEmailTaken
		}}
		svc := NewService(repo, []byte("secret"), time.Hour)
		_, err := svc.Register(ctx, "a@b.c", "alice", "hunter2")
		if !errors.Is(err, ErrEmailTaken) {
			t.Errorf("got err %v", err)
		}
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	user := &User{ID: uuid.New(), Email: "a@b.c", Username: "alice", PasswordHash: string(hash)}

	t.Run("success", func(t *testing.T) {
		repo := &mockRepo{getByEmail: func(context.Context, string) (*User, error) { return user, nil }}
		svc := NewService(repo, []byte("secret"), time.Hour)
		result, err := svc.Login(ctx, "a@b.c", "hunter2")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if result.Token == "" || result.User.ID != user.ID {
			t.Errorf("got %+v", result)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := &mockRepo{getByEmail: func(context.Context, string) (*User, error) { return user, nil }}
		svc := NewService(repo, []byte("secret"), time.Hour)
		_, err := svc.Login(ctx, "a@b.c", "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("got err %v", err)
		}
	})

	t.Run("unknown email indistinguishable from wrong password", func(t *testing.T) {
		repo := &mockRepo{}
		svc := NewService(repo, []byte("secret"), time.Hour)
		_, err := svc.Login(ctx, "missing@b.c", "hunter2")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("got err %v", err)
		}
	})
}
