package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func ptr(v int) *int { return &v }

func createUser(t *testing.T, s *Store, name string, age *int, gender string) *User {
	t.Helper()
	u := &User{Username: name, Age: age, Gender: gender}
	if err := s.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("failed to create user %q: %v", name, err)
	}
	return u
}

func TestUserRepository_Create(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createUser(t, s, "  alice ", ptr(27), "female")

	if u.ID == "" {
		t.Error("ID should be assigned on create")
	}
	if u.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set after create")
	}

	got, err := s.Users().GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("failed to get user by ID: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("Username = %q, want trimmed %q", got.Username, "alice")
	}
	if got.Age == nil || *got.Age != 27 {
		t.Errorf("Age = %v, want 27", got.Age)
	}
	if got.Gender != "female" {
		t.Errorf("Gender = %q, want female", got.Gender)
	}
	if d := got.CreatedAt.Sub(u.CreatedAt); d > time.Microsecond || d < -time.Microsecond {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, u.CreatedAt)
	}
}

func TestUserRepository_CreateValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createUser(t, s, "bob", nil, "")

	err := s.Users().Create(ctx, &User{Username: "bob"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate username: got %v, want ErrUsernameTaken", err)
	}

	if err := s.Users().Create(ctx, &User{Username: "   "}); err == nil {
		t.Error("blank username should be rejected")
	}
}

func TestUserRepository_OptionalFieldsAreNull(t *testing.T) {
	s := newTestStore(t)
	u := createUser(t, s, "carol", nil, "")

	got, err := s.Users().GetByUsername(context.Background(), "carol")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("ID = %q, want %q", got.ID, u.ID)
	}
	if got.Age != nil {
		t.Errorf("Age = %v, want nil", *got.Age)
	}
	if got.Gender != "" {
		t.Errorf("Gender = %q, want empty", got.Gender)
	}
}

func TestUserRepository_GetNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Users().GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID: got %v, want ErrNotFound", err)
	}
	if _, err := s.Users().GetByUsername(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByUsername: got %v, want ErrNotFound", err)
	}
}

func TestUserRepository_List(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"zed", "amy", "mo"} {
		createUser(t, s, name, nil, "")
	}

	users, err := s.Users().List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"amy", "mo", "zed"}
	if len(users) != len(want) {
		t.Fatalf("got %d users, want %d", len(users), len(want))
	}
	for i, name := range want {
		if users[i].Username != name {
			t.Errorf("users[%d] = %q, want %q", i, users[i].Username, name)
		}
	}
}

func TestUserRepository_Rename(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createUser(t, s, "alice", nil, "")
	createUser(t, s, "bob", nil, "")

	if err := s.Users().Rename(ctx, a.ID, "alicia"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	got, _ := s.Users().GetByID(ctx, a.ID)
	if got.Username != "alicia" {
		t.Errorf("Username = %q, want alicia", got.Username)
	}

	if err := s.Users().Rename(ctx, a.ID, "bob"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("rename to taken name: got %v, want ErrUsernameTaken", err)
	}
	if err := s.Users().Rename(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rename missing user: got %v, want ErrNotFound", err)
	}
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "dan", nil, "")

	if err := s.Users().UpdateProfile(ctx, u.ID, ptr(40), "male"); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	got, _ := s.Users().GetByID(ctx, u.ID)
	if got.Age == nil || *got.Age != 40 || got.Gender != "male" {
		t.Errorf("profile = (%v, %q), want (40, male)", got.Age, got.Gender)
	}

	if err := s.Users().UpdateProfile(ctx, u.ID, nil, ""); err != nil {
		t.Fatalf("UpdateProfile clear: %v", err)
	}
	got, _ = s.Users().GetByID(ctx, u.ID)
	if got.Age != nil || got.Gender != "" {
		t.Errorf("profile should be cleared, got (%v, %q)", got.Age, got.Gender)
	}

	if err := s.Users().UpdateProfile(ctx, "missing", nil, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "erin", nil, "")
	saveSession(t, s, u.ID, "medium", 300, 0, time.Now())
	if err := s.Users().SetActive(ctx, u.ID); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	if err := s.Users().Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	sessions, err := s.Sessions().ListByUser(ctx, u.ID, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("sessions should be deleted with the user, got %d", len(sessions))
	}
	if _, err := s.Users().Active(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("active user should be cleared, got %v", err)
	}
	if err := s.Users().Delete(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestUserRepository_Active(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Users().Active(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("no active user: got %v, want ErrNotFound", err)
	}

	a := createUser(t, s, "alice", nil, "")
	b := createUser(t, s, "bob", nil, "")

	if err := s.Users().SetActive(ctx, a.ID); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if err := s.Users().SetActive(ctx, b.ID); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	got, err := s.Users().Active(ctx)
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if got.ID != b.ID {
		t.Errorf("active = %q, want last login %q", got.Username, "bob")
	}

	if err := s.Users().ClearActive(ctx); err != nil {
		t.Fatalf("ClearActive: %v", err)
	}
	if _, err := s.Users().Active(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("after clear: got %v, want ErrNotFound", err)
	}
}
