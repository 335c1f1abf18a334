package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// User is a trainee profile.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Age       *int      `json:"age,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRepository provides CRUD operations for users and tracks the active
// user.
type UserRepository struct {
	db *sql.DB
}

// Users returns the user repository for this store.
func (s *Store) Users() *UserRepository {
	return &UserRepository{db: s.db}
}

const userColumns = `id, username, age, gender, created_at`

// Create inserts u, assigning an ID when empty. Usernames are trimmed and
// must be unique.
func (r *UserRepository) Create(ctx context.Context, u *User) error {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return goerr.New("username is empty")
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, age, gender, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Username, nullInt(u.Age), nullString(u.Gender), formatTime(u.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return goerr.Wrap(ErrUsernameTaken, "create user", goerr.V("username", u.Username))
		}
		return goerr.Wrap(err, "create user", goerr.V("username", u.Username))
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, strings.TrimSpace(username))
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, goerr.Wrap(err, "get user", goerr.V("key", arg))
	}
	return u, nil
}

// List retrieves all users ordered by username.
func (r *UserRepository) List(ctx context.Context) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, goerr.Wrap(err, "list users")
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "scan user")
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Rename changes a user's username.
func (r *UserRepository) Rename(ctx context.Context, id, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return goerr.New("username is empty")
	}

	result, err := r.db.ExecContext(ctx, `UPDATE users SET username = ? WHERE id = ?`, username, id)
	if err != nil {
		if isUniqueViolation(err) {
			return goerr.Wrap(ErrUsernameTaken, "rename user", goerr.V("username", username))
		}
		return goerr.Wrap(err, "rename user", goerr.V("id", id))
	}
	return requireOne(result)
}

// UpdateProfile sets age and gender. A nil age or empty gender clears the
// field.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, age *int, gender string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET age = ?, gender = ? WHERE id = ?`,
		nullInt(age), nullString(gender), id,
	)
	if err != nil {
		return goerr.Wrap(err, "update profile", goerr.V("id", id))
	}
	return requireOne(result)
}

// Delete removes a user together with their sessions and active marker.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return goerr.Wrap(err, "delete user", goerr.V("id", id))
	}
	return requireOne(result)
}

// SetActive marks id as the logged-in user.
func (r *UserRepository) SetActive(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO active_session (user_id, last_login) VALUES (?, ?)`,
		id, formatTime(time.Now()),
	)
	if err != nil {
		return goerr.Wrap(err, "set active user", goerr.V("id", id))
	}
	return nil
}

// Active returns the most recently logged-in user, or ErrNotFound.
func (r *UserRepository) Active(ctx context.Context) (*User, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM active_session ORDER BY last_login DESC LIMIT 1`,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, goerr.Wrap(err, "get active user")
	}
	return r.GetByID(ctx, id)
}

// ClearActive logs everybody out.
func (r *UserRepository) ClearActive(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM active_session`); err != nil {
		return goerr.Wrap(err, "clear active user")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	u := &User{}
	var (
		age     sql.NullInt64
		gender  sql.NullString
		created string
	)
	if err := row.Scan(&u.ID, &u.Username, &age, &gender, &created); err != nil {
		return nil, err
	}
	u.Age = intPtr(age)
	u.Gender = gender.String
	u.CreatedAt = parseTime(created)
	return u, nil
}

func requireOne(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
