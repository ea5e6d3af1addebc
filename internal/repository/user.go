package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/faithfast/faithfast-go/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

const userColumns = `id, name, email, password_hash, is_verified, status, last_login, created_at, updated_at`

// UserRepository handles user persistence operations.
type UserRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts a new user and sets the generated ID and timestamps on the user struct.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (name, email, password_hash, is_verified, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if user.Status == "" {
		user.Status = model.StatusActive
	}
	now := r.now()

	result, err := r.db.ExecContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.IsVerified, string(user.Status), now, now,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// MarkVerified flips is_verified for an unverified user. It reports false when
// no row changed, i.e. the user is missing or was already verified.
func (r *UserRepository) MarkVerified(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE users SET is_verified = ?, updated_at = ? WHERE id = ? AND is_verified = ?`

	result, err := r.db.ExecContext(ctx, query, true, r.now(), id, false)
	if err != nil {
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UpdateLastLogin records a successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, at.UTC(), r.now(), id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetStatus changes the administrative status of an account. There is no
// admin route yet; operators call it directly.
func (r *UserRepository) SetStatus(ctx context.Context, id int64, status model.UserStatus) error {
	query := `UPDATE users SET status = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, string(status), r.now(), id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		user      model.User
		status    string
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.IsVerified,
		&status, &lastLogin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.Status = model.UserStatus(status)
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	return &user, nil
}

// isDuplicateEntryError reports unique-index violations from MySQL (1062) or SQLite.
func isDuplicateEntryError(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
