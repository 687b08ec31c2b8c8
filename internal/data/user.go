package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
)

// userRepo implements the User repository
type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new User repository
func NewUserRepo(db *sql.DB) repo.UserRepo {
	return &userRepo{db: db}
}

const userColumns = `id, platform_user_id, user_name, email, state, active, first_seen_at`

// FindByID gets a user by primary key
func (r *userRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// FindByPlatformID gets a user by the chat platform's user id
func (r *userRepo) FindByPlatformID(ctx context.Context, platformUserID string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE platform_user_id = ?`, platformUserID)
	return scanUser(row)
}

// FindByEmail gets a user by email
func (r *userRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email)
	return scanUser(row)
}

// Save inserts or updates a user
func (r *userRepo) Save(ctx context.Context, user *domain.User) error {
	email := sql.NullString{String: user.Email, Valid: user.Email != ""}

	if user.ID == 0 {
		if user.FirstSeenAt.IsZero() {
			user.FirstSeenAt = time.Now()
		}
		result, err := r.db.ExecContext(ctx, `
			INSERT INTO users (platform_user_id, user_name, email, state, active, first_seen_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, user.PlatformUserID, user.UserName, email, string(user.State), user.Active, user.FirstSeenAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read user id: %w", err)
		}
		user.ID = id
		return nil
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET user_name = ?, email = ?, state = ?, active = ? WHERE id = ?
	`, user.UserName, email, string(user.State), user.Active, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var email sql.NullString
	var state string
	var firstSeen int64

	err := row.Scan(&user.ID, &user.PlatformUserID, &user.UserName, &email, &state, &user.Active, &firstSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user.Email = email.String
	user.State = domain.RegistrationState(state)
	user.FirstSeenAt = time.Unix(firstSeen, 0)
	return &user, nil
}

// rawEventRepo implements the append-only event log
type rawEventRepo struct {
	db *sql.DB
}

// NewRawEventRepo creates a new RawEvent repository
func NewRawEventRepo(db *sql.DB) repo.RawEventRepo {
	return &rawEventRepo{db: db}
}

// Append stores one inbound event
func (r *rawEventRepo) Append(ctx context.Context, event *domain.RawEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO raw_events (event_id, payload, created_at) VALUES (?, ?, ?)
	`, event.EventID, string(event.Payload), event.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to append raw event: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		event.ID = id
	}
	return nil
}
