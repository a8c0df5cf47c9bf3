package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	intdb "busbooking/internal/db"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

const userEmailIndex = "uniq_users_email"

type UserRepo struct {
	DB *sql.DB
}

const userColumns = `id, name, email, phone, password_hash, role, loyalty_points, created_at, updated_at`

func scanUser(row rowScanner) (models.User, error) {
	var (
		u    models.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &role, &u.LoyaltyPoints, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return models.User{}, err
	}
	u.Role = models.Actor(role)
	return u, nil
}

// Create inserts a user. A taken email becomes ConflictError.
func (r UserRepo) Create(ctx context.Context, u *models.User) error {
	if r.DB == nil {
		return domain.ServiceUnavailableError{Err: errors.New("db not available")}
	}
	now := time.Now()
	if u.Role == "" {
		u.Role = models.ActorUser
	}
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (name, email, phone, password_hash, role, loyalty_points, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		u.Name, strings.ToLower(strings.TrimSpace(u.Email)), u.Phone, u.PasswordHash, string(u.Role), now, now)
	if err != nil {
		if intdb.IsDuplicateKey(err, userEmailIndex) {
			return domain.ConflictError{Resource: "user", Msg: "email already registered"}
		}
		return intdb.WrapStoreError("insert user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return intdb.WrapStoreError("user id", err)
	}
	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (r UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r UserRepo) GetByID(ctx context.Context, id int64) (models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id)
}

func (r UserRepo) getOne(ctx context.Context, query string, arg any) (models.User, error) {
	if r.DB == nil {
		return models.User{}, domain.ServiceUnavailableError{Err: errors.New("db not available")}
	}
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, domain.NotFoundError{Resource: "user", Err: err}
		}
		return models.User{}, intdb.WrapStoreError("get user", err)
	}
	return u, nil
}

// AddLoyaltyPoints credits (or debits, when negative) the user's balance.
func (r UserRepo) AddLoyaltyPoints(ctx context.Context, userID, points int64) error {
	if r.DB == nil {
		return domain.ServiceUnavailableError{Err: errors.New("db not available")}
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users SET loyalty_points = GREATEST(loyalty_points + ?, 0), updated_at = ?
		WHERE id = ?`, points, time.Now(), userID)
	if err != nil {
		return intdb.WrapStoreError("add loyalty points", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "user"}
	}
	return nil
}
