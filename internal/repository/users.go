package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/quillcraft-golang/internal/models"
	"github.com/go-sql-driver/mysql"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// mysqlDuplicateEntry is the server error code for a unique key violation.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

// CreateWithTrial inserts user together with its signup subscription and
// sets both IDs. Either both rows are written or neither is. A taken email
// yields ErrAlreadyExists.
func (r *UserRepository) CreateWithTrial(ctx context.Context, user *models.User, sub *models.Subscription) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin register: %w", err)
	}
	defer tx.Rollback()

	if err := insertUser(ctx, tx, user); err != nil {
		return err
	}
	sub.UserID = user.ID
	if err := insertTrial(ctx, tx, sub); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit register: %w", err)
	}
	return nil
}

func insertUser(ctx context.Context, db execer, user *models.User) error {
	now := time.Now().UTC()
	res, err := db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, full_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		user.Email, user.PasswordHash, user.FullName, now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user: last insert id: %w", err)
	}
	user.ID = id
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "SELECT id, email, password_hash, full_name, created_at, updated_at FROM users WHERE email = ?", email)
}

func (r *UserRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "SELECT id, email, password_hash, full_name, created_at, updated_at FROM users WHERE id = ?", id)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
