package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"carrental/internal/db"
)

type UserRepository interface {
	Create(ctx context.Context, u *db.User) error
	GetByEmail(ctx context.Context, email string) (*db.User, error)
	GetByID(ctx context.Context, id int64) (*db.User, error)
	UpdateProfile(ctx context.Context, id int64, firstName, lastName, phone *string) (*db.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, phone, role, created_at`

func scanUser(row interface{ Scan(...any) error }) (*db.User, error) {
	var u db.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts u with its password already hashed and fills in the generated fields.
func (r *userRepository) Create(ctx context.Context, u *db.User) error {
	if u.Role == "" {
		u.Role = db.RoleCustomer
	}
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.Role).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error inserting user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
	u, err := scanUser(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("error querying user by email: %w", err)
	}
	return u, err
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*db.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	u, err := scanUser(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("error querying user %d: %w", id, err)
	}
	return u, err
}

// UpdateProfile changes the non-nil fields and returns the stored user.
func (r *userRepository) UpdateProfile(ctx context.Context, id int64, firstName, lastName, phone *string) (*db.User, error) {
	qb := NewQueryBuilder()
	if firstName != nil {
		qb.Assign("first_name", *firstName)
	}
	if lastName != nil {
		qb.Assign("last_name", *lastName)
	}
	if phone != nil {
		qb.Assign("phone", *phone)
	}
	qb.AssignNow("updated_at").Eq("id", id)

	query := "UPDATE users SET " + qb.SetClause() + qb.Where() + " RETURNING " + userColumns
	u, err := scanUser(r.db.QueryRowContext(ctx, query, qb.Args()...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("error updating user %d: %w", id, err)
	}
	return u, err
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2", passwordHash, id)
	if err != nil {
		return fmt.Errorf("error updating password for user %d: %w", id, err)
	}
	return expectAffected(res)
}

// expectAffected maps an UPDATE or DELETE that touched no row to ErrNotFound.
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
