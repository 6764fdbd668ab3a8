package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// unique indexes from the users migration
const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

const selectUser = `SELECT id, username, email, password_hash, password_salt,
		first_name, last_name, city, full_address, phone_number,
		gender_id, region_id, created_at
	FROM users`

// PostgresRepository is the PostgreSQL user directory.
type PostgresRepository struct {
	db     dbx.DBTX
	policy Policy
}

// NewPostgresRepository binds a directory to db (a pool or a transaction).
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, policy: DefaultPolicy}
}

// WithPolicy returns a copy of the repository enforcing p.
func (r *PostgresRepository) WithPolicy(p Policy) *PostgresRepository {
	return &PostgresRepository{db: r.db, policy: p}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User, password string) (*models.User, error) {
	if reasons := r.policy.Check(user, password); len(reasons) > 0 {
		return nil, &common.RegistrationError{Reasons: reasons}
	}

	user.Email = NormalizeEmail(user.Email)

	query :=
		`INSERT INTO users (username, email, password_hash, password_salt,
			first_name, last_name, city, full_address, phone_number, gender_id, region_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.Email, user.PasswordHash, user.PasswordSalt,
		user.FirstName, user.LastName, user.City, user.FullAddress, user.PhoneNumber,
		user.GenderID, user.RegionID,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case emailConstraint:
				return nil, &common.DuplicateCredentialError{Field: "email"}
			case usernameConstraint:
				return nil, &common.DuplicateCredentialError{Field: "username"}
			}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, selectUser+` WHERE lower(email) = $1`, NormalizeEmail(email))
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, userName string) (*models.User, error) {
	return r.findOne(ctx, selectUser+` WHERE lower(username) = $1`, NormalizeUserName(userName))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.UserName, &user.Email, &user.PasswordHash, &user.PasswordSalt,
		&user.FirstName, &user.LastName, &user.City, &user.FullAddress, &user.PhoneNumber,
		&user.GenderID, &user.RegionID, &user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}
