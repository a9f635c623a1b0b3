package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/benerin/benerin-api/internal/data/pgxutil"
	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
	"github.com/benerin/benerin-api/internal/ports"
)

// userRow mirrors the users table columns scanned on login.
type userRow struct {
	ID                 string  `db:"id"`
	Email              string  `db:"email"`
	PasswordHash       string  `db:"password_hash"`
	Name               string  `db:"name"`
	Role               string  `db:"role"`
	VerificationStatus *string `db:"verification_status"`
	IsActive           bool    `db:"is_active"`
}

// UserRepo implements ports.CredentialBackend over Postgres. Passwords are
// stored as bcrypt hashes; the repo never returns them.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider

	// BcryptCost overrides bcrypt.DefaultCost when > 0 (lowered in tests).
	BcryptCost int
}

var _ ports.CredentialBackend = (*UserRepo)(nil)

// NewUserRepo creates a new UserRepo with the real time provider.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

func (r *UserRepo) cost() int {
	if r.BcryptCost > 0 {
		return r.BcryptCost
	}
	return bcrypt.DefaultCost
}

// stampedAt is the UTC creation timestamp written on insert.
func (r *UserRepo) stampedAt() time.Time {
	return r.timeProvider.Now().UTC()
}

// Login verifies the credentials against the stored hash. A missing account
// and a wrong password are indistinguishable to the caller.
func (r *UserRepo) Login(ctx context.Context, creds ports.Credentials) (domainauth.Identity, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))

	var row userRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, email, password_hash, name, role, verification_status, is_active
			FROM users
			WHERE email = $1
		`, email)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Burn a hash comparison anyway so timing does not leak
			// account existence.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(creds.Password))
			return domainauth.Identity{}, ErrInvalidCredentials
		}
		return domainauth.Identity{}, fmt.Errorf("query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(creds.Password)); err != nil {
		return domainauth.Identity{}, ErrInvalidCredentials
	}

	return row.identity(), nil
}

// dummyHash is compared against when the account does not exist.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// RegisterCustomer creates a customer account. A duplicate email maps to
// ErrEmailExists.
func (r *UserRepo) RegisterCustomer(ctx context.Context, reg ports.CustomerRegistration) (domainauth.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), r.cost())
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(reg.Email))
	createdAt := r.stampedAt()

	var row userRow
	err = pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO users (email, password_hash, name, phone, role, is_active, created_at)
			VALUES ($1, $2, $3, $4, 'customer', TRUE, $5)
			RETURNING id, email, password_hash, name, role, verification_status, is_active
		`, email, string(hash), reg.Name, nullable(reg.Phone), createdAt)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
		return err
	})
	if err != nil {
		return domainauth.Identity{}, mapRegisterErr(err)
	}

	return row.identity(), nil
}

// RegisterMitra creates a mitra account plus its business profile in one
// transaction. The account starts with verification_status=pending.
func (r *UserRepo) RegisterMitra(ctx context.Context, reg ports.MitraRegistration) (domainauth.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), r.cost())
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(reg.Email))
	createdAt := r.stampedAt()

	var row userRow
	err = pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			INSERT INTO users (email, password_hash, name, phone, role, verification_status, is_active, created_at)
			VALUES ($1, $2, $3, $4, 'mitra', 'pending', TRUE, $5)
			RETURNING id, email, password_hash, name, role, verification_status, is_active
		`, email, string(hash), reg.BusinessName, nullable(reg.Phone), createdAt)
		if err != nil {
			return err
		}
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO mitra_profiles (user_id, business_name, address, created_at)
			VALUES ($1, $2, $3, $4)
		`, row.ID, reg.BusinessName, nullable(reg.Address), createdAt)
		return err
	}})
	if err != nil {
		return domainauth.Identity{}, mapRegisterErr(err)
	}

	return row.identity(), nil
}

func (row userRow) identity() domainauth.Identity {
	var status domainauth.VerificationStatus
	if row.VerificationStatus != nil {
		status = domainauth.VerificationStatus(*row.VerificationStatus)
	}
	return domainauth.Identity{
		UserID:             row.ID,
		Email:              row.Email,
		Name:               row.Name,
		Role:               domainauth.Role(row.Role),
		VerificationStatus: status,
		IsActive:           row.IsActive,
		ExpiresAt:          time.Time{}, // the auth service applies its TTL
	}
}

func mapRegisterErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrEmailExists
	}
	return fmt.Errorf("insert user: %w", err)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
