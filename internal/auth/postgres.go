package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"freightdesk.org/internal/ids"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using the auth-schema PostgreSQL database.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Organizations(context.Context) OrganizationStore { return &orgStore{db: s.db} }
func (s *PGStore) Users(context.Context) UserStore                 { return &userStore{db: s.db} }
func (s *PGStore) RefreshTokens(context.Context) RefreshTokenStore { return &tokenStore{db: s.db} }

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func mapWriteError(err error) error {
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return ErrConflict
		case pgErrForeignKeyViolation:
			return ErrNotFound
		}
	}
	return err
}

// Organization store -------------------------------------------------------

type orgStore struct{ db *sql.DB }

const orgColumns = `id, name, slug, status, max_users, plan, plan_expires_at, created_at, updated_at`

func (s *orgStore) Create(ctx context.Context, org *Organization) error {
	if org.ID == "" {
		org.ID = ids.New()
	}
	err := s.db.QueryRowContext(ctx, `
		insert into organizations (id, name, slug, status, max_users, plan, plan_expires_at)
		values ($1, $2, $3, $4, $5, nullif($6,''), $7)
		returning created_at, updated_at
	`, org.ID, org.Name, org.Slug, org.Status, org.MaxUsers, org.Plan, org.PlanExpiresAt).
		Scan(&org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func scanOrg(row interface{ Scan(...any) error }) (*Organization, error) {
	var (
		org     Organization
		plan    sql.NullString
		planExp sql.NullTime
	)
	if err := row.Scan(&org.ID, &org.Name, &org.Slug, &org.Status, &org.MaxUsers,
		&plan, &planExp, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return nil, err
	}
	if plan.Valid {
		org.Plan = plan.String
	}
	if planExp.Valid {
		t := planExp.Time
		org.PlanExpiresAt = &t
	}
	return &org, nil
}

func (s *orgStore) Find(ctx context.Context, id string) (*Organization, error) {
	org, err := scanOrg(s.db.QueryRowContext(ctx,
		`select `+orgColumns+` from organizations where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return org, err
}

func (s *orgStore) FindBySlug(ctx context.Context, slug string) (*Organization, error) {
	org, err := scanOrg(s.db.QueryRowContext(ctx,
		`select `+orgColumns+` from organizations where slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return org, err
}

func (s *orgStore) List(ctx context.Context) ([]*Organization, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+orgColumns+` from organizations order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Organization
	for rows.Next() {
		org, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, org)
	}
	return result, rows.Err()
}

func (s *orgStore) Update(ctx context.Context, id string, upd OrganizationUpdate) (*Organization, error) {
	var (
		sets []string
		args []any
	)
	add := func(expr string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}
	if upd.Name != nil {
		add("name = $%d", *upd.Name)
	}
	if upd.Slug != nil {
		add("slug = $%d", *upd.Slug)
	}
	if upd.Status != nil {
		add("status = $%d", *upd.Status)
	}
	if upd.MaxUsers != nil {
		add("max_users = $%d", *upd.MaxUsers)
	}
	if upd.Plan != nil {
		add("plan = nullif($%d,'')", *upd.Plan)
	}
	if upd.PlanExpiresAt != nil {
		add("plan_expires_at = $%d", *upd.PlanExpiresAt)
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		args = append(args, id)
		query := fmt.Sprintf(`update organizations set %s where id = $%d`,
			strings.Join(sets, ", "), len(args))
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, mapWriteError(err)
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if aff == 0 {
			return nil, ErrNotFound
		}
	}
	return s.Find(ctx, id)
}

func (s *orgStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from organizations where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return ErrNotFound
	}
	return nil
}

// User store ---------------------------------------------------------------

type userStore struct{ db *sql.DB }

const userColumns = `id, organization_id, email, password_hash, first_name, last_name, role, status, last_login_at, created_at, updated_at`

func (s *userStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	err := s.db.QueryRowContext(ctx, `
		insert into users (id, organization_id, email, password_hash, first_name, last_name, role, status)
		values ($1, nullif($2,''), $3, $4, $5, $6, $7, $8)
		returning created_at, updated_at
	`, u.ID, u.OrganizationID, u.Email, u.PasswordHash, u.FirstName, u.LastName, string(u.Role), u.Status).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var (
		u         User
		orgID     sql.NullString
		role      string
		lastLogin sql.NullTime
	)
	if err := row.Scan(&u.ID, &orgID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&role, &u.Status, &lastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if orgID.Valid {
		u.OrganizationID = orgID.String
	}
	u.Role = Role(role)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

func (s *userStore) Find(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (s *userStore) List(ctx context.Context) ([]*User, error) {
	return s.queryUsers(ctx, `select `+userColumns+` from users order by created_at asc`)
}

func (s *userStore) ListByOrg(ctx context.Context, orgID string) ([]*User, error) {
	return s.queryUsers(ctx,
		`select `+userColumns+` from users where organization_id = $1 order by created_at asc`, orgID)
}

func (s *userStore) queryUsers(ctx context.Context, query string, args ...any) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *userStore) CountByOrg(ctx context.Context, orgID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`select count(*) from users where organization_id = $1`, orgID).Scan(&count)
	return count, err
}

func (s *userStore) Update(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	var (
		sets []string
		args []any
	)
	add := func(expr string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}
	if upd.Email != nil {
		add("email = $%d", *upd.Email)
	}
	if upd.PasswordHash != nil {
		add("password_hash = $%d", *upd.PasswordHash)
	}
	if upd.FirstName != nil {
		add("first_name = $%d", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name = $%d", *upd.LastName)
	}
	if upd.Role != nil {
		add("role = $%d", string(*upd.Role))
	}
	if upd.Status != nil {
		add("status = $%d", *upd.Status)
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		args = append(args, id)
		query := fmt.Sprintf(`update users set %s where id = $%d`,
			strings.Join(sets, ", "), len(args))
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, mapWriteError(err)
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if aff == 0 {
			return nil, ErrNotFound
		}
	}
	return s.Find(ctx, id)
}

func (s *userStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *userStore) DeleteByOrg(ctx context.Context, orgID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `delete from users where organization_id = $1`, orgID)
	if err != nil {
		return 0, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(aff), nil
}

func (s *userStore) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`update users set last_login_at = $2 where id = $1`, id, at)
	return err
}

// Refresh token store ------------------------------------------------------

type tokenStore struct{ db *sql.DB }

func (s *tokenStore) Create(ctx context.Context, tok *RefreshToken) error {
	_, err := s.db.ExecContext(ctx, `
		insert into refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		values ($1, $2, $3, $4, $5)
	`, tok.ID, tok.UserID, tok.TokenHash, tok.ExpiresAt, tok.CreatedAt)
	return mapWriteError(err)
}

func (s *tokenStore) Find(ctx context.Context, id string) (*RefreshToken, error) {
	var (
		tok     RefreshToken
		revoked sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		select id, user_id, token_hash, expires_at, revoked_at, created_at
		from refresh_tokens where id = $1
	`, id).Scan(&tok.ID, &tok.UserID, &tok.TokenHash, &tok.ExpiresAt, &revoked, &tok.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if revoked.Valid {
		t := revoked.Time
		tok.RevokedAt = &t
	}
	return &tok, nil
}

func (s *tokenStore) Revoke(ctx context.Context, id string, at time.Time) error {
	// The guard keeps the first revocation timestamp on repeated calls.
	_, err := s.db.ExecContext(ctx,
		`update refresh_tokens set revoked_at = $2 where id = $1 and revoked_at is null`, id, at)
	return err
}
