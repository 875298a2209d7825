package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/makazi/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

type userRow struct {
	ID           string         `db:"id"`
	Name         null.String    `db:"name"`
	Username     null.String    `db:"username"`
	Email        null.String    `db:"email"`
	IsActive     null.Bool      `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	Block        null.String    `db:"block"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    null.Time      `db:"created_at"`
	UpdatedAt    null.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name.String,
		Username:     r.Username.String,
		Email:        r.Email.String,
		IsActive:     r.IsActive.Bool,
		Roles:        r.Roles,
		Block:        r.Block.String,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
		LastLogin:    r.LastLogin.Time,
	}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	check := func(col, val string, sentinel error) error {
		if val == "" {
			return nil
		}
		q := `SELECT COUNT(*) FROM "user" WHERE ` + col + ` = ?`
		args := []interface{}{val}
		if len(excludedUsers) > 0 {
			ids := make([]string, 0, len(excludedUsers))
			for _, usr := range excludedUsers {
				ids = append(ids, usr.ID)
			}
			inQ, inArgs, err := sqlx.In(q+` AND id NOT IN (?)`, val, ids)
			if err != nil {
				return errors.Wrap(err, "building uniqueness query")
			}
			q, args = inQ, inArgs
		}

		var count int
		if err := repo.db.GetContext(ctx, &count, repo.db.Rebind(q), args...); err != nil {
			return errors.Wrap(err, "checking user uniqueness")
		}
		if count > 0 {
			return sentinel
		}
		return nil
	}

	if err := check("username", username, user.ErrUsernameExists); err != nil {
		return err
	}
	return check("email", email, user.ErrEmailExists)
}

func (repo *userRepository) CheckWardenBlockUniqueness(ctx context.Context, block string, excludedUsers ...user.User) error {
	q := `SELECT COUNT(*) FROM "user" WHERE block = ? AND ? = ANY (roles)`
	args := []interface{}{block, user.RoleWarden}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		inQ, inArgs, err := sqlx.In(q+` AND id NOT IN (?)`, block, user.RoleWarden, ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		q, args = inQ, inArgs
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking warden block uniqueness")
	}
	if count > 0 {
		return user.ErrBlockHasWarden
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.NewString()
	q := `
INSERT INTO "user" (id, name, username, email, is_active, roles, block, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := repo.db.ExecContext(ctx, q,
		usr.ID, nullString(usr.Name), nullString(usr.Username), nullString(usr.Email), usr.IsActive,
		pq.StringArray(usr.Roles), nullString(usr.Block), usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.get(ctx, `SELECT * FROM "user" WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.get(ctx, `SELECT * FROM "user" WHERE username = $1`, username)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.get(ctx, `SELECT * FROM "user" WHERE email = $1`, email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.get(ctx, `SELECT * FROM "user" WHERE username = $1 OR email = $1`, username)
}

func (repo *userRepository) get(ctx context.Context, q string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	q := `SELECT * FROM "user" WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + itoa(len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		q += ` AND (name ILIKE ` + p + ` OR username ILIKE ` + p + ` OR email ILIKE ` + p + `)`
	}
	if len(filter.Roles) > 0 {
		// role prefixes: warden: matches warden:*
		q += ` AND EXISTS (SELECT 1 FROM unnest(roles) r WHERE `
		for i, role := range filter.Roles {
			if i > 0 {
				q += ` OR `
			}
			q += `r LIKE ` + arg(role+"%")
		}
		q += `)`
	}
	if filter.Block != "" {
		q += ` AND block = ` + arg(filter.Block)
	}
	if filter.IsActive != nil {
		q += ` AND is_active = ` + arg(*filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		q += ` AND created_at >= ` + arg(filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		q += ` AND created_at <= ` + arg(filter.CreatedTo.UTC())
	}
	q += ` ORDER BY created_at`

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	q := `
UPDATE "user"
SET name          = $2,
    username      = $3,
    email         = $4,
    roles         = COALESCE($5, roles),
    block         = $6,
    password_hash = COALESCE($7, password_hash),
    is_active     = COALESCE($8, is_active),
    updated_at    = $9
WHERE id = $1
RETURNING *`
	var roles interface{}
	if usr.Roles != nil {
		roles = pq.StringArray(usr.Roles)
	}
	var hash interface{}
	if usr.PasswordHash != nil {
		hash = usr.PasswordHash
	}

	var row userRow
	if err := repo.db.GetContext(ctx, &row, q,
		usr.ID, nullString(usr.Name), nullString(usr.Username), nullString(usr.Email),
		roles, nullString(usr.Block), hash, isActive, usr.UpdatedAt,
	); err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE "user" SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return errors.Wrap(err, "updating last login")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
