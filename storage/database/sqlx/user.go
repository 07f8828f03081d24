package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/user"
)

type userRow struct {
	ID            string      `db:"id"`
	Name          string      `db:"name"`
	Username      null.String `db:"username"`
	Email         null.String `db:"email"`
	Role          string      `db:"role"`
	DepartmentID  null.Int    `db:"department_id"`
	StudentNumber null.String `db:"student_number"`
	IsActive      bool        `db:"is_active"`
	PasswordHash  null.Bytes  `db:"password_hash"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
	LastLogin     null.Time   `db:"last_login"`
}

func (r userRow) user() user.User {
	return user.User{
		ID:            r.ID,
		Name:          r.Name,
		Username:      r.Username.String,
		Email:         r.Email.String,
		Role:          r.Role,
		DepartmentID:  r.DepartmentID,
		StudentNumber: r.StudentNumber,
		IsActive:      r.IsActive,
		PasswordHash:  r.PasswordHash.Bytes,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		LastLogin:     r.LastLogin.Time,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if isNoRows(err) {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	exe := getExec(repo.db, exec)

	query := `SELECT COALESCE(username = ?, false) FROM "user" WHERE (username = ? OR email = ?)`
	args := []interface{}{username, username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		var err error
		if query, args, err = sqlx.In(query+` AND id NOT IN (?)`, append(args, ids)...); err != nil {
			return errors.Wrap(err, "binding excluded user IDs")
		}
	}
	query += ` LIMIT 1`

	var usernameTaken bool
	if err := sqlx.GetContext(ctx, exe, &usernameTaken, exe.Rebind(query), args...); err != nil {
		if isNoRows(err) {
			return nil
		}
		return errors.Wrap(err, "checking user uniqueness")
	}
	if usernameTaken && username != "" {
		return user.ErrUsernameExists
	}
	return user.ErrEmailExists
}

const userColumns = `id, name, username, email, role, department_id, student_number,
	is_active, password_hash, created_at, updated_at, last_login`

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()

	query := `
		INSERT INTO "user" (id, name, username, email, role, department_id, student_number, is_active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := getExec(repo.db, exec).ExecContext(ctx, query,
		usr.ID, usr.Name,
		null.NewString(usr.Username, usr.Username != ""),
		null.NewString(usr.Email, usr.Email != ""),
		usr.Role, usr.DepartmentID, usr.StudentNumber, usr.IsActive,
		null.BytesFrom(usr.PasswordHash), usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	query := `SELECT ` + userColumns + ` FROM "user" WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, id); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by ID")
	}
	return row.user(), nil
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	query := `SELECT ` + userColumns + ` FROM "user" WHERE username = $1 OR email = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, username); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by username or email")
	}
	return row.user(), nil
}

func (repo userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, exec ...core.DBExecutor) ([]user.User, error) {
	query := `SELECT ` + userColumns + ` FROM "user" WHERE true`
	var args []interface{}

	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		query += ` AND (name ILIKE ? OR username ILIKE ? OR email ILIKE ?)`
		args = append(args, val, val, val)
	}
	if filter.Role != "" {
		query += ` AND role = ?`
		args = append(args, filter.Role)
	}
	if filter.DepartmentID > 0 {
		query += ` AND department_id = ?`
		args = append(args, filter.DepartmentID)
	}
	if filter.IsActive != nil {
		query += ` AND is_active = ?`
		args = append(args, *filter.IsActive)
	}
	query += ` ORDER BY created_at`

	exe := getExec(repo.db, exec)
	rows := make([]userRow, 0)
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.user())
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	query := `
		UPDATE "user" SET
			name           = COALESCE(NULLIF($2, ''), name),
			username       = COALESCE(NULLIF($3, ''), username),
			email          = COALESCE(NULLIF($4, ''), email),
			role           = COALESCE(NULLIF($5, ''), role),
			password_hash  = COALESCE($6, password_hash),
			is_active      = COALESCE($7, is_active),
			updated_at     = $8
		WHERE id = $1
		RETURNING ` + userColumns

	var hash null.Bytes
	if len(usr.PasswordHash) > 0 {
		hash = null.BytesFrom(usr.PasswordHash)
	}
	var active null.Bool
	if isActive != nil {
		active = null.BoolFrom(*isActive)
	}

	var row userRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.Role, hash, active, usr.UpdatedAt.UTC())
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "updating user")
	}
	return row.user(), nil
}

func (repo userRepository) SetLastLogin(ctx context.Context, usr user.User, exec ...core.DBExecutor) error {
	res, err := getExec(repo.db, exec).ExecContext(ctx,
		`UPDATE "user" SET last_login = $2 WHERE id = $1`, usr.ID, usr.LastLogin.UTC())
	if err != nil {
		return errors.Wrap(err, "setting last login")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "binding user IDs")
	}
	exe := getExec(repo.db, exec)
	if _, err = exe.ExecContext(ctx, exe.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
