package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

const userColumns = "id, full_name, email, is_active, roles, password_hash, created_at, updated_at, last_login"

var userOrderingFields = []string{"full_name", "email", "is_active", "created_at", "updated_at", "last_login"}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) emailTaken(err error) error {
	if isUniqueViolation(err) {
		return core.NewValidationError(user.ErrEmailExists, core.FieldError{Field: "email", Error: user.ErrEmailExists.Error()})
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	_, err := exec(
		ctx, repo.db,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		usr.ID, usr.FullName, usr.Email, usr.IsActive, usr.Roles, string(usr.PasswordHash),
		usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(), usr.LastLogin,
	)
	if err != nil {
		if vErr := repo.emailTaken(err); vErr != nil {
			return user.User{}, vErr
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, orderings []core.DBOrdering, page core.Pagination) ([]user.User, int, error) {
	var w where

	// users with FullName or Email matching the search keyword
	if filter.Search != "" {
		val := likeArg(filter.Search)
		w.add("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", val, val)
	}
	// users with any role that starts with any of the provided roles
	if len(filter.Roles) > 0 {
		vals := make([]interface{}, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			vals = append(vals, `%"`+role+`%`)
		}
		w.anyOf("roles LIKE ?", vals...)
	}
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		w.add("created_at >= ?", filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		w.add("created_at <= ?", filter.CreatedTo.UTC())
	}

	orderBy := core.OrderByClause(orderings, userOrderingFields, "created_at DESC") + ", id"
	return queryPage[user.User](ctx, repo.db, userColumns, "users", w, orderBy, page)
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var w where
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		w.add("id = ?", filter.ID)
	case filter.Email != "":
		w.add("email = ?", filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	if err := get(ctx, repo.db, &usr, "SELECT "+userColumns+" FROM users"+w.String(), w.args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return usr, nil
}

func (repo userRepository) EmailExists(ctx context.Context, email string, excludedIDs ...string) (bool, error) {
	var w where
	w.add("email = ?", email)
	if len(excludedIDs) > 0 {
		w.add("id NOT IN (?)", excludedIDs)
	}
	found, err := exists(ctx, repo.db, "SELECT 1 FROM users"+w.String(), w.args...)
	return found, errors.Wrap(err, "checking user email")
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	n, err := exec(
		ctx, repo.db,
		`UPDATE users SET full_name = ?, email = ?, is_active = ?, roles = ?, password_hash = ?,
			created_at = ?, updated_at = ?, last_login = ?
		WHERE id = ?`,
		usr.FullName, usr.Email, usr.IsActive, usr.Roles, string(usr.PasswordHash),
		usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(), usr.LastLogin, usr.ID,
	)
	if err != nil {
		if vErr := repo.emailTaken(err); vErr != nil {
			return user.User{}, vErr
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) DeleteUsers(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := exec(ctx, repo.db, "DELETE FROM users WHERE id IN (?)", ids)
	return errors.Wrap(err, "deleting users")
}
