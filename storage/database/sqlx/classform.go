package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classform"
)

type classFormRepository struct {
	db core.DB
}

var _ classform.Repository = (*classFormRepository)(nil) // interface compliance check

func NewClassFormRepository(db core.DB) *classFormRepository {
	return &classFormRepository{db: db}
}

func nameTaken(err error, nameErr error) error {
	if isUniqueViolation(err) {
		return core.NewValidationError(nameErr, core.FieldError{Field: "name", Error: nameErr.Error()})
	}
	return nil
}

func (repo classFormRepository) CreateClassForm(ctx context.Context, cf classform.ClassForm) (classform.ClassForm, error) {
	if _, err := exec(ctx, repo.db, "INSERT INTO class_forms (id, name) VALUES (?, ?)", cf.ID, cf.Name); err != nil {
		if vErr := nameTaken(err, classform.ErrNameExists); vErr != nil {
			return classform.ClassForm{}, vErr
		}
		return classform.ClassForm{}, errors.Wrap(err, "inserting class form")
	}
	return cf, nil
}

func (repo classFormRepository) QueryClassForms(ctx context.Context, filter classform.QueryFilter, page core.Pagination) ([]classform.ClassForm, int, error) {
	var w where
	if filter.Search != "" {
		w.add("LOWER(name) LIKE ?", likeArg(filter.Search))
	}
	return queryPage[classform.ClassForm](ctx, repo.db, "id, name", "class_forms", w, " ORDER BY name, id", page)
}

func (repo classFormRepository) GetClassForm(ctx context.Context, id string) (classform.ClassForm, error) {
	var cf classform.ClassForm
	if err := get(ctx, repo.db, &cf, "SELECT id, name FROM class_forms WHERE id = ?", id); err != nil {
		return classform.ClassForm{}, trapNoRowsErr(err, classform.ErrNotFound, "finding class form")
	}
	return cf, nil
}

func (repo classFormRepository) NameExists(ctx context.Context, name string, excludedIDs ...string) (bool, error) {
	var w where
	w.add("name = ?", name)
	if len(excludedIDs) > 0 {
		w.add("id NOT IN (?)", excludedIDs)
	}
	found, err := exists(ctx, repo.db, "SELECT 1 FROM class_forms"+w.String(), w.args...)
	return found, errors.Wrap(err, "checking class name")
}

func (repo classFormRepository) IsReferenced(ctx context.Context, id string) (bool, error) {
	found, err := exists(
		ctx, repo.db,
		"SELECT 1 FROM students WHERE form_id = ? UNION ALL SELECT 1 FROM assignments WHERE class_form_id = ?",
		id, id,
	)
	return found, errors.Wrap(err, "checking class form references")
}

func (repo classFormRepository) UpdateClassForm(ctx context.Context, cf classform.ClassForm) (classform.ClassForm, error) {
	n, err := exec(ctx, repo.db, "UPDATE class_forms SET name = ? WHERE id = ?", cf.Name, cf.ID)
	if err != nil {
		if vErr := nameTaken(err, classform.ErrNameExists); vErr != nil {
			return classform.ClassForm{}, vErr
		}
		return classform.ClassForm{}, errors.Wrap(err, "updating class form")
	}
	if n == 0 {
		return classform.ClassForm{}, classform.ErrNotFound
	}
	return cf, nil
}

func (repo classFormRepository) DeleteClassForm(ctx context.Context, id string) error {
	n, err := exec(ctx, repo.db, "DELETE FROM class_forms WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "deleting class form")
	}
	if n == 0 {
		return classform.ErrNotFound
	}
	return nil
}
