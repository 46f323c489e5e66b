// Package classform manages the class forms (e.g. "FORM 1M") students are enrolled in.
package classform

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	ErrNotFound   = core.NewNotFoundError("Class Form not found")
	ErrNameExists = errors.New("Class name already exists.")
	ErrInUse      = core.NewConflictError("Class Form is still referenced by students or assignments.")
)

type ClassForm struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// NewClassForm is used for both creation and update; the name is the only attribute.
type NewClassForm struct {
	Name string `json:"name" validate:"required,max=255,classname"`
}

func (nc *NewClassForm) Validate(ctx context.Context, validate *validator.Validate, svc Service, exclude ...ClassForm) error {
	nc.Name = core.Normalize(nc.Name)
	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nc.Name, exclude...)
}

type QueryFilter struct {
	Search string
}

type (
	Repository interface {
		CreateClassForm(ctx context.Context, cf ClassForm) (ClassForm, error)
		QueryClassForms(ctx context.Context, filter QueryFilter, page core.Pagination) ([]ClassForm, int, error)
		GetClassForm(ctx context.Context, id string) (ClassForm, error)
		NameExists(ctx context.Context, name string, excludedIDs ...string) (bool, error)
		IsReferenced(ctx context.Context, id string) (bool, error)
		UpdateClassForm(ctx context.Context, cf ClassForm) (ClassForm, error)
		DeleteClassForm(ctx context.Context, id string) error
	}

	Service interface {
		CheckUniqueness(ctx context.Context, name string, exclude ...ClassForm) error
		Create(ctx context.Context, nc NewClassForm) (ClassForm, error)
		Query(ctx context.Context, filter QueryFilter, page core.Pagination) ([]ClassForm, int, error)
		GetByID(ctx context.Context, id string) (ClassForm, error)
		Update(ctx context.Context, cf ClassForm, uc NewClassForm) (ClassForm, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo Repository
	}
)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(ctx context.Context, name string, exclude ...ClassForm) error {
	ids := make([]string, 0, len(exclude))
	for _, cf := range exclude {
		ids = append(ids, cf.ID)
	}
	exists, err := svc.repo.NameExists(ctx, core.Normalize(name), ids...)
	if err != nil {
		return errors.Wrap(err, "checking class name uniqueness")
	}
	if exists {
		return core.NewValidationError(ErrNameExists, core.FieldError{Field: "name", Error: ErrNameExists.Error()})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nc NewClassForm) (ClassForm, error) {
	return svc.repo.CreateClassForm(ctx, ClassForm{ID: uuid.NewString(), Name: core.Normalize(nc.Name)})
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, page core.Pagination) ([]ClassForm, int, error) {
	filter.Search = core.CleanString(filter.Search)
	page.Clean()
	return svc.repo.QueryClassForms(ctx, filter, page)
}

func (svc *service) GetByID(ctx context.Context, id string) (ClassForm, error) {
	return svc.repo.GetClassForm(ctx, id)
}

func (svc *service) Update(ctx context.Context, cf ClassForm, uc NewClassForm) (ClassForm, error) {
	cf.Name = core.Normalize(uc.Name)
	return svc.repo.UpdateClassForm(ctx, cf)
}

// Delete refuses to remove a class form students or assignments still point to.
func (svc *service) Delete(ctx context.Context, id string) error {
	if _, err := svc.GetByID(ctx, id); err != nil {
		return err
	}
	used, err := svc.repo.IsReferenced(ctx, id)
	if err != nil {
		return errors.Wrap(err, "checking class form references")
	}
	if used {
		return ErrInUse
	}
	return svc.repo.DeleteClassForm(ctx, id)
}
