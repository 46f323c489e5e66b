package subject

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	ErrNotFound   = core.NewNotFoundError("Subject not found")
	ErrNameExists = errors.New("Subject name already exists.")
	ErrInUse      = core.NewConflictError("Subject is still referenced by grades or assignments.")
)

type Subject struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type NewSubject struct {
	Name string `json:"name" validate:"required,max=255,subjectname"`
}

func (ns *NewSubject) Validate(ctx context.Context, validate *validator.Validate, svc Service, exclude ...Subject) error {
	ns.Name = core.Normalize(ns.Name)
	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ns.Name, exclude...)
}

type QueryFilter struct {
	Search string
	IDs    []string
}

type (
	Repository interface {
		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		QuerySubjects(ctx context.Context, filter QueryFilter, page core.Pagination) ([]Subject, int, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		NameExists(ctx context.Context, name string, excludedIDs ...string) (bool, error)
		IsReferenced(ctx context.Context, id string) (bool, error)
		UpdateSubject(ctx context.Context, sub Subject) (Subject, error)
		DeleteSubject(ctx context.Context, id string) error
	}

	Service interface {
		CheckUniqueness(ctx context.Context, name string, exclude ...Subject) error
		Create(ctx context.Context, ns NewSubject) (Subject, error)
		Query(ctx context.Context, filter QueryFilter, page core.Pagination) ([]Subject, int, error)
		GetByID(ctx context.Context, id string) (Subject, error)
		Update(ctx context.Context, sub Subject, us NewSubject) (Subject, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo Repository
	}
)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(ctx context.Context, name string, exclude ...Subject) error {
	ids := make([]string, 0, len(exclude))
	for _, sub := range exclude {
		ids = append(ids, sub.ID)
	}
	exists, err := svc.repo.NameExists(ctx, core.Normalize(name), ids...)
	if err != nil {
		return errors.Wrap(err, "checking subject name uniqueness")
	}
	if exists {
		return core.NewValidationError(ErrNameExists, core.FieldError{Field: "name", Error: ErrNameExists.Error()})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, ns NewSubject) (Subject, error) {
	return svc.repo.CreateSubject(ctx, Subject{ID: uuid.NewString(), Name: core.Normalize(ns.Name)})
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, page core.Pagination) ([]Subject, int, error) {
	filter.Search = core.CleanString(filter.Search)
	page.Clean()
	return svc.repo.QuerySubjects(ctx, filter, page)
}

func (svc *service) GetByID(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *service) Update(ctx context.Context, sub Subject, us NewSubject) (Subject, error) {
	sub.Name = core.Normalize(us.Name)
	return svc.repo.UpdateSubject(ctx, sub)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	if _, err := svc.GetByID(ctx, id); err != nil {
		return err
	}
	used, err := svc.repo.IsReferenced(ctx, id)
	if err != nil {
		return errors.Wrap(err, "checking subject references")
	}
	if used {
		return ErrInUse
	}
	return svc.repo.DeleteSubject(ctx, id)
}
