package grade

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subject"
)

const (
	MinScore = 0
	MaxScore = 100
)

var ErrNotFound = core.NewNotFoundError("Grade not found")

type Grade struct {
	ID        string      `json:"id" db:"id"`
	StudentID string      `json:"student_id" db:"student_id"`
	SubjectID string      `json:"subject_id" db:"subject_id"`
	Score     float64     `json:"score" db:"score"`
	Remark    null.String `json:"remark" db:"remark"`
}

type NewGrade struct {
	StudentID string   `json:"student_id" validate:"required"`
	SubjectID string   `json:"subject_id" validate:"required"`
	Score     *float64 `json:"score" validate:"required,gte=0,lte=100"`
	Remark    string   `json:"remark" validate:"max=500"`
}

func (ng *NewGrade) Validate(ctx context.Context, validate *validator.Validate, students student.Service, subjects subject.Service) error {
	ng.StudentID = core.CleanString(ng.StudentID)
	ng.SubjectID = core.CleanString(ng.SubjectID)
	ng.Remark = core.StripTags(ng.Remark)
	if err := validate.Struct(ng); err != nil {
		return err
	}

	fldErrs := make([]core.FieldError, 0, 2)
	if _, err := students.GetByID(ctx, ng.StudentID); core.IsNotFound(err) {
		fldErrs = append(fldErrs, core.FieldError{Field: "student_id", Error: err.Error()})
	} else if err != nil {
		return errors.Wrap(err, "finding student")
	}
	if _, err := subjects.GetByID(ctx, ng.SubjectID); core.IsNotFound(err) {
		fldErrs = append(fldErrs, core.FieldError{Field: "subject_id", Error: err.Error()})
	} else if err != nil {
		return errors.Wrap(err, "finding subject")
	}
	if len(fldErrs) > 0 {
		return core.NewValidationError(nil, fldErrs...)
	}
	return nil
}

type UpdateGrade struct {
	Score  *float64 `json:"score" validate:"omitempty,gte=0,lte=100"`
	Remark *string  `json:"remark" validate:"omitempty,max=500"`
}

func (ug *UpdateGrade) Validate(validate *validator.Validate) error {
	if ug.Remark != nil {
		remark := core.StripTags(*ug.Remark)
		ug.Remark = &remark
	}
	return validate.Struct(ug)
}

type QueryFilter struct {
	StudentIDs []string
	SubjectIDs []string
}

type (
	Repository interface {
		// UpsertGrades inserts the grades or updates the score and remark already stored for each
		// (student, subject) pair, all in one transaction.
		UpsertGrades(ctx context.Context, grades ...Grade) ([]Grade, error)
		QueryGrades(ctx context.Context, filter QueryFilter, page core.Pagination) ([]Grade, int, error)
		GetGrade(ctx context.Context, id string) (Grade, error)
		UpdateGrade(ctx context.Context, g Grade) (Grade, error)
		DeleteGrade(ctx context.Context, id string) error
		// DeleteGrades removes the grades matching any student AND any subject of the lists.
		DeleteGrades(ctx context.Context, studentIDs, subjectIDs []string) (int, error)
	}

	Service interface {
		// Create stores a grade, replacing the score and remark of an existing (student, subject) grade.
		Create(ctx context.Context, ng NewGrade) (Grade, error)
		CreateMany(ctx context.Context, grades []Grade) ([]Grade, error)
		Query(ctx context.Context, filter QueryFilter, page core.Pagination) ([]Grade, int, error)
		GetByID(ctx context.Context, id string) (Grade, error)
		Update(ctx context.Context, g Grade, ug UpdateGrade) (Grade, error)
		Delete(ctx context.Context, id string) error
		DeleteFor(ctx context.Context, studentIDs, subjectIDs []string) (int, error)
	}

	service struct {
		repo Repository
	}
)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ng NewGrade) (Grade, error) {
	grades, err := svc.repo.UpsertGrades(ctx, Grade{
		ID:        uuid.NewString(),
		StudentID: ng.StudentID,
		SubjectID: ng.SubjectID,
		Score:     *ng.Score,
		Remark:    null.NewString(ng.Remark, ng.Remark != ""),
	})
	if err != nil {
		return Grade{}, err
	}
	return grades[0], nil
}

func (svc *service) CreateMany(ctx context.Context, grades []Grade) ([]Grade, error) {
	if len(grades) == 0 {
		return []Grade{}, nil
	}
	for i := range grades {
		if grades[i].ID == "" {
			grades[i].ID = uuid.NewString()
		}
	}
	return svc.repo.UpsertGrades(ctx, grades...)
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, page core.Pagination) ([]Grade, int, error) {
	page.Clean()
	return svc.repo.QueryGrades(ctx, filter, page)
}

func (svc *service) GetByID(ctx context.Context, id string) (Grade, error) {
	return svc.repo.GetGrade(ctx, id)
}

func (svc *service) Update(ctx context.Context, g Grade, ug UpdateGrade) (Grade, error) {
	if ug.Score != nil {
		g.Score = *ug.Score
	}
	if ug.Remark != nil {
		g.Remark = null.NewString(*ug.Remark, *ug.Remark != "")
	}
	return svc.repo.UpdateGrade(ctx, g)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteGrade(ctx, id)
}

func (svc *service) DeleteFor(ctx context.Context, studentIDs, subjectIDs []string) (int, error) {
	if len(studentIDs) == 0 || len(subjectIDs) == 0 {
		return 0, nil
	}
	return svc.repo.DeleteGrades(ctx, studentIDs, subjectIDs)
}
