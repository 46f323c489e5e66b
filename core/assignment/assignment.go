// Package assignment links a teacher to the subject they teach in a class form.
package assignment

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classform"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/user"
)

var (
	ErrNotFound       = core.NewNotFoundError("Assignment not found")
	ErrExists         = core.NewConflictError("This assignment already exists.")
	ErrSlotTaken      = core.NewConflictError("Another teacher is already assigned to this class and subject.")
	errNotATeacher    = "User is not a teacher."
	errUnknownTeacher = "Teacher not found"
)

type Assignment struct {
	ID          string `json:"id" db:"id"`
	TeacherID   string `json:"teacher_id" db:"teacher_id"`
	SubjectID   string `json:"subject_id" db:"subject_id"`
	ClassFormID string `json:"class_form_id" db:"class_form_id"`
}

type NewAssignment struct {
	TeacherID   string `json:"teacher_id" validate:"required"`
	SubjectID   string `json:"subject_id" validate:"required"`
	ClassFormID string `json:"class_form_id" validate:"required"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.TeacherID = core.CleanString(na.TeacherID)
	na.SubjectID = core.CleanString(na.SubjectID)
	na.ClassFormID = core.CleanString(na.ClassFormID)
	return validate.Struct(na)
}

// UpdateAssignment holds a partial update: empty ids keep the stored ones.
type UpdateAssignment struct {
	TeacherID   string `json:"teacher_id"`
	SubjectID   string `json:"subject_id"`
	ClassFormID string `json:"class_form_id"`
}

type QueryFilter struct {
	TeacherID   string
	SubjectID   string
	ClassFormID string
}

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		QueryAssignments(ctx context.Context, filter QueryFilter, page core.Pagination) ([]Assignment, int, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		// FindBySlot returns the assignment of the (class form, subject) pair; ErrNotFound when free.
		FindBySlot(ctx context.Context, classFormID, subjectID string) (Assignment, error)
		UpdateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		DeleteAssignment(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, na NewAssignment) (Assignment, error)
		Query(ctx context.Context, filter QueryFilter, page core.Pagination) ([]Assignment, int, error)
		// Mine returns every assignment of the teacher.
		Mine(ctx context.Context, teacherID string) ([]Assignment, error)
		GetByID(ctx context.Context, id string) (Assignment, error)
		Update(ctx context.Context, asg Assignment, ua UpdateAssignment) (Assignment, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo     Repository
		users    user.Service
		subjects subject.Service
		forms    classform.Service
	}
)

func NewService(repo Repository, users user.Service, subjects subject.Service, forms classform.Service) Service {
	return &service{repo: repo, users: users, subjects: subjects, forms: forms}
}

// checkReferences makes sure the teacher, subject and class form of asg exist.
func (svc *service) checkReferences(ctx context.Context, asg Assignment) error {
	fldErrs := make([]core.FieldError, 0, 3)

	teacher, err := svc.users.GetByID(ctx, asg.TeacherID)
	switch {
	case core.IsNotFound(err):
		fldErrs = append(fldErrs, core.FieldError{Field: "teacher_id", Error: errUnknownTeacher})
	case err != nil:
		return errors.Wrap(err, "finding teacher")
	case !teacher.IsTeacher():
		fldErrs = append(fldErrs, core.FieldError{Field: "teacher_id", Error: errNotATeacher})
	}

	if _, err = svc.subjects.GetByID(ctx, asg.SubjectID); core.IsNotFound(err) {
		fldErrs = append(fldErrs, core.FieldError{Field: "subject_id", Error: err.Error()})
	} else if err != nil {
		return errors.Wrap(err, "finding subject")
	}

	if _, err = svc.forms.GetByID(ctx, asg.ClassFormID); core.IsNotFound(err) {
		fldErrs = append(fldErrs, core.FieldError{Field: "class_form_id", Error: err.Error()})
	} else if err != nil {
		return errors.Wrap(err, "finding class form")
	}

	if len(fldErrs) > 0 {
		return core.NewValidationError(nil, fldErrs...)
	}
	return nil
}

// checkSlot rejects an exact duplicate, then a second teacher on the same class and subject.
func (svc *service) checkSlot(ctx context.Context, asg Assignment) error {
	taken, err := svc.repo.FindBySlot(ctx, asg.ClassFormID, asg.SubjectID)
	if err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return errors.Wrap(err, "finding assignment slot")
	}
	if taken.ID == asg.ID {
		return nil
	}
	if taken.TeacherID == asg.TeacherID {
		return ErrExists
	}
	return ErrSlotTaken
}

func (svc *service) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	asg := Assignment{
		ID:          uuid.NewString(),
		TeacherID:   na.TeacherID,
		SubjectID:   na.SubjectID,
		ClassFormID: na.ClassFormID,
	}
	if err := svc.checkReferences(ctx, asg); err != nil {
		return Assignment{}, err
	}
	if err := svc.checkSlot(ctx, asg); err != nil {
		return Assignment{}, err
	}
	return svc.repo.CreateAssignment(ctx, asg)
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, page core.Pagination) ([]Assignment, int, error) {
	page.Clean()
	return svc.repo.QueryAssignments(ctx, filter, page)
}

func (svc *service) Mine(ctx context.Context, teacherID string) ([]Assignment, error) {
	asgs, _, err := svc.repo.QueryAssignments(ctx, QueryFilter{TeacherID: teacherID}, core.Pagination{Limit: core.MaxLimit})
	return asgs, err
}

func (svc *service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, id)
}

func (svc *service) Update(ctx context.Context, asg Assignment, ua UpdateAssignment) (Assignment, error) {
	if id := core.CleanString(ua.TeacherID); id != "" {
		asg.TeacherID = id
	}
	if id := core.CleanString(ua.SubjectID); id != "" {
		asg.SubjectID = id
	}
	if id := core.CleanString(ua.ClassFormID); id != "" {
		asg.ClassFormID = id
	}
	if err := svc.checkReferences(ctx, asg); err != nil {
		return Assignment{}, err
	}
	if err := svc.checkSlot(ctx, asg); err != nil {
		return Assignment{}, err
	}
	return svc.repo.UpdateAssignment(ctx, asg)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteAssignment(ctx, id)
}
