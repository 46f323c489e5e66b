package student

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classform"
)

var ErrNotFound = core.NewNotFoundError("Student not found")

type Student struct {
	ID                 string      `json:"id" db:"id"`
	FirstName          string      `json:"first_name" db:"first_name"`
	MiddleName         null.String `json:"middle_name" db:"middle_name"`
	LastName           string      `json:"last_name" db:"last_name"`
	Contact            null.String `json:"contact" db:"contact"`
	FormID             string      `json:"form_id" db:"form_id"`
	Fees               float64     `json:"fees" db:"fees"`
	ClassTeacherRemark null.String `json:"class_teacher_remark" db:"class_teacher_remark"`
	HeadTeacherRemark  null.String `json:"head_teacher_remark" db:"head_teacher_remark"`
	OwnerID            string      `json:"owner_id" db:"owner_id"`
}

func (st Student) FullName() string {
	if st.MiddleName.Valid {
		return st.FirstName + " " + st.MiddleName.String + " " + st.LastName
	}
	return st.FirstName + " " + st.LastName
}

type NewStudent struct {
	FirstName          string  `json:"first_name" validate:"required,min=2,max=255"`
	MiddleName         string  `json:"middle_name" validate:"omitempty,min=2,max=255"`
	LastName           string  `json:"last_name" validate:"required,min=2,max=255"`
	Contact            string  `json:"contact" validate:"omitempty,max=255,phone"`
	FormID             string  `json:"form_id" validate:"required"`
	Fees               float64 `json:"fees" validate:"gte=0"`
	ClassTeacherRemark string  `json:"class_teacher_remark" validate:"max=500"`
	HeadTeacherRemark  string  `json:"head_teacher_remark" validate:"max=500"`
}

func (ns *NewStudent) Validate(ctx context.Context, validate *validator.Validate, forms classform.Service) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.MiddleName = core.CleanString(ns.MiddleName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Contact = core.CleanString(ns.Contact)
	ns.ClassTeacherRemark = core.StripTags(ns.ClassTeacherRemark)
	ns.HeadTeacherRemark = core.StripTags(ns.HeadTeacherRemark)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return checkForm(ctx, forms, ns.FormID)
}

// UpdateStudent holds a partial update: empty values keep the stored ones.
// Remarks are replaced whenever they are sent, an empty remark clears it.
type UpdateStudent struct {
	FirstName          string   `json:"first_name" validate:"omitempty,min=2,max=255"`
	MiddleName         string   `json:"middle_name" validate:"omitempty,min=2,max=255"`
	LastName           string   `json:"last_name" validate:"omitempty,min=2,max=255"`
	Contact            string   `json:"contact" validate:"omitempty,max=255,phone"`
	FormID             string   `json:"form_id"`
	Fees               *float64 `json:"fees" validate:"omitempty,gte=0"`
	ClassTeacherRemark *string  `json:"class_teacher_remark" validate:"omitempty,max=500"`
	HeadTeacherRemark  *string  `json:"head_teacher_remark" validate:"omitempty,max=500"`
}

func (us *UpdateStudent) Validate(ctx context.Context, validate *validator.Validate, forms classform.Service) error {
	us.FirstName = core.CleanString(us.FirstName)
	us.MiddleName = core.CleanString(us.MiddleName)
	us.LastName = core.CleanString(us.LastName)
	us.Contact = core.CleanString(us.Contact)
	us.FormID = core.CleanString(us.FormID)
	for _, remark := range []*string{us.ClassTeacherRemark, us.HeadTeacherRemark} {
		if remark != nil {
			*remark = core.StripTags(*remark)
		}
	}

	if err := validate.Struct(us); err != nil {
		return err
	}
	if us.FormID != "" {
		return checkForm(ctx, forms, us.FormID)
	}
	return nil
}

func checkForm(ctx context.Context, forms classform.Service, id string) error {
	if _, err := forms.GetByID(ctx, id); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "form_id", Error: err.Error()})
		}
		return errors.Wrap(err, "finding class form")
	}
	return nil
}

type QueryFilter struct {
	Search  string   // first, middle or last name
	FormIDs []string // any of
}

type (
	Repository interface {
		CreateStudent(ctx context.Context, st Student) (Student, error)
		// QueryStudents returns students ordered by last name then first name.
		QueryStudents(ctx context.Context, filter QueryFilter, page core.Pagination) ([]Student, int, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		UpdateStudent(ctx context.Context, st Student) (Student, error)
		// DeleteStudent deletes the student and their grades.
		DeleteStudent(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, ns NewStudent, ownerID string) (Student, error)
		Query(ctx context.Context, filter QueryFilter, page core.Pagination) ([]Student, int, error)
		GetByID(ctx context.Context, id string) (Student, error)
		Update(ctx context.Context, st Student, us UpdateStudent) (Student, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo Repository
	}
)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ns NewStudent, ownerID string) (Student, error) {
	return svc.repo.CreateStudent(ctx, Student{
		ID:                 uuid.NewString(),
		FirstName:          ns.FirstName,
		MiddleName:         null.NewString(ns.MiddleName, ns.MiddleName != ""),
		LastName:           ns.LastName,
		Contact:            null.NewString(ns.Contact, ns.Contact != ""),
		FormID:             ns.FormID,
		Fees:               ns.Fees,
		ClassTeacherRemark: null.NewString(ns.ClassTeacherRemark, ns.ClassTeacherRemark != ""),
		HeadTeacherRemark:  null.NewString(ns.HeadTeacherRemark, ns.HeadTeacherRemark != ""),
		OwnerID:            ownerID,
	})
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, page core.Pagination) ([]Student, int, error) {
	filter.Search = core.CleanString(filter.Search)
	page.Clean()
	return svc.repo.QueryStudents(ctx, filter, page)
}

func (svc *service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *service) Update(ctx context.Context, st Student, us UpdateStudent) (Student, error) {
	if us.FirstName != "" {
		st.FirstName = us.FirstName
	}
	if us.MiddleName != "" {
		st.MiddleName = null.StringFrom(us.MiddleName)
	}
	if us.LastName != "" {
		st.LastName = us.LastName
	}
	if us.Contact != "" {
		st.Contact = null.StringFrom(us.Contact)
	}
	if us.FormID != "" {
		st.FormID = us.FormID
	}
	if us.Fees != nil {
		st.Fees = *us.Fees
	}
	if us.ClassTeacherRemark != nil {
		st.ClassTeacherRemark = null.NewString(*us.ClassTeacherRemark, *us.ClassTeacherRemark != "")
	}
	if us.HeadTeacherRemark != nil {
		st.HeadTeacherRemark = null.NewString(*us.HeadTeacherRemark, *us.HeadTeacherRemark != "")
	}
	return svc.repo.UpdateStudent(ctx, st)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, id)
}
