package student_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classform"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database/sqlx"
	"github.com/trezcool/darasa/tests"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	_, translator := core.NewValidator()
	switch e := err.(type) {
	case nil:
		return nil
	case validator.ValidationErrors:
		return core.TranslateErrors(e, translator)
	case *core.ValidationError:
		fields := make(map[string]string, len(e.Fields))
		for _, f := range e.Fields {
			fields[f.Field] = f.Error
		}
		return fields
	default:
		t.Fatalf("unexpected error %v", err)
		return nil
	}
}

func TestNewStudent_Validate(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	forms := classform.NewService(sqlxrepos.NewClassFormRepository(db))
	validate, _ := core.NewValidator()
	form := testutil.CreateClassForm(t, db, "FORM 1M")

	valid := func() student.NewStudent {
		return student.NewStudent{FirstName: " John ", LastName: "Doe", FormID: form.ID, Contact: "0991234567"}
	}

	tests := []struct {
		name   string
		modify func(ns *student.NewStudent)
		want   map[string]string
	}{
		{name: "valid", modify: func(ns *student.NewStudent) {}},
		{name: "international contact", modify: func(ns *student.NewStudent) { ns.Contact = "+265991234567" }},
		{name: "short last name", modify: func(ns *student.NewStudent) { ns.LastName = "D" }, want: map[string]string{
			"last_name": "last_name must be at least 2 characters in length",
		}},
		{name: "bad contact", modify: func(ns *student.NewStudent) { ns.Contact = "12-34" }, want: map[string]string{
			"contact": "Contact number must be at least 10 digits long and start with 0 or +265.",
		}},
		{name: "negative fees", modify: func(ns *student.NewStudent) { ns.Fees = -1 }, want: map[string]string{
			"fees": "fees must be 0 or greater",
		}},
		{name: "unknown form", modify: func(ns *student.NewStudent) { ns.FormID = uuid.NewString() }, want: map[string]string{
			"form_id": "Class Form not found",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := valid()
			tt.modify(&ns)
			err := ns.Validate(ctx, validate, forms)
			assert.Equal(t, tt.want, fieldErrors(t, err))
		})
	}

	t.Run("remarks are stripped", func(t *testing.T) {
		ns := valid()
		ns.ClassTeacherRemark = "<b>Good</b> <script>alert(1)</script>work"
		require.NoError(t, ns.Validate(ctx, validate, forms))
		assert.Equal(t, "John", ns.FirstName)
		assert.Equal(t, "Good work", ns.ClassTeacherRemark)
	})

	t.Run("escaped markup is stripped too", func(t *testing.T) {
		ns := valid()
		ns.ClassTeacherRemark = "&lt;script&gt;alert(1)&lt;/script&gt;Fine"
		ns.HeadTeacherRemark = "&amp;lt;b&amp;gt;Tom &amp; Jerry&amp;lt;/b&amp;gt;"
		require.NoError(t, ns.Validate(ctx, validate, forms))
		assert.Equal(t, "Fine", ns.ClassTeacherRemark)
		assert.Equal(t, "Tom & Jerry", ns.HeadTeacherRemark)
	})
}

func TestService(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	svc := student.NewService(sqlxrepos.NewStudentRepository(db))
	owner := testutil.CreateUser(t, db, "Owner", "owner@test.cd", "pwd", []string{user.RoleAdmin}, true)
	f1 := testutil.CreateClassForm(t, db, "FORM 1M")
	f2 := testutil.CreateClassForm(t, db, "FORM 2M")

	st, err := svc.Create(ctx, student.NewStudent{
		FirstName:          "John",
		MiddleName:         "Paul",
		LastName:           "Doe",
		FormID:             f1.ID,
		Fees:               100,
		ClassTeacherRemark: "Polite",
	}, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, st.OwnerID)
	assert.Equal(t, "John Paul Doe", st.FullName())
	assert.False(t, st.Contact.Valid)

	fees := 0.0
	none := ""
	st, err = svc.Update(ctx, st, student.UpdateStudent{
		LastName:           "Banda",
		FormID:             f2.ID,
		Fees:               &fees,
		ClassTeacherRemark: &none,
	})
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "John", got.FirstName)
	assert.Equal(t, null.StringFrom("Paul"), got.MiddleName)
	assert.Equal(t, "Banda", got.LastName)
	assert.Equal(t, f2.ID, got.FormID)
	assert.Zero(t, got.Fees)
	assert.False(t, got.ClassTeacherRemark.Valid)

	students, count, err := svc.Query(ctx, student.QueryFilter{FormIDs: []string{f1.ID}}, core.Pagination{})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, students)

	require.NoError(t, svc.Delete(ctx, st.ID))
	assert.Equal(t, student.ErrNotFound, svc.Delete(ctx, st.ID))
}

func TestUpdateStudent_Validate(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	forms := classform.NewService(sqlxrepos.NewClassFormRepository(db))
	validate, _ := core.NewValidator()

	remark := " <i>quiet</i> "
	us := student.UpdateStudent{HeadTeacherRemark: &remark}
	require.NoError(t, us.Validate(ctx, validate, forms))
	assert.Equal(t, "quiet", *us.HeadTeacherRemark)

	us = student.UpdateStudent{FormID: uuid.NewString()}
	assert.Equal(t, map[string]string{"form_id": "Class Form not found"}, fieldErrors(t, us.Validate(ctx, validate, forms)))
}
