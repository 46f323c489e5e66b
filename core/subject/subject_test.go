package subject_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database/sqlx"
	"github.com/trezcool/darasa/tests"
)

func TestNewSubject_Validate(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	svc := subject.NewService(sqlxrepos.NewSubjectRepository(db))
	validate, translator := core.NewValidator()
	existing := testutil.CreateSubject(t, db, "MATH101")

	tests := []struct {
		name    string
		in      string
		exclude []subject.Subject
		wantErr string
	}{
		{name: "normalized", in: " bio "},
		{name: "bad pattern", in: "1MATH", wantErr: "Subject name must follow the pattern: 'SubjectName', e.g., 'MATH101'."},
		{name: "spaces", in: "MATH 101", wantErr: "Subject name must follow the pattern: 'SubjectName', e.g., 'MATH101'."},
		{name: "taken", in: "math101", wantErr: "Subject name already exists."},
		{name: "taken by itself", in: "math101", exclude: []subject.Subject{existing}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := subject.NewSubject{Name: tt.in}
			err := ns.Validate(ctx, validate, svc, tt.exclude...)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, core.Normalize(tt.in), ns.Name)
				return
			}
			switch e := err.(type) {
			case validator.ValidationErrors:
				assert.Equal(t, map[string]string{"name": tt.wantErr}, core.TranslateErrors(e, translator))
			case *core.ValidationError:
				assert.Equal(t, tt.wantErr, e.Fields[0].Error)
			default:
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	svc := subject.NewService(sqlxrepos.NewSubjectRepository(db))
	teacher := testutil.CreateUser(t, db, "Teacher", "teacher@test.cd", "pwd", []string{user.RoleTeacher}, true)
	form := testutil.CreateClassForm(t, db, "FORM 1M")

	taught, err := svc.Create(ctx, subject.NewSubject{Name: "chem"})
	require.NoError(t, err)
	testutil.CreateAssignment(t, db, teacher, taught, form)
	assert.Equal(t, subject.ErrInUse, svc.Delete(ctx, taught.ID))

	free, err := svc.Create(ctx, subject.NewSubject{Name: "ART"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, free.ID))
	assert.Equal(t, subject.ErrNotFound, svc.Delete(ctx, free.ID))

	subjects, count, err := svc.Query(ctx, subject.QueryFilter{}, core.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "CHEM", subjects[0].Name)
}
