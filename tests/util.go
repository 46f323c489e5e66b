// Package testutil prepares migrated test databases and fixtures.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/classform"
	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database"
	"github.com/trezcool/darasa/storage/database/sqlx"
)

// PrepareDB returns a migrated in-memory database closed at the end of the test.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(core.NewTestConfig())
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrating database: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	db core.DB,
	name, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if roles == nil {
		roles = []string{}
	}
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.NewString(),
		FullName:  name,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := sqlxrepos.NewUserRepository(db).CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func CreateClassForm(t *testing.T, db core.DB, name string) classform.ClassForm {
	t.Helper()
	cf, err := sqlxrepos.NewClassFormRepository(db).CreateClassForm(context.Background(), classform.ClassForm{
		ID:   uuid.NewString(),
		Name: core.Normalize(name),
	})
	if err != nil {
		t.Fatalf("createClassForm() failed: %v", err)
	}
	return cf
}

func CreateSubject(t *testing.T, db core.DB, name string) subject.Subject {
	t.Helper()
	sub, err := sqlxrepos.NewSubjectRepository(db).CreateSubject(context.Background(), subject.Subject{
		ID:   uuid.NewString(),
		Name: core.Normalize(name),
	})
	if err != nil {
		t.Fatalf("createSubject() failed: %v", err)
	}
	return sub
}

func CreateStudent(t *testing.T, db core.DB, firstName, lastName string, form classform.ClassForm, owner user.User) student.Student {
	t.Helper()
	st, err := sqlxrepos.NewStudentRepository(db).CreateStudent(context.Background(), student.Student{
		ID:        uuid.NewString(),
		FirstName: firstName,
		LastName:  lastName,
		FormID:    form.ID,
		OwnerID:   owner.ID,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return st
}

func CreateAssignment(t *testing.T, db core.DB, teacher user.User, sub subject.Subject, form classform.ClassForm) assignment.Assignment {
	t.Helper()
	asg, err := sqlxrepos.NewAssignmentRepository(db).CreateAssignment(context.Background(), assignment.Assignment{
		ID:          uuid.NewString(),
		TeacherID:   teacher.ID,
		SubjectID:   sub.ID,
		ClassFormID: form.ID,
	})
	if err != nil {
		t.Fatalf("createAssignment() failed: %v", err)
	}
	return asg
}

func CreateGrade(t *testing.T, db core.DB, st student.Student, sub subject.Subject, score float64, remark string) grade.Grade {
	t.Helper()
	grades, err := sqlxrepos.NewGradeRepository(db).UpsertGrades(context.Background(), grade.Grade{
		ID:        uuid.NewString(),
		StudentID: st.ID,
		SubjectID: sub.ID,
		Score:     score,
		Remark:    null.NewString(remark, remark != ""),
	})
	if err != nil {
		t.Fatalf("createGrade() failed: %v", err)
	}
	return grades[0]
}
