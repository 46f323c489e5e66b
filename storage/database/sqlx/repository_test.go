package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/classform"
	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database/sqlx"
	"github.com/trezcool/darasa/tests"
)

var page = core.Pagination{Limit: core.DefaultLimit}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	repo := sqlxrepos.NewUserRepository(db)

	past := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)
	admin := testutil.CreateUser(t, db, "Admin", "admin@test.cd", "pwd", []string{user.RoleAdmin}, true, past)
	teacher := testutil.CreateUser(t, db, "Jane Teacher", "jane@test.cd", "pwd", []string{user.RoleClassTeacher}, true)
	_ = testutil.CreateUser(t, db, "Idle Accountant", "idle@test.cd", "pwd", []string{user.RoleAccountant}, false)

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetUser(ctx, user.GetFilter{ID: teacher.ID})
		require.NoError(t, err)
		assert.Equal(t, teacher.Email, got.Email)
		assert.Equal(t, user.RoleList{user.RoleClassTeacher}, got.Roles)
		assert.True(t, got.IsActive)
		assert.Nil(t, got.LastLogin)
		assert.NoError(t, got.CheckPassword("pwd"))

		got, err = repo.GetUser(ctx, user.GetFilter{Email: "admin@test.cd"})
		require.NoError(t, err)
		assert.Equal(t, admin.ID, got.ID)
		assert.True(t, past.Equal(got.CreatedAt))

		_, err = repo.GetUser(ctx, user.GetFilter{ID: "not-a-uuid"})
		assert.Equal(t, user.ErrNotFound, err)
		_, err = repo.GetUser(ctx, user.GetFilter{ID: uuid.NewString()})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("email exists", func(t *testing.T) {
		found, err := repo.EmailExists(ctx, "jane@test.cd")
		require.NoError(t, err)
		assert.True(t, found)

		found, err = repo.EmailExists(ctx, "jane@test.cd", teacher.ID)
		require.NoError(t, err)
		assert.False(t, found)

		found, err = repo.EmailExists(ctx, "nobody@test.cd")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := teacher
		dup.ID = uuid.NewString()
		_, err := repo.CreateUser(ctx, dup)
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "email", vErr.Fields[0].Field)
	})

	active := true
	inactive := false
	tests := []struct {
		name   string
		filter user.QueryFilter
		want   []string
	}{
		{name: "all", filter: user.QueryFilter{}, want: []string{"idle@test.cd", "jane@test.cd", "admin@test.cd"}},
		{name: "search", filter: user.QueryFilter{Search: "JANE"}, want: []string{"jane@test.cd"}},
		{name: "role prefix", filter: user.QueryFilter{Roles: []string{user.RoleTeacher}}, want: []string{"jane@test.cd"}},
		{name: "any role", filter: user.QueryFilter{Roles: []string{user.RoleAdmin, user.RoleAccountant}}, want: []string{"idle@test.cd", "admin@test.cd"}},
		{name: "active", filter: user.QueryFilter{IsActive: &active}, want: []string{"jane@test.cd", "admin@test.cd"}},
		{name: "inactive", filter: user.QueryFilter{IsActive: &inactive}, want: []string{"idle@test.cd"}},
		{name: "created to", filter: user.QueryFilter{CreatedTo: past.Add(time.Hour)}, want: []string{"admin@test.cd"}},
		{name: "created from", filter: user.QueryFilter{CreatedFrom: past.Add(time.Hour), IsActive: &active}, want: []string{"jane@test.cd"}},
	}
	for _, tt := range tests {
		t.Run("query: "+tt.name, func(t *testing.T) {
			users, count, err := repo.QueryUsers(ctx, tt.filter, nil, page)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), count)
			emails := make([]string, 0, len(users))
			for _, usr := range users {
				emails = append(emails, usr.Email)
			}
			// idle and jane are created within the same instant; only check membership
			assert.ElementsMatch(t, tt.want, emails)
		})
	}

	t.Run("query: ordering and page", func(t *testing.T) {
		orderings := []core.DBOrdering{{Field: "email", Ascending: true}, {Field: "password_hash"}}
		users, count, err := repo.QueryUsers(ctx, user.QueryFilter{}, orderings, core.Pagination{Skip: 1, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, 3, count)
		require.Len(t, users, 1)
		assert.Equal(t, "idle@test.cd", users[0].Email)
	})

	t.Run("update", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		usr := teacher
		usr.FullName = "Jane Doe"
		usr.Roles = user.RoleList{user.RoleTeacher, user.RoleAccountant}
		usr.LastLogin = &now
		_, err := repo.UpdateUser(ctx, usr)
		require.NoError(t, err)

		got, err := repo.GetUser(ctx, user.GetFilter{ID: teacher.ID})
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", got.FullName)
		assert.Equal(t, usr.Roles, got.Roles)
		require.NotNil(t, got.LastLogin)
		assert.True(t, now.Equal(*got.LastLogin))

		usr.Email = admin.Email
		_, err = repo.UpdateUser(ctx, usr)
		assert.True(t, isValidationErr(err))

		usr.ID = uuid.NewString()
		usr.Email = "ghost@test.cd"
		_, err = repo.UpdateUser(ctx, usr)
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteUsers(ctx, admin.ID))
		_, err := repo.GetUser(ctx, user.GetFilter{ID: admin.ID})
		assert.Equal(t, user.ErrNotFound, err)
		assert.NoError(t, repo.DeleteUsers(ctx))
	})
}

func isValidationErr(err error) bool {
	_, ok := err.(*core.ValidationError)
	return ok
}

func TestClassFormRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	repo := sqlxrepos.NewClassFormRepository(db)
	owner := testutil.CreateUser(t, db, "Owner", "owner@test.cd", "pwd", []string{user.RoleAdmin}, true)

	f2 := testutil.CreateClassForm(t, db, "Form 2M")
	f1 := testutil.CreateClassForm(t, db, "form 1r")

	forms, count, err := repo.QueryClassForms(ctx, classform.QueryFilter{}, page)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []classform.ClassForm{f1, f2}, forms)

	forms, count, err = repo.QueryClassForms(ctx, classform.QueryFilter{Search: "2m"}, page)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, f2.ID, forms[0].ID)

	found, err := repo.NameExists(ctx, "FORM 1R")
	require.NoError(t, err)
	assert.True(t, found)
	found, err = repo.NameExists(ctx, "FORM 1R", f1.ID)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = repo.CreateClassForm(ctx, classform.ClassForm{ID: uuid.NewString(), Name: f1.Name})
	assert.True(t, isValidationErr(err))

	used, err := repo.IsReferenced(ctx, f1.ID)
	require.NoError(t, err)
	assert.False(t, used)
	testutil.CreateStudent(t, db, "John", "Doe", f1, owner)
	used, err = repo.IsReferenced(ctx, f1.ID)
	require.NoError(t, err)
	assert.True(t, used)

	f2.Name = "FORM 3M"
	_, err = repo.UpdateClassForm(ctx, f2)
	require.NoError(t, err)
	got, err := repo.GetClassForm(ctx, f2.ID)
	require.NoError(t, err)
	assert.Equal(t, "FORM 3M", got.Name)

	require.NoError(t, repo.DeleteClassForm(ctx, f2.ID))
	_, err = repo.GetClassForm(ctx, f2.ID)
	assert.Equal(t, classform.ErrNotFound, err)
	assert.Equal(t, classform.ErrNotFound, repo.DeleteClassForm(ctx, f2.ID))
}

func TestSubjectRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	repo := sqlxrepos.NewSubjectRepository(db)

	math := testutil.CreateSubject(t, db, "MATH101")
	bio := testutil.CreateSubject(t, db, "BIO")

	subjects, count, err := repo.QuerySubjects(ctx, subject.QueryFilter{}, page)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []subject.Subject{bio, math}, subjects)

	subjects, _, err = repo.QuerySubjects(ctx, subject.QueryFilter{IDs: []string{math.ID}}, page)
	require.NoError(t, err)
	assert.Equal(t, []subject.Subject{math}, subjects)

	_, err = repo.CreateSubject(ctx, subject.Subject{ID: uuid.NewString(), Name: "BIO"})
	assert.True(t, isValidationErr(err))

	owner := testutil.CreateUser(t, db, "Owner", "owner@test.cd", "pwd", []string{user.RoleAdmin}, true)
	form := testutil.CreateClassForm(t, db, "FORM 1M")
	st := testutil.CreateStudent(t, db, "John", "Doe", form, owner)
	testutil.CreateGrade(t, db, st, bio, 50, "")

	used, err := repo.IsReferenced(ctx, bio.ID)
	require.NoError(t, err)
	assert.True(t, used)
	used, err = repo.IsReferenced(ctx, math.ID)
	require.NoError(t, err)
	assert.False(t, used)

	require.NoError(t, repo.DeleteSubject(ctx, math.ID))
	_, err = repo.GetSubject(ctx, math.ID)
	assert.Equal(t, subject.ErrNotFound, err)
}

func TestStudentRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	repo := sqlxrepos.NewStudentRepository(db)
	owner := testutil.CreateUser(t, db, "Owner", "owner@test.cd", "pwd", []string{user.RoleAdmin}, true)
	f1 := testutil.CreateClassForm(t, db, "FORM 1M")
	f2 := testutil.CreateClassForm(t, db, "FORM 2M")

	zoe := testutil.CreateStudent(t, db, "Zoe", "adams", f1, owner)
	amy := testutil.CreateStudent(t, db, "Amy", "Banda", f2, owner)
	bob := testutil.CreateStudent(t, db, "Bob", "Adams", f1, owner)

	students, count, err := repo.QueryStudents(ctx, student.QueryFilter{}, page)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, []string{bob.ID, zoe.ID, amy.ID}, []string{students[0].ID, students[1].ID, students[2].ID})

	students, count, err = repo.QueryStudents(ctx, student.QueryFilter{FormIDs: []string{f2.ID}}, page)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, amy.ID, students[0].ID)

	_, count, err = repo.QueryStudents(ctx, student.QueryFilter{Search: "ADA"}, page)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	amy.MiddleName = null.StringFrom("Grace")
	amy.Fees = 1500.5
	amy.HeadTeacherRemark = null.StringFrom("Very good")
	_, err = repo.UpdateStudent(ctx, amy)
	require.NoError(t, err)
	got, err := repo.GetStudent(ctx, amy.ID)
	require.NoError(t, err)
	assert.Equal(t, amy, got)

	sub := testutil.CreateSubject(t, db, "MATH")
	testutil.CreateGrade(t, db, amy, sub, 75, "")
	require.NoError(t, repo.DeleteStudent(ctx, amy.ID))
	_, err = repo.GetStudent(ctx, amy.ID)
	assert.Equal(t, student.ErrNotFound, err)
	_, count, err = sqlxrepos.NewGradeRepository(db).QueryGrades(ctx, grade.QueryFilter{StudentIDs: []string{amy.ID}}, page)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, student.ErrNotFound, repo.DeleteStudent(ctx, amy.ID))
}

func TestAssignmentRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	repo := sqlxrepos.NewAssignmentRepository(db)
	teacher := testutil.CreateUser(t, db, "Teacher", "teacher@test.cd", "pwd", []string{user.RoleTeacher}, true)
	other := testutil.CreateUser(t, db, "Other", "other@test.cd", "pwd", []string{user.RoleTeacher}, true)
	form := testutil.CreateClassForm(t, db, "FORM 1M")
	sub := testutil.CreateSubject(t, db, "MATH")

	asg := testutil.CreateAssignment(t, db, teacher, sub, form)

	got, err := repo.FindBySlot(ctx, form.ID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, asg, got)
	_, err = repo.FindBySlot(ctx, form.ID, uuid.NewString())
	assert.Equal(t, assignment.ErrNotFound, err)

	_, err = repo.CreateAssignment(ctx, assignment.Assignment{ID: uuid.NewString(), TeacherID: other.ID, SubjectID: sub.ID, ClassFormID: form.ID})
	assert.Equal(t, assignment.ErrSlotTaken, err)

	asgs, count, err := repo.QueryAssignments(ctx, assignment.QueryFilter{TeacherID: other.ID}, page)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, asgs)

	asg.TeacherID = other.ID
	_, err = repo.UpdateAssignment(ctx, asg)
	require.NoError(t, err)
	asgs, count, err = repo.QueryAssignments(ctx, assignment.QueryFilter{TeacherID: other.ID, ClassFormID: form.ID}, page)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, asg, asgs[0])

	require.NoError(t, repo.DeleteAssignment(ctx, asg.ID))
	assert.Equal(t, assignment.ErrNotFound, repo.DeleteAssignment(ctx, asg.ID))
}

func TestGradeRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	repo := sqlxrepos.NewGradeRepository(db)
	owner := testutil.CreateUser(t, db, "Owner", "owner@test.cd", "pwd", []string{user.RoleAdmin}, true)
	form := testutil.CreateClassForm(t, db, "FORM 1M")
	john := testutil.CreateStudent(t, db, "John", "Doe", form, owner)
	jane := testutil.CreateStudent(t, db, "Jane", "Doe", form, owner)
	math := testutil.CreateSubject(t, db, "MATH")
	bio := testutil.CreateSubject(t, db, "BIO")

	first := testutil.CreateGrade(t, db, john, math, 40, "weak")

	t.Run("upsert keeps the stored ID", func(t *testing.T) {
		grades, err := repo.UpsertGrades(ctx,
			grade.Grade{ID: uuid.NewString(), StudentID: john.ID, SubjectID: math.ID, Score: 80},
			grade.Grade{ID: uuid.NewString(), StudentID: jane.ID, SubjectID: bio.ID, Score: 65.5, Remark: null.StringFrom("ok")},
		)
		require.NoError(t, err)
		require.Len(t, grades, 2)
		assert.Equal(t, first.ID, grades[0].ID)
		assert.Equal(t, 80.0, grades[0].Score)
		assert.False(t, grades[0].Remark.Valid)
		assert.Equal(t, 65.5, grades[1].Score)
	})

	t.Run("upsert is atomic", func(t *testing.T) {
		_, err := repo.UpsertGrades(ctx,
			grade.Grade{ID: uuid.NewString(), StudentID: jane.ID, SubjectID: math.ID, Score: 10},
			grade.Grade{ID: uuid.NewString(), StudentID: uuid.NewString(), SubjectID: math.ID, Score: 10},
		)
		require.Error(t, err)
		_, count, err := repo.QueryGrades(ctx, grade.QueryFilter{StudentIDs: []string{jane.ID}, SubjectIDs: []string{math.ID}}, page)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("update", func(t *testing.T) {
		g, err := repo.GetGrade(ctx, first.ID)
		require.NoError(t, err)
		g.Score = 99
		g.Remark = null.StringFrom("great")
		_, err = repo.UpdateGrade(ctx, g)
		require.NoError(t, err)
		got, err := repo.GetGrade(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, g, got)
	})

	t.Run("delete many", func(t *testing.T) {
		n, err := repo.DeleteGrades(ctx, []string{john.ID, jane.ID}, []string{math.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		grades, count, err := repo.QueryGrades(ctx, grade.QueryFilter{}, page)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, bio.ID, grades[0].SubjectID)

		n, err = repo.DeleteGrades(ctx, nil, []string{bio.ID})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("delete", func(t *testing.T) {
		grades, _, err := repo.QueryGrades(ctx, grade.QueryFilter{SubjectIDs: []string{bio.ID}}, page)
		require.NoError(t, err)
		require.NoError(t, repo.DeleteGrade(ctx, grades[0].ID))
		assert.Equal(t, grade.ErrNotFound, repo.DeleteGrade(ctx, grades[0].ID))
	})
}
