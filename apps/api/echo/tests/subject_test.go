package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/tests"
)

func Test_subjectApi(t *testing.T) {
	env := setup(t)
	admin := testutil.CreateUser(t, env.db, "Admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, env.db, "Teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	math := testutil.CreateSubject(t, env.db, "MATH101")
	eng := testutil.CreateSubject(t, env.db, "English")
	form := testutil.CreateClassForm(t, env.db, "Form 1M")
	st := testutil.CreateStudent(t, env.db, "Jane", "Doe", form, admin)
	testutil.CreateGrade(t, env.db, st, math, 80, "")

	adminTk, teacherTk := getToken(t, env.conf, admin), getToken(t, env.conf, teacher)
	body := func(name string) []byte { return marchallObj(t, subject.NewSubject{Name: name}) }

	env.run(t, []httpTest{
		{name: "list", path: "/api/v1/subjects", token: teacherTk, wantData: marchallList(t, 2, eng, math)},
		{name: "search", path: "/api/v1/subjects?search=math", token: teacherTk, wantData: marchallList(t, 1, math)},
		{name: "by ids", path: "/api/v1/subjects?id=" + eng.ID, token: teacherTk, wantData: marchallList(t, 1, eng)},
		{name: "retrieve", path: "/api/v1/subjects/" + math.ID, token: teacherTk, wantData: marchallObj(t, math)},
		{
			name: "not found", path: "/api/v1/subjects/unknown", token: teacherTk,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Subject not found"}),
		},
		{
			name: "admin required", method: http.MethodDelete, path: "/api/v1/subjects/" + eng.ID, token: teacherTk,
			wantCode: http.StatusForbidden,
		},
		{
			name: "bad name", method: http.MethodPost, path: "/api/v1/subjects", token: adminTk, body: body("math 101"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "Subject name must follow the pattern: 'SubjectName', e.g., 'MATH101'."}),
		},
		{
			name: "duplicate name", method: http.MethodPost, path: "/api/v1/subjects", token: adminTk, body: body("english"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": subject.ErrNameExists.Error()}),
		},
		{
			name: "graded subject", method: http.MethodDelete, path: "/api/v1/subjects/" + math.ID, token: adminTk,
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: subject.ErrInUse.Error()}),
		},
		{name: "delete", method: http.MethodDelete, path: "/api/v1/subjects/" + eng.ID, token: adminTk, wantData: deleted(t, "Subject")},
	})

	rec := env.serve(http.MethodPut, "/api/v1/subjects/"+math.ID, adminTk, body("algebra"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sub subject.Subject
	decode(t, rec, &sub)
	assert.Equal(t, subject.Subject{ID: math.ID, Name: "ALGEBRA"}, sub)

	rec = env.serve(http.MethodPost, "/api/v1/subjects", adminTk, body("physics"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decode(t, rec, &sub)
	assert.Equal(t, "PHYSICS", sub.Name)
}
