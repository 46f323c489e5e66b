package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/classform"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/tests"
)

func Test_classFormApi(t *testing.T) {
	env := setup(t)
	admin := testutil.CreateUser(t, env.db, "Admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, env.db, "Teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	f1 := testutil.CreateClassForm(t, env.db, "Form 1M")
	f2 := testutil.CreateClassForm(t, env.db, "Form 2R")
	testutil.CreateStudent(t, env.db, "Jane", "Doe", f2, admin)

	adminTk, teacherTk := getToken(t, env.conf, admin), getToken(t, env.conf, teacher)
	body := func(name string) []byte { return marchallObj(t, classform.NewClassForm{Name: name}) }
	nameExists := marchallObj(t, map[string]string{"name": classform.ErrNameExists.Error()})

	env.run(t, []httpTest{
		{name: "auth required", path: "/api/v1/class-forms", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "list", path: "/api/v1/class-forms", token: teacherTk, wantData: marchallList(t, 2, f1, f2)},
		{name: "search", path: "/api/v1/class-forms?search=2r", token: teacherTk, wantData: marchallList(t, 1, f2)},
		{name: "paginated", path: "/api/v1/class-forms?skip=1&limit=1", token: teacherTk, wantData: marchallList(t, 2, f2)},
		{name: "retrieve", path: "/api/v1/class-forms/" + f1.ID, token: teacherTk, wantData: marchallObj(t, f1)},
		{
			name: "not found", path: "/api/v1/class-forms/unknown", token: teacherTk,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Class Form not found"}),
		},
		{
			name: "admin required", method: http.MethodPost, path: "/api/v1/class-forms", token: teacherTk, body: body("Form 3M"),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "name required", method: http.MethodPost, path: "/api/v1/class-forms", token: adminTk, body: body("  "),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "bad name", method: http.MethodPost, path: "/api/v1/class-forms", token: adminTk, body: body("Grade 1"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "Class name must follow the pattern: 'Form [number][M/R]', e.g., 'Form 1M'."}),
		},
		{
			name: "duplicate name", method: http.MethodPost, path: "/api/v1/class-forms", token: adminTk, body: body(" form 1m"),
			wantCode: http.StatusBadRequest, wantData: nameExists,
		},
		{
			name: "rename to taken name", method: http.MethodPut, path: "/api/v1/class-forms/" + f1.ID, token: adminTk, body: body("Form 2R"),
			wantCode: http.StatusBadRequest, wantData: nameExists,
		},
		{
			name: "keep own name", method: http.MethodPut, path: "/api/v1/class-forms/" + f1.ID, token: adminTk, body: body("form 1m"),
			wantData: marchallObj(t, f1),
		},
		{
			name: "referenced", method: http.MethodDelete, path: "/api/v1/class-forms/" + f2.ID, token: adminTk,
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: classform.ErrInUse.Error()}),
		},
		{name: "delete", method: http.MethodDelete, path: "/api/v1/class-forms/" + f1.ID, token: adminTk, wantData: deleted(t, "Class Form")},
		{name: "deleted", path: "/api/v1/class-forms/" + f1.ID, token: adminTk, wantCode: http.StatusNotFound},
	})

	rec := env.serve(http.MethodPost, "/api/v1/class-forms", adminTk, body(" form 3m "))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cf classform.ClassForm
	decode(t, rec, &cf)
	assert.NotEmpty(t, cf.ID)
	assert.Equal(t, "FORM 3M", cf.Name)
}
