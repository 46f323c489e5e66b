package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/tests"
)

func Test_assignmentApi(t *testing.T) {
	env := setup(t)
	admin := testutil.CreateUser(t, env.db, "Admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	t1 := testutil.CreateUser(t, env.db, "Teacher One", "t1@test.cd", "", []string{user.RoleTeacher}, true)
	t2 := testutil.CreateUser(t, env.db, "Teacher Two", "t2@test.cd", "", []string{user.RoleClassTeacher}, true)
	acct := testutil.CreateUser(t, env.db, "Accountant", "acct@test.cd", "", []string{user.RoleAccountant}, true)
	math := testutil.CreateSubject(t, env.db, "MATH")
	eng := testutil.CreateSubject(t, env.db, "ENGLISH")
	form := testutil.CreateClassForm(t, env.db, "Form 1M")
	asg := testutil.CreateAssignment(t, env.db, t1, math, form)

	adminTk, t1Tk := getToken(t, env.conf, admin), getToken(t, env.conf, t1)
	body := func(teacherID, subjectID, formID string) []byte {
		return marchallObj(t, assignment.NewAssignment{TeacherID: teacherID, SubjectID: subjectID, ClassFormID: formID})
	}

	env.run(t, []httpTest{
		{name: "list", path: "/api/v1/assignments", token: t1Tk, wantData: marchallList(t, 1, asg)},
		{name: "by teacher", path: "/api/v1/assignments?teacher_id=" + t2.ID, token: t1Tk, wantData: marchallList[assignment.Assignment](t, 0)},
		{name: "by class", path: "/api/v1/assignments?class_form_id=" + form.ID, token: t1Tk, wantData: marchallList(t, 1, asg)},
		{name: "mine", path: "/api/v1/assignments/mine", token: t1Tk, wantData: marchallList(t, 1, asg)},
		{name: "mine (teachers only)", path: "/api/v1/assignments/mine", token: adminTk, wantCode: http.StatusForbidden},
		{name: "retrieve", path: "/api/v1/assignments/" + asg.ID, token: t1Tk, wantData: marchallObj(t, asg)},
		{
			name: "not found", path: "/api/v1/assignments/unknown", token: t1Tk,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Assignment not found"}),
		},
		{
			name: "admin required", method: http.MethodPost, path: "/api/v1/assignments", token: t1Tk, body: body(t1.ID, eng.ID, form.ID),
			wantCode: http.StatusForbidden,
		},
		{
			name: "missing fields", method: http.MethodPost, path: "/api/v1/assignments", token: adminTk, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"teacher_id":    "this field is required",
				"subject_id":    "this field is required",
				"class_form_id": "this field is required",
			}),
		},
		{
			name: "unknown references", method: http.MethodPost, path: "/api/v1/assignments", token: adminTk, body: body("x", "y", "z"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"teacher_id":    "Teacher not found",
				"subject_id":    "Subject not found",
				"class_form_id": "Class Form not found",
			}),
		},
		{
			name: "not a teacher", method: http.MethodPost, path: "/api/v1/assignments", token: adminTk, body: body(acct.ID, eng.ID, form.ID),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"teacher_id": "User is not a teacher."}),
		},
		{
			name: "duplicate", method: http.MethodPost, path: "/api/v1/assignments", token: adminTk, body: body(t1.ID, math.ID, form.ID),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: assignment.ErrExists.Error()}),
		},
		{
			name: "slot taken", method: http.MethodPost, path: "/api/v1/assignments", token: adminTk, body: body(t2.ID, math.ID, form.ID),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: assignment.ErrSlotTaken.Error()}),
		},
	})

	rec := env.serve(http.MethodPost, "/api/v1/assignments", adminTk, body(t2.ID, eng.ID, form.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created assignment.Assignment
	decode(t, rec, &created)
	assert.Equal(t, assignment.Assignment{ID: created.ID, TeacherID: t2.ID, SubjectID: eng.ID, ClassFormID: form.ID}, created)

	env.run(t, []httpTest{
		{
			name: "move onto a taken slot", method: http.MethodPut, path: "/api/v1/assignments/" + created.ID, token: adminTk,
			body: marchallObj(t, assignment.UpdateAssignment{SubjectID: math.ID}), wantCode: http.StatusConflict,
		},
		{
			name: "hand over", method: http.MethodPut, path: "/api/v1/assignments/" + created.ID, token: adminTk,
			body:     marchallObj(t, assignment.UpdateAssignment{TeacherID: t1.ID}),
			wantData: marchallObj(t, assignment.Assignment{ID: created.ID, TeacherID: t1.ID, SubjectID: eng.ID, ClassFormID: form.ID}),
		},
		{name: "delete", method: http.MethodDelete, path: "/api/v1/assignments/" + asg.ID, token: adminTk, wantData: deleted(t, "Assignment")},
		{name: "delete again", method: http.MethodDelete, path: "/api/v1/assignments/" + asg.ID, token: adminTk, wantCode: http.StatusNotFound},
	})
}
