package tests

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/tests"
)

const (
	pwd    = "vR7!kd92Qz"
	newPwd = "mN4@xw81Lp"
)

func Test_userApi_login(t *testing.T) {
	env := setup(t)
	testutil.CreateUser(t, env.db, "Jane", "jane@test.cd", pwd, []string{user.RoleTeacher}, true)
	testutil.CreateUser(t, env.db, "Phone", "0991234567@email.com", pwd, nil, true)
	testutil.CreateUser(t, env.db, "N Dog", "ndog@test.cd", pwd, nil, false)

	body := func(username, password string) []byte {
		return marchallObj(t, echoapi.LoginRequest{Username: username, Password: password})
	}
	failed := marchallObj(t, httpErr{Error: "Incorrect email or password"})

	env.run(t, []httpTest{
		{
			name: "missing credentials", body: body("", ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{name: "unknown email", body: body("nobody@test.cd", pwd), wantCode: http.StatusBadRequest, wantData: failed},
		{name: "wrong password", body: body("jane@test.cd", "nope"), wantCode: http.StatusBadRequest, wantData: failed},
		{
			name: "deactivated", body: body("ndog@test.cd", pwd), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "email", body: body(" JANE@test.cd ", pwd)},
		{name: "phone", body: body("0991234567", pwd)},
	}...)

	// the token authenticates the user and the login is recorded
	rec := env.serve(http.MethodPost, "/api/v1/login/access-token", "", body("jane@test.cd", pwd))
	require.Equal(t, http.StatusOK, rec.Code)
	var res echoapi.TokenResponse
	decode(t, rec, &res)
	assert.Equal(t, "bearer", res.TokenType)

	rec = env.serve(http.MethodPost, "/api/v1/login/test-token", res.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var me user.User
	decode(t, rec, &me)
	assert.Equal(t, "jane@test.cd", me.Email)
	assert.NotNil(t, me.LastLogin)
}

func Test_userApi_refreshToken(t *testing.T) {
	env := setup(t)
	student := testutil.CreateUser(t, env.db, "Hero", "hero@test.cd", "", nil, true)
	naughty := testutil.CreateUser(t, env.db, "N Dog", "ndog@test.cd", "", nil, false)
	ghost := user.User{ID: "ghost", Email: "ghost@test.cd"}

	claims := echoapi.NewClaims(student, env.conf)
	claims.OrigIssuedAt = time.Now().Add(-2 * env.conf.Server.JWTRefreshExpirationDelta).Unix() // older than threshold
	unrefreshable, err := echoapi.GenerateToken(claims, env.conf)
	require.NoError(t, err)

	expired := echoapi.NewClaims(student, env.conf)
	expired.StandardClaims = jwt.StandardClaims{Subject: student.ID, ExpiresAt: time.Now().Add(-time.Minute).Unix()}
	expiredToken, err := echoapi.GenerateToken(expired, env.conf)
	require.NoError(t, err)

	path := "/api/v1/login/refresh-token"
	env.run(t, []httpTest{
		{name: "auth required", method: http.MethodPost, path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "garbage token", method: http.MethodPost, path: path, token: "abc", wantCode: http.StatusUnauthorized},
		{name: "expired token", method: http.MethodPost, path: path, token: expiredToken, wantCode: http.StatusUnauthorized},
		{
			name: "unknown user", method: http.MethodPost, path: path, token: getToken(t, env.conf, ghost),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "user not authenticated"}),
		},
		{
			name: "inactive user not allowed", method: http.MethodPost, path: path, token: getToken(t, env.conf, naughty),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "refresh period expired", method: http.MethodPost, path: path, token: unrefreshable,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "token refreshed", method: http.MethodPost, path: path, token: getToken(t, env.conf, student)},
	})
}

func Test_userApi_query(t *testing.T) {
	env := setup(t)

	path := func(search, ordering string, isActive string, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != "" {
			v.Add("is_active", isActive)
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/api/v1/users?" + v.Encode()
	}

	base := time.Now().Add(-10 * time.Hour)
	admin := testutil.CreateUser(t, env.db, "Admin", "admin@test.cd", "", []string{user.RoleAdmin}, true, base.Add(1*time.Hour))
	teacher := testutil.CreateUser(t, env.db, "Teacher One", "teacher@test.cd", "", []string{user.RoleTeacher}, true, base.Add(2*time.Hour))
	classT := testutil.CreateUser(t, env.db, "Class Teacher", "classt@test.cd", "", []string{user.RoleClassTeacher}, true, base.Add(3*time.Hour))
	acct := testutil.CreateUser(t, env.db, "Accountant", "acct@test.cd", "", []string{user.RoleAccountant}, true, base.Add(4*time.Hour))
	naughty := testutil.CreateUser(t, env.db, "N Dog", "ndog@test.cd", "", []string{user.RoleTeacher}, false, base.Add(5*time.Hour)) // 😂

	token := getToken(t, env.conf, admin)

	env.run(t, []httpTest{
		{name: "auth required", path: "/api/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/api/v1/users", token: getToken(t, env.conf, teacher), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "get all", path: "/api/v1/users", token: token, wantData: marchallList(t, 5, naughty, acct, classT, teacher, admin)},
		// filtering
		{name: "search (unknown)", path: path("lol", "", ""), token: token, wantData: marchallList[user.User](t, 0)},
		{name: "search=TEACH", path: path("TEACH", "", ""), token: token, wantData: marchallList(t, 2, classT, teacher)},
		{name: "search by email", path: path("acct@", "", ""), token: token, wantData: marchallList(t, 1, acct)},
		{name: "role=admin:", path: path("", "", "", user.RoleAdmin), token: token, wantData: marchallList(t, 1, admin)},
		{name: "role=teacher:", path: path("", "", "", user.RoleTeacher), token: token, wantData: marchallList(t, 3, naughty, classT, teacher)},
		{
			name: "role=admin:,staff:", path: path("", "", "", user.RoleAdmin, user.RoleAccountant), token: token,
			wantData: marchallList(t, 2, acct, admin),
		},
		{name: "is_active=false", path: path("", "", "false"), token: token, wantData: marchallList(t, 1, naughty)},
		{name: "combo", path: path("teach", "", "true", user.RoleTeacher), token: token, wantData: marchallList(t, 2, classT, teacher)},
		// ordering
		{name: "order by created_at", path: path("", "created_at", ""), token: token, wantData: marchallList(t, 5, admin, teacher, classT, acct, naughty)},
		{name: "order by full_name", path: path("", "full_name", ""), token: token, wantData: marchallList(t, 5, acct, admin, classT, naughty, teacher)},
		{
			name: "order by -is_active,full_name", path: path("", "-is_active,full_name", ""), token: token,
			wantData: marchallList(t, 5, acct, admin, classT, teacher, naughty),
		},
		{name: "unknown ordering is ignored", path: path("", "password_hash", ""), token: token, wantData: marchallList(t, 5, naughty, acct, classT, teacher, admin)},
		// pagination
		{name: "skip & limit", path: "/api/v1/users?skip=1&limit=2", token: token, wantData: marchallList(t, 5, acct, classT)},
		{name: "skip past the end", path: "/api/v1/users?skip=10", token: token, wantData: marchallList[user.User](t, 5)},
		{name: "roles", path: "/api/v1/users/roles", token: token, wantData: marchallObj(t, user.Roles)},
	})
}

func Test_userApi_create(t *testing.T) {
	env := setup(t)
	admin := testutil.CreateUser(t, env.db, "Admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	token := getToken(t, env.conf, admin)

	body := func(email, password string, roles ...string) []byte {
		return marchallObj(t, user.NewUser{FullName: "New User", Email: email, Password: password, Roles: roles})
	}

	env.run(t, []httpTest{
		{
			name: "missing fields", method: http.MethodPost, path: "/api/v1/users", token: token, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name: "duplicate email", method: http.MethodPost, path: "/api/v1/users", token: token, body: body("ADMIN@test.cd", pwd),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "weak password", method: http.MethodPost, path: "/api/v1/users", token: token, body: body("new@test.cd", "short"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"password": "password must contain at least 8 characters"}),
		},
		{
			name: "unknown role", method: http.MethodPost, path: "/api/v1/users", token: token, body: body("new@test.cd", pwd, "wizard:"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"roles": "invalid roles"}),
		},
		{
			name: "role above mine", method: http.MethodPost, path: "/api/v1/users", token: token, body: body("new@test.cd", pwd, user.RoleAdminPrincipal),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
	})

	rec := env.serve(http.MethodPost, "/api/v1/users", token, body(" New@Test.cd ", pwd, user.RoleTeacher))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var usr user.User
	decode(t, rec, &usr)
	assert.Equal(t, "new@test.cd", usr.Email)
	assert.True(t, usr.IsActive)
	assert.Equal(t, user.RoleList{user.RoleTeacher}, usr.Roles)

	// the new user can log in
	rec = env.serve(http.MethodPost, "/api/v1/login/access-token", "", marchallObj(t, echoapi.LoginRequest{Username: "new@test.cd", Password: pwd}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_userApi_detail(t *testing.T) {
	env := setup(t)
	admin := testutil.CreateUser(t, env.db, "Admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, env.db, "Teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	token := getToken(t, env.conf, admin)

	env.run(t, []httpTest{
		{
			name: "admin required", path: "/api/v1/users/" + admin.ID, token: getToken(t, env.conf, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "not found", path: "/api/v1/users/unknown", token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "user not found"})},
		{name: "retrieve", path: "/api/v1/users/" + teacher.ID, token: token, wantData: marchallObj(t, teacher)},
		{
			name: "cannot delete self", method: http.MethodDelete, path: "/api/v1/users/" + admin.ID, token: token,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "Admins are not allowed to delete themselves"}),
		},
	})

	// update
	active := false
	rec := env.serve(http.MethodPut, "/api/v1/users/"+teacher.ID, token, marchallObj(t, user.UpdateUser{FullName: "Renamed", IsActive: &active}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var usr user.User
	decode(t, rec, &usr)
	assert.Equal(t, "Renamed", usr.FullName)
	assert.Equal(t, teacher.Email, usr.Email)
	assert.False(t, usr.IsActive)

	// delete
	rec = env.serve(http.MethodDelete, "/api/v1/users/"+teacher.ID, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, string(deleted(t, "User")), rec.Body.String())
	rec = env.serve(http.MethodGet, "/api/v1/users/"+teacher.ID, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_userApi_destroyMultiple(t *testing.T) {
	env := setup(t)
	admin := testutil.CreateUser(t, env.db, "Admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	u1 := testutil.CreateUser(t, env.db, "One", "one@test.cd", "", nil, true)
	u2 := testutil.CreateUser(t, env.db, "Two", "two@test.cd", "", nil, true)
	token := getToken(t, env.conf, admin)

	env.run(t, []httpTest{
		{
			name: "cannot delete self", method: http.MethodDelete, path: "/api/v1/users?id=" + u1.ID + "&id=" + admin.ID, token: token,
			wantCode: http.StatusForbidden,
		},
		{name: "delete", method: http.MethodDelete, path: "/api/v1/users?id=" + u1.ID + "," + u2.ID, token: token, wantData: deleted(t, "Users")},
		{name: "only admin left", path: "/api/v1/users", token: token, wantData: marchallList(t, 1, admin)},
	})
}

func Test_userApi_me(t *testing.T) {
	env := setup(t)
	admin := testutil.CreateUser(t, env.db, "Admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, env.db, "Teacher", "teacher@test.cd", pwd, []string{user.RoleTeacher}, true)
	token := getToken(t, env.conf, teacher)

	env.run(t, []httpTest{
		{name: "auth required", path: "/api/v1/users/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "retrieve", path: "/api/v1/users/me", token: token, wantData: marchallObj(t, teacher)},
		{
			name: "email taken", method: http.MethodPatch, path: "/api/v1/users/me", token: token,
			body:     marchallObj(t, user.UpdateMe{Email: "admin@test.cd"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "admins cannot delete themselves", method: http.MethodDelete, path: "/api/v1/users/me", token: getToken(t, env.conf, admin),
			wantCode: http.StatusForbidden,
		},
	})

	rec := env.serve(http.MethodPatch, "/api/v1/users/me", token, marchallObj(t, user.UpdateMe{FullName: "  Mrs Teacher "}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me user.User
	decode(t, rec, &me)
	assert.Equal(t, "Mrs Teacher", me.FullName)
	assert.Equal(t, teacher.Email, me.Email)

	rec = env.serve(http.MethodDelete, "/api/v1/users/me", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.serve(http.MethodGet, "/api/v1/users/me", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_userApi_updatePassword(t *testing.T) {
	env := setup(t)
	teacher := testutil.CreateUser(t, env.db, "Teacher", "teacher@test.cd", pwd, []string{user.RoleTeacher}, true)
	token := getToken(t, env.conf, teacher)
	path := "/api/v1/users/me/password"

	body := func(current, next string) []byte {
		return marchallObj(t, user.UpdatePassword{CurrentPassword: current, NewPassword: next})
	}

	env.run(t, []httpTest{
		{
			name: "wrong current password", method: http.MethodPatch, path: path, token: token, body: body("nope", newPwd),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"current_password": "incorrect password"}),
		},
		{
			name: "same password", method: http.MethodPatch, path: path, token: token, body: body(pwd, pwd),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"new_password": "new password cannot be the same as the current one"}),
		},
		{
			name: "numeric password", method: http.MethodPatch, path: path, token: token, body: body(pwd, "1234567890"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"new_password": "password cannot be entirely numeric"}),
		},
		{
			name: "updated", method: http.MethodPatch, path: path, token: token, body: body(pwd, newPwd),
			wantData: marchallObj(t, echoapi.MessageResponse{Message: "Password updated successfully"}),
		},
	})

	rec := env.serve(http.MethodPost, "/api/v1/login/access-token", "", marchallObj(t, echoapi.LoginRequest{Username: "teacher@test.cd", Password: newPwd}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_userApi_passwordReset(t *testing.T) {
	env := setup(t)
	testutil.CreateUser(t, env.db, "Jane", "jane@test.cd", pwd, nil, true)
	recovery := marchallObj(t, echoapi.MessageResponse{
		Message: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})

	env.run(t, []httpTest{
		{name: "unknown email", method: http.MethodPost, path: "/api/v1/password-recovery/nobody@test.cd", wantData: recovery},
		{
			name: "invalid email", method: http.MethodPost, path: "/api/v1/password-recovery/nope", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
	})
	require.Empty(t, env.mailSvc.Sent())

	rec := env.serve(http.MethodPost, "/api/v1/password-recovery/Jane@test.cd", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sent := env.mailSvc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@test.cd", sent[0].To[0].Address)
	data := sent[0].TemplateData.(map[string]interface{})
	uid, token := data["UID"].(string), data["Token"].(string)

	body := func(uid, token, password string) []byte {
		return marchallObj(t, user.ResetUserPassword{UID: uid, Token: token, Password: password})
	}
	env.run(t, []httpTest{
		{
			name: "invalid token", method: http.MethodPost, path: "/api/v1/reset-password", body: body(uid, "1-abc", newPwd),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"token": "invalid value"}),
		},
		{
			name: "invalid uid", method: http.MethodPost, path: "/api/v1/reset-password", body: body("abc", token, newPwd),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"uid": "invalid value"}),
		},
		{
			name: "password reset", method: http.MethodPost, path: "/api/v1/reset-password", body: body(uid, token, newPwd),
			wantData: marchallObj(t, echoapi.MessageResponse{Message: "Password updated successfully"}),
		},
	})

	rec = env.serve(http.MethodPost, "/api/v1/login/access-token", "", marchallObj(t, echoapi.LoginRequest{Username: "jane@test.cd", Password: newPwd}))
	assert.Equal(t, http.StatusOK, rec.Code)
}
