package session_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apitests "github.com/trezcool/darasa/apps/api/echo/tests"
	"github.com/trezcool/darasa/client"
	"github.com/trezcool/darasa/client/session"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/tests"
)

func signed(t *testing.T, exp time.Time) string {
	tk, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{ExpiresAt: exp.Unix()}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tk
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	usr := &user.User{ID: "u1", FullName: "Jo", Roles: user.RoleList{}}

	tests := []struct {
		name    string
		sess    *session.Session // nil: no file
		raw     string
		want    session.Session
		wantErr bool
	}{
		{name: "no file", want: session.Session{Appearance: session.Light}},
		{
			name: "valid token",
			sess: &session.Session{AccessToken: signed(t, time.Now().Add(time.Hour)), User: usr, Appearance: session.Dark},
			want: session.Session{User: usr, Appearance: session.Dark},
		},
		{
			name: "expired token",
			sess: &session.Session{AccessToken: signed(t, time.Now().Add(-time.Minute)), User: usr, Appearance: session.Dark},
			want: session.Session{Appearance: session.Dark},
		},
		{
			name: "garbage token",
			sess: &session.Session{AccessToken: "lol", User: usr},
			want: session.Session{Appearance: session.Light},
		},
		{
			name: "unknown appearance",
			raw:  `{"appearance":"neon"}`,
			want: session.Session{Appearance: session.Light},
		},
		{name: "corrupt", raw: "{", want: session.Session{Appearance: session.Light}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name, "session.json")
			switch {
			case tt.sess != nil:
				require.NoError(t, session.Save(path, *tt.sess))
			case tt.raw != "":
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
				require.NoError(t, os.WriteFile(path, []byte(tt.raw), 0o600))
			}

			got, err := session.Load(path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.want.User != nil {
				// the token survives untouched
				assert.Equal(t, tt.sess.AccessToken, got.AccessToken)
				got.AccessToken = ""
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAppearance(t *testing.T) {
	a, err := session.ParseAppearance("dark")
	assert.NoError(t, err)
	assert.Equal(t, session.Dark, a)
	_, err = session.ParseAppearance("Dark")
	assert.Equal(t, session.ErrInvalidAppearance, err)
}

func TestManager(t *testing.T) {
	env := apitests.Start(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	usr := testutil.CreateUser(t, env.DB, "Teacher", "teacher@test.cd", "vR7!kd92Qz", []string{user.RoleTeacher}, true)

	api, err := client.New(env.URL)
	require.NoError(t, err)
	mgr, err := session.NewManager(path, api)
	require.NoError(t, err)
	assert.False(t, mgr.Session().LoggedIn())

	_, err = mgr.Login(ctx, "teacher@test.cd", "wrong")
	assert.True(t, client.IsStatus(err, http.StatusBadRequest))
	assert.Empty(t, api.Token())

	got, err := mgr.Login(ctx, "teacher@test.cd", "vR7!kd92Qz")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)
	require.NoError(t, mgr.SetAppearance(session.Dark))
	assert.Equal(t, session.ErrInvalidAppearance, mgr.SetAppearance("neon"))

	// a fresh manager picks the stored session up
	api2, err := client.New(env.URL)
	require.NoError(t, err)
	mgr2, err := session.NewManager(path, api2)
	require.NoError(t, err)
	sess := mgr2.Session()
	assert.True(t, sess.LoggedIn())
	assert.Equal(t, session.Dark, sess.Appearance)
	assert.Equal(t, api.Token(), api2.Token())

	refreshed, err := mgr2.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, refreshed.ID)

	_, err = env.DB.Exec("DELETE FROM users WHERE id = ?", usr.ID)
	require.NoError(t, err)
	_, err = mgr2.Refresh(ctx)
	assert.True(t, client.IsStatus(err, http.StatusUnauthorized))
	assert.Empty(t, api2.Token())

	sess, err = session.Load(path)
	require.NoError(t, err)
	assert.False(t, sess.LoggedIn())
	assert.Equal(t, session.Dark, sess.Appearance)
}
