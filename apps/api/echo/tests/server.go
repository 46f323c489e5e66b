package tests

import (
	"net/http/httptest"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/services/email"
)

// LiveEnv is a fully wired API listening on a local port.
type LiveEnv struct {
	URL     string
	DB      *sqlx.DB
	Conf    *core.Config
	MailSvc *emailsvc.ConsoleServiceMock
}

// Start serves the API until the test ends.
func Start(t *testing.T) LiveEnv {
	t.Helper()
	env := setup(t)
	srv := httptest.NewServer(env.app)
	t.Cleanup(srv.Close)
	return LiveEnv{URL: srv.URL, DB: env.db, Conf: env.conf, MailSvc: env.mailSvc}
}
