package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/classform"
	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/gradebook"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/services/email"
	"github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/database/sqlx"
	"github.com/trezcool/darasa/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app     Server
	db      *sqlx.DB
	conf    *core.Config
	mailSvc *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T, opts ...func(*Deps)) testEnv {
	conf := core.NewTestConfig()
	if err := core.ParseEmailTemplates(conf); err != nil {
		t.Fatalf("ParseEmailTemplates() failed: %v", err)
	}
	if err := user.LoadCommonPasswords(); err != nil {
		t.Fatalf("LoadCommonPasswords() failed: %v", err)
	}

	// set up DB & repos
	db := testutil.PrepareDB(t)
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, conf)
	formSvc := classform.NewService(sqlxrepos.NewClassFormRepository(db))
	subjectSvc := subject.NewService(sqlxrepos.NewSubjectRepository(db))
	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db))
	asgSvc := assignment.NewService(sqlxrepos.NewAssignmentRepository(db), usrSvc, subjectSvc, formSvc)
	gradeSvc := grade.NewService(sqlxrepos.NewGradeRepository(db))

	// set up server
	deps := Deps{
		Conf:          conf,
		Logger:        logsvc.NewRollbarLogger(zap.NewNop().Sugar(), conf),
		DB:            db,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       usrSvc,
		ClassFormSvc:  formSvc,
		SubjectSvc:    subjectSvc,
		StudentSvc:    studentSvc,
		AssignmentSvc: asgSvc,
		GradeSvc:      gradeSvc,
		GradebookSvc:  gradebook.NewService(studentSvc, formSvc, subjectSvc, asgSvc, gradeSvc),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	app := NewServer(deps)
	return testEnv{app: app, db: db, conf: conf, mailSvc: mailSvc}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func (env testEnv) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// serve sends a single request and returns the recorded response.
func (env testEnv) serve(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	env.app.ServeHTTP(rec, req)
	return rec
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	token, err := GenerateToken(NewClaims(usr, conf), conf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// marchallList marshals objs the way list endpoints render them.
func marchallList[T any](t *testing.T, count int, objs ...T) []byte {
	if objs == nil {
		objs = []T{}
	}
	return marchallObj(t, ListResponse[T]{Data: objs, Count: count})
}

func deleted(t *testing.T, what string) []byte {
	return marchallObj(t, MessageResponse{Message: what + " deleted successfully"})
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

// checkCodeAndData compares the response with the expectations; a nil wantData only checks the code.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q failed: %v", rec.Body.String(), err)
	}
}
