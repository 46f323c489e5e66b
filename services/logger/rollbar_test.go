package logsvc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

func newObservedLogger() (*RollbarLogger, *observer.ObservedLogs) {
	obsCore, logs := observer.New(zap.DebugLevel)
	l := NewRollbarLogger(zap.New(obsCore).Sugar(), core.NewTestConfig())
	return l, logs
}

func TestRollbarLogger(t *testing.T) {
	l, logs := newObservedLogger()
	defer l.Close()

	usr := user.User{ID: "42", FullName: "Jane", Email: "jane@test.cd"}
	err := errors.New("boom")
	l.Error("request failed", err, map[string]interface{}{"path": "/api/v1/users", "status": 500}, usr, usr)
	l.Info("started")

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "request failed", entries[0].Message)
		assert.Equal(t, map[string]interface{}{
			"error":  "boom",
			"path":   "/api/v1/users",
			"status": int64(500),
			"user":   "42",
		}, entries[0].ContextMap())
		assert.Equal(t, zap.InfoLevel, entries[1].Level)
		assert.Empty(t, entries[1].ContextMap())
	}
}

func TestRollbarLogger_prepare(t *testing.T) {
	l, _ := newObservedLogger()
	defer l.Close()

	rbArgs, keyvals := l.prepare("msg", []interface{}{"extra", user.User{ID: "1"}})
	assert.Equal(t, []interface{}{"msg", "extra"}, rbArgs)
	assert.Equal(t, []interface{}{"arg0", "extra", "user", "1"}, keyvals)
}
