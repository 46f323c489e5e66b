package logsvc

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// RollbarLogger reports to rollbar and writes structured lines to zap.
type RollbarLogger struct {
	mu     sync.Mutex // the rollbar person is client wide
	client *rollbar.Client
	sugar  *zap.SugaredLogger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(sugar *zap.SugaredLogger, conf *core.Config) *RollbarLogger {
	client := rollbar.New(conf.RollbarToken, conf.Env, conf.Build, conf.Server.Host, "")
	client.SetStackTracer(errors.StackTracer)
	client.SetEnabled(conf.RollbarToken != "")
	return &RollbarLogger{client: client, sugar: sugar}
}

func (l *RollbarLogger) Enable(enabled bool) {
	l.client.SetEnabled(enabled)
}

// Close flushes pending rollbar items.
func (l *RollbarLogger) Close() {
	l.client.Close()
	_ = l.sugar.Sync()
}

// prepare splits args into the rollbar payload and zap key/values.
// expected fmt: msg | error, map[string]interface{}, user.User
func (l *RollbarLogger) prepare(msg string, args []interface{}) (rbArgs []interface{}, keyvals []interface{}) {
	var usrSet bool
	rbArgs = append(make([]interface{}, 0, len(args)+1), msg)
	for i, arg := range args {
		switch v := arg.(type) {
		case user.User:
			if !usrSet { // only set one User
				l.client.SetPerson(v.ID, v.FullName, v.Email)
				keyvals = append(keyvals, "user", v.ID)
				usrSet = true
			}
		case error:
			rbArgs = append(rbArgs, v)
			keyvals = append(keyvals, "error", v)
		case map[string]interface{}:
			rbArgs = append(rbArgs, v)
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				keyvals = append(keyvals, k, v[k])
			}
		default:
			rbArgs = append(rbArgs, v)
			keyvals = append(keyvals, fmt.Sprintf("arg%d", i), v)
		}
	}
	if !usrSet {
		l.client.ClearPerson()
	}
	return rbArgs, keyvals
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.mu.Lock()
	rbArgs, keyvals := l.prepare(msg, args)
	l.client.Debug(rbArgs...)
	l.mu.Unlock()
	l.sugar.Debugw(msg, keyvals...)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.mu.Lock()
	rbArgs, keyvals := l.prepare(msg, args)
	l.client.Info(rbArgs...)
	l.mu.Unlock()
	l.sugar.Infow(msg, keyvals...)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.mu.Lock()
	rbArgs, keyvals := l.prepare(msg, args)
	l.client.Warning(rbArgs...)
	l.mu.Unlock()
	l.sugar.Warnw(msg, keyvals...)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.mu.Lock()
	rbArgs, keyvals := l.prepare(msg, args)
	l.client.Error(rbArgs...)
	l.mu.Unlock()
	l.sugar.Errorw(msg, keyvals...)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.mu.Lock()
	rbArgs, keyvals := l.prepare(msg, args)
	l.client.Critical(rbArgs...)
	l.mu.Unlock()
	l.client.Close()
	l.sugar.Fatalw(msg, keyvals...)
}

// NewZap builds the zap sink: human readable in debug, JSON otherwise.
func NewZap(conf *core.Config, name string) (*zap.SugaredLogger, error) {
	zconf := zap.NewProductionConfig()
	if conf.Debug {
		zconf = zap.NewDevelopmentConfig()
	}
	zconf.InitialFields = map[string]interface{}{"app": conf.AppName, "env": conf.Env, "build": conf.Build}
	logger, err := zconf.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(name).Sugar(), nil
}
