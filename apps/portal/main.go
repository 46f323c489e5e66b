// Command portal is the terminal front end of the Darasa API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/trezcool/darasa/client"
	"github.com/trezcool/darasa/client/session"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger, err := logsvc.NewZap(conf, "portal")
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	api, err := client.New(conf.Portal.APIURL)
	if err != nil {
		logger.Fatalw("building API client", "error", err)
	}
	mgr, err := session.NewManager(conf.Portal.SessionPath, api)
	if err != nil {
		logger.Fatalw("loading session", "path", conf.Portal.SessionPath, "error", err)
	}

	ctx := context.Background()
	if mgr.Session().LoggedIn() {
		// a stale profile is still good enough to open the page
		if _, err = mgr.Refresh(ctx); err != nil && !client.IsStatus(err, http.StatusUnauthorized) && !client.IsStatus(err, http.StatusForbidden) {
			logger.Warnw("refreshing profile", "error", err)
		}
	}

	p := &portal{api: api, sess: mgr, out: os.Stdout, logger: logger}
	if err = p.run(ctx, os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintln(os.Stderr, err)
			logger.Debugw("command failed", "args", os.Args[1:], "error", err)
		}
		_ = logger.Sync()
		os.Exit(1)
	}
}
