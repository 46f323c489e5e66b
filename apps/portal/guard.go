package main

import (
	"errors"
	"strings"

	"github.com/trezcool/darasa/client/session"
)

type access int

const (
	public access = iota
	userOnly
	adminOnly
)

var (
	errNotFound  = errors.New("404: page not found")
	errForbidden = errors.New("403: you are not allowed to view this page")
)

// redirectError sends the user to another page, e.g. the login page.
type redirectError struct {
	to string
}

func (e *redirectError) Error() string {
	return "please log in first (redirecting to " + e.to + ")"
}

var routes = map[string]access{
	"/":       public,
	"/login":  public,
	"/logout": public,

	"/teachers": userOnly,
	"/settings": userOnly,
	"/grades":   userOnly,

	"/admin":             adminOnly,
	"/admin/students":    adminOnly,
	"/admin/classes":     adminOnly,
	"/admin/subjects":    adminOnly,
	"/admin/teachers":    adminOnly,
	"/admin/assignments": adminOnly,
}

// guard reports whether the session may open path.
func guard(path string, sess session.Session) error {
	path = "/" + strings.Trim(path, "/")
	acc, ok := routes[path]
	if !ok {
		return errNotFound
	}
	if acc == public {
		return nil
	}
	if !sess.LoggedIn() {
		return &redirectError{to: "/login"}
	}
	if acc == adminOnly && !sess.User.IsAdmin() {
		return errForbidden
	}
	return nil
}

// routeFor maps a command line to the page it opens.
func routeFor(cmd, sub string) string {
	switch cmd {
	case "", "home":
		return "/"
	case "login", "logout", "settings", "grades":
		return "/" + cmd
	case "students", "classes", "subjects", "assignments":
		return "/admin/" + cmd
	case "teachers":
		if sub == "assignments" || sub == "classes" {
			return "/teachers"
		}
		return "/admin/teachers"
	}
	return "/" + cmd
}
