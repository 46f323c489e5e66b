package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/darasa/client"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/classform"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/user"
)

// refs holds the lists other screens look names up in.
type refs struct {
	forms       []classform.ClassForm
	subjects    []subject.Subject
	teachers    []user.User
	assignments []assignment.Assignment
}

func (p *portal) allForms(ctx context.Context) ([]classform.ClassForm, error) {
	return client.All(ctx, func(ctx context.Context, page client.Page) (client.List[classform.ClassForm], error) {
		return p.api.ClassForms(ctx, client.SearchQuery{Page: page})
	})
}

func (p *portal) allSubjects(ctx context.Context) ([]subject.Subject, error) {
	return client.All(ctx, func(ctx context.Context, page client.Page) (client.List[subject.Subject], error) {
		return p.api.Subjects(ctx, client.SubjectQuery{Page: page})
	})
}

func (p *portal) allTeachers(ctx context.Context) ([]user.User, error) {
	return client.All(ctx, func(ctx context.Context, page client.Page) (client.List[user.User], error) {
		return p.api.Users(ctx, client.UserQuery{Roles: []string{user.RoleTeacher}, Ordering: "full_name", Page: page})
	})
}

func (p *portal) allAssignments(ctx context.Context) ([]assignment.Assignment, error) {
	return client.All(ctx, func(ctx context.Context, page client.Page) (client.List[assignment.Assignment], error) {
		return p.api.Assignments(ctx, client.AssignmentQuery{Page: page})
	})
}

// loadRefs fetches every reference list in parallel.
// Only admins may list users: for everybody else the teachers stay unknown.
func (p *portal) loadRefs(ctx context.Context) (refs, error) {
	var r refs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		r.forms, err = p.allForms(gctx)
		return errors.Wrap(err, "loading class forms")
	})
	g.Go(func() (err error) {
		r.subjects, err = p.allSubjects(gctx)
		return errors.Wrap(err, "loading subjects")
	})
	g.Go(func() (err error) {
		r.assignments, err = p.allAssignments(gctx)
		return errors.Wrap(err, "loading assignments")
	})
	g.Go(func() error {
		teachers, err := p.allTeachers(gctx)
		if client.IsStatus(err, http.StatusForbidden) {
			p.logger.Debugw("teacher names hidden", "error", err)
			return nil
		}
		r.teachers = teachers
		return errors.Wrap(err, "loading teachers")
	})
	if err := g.Wait(); err != nil {
		return refs{}, err
	}
	return r, nil
}

func (r refs) formName(id string) string {
	for _, cf := range r.forms {
		if cf.ID == id {
			return cf.Name
		}
	}
	return "Unknown Class"
}

func (r refs) subjectName(id string) string {
	for _, sub := range r.subjects {
		if sub.ID == id {
			return sub.Name
		}
	}
	return "Unknown Subject"
}

func (r refs) teacherName(id string) string {
	for _, t := range r.teachers {
		if t.ID == id {
			return displayName(t.FullName, t.Email)
		}
	}
	return "Unknown Teacher"
}

// findForm accepts an ID or a class name.
func (r refs) findForm(ref string) (classform.ClassForm, error) {
	name := core.Normalize(ref)
	for _, cf := range r.forms {
		if cf.ID == ref || cf.Name == name {
			return cf, nil
		}
	}
	return classform.ClassForm{}, fmt.Errorf("class %q not found", ref)
}

// findSubject accepts an ID or a subject name.
func (r refs) findSubject(ref string) (subject.Subject, error) {
	name := core.Normalize(ref)
	for _, sub := range r.subjects {
		if sub.ID == ref || sub.Name == name {
			return sub, nil
		}
	}
	return subject.Subject{}, fmt.Errorf("subject %q not found", ref)
}

// findTeacher accepts an ID, an email or a phone number.
func (r refs) findTeacher(ref string) (user.User, error) {
	email := user.LoginEmail(ref)
	for _, t := range r.teachers {
		if t.ID == ref || t.Email == email {
			return t, nil
		}
	}
	return user.User{}, fmt.Errorf("teacher %q not found", ref)
}
