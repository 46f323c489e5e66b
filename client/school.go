package client

import (
	"context"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/classform"
	"github.com/trezcool/darasa/core/gradebook"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subject"
)

type (
	SearchQuery struct {
		Search string `url:"search,omitempty"`
		Page
	}

	SubjectQuery struct {
		Search string   `url:"search,omitempty"`
		IDs    []string `url:"id,omitempty"`
		Page
	}

	StudentQuery struct {
		Search  string   `url:"search,omitempty"`
		FormIDs []string `url:"form_id,omitempty"`
		Page
	}

	AssignmentQuery struct {
		TeacherID   string `url:"teacher_id,omitempty"`
		SubjectID   string `url:"subject_id,omitempty"`
		ClassFormID string `url:"class_form_id,omitempty"`
		Page
	}
)

// Class forms

func (c *Client) ClassForms(ctx context.Context, q SearchQuery) (List[classform.ClassForm], error) {
	var list List[classform.ClassForm]
	err := c.get(ctx, apiPath("class-forms"), q, &list)
	return list, err
}

func (c *Client) ClassForm(ctx context.Context, id string) (classform.ClassForm, error) {
	var cf classform.ClassForm
	err := c.get(ctx, apiPath("class-forms", id), nil, &cf)
	return cf, err
}

func (c *Client) CreateClassForm(ctx context.Context, name string) (classform.ClassForm, error) {
	var cf classform.ClassForm
	err := c.post(ctx, apiPath("class-forms"), classform.NewClassForm{Name: name}, &cf)
	return cf, err
}

func (c *Client) UpdateClassForm(ctx context.Context, id, name string) (classform.ClassForm, error) {
	var cf classform.ClassForm
	err := c.put(ctx, apiPath("class-forms", id), classform.NewClassForm{Name: name}, &cf)
	return cf, err
}

func (c *Client) DeleteClassForm(ctx context.Context, id string) error {
	return c.delete(ctx, apiPath("class-forms", id), nil, nil)
}

// Subjects

func (c *Client) Subjects(ctx context.Context, q SubjectQuery) (List[subject.Subject], error) {
	var list List[subject.Subject]
	err := c.get(ctx, apiPath("subjects"), q, &list)
	return list, err
}

func (c *Client) Subject(ctx context.Context, id string) (subject.Subject, error) {
	var sub subject.Subject
	err := c.get(ctx, apiPath("subjects", id), nil, &sub)
	return sub, err
}

func (c *Client) CreateSubject(ctx context.Context, name string) (subject.Subject, error) {
	var sub subject.Subject
	err := c.post(ctx, apiPath("subjects"), subject.NewSubject{Name: name}, &sub)
	return sub, err
}

func (c *Client) UpdateSubject(ctx context.Context, id, name string) (subject.Subject, error) {
	var sub subject.Subject
	err := c.put(ctx, apiPath("subjects", id), subject.NewSubject{Name: name}, &sub)
	return sub, err
}

func (c *Client) DeleteSubject(ctx context.Context, id string) error {
	return c.delete(ctx, apiPath("subjects", id), nil, nil)
}

// Students

func (c *Client) Students(ctx context.Context, q StudentQuery) (List[student.Student], error) {
	var list List[student.Student]
	err := c.get(ctx, apiPath("students"), q, &list)
	return list, err
}

func (c *Client) StudentsByClass(ctx context.Context) ([]gradebook.ClassGroup, error) {
	var groups []gradebook.ClassGroup
	err := c.get(ctx, apiPath("students", "by-class"), nil, &groups)
	return groups, err
}

func (c *Client) Student(ctx context.Context, id string) (student.Student, error) {
	var st student.Student
	err := c.get(ctx, apiPath("students", id), nil, &st)
	return st, err
}

func (c *Client) CreateStudent(ctx context.Context, data student.NewStudent) (student.Student, error) {
	var st student.Student
	err := c.post(ctx, apiPath("students"), data, &st)
	return st, err
}

func (c *Client) UpdateStudent(ctx context.Context, id string, data student.UpdateStudent) (student.Student, error) {
	var st student.Student
	err := c.put(ctx, apiPath("students", id), data, &st)
	return st, err
}

func (c *Client) DeleteStudent(ctx context.Context, id string) error {
	return c.delete(ctx, apiPath("students", id), nil, nil)
}

// Assignments

func (c *Client) Assignments(ctx context.Context, q AssignmentQuery) (List[assignment.Assignment], error) {
	var list List[assignment.Assignment]
	err := c.get(ctx, apiPath("assignments"), q, &list)
	return list, err
}

// MyAssignments lists the assignments of the authenticated teacher.
func (c *Client) MyAssignments(ctx context.Context) (List[assignment.Assignment], error) {
	var list List[assignment.Assignment]
	err := c.get(ctx, apiPath("assignments", "mine"), nil, &list)
	return list, err
}

func (c *Client) Assignment(ctx context.Context, id string) (assignment.Assignment, error) {
	var asg assignment.Assignment
	err := c.get(ctx, apiPath("assignments", id), nil, &asg)
	return asg, err
}

func (c *Client) CreateAssignment(ctx context.Context, data assignment.NewAssignment) (assignment.Assignment, error) {
	var asg assignment.Assignment
	err := c.post(ctx, apiPath("assignments"), data, &asg)
	return asg, err
}

func (c *Client) UpdateAssignment(ctx context.Context, id string, data assignment.UpdateAssignment) (assignment.Assignment, error) {
	var asg assignment.Assignment
	err := c.put(ctx, apiPath("assignments", id), data, &asg)
	return asg, err
}

func (c *Client) DeleteAssignment(ctx context.Context, id string) error {
	return c.delete(ctx, apiPath("assignments", id), nil, nil)
}
