package client

import (
	"context"

	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/gradebook"
)

type GradeQuery struct {
	StudentIDs []string `url:"student_id,omitempty"`
	SubjectIDs []string `url:"subject_id,omitempty"`
	Page
}

func (c *Client) Grades(ctx context.Context, q GradeQuery) (List[grade.Grade], error) {
	var list List[grade.Grade]
	err := c.get(ctx, apiPath("grades"), q, &list)
	return list, err
}

func (c *Client) Grade(ctx context.Context, id string) (grade.Grade, error) {
	var g grade.Grade
	err := c.get(ctx, apiPath("grades", id), nil, &g)
	return g, err
}

func (c *Client) CreateGrade(ctx context.Context, data grade.NewGrade) (grade.Grade, error) {
	var g grade.Grade
	err := c.post(ctx, apiPath("grades"), data, &g)
	return g, err
}

func (c *Client) UpdateGrade(ctx context.Context, id string, data grade.UpdateGrade) (grade.Grade, error) {
	var g grade.Grade
	err := c.put(ctx, apiPath("grades", id), data, &g)
	return g, err
}

func (c *Client) DeleteGrade(ctx context.Context, id string) error {
	return c.delete(ctx, apiPath("grades", id), nil, nil)
}

func (c *Client) GradesSummary(ctx context.Context) (gradebook.Summary, error) {
	var summary gradebook.Summary
	err := c.get(ctx, apiPath("grades", "summary"), nil, &summary)
	return summary, err
}

// GradeEntry returns the entry sheet of the authenticated teacher.
func (c *Client) GradeEntry(ctx context.Context) (gradebook.TeacherView, error) {
	var view gradebook.TeacherView
	err := c.get(ctx, apiPath("grades", "entry"), nil, &view)
	return view, err
}

// SubmitClassGrades stores the entries of a class; a single invalid entry rejects them all.
func (c *Client) SubmitClassGrades(ctx context.Context, classID string, entries []gradebook.Entry) ([]grade.Grade, error) {
	body := struct {
		Entries []gradebook.Entry `json:"entries"`
	}{Entries: entries}
	var list List[grade.Grade]
	err := c.put(ctx, apiPath("grades", "entry", "classes", classID), body, &list)
	return list.Data, err
}

// ClearClassGrades removes the grades the teacher gave in a class and returns how many were removed.
func (c *Client) ClearClassGrades(ctx context.Context, classID string) (int, error) {
	var res struct {
		Count int `json:"count"`
	}
	err := c.delete(ctx, apiPath("grades", "entry", "classes", classID), nil, &res)
	return res.Count, err
}
