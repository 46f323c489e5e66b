package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/gradebook"
	"github.com/trezcool/darasa/core/subject"
)

var errEntryFormat = errors.New("entries must look like STUDENT_ID,SUBJECT,SCORE[,REMARK]")

// entryList collects repeated -entry flags.
type entryList []string

func (el *entryList) String() string { return strings.Join(*el, " ") }

func (el *entryList) Set(s string) error {
	*el = append(*el, s)
	return nil
}

func (p *portal) grades(ctx context.Context, args []string) error {
	sub, args, err := p.subcommand(args, "summary", "entry", "submit", "clear")
	if err != nil {
		return err
	}

	fs := p.flagSet("grades " + sub)
	var (
		class   string
		entries entryList
	)
	if sub == "submit" || sub == "clear" {
		fs.StringVar(&class, "class", "", "Class name or ID.")
	}
	if sub == "submit" {
		fs.Var(&entries, "entry", "A grade as STUDENT_ID,SUBJECT,SCORE[,REMARK]; repeat for every grade.")
	}
	if err = parse(fs, args); err != nil {
		return err
	}
	if (sub == "submit" || sub == "clear") && class == "" {
		return errClassRequired
	}

	switch sub {
	case "summary":
		summary, err := p.api.GradesSummary(ctx)
		if err != nil {
			return err
		}
		p.renderSheets("Grades summary", summary.Classes)
		return nil
	case "entry":
		return p.renderEntry(ctx)
	}

	r, err := p.loadRefs(ctx)
	if err != nil {
		return err
	}
	cf, err := r.findForm(class)
	if err != nil {
		return err
	}

	switch sub {
	case "submit":
		batch := make([]gradebook.Entry, 0, len(entries))
		for _, raw := range entries {
			entry, err := parseEntry(raw, r)
			if err != nil {
				return err
			}
			batch = append(batch, entry)
		}
		saved, err := p.api.SubmitClassGrades(ctx, cf.ID, batch)
		if err != nil {
			return err
		}
		p.printf("Saved %d grade(s) for %s.", len(saved), cf.Name)

	case "clear":
		n, err := p.api.ClearClassGrades(ctx, cf.ID)
		if err != nil {
			return err
		}
		p.printf("Cleared %d grade(s) for %s.", n, cf.Name)
	}
	return p.renderEntry(ctx)
}

func parseEntry(raw string, r refs) (gradebook.Entry, error) {
	parts := strings.SplitN(raw, ",", 4)
	if len(parts) < 3 {
		return gradebook.Entry{}, errEntryFormat
	}
	sub, err := r.findSubject(strings.TrimSpace(parts[1]))
	if err != nil {
		return gradebook.Entry{}, err
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return gradebook.Entry{}, fmt.Errorf("invalid score %q", parts[2])
	}
	entry := gradebook.Entry{StudentID: strings.TrimSpace(parts[0]), SubjectID: sub.ID, Score: score}
	if len(parts) == 4 {
		entry.Remark = strings.TrimSpace(parts[3])
	}
	return entry, nil
}

func (p *portal) renderEntry(ctx context.Context) error {
	view, err := p.api.GradeEntry(ctx)
	if err != nil {
		return err
	}
	if len(view.Classes) == 0 {
		p.printf("You are not assigned to any class yet.")
		return nil
	}
	p.renderSheets("Grade entry", view.Classes)
	return nil
}

// renderSheets prints one table per class: a row per student, a column per subject.
func (p *portal) renderSheets(title string, sheets []gradebook.ClassSheet) {
	p.printf("%s", p.palette().title(title))
	for _, sheet := range sheets {
		header := []interface{}{"ID", "STUDENT"}
		for _, sub := range sheet.Subjects {
			header = append(header, sub.Name)
		}
		header = append(header, "AVERAGE")

		rows := make([][]interface{}, 0, len(sheet.Rows))
		for _, row := range sheet.Rows {
			cells := []interface{}{row.Student.ID, row.Student.FullName()}
			cells = append(cells, scoreCells(sheet.Subjects, row)...)
			rows = append(rows, cells)
		}
		p.render(sheet.ClassForm.Name, header, rows)
	}
}

func scoreCells(subjects []subject.Subject, row gradebook.StudentRow) []interface{} {
	cells := make([]interface{}, 0, len(subjects)+1)
	for _, sub := range subjects {
		if g, ok := row.Grades[sub.ID]; ok {
			cells = append(cells, strconv.FormatFloat(g.Score, 'f', -1, 64))
		} else {
			cells = append(cells, "-")
		}
	}
	if row.Average != nil {
		cells = append(cells, fmt.Sprintf("%.2f", *row.Average))
	} else {
		cells = append(cells, "-")
	}
	return cells
}
