package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/client"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classform"
	"github.com/trezcool/darasa/core/gradebook"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subject"
)

var (
	errIDRequired      = errors.New("-id is required")
	errStudentNames    = errors.New("first name and last name are required")
	errClassRequired   = errors.New("-class is required")
	errNameRequired    = errors.New("-name is required")
	errClassNameFormat = errors.New(core.ClassNameText)
	errSubjectFormat   = errors.New(core.SubjectNameText)
)

// Students

func (p *portal) students(ctx context.Context, args []string) error {
	sub, args, err := p.subcommand(args, "list", "add", "edit", "delete")
	if err != nil {
		return err
	}

	fs := p.flagSet("students " + sub)
	var (
		id, first, middle, last, contact, class, remark, search string
		fees                                                    float64
	)
	switch sub {
	case "list":
		fs.StringVar(&search, "search", "", "Filter by name.")
		fs.StringVar(&class, "class", "", "Filter by class name or ID.")
	case "edit", "delete":
		fs.StringVar(&id, "id", "", "The student's ID.")
	}
	if sub == "add" || sub == "edit" {
		fs.StringVar(&first, "first", "", "First name.")
		fs.StringVar(&middle, "middle", "", "Middle name.")
		fs.StringVar(&last, "last", "", "Last name.")
		fs.StringVar(&contact, "contact", "", "Contact phone number.")
		fs.StringVar(&class, "class", "", "Class name or ID.")
		fs.Float64Var(&fees, "fees", 0, "Fees paid.")
		fs.StringVar(&remark, "remark", "", "Class teacher's remark.")
	}
	if err = parse(fs, args); err != nil {
		return err
	}
	given := visited(fs)

	if (sub == "edit" || sub == "delete") && id == "" {
		return errIDRequired
	}

	forms, err := p.allForms(ctx)
	if err != nil {
		return errors.Wrap(err, "loading class forms")
	}
	r := refs{forms: forms}

	switch sub {
	case "list":
		return p.listStudents(ctx, r, search, class)

	case "add":
		first, last = core.CleanString(first), core.CleanString(last)
		if first == "" || last == "" {
			return errStudentNames
		}
		if class == "" {
			return errClassRequired
		}
		cf, err := r.findForm(class)
		if err != nil {
			return err
		}
		st, err := p.api.CreateStudent(ctx, student.NewStudent{
			FirstName:          first,
			MiddleName:         middle,
			LastName:           last,
			Contact:            contact,
			FormID:             cf.ID,
			Fees:               fees,
			ClassTeacherRemark: remark,
		})
		if err != nil {
			return err
		}
		p.printf("Added %s to %s.", st.FullName(), cf.Name)

	case "edit":
		data := student.UpdateStudent{FirstName: first, MiddleName: middle, LastName: last, Contact: contact}
		if given["class"] {
			cf, err := r.findForm(class)
			if err != nil {
				return err
			}
			data.FormID = cf.ID
		}
		if given["fees"] {
			data.Fees = &fees
		}
		if given["remark"] {
			data.ClassTeacherRemark = &remark
		}
		st, err := p.api.UpdateStudent(ctx, id, data)
		if err != nil {
			return err
		}
		p.printf("Updated %s.", st.FullName())

	case "delete":
		if err = p.api.DeleteStudent(ctx, id); err != nil {
			return err
		}
		p.printf("Student deleted.")
	}
	return p.listStudents(ctx, r, "", "")
}

// listStudents renders one table per class, or a single filtered table when a search or class is given.
func (p *portal) listStudents(ctx context.Context, r refs, search, class string) error {
	if search == "" && class == "" {
		groups, err := p.api.StudentsByClass(ctx)
		if err != nil {
			return errors.Wrap(err, "loading students")
		}
		p.printf("%s", p.palette().title("Students"))
		if len(groups) == 0 {
			p.printf("  (none)")
		}
		for _, group := range groups {
			p.render(group.ClassForm.Name, studentHeader, studentRows(group.Students))
		}
		return nil
	}

	q := client.StudentQuery{Search: search}
	if class != "" {
		cf, err := r.findForm(class)
		if err != nil {
			return err
		}
		q.FormIDs = []string{cf.ID}
	}
	students, err := client.All(ctx, func(ctx context.Context, page client.Page) (client.List[student.Student], error) {
		q.Page = page
		return p.api.Students(ctx, q)
	})
	if err != nil {
		return errors.Wrap(err, "loading students")
	}
	gradebook.SortStudents(students)

	rows := studentRows(students)
	for i, st := range students {
		rows[i] = append(rows[i], r.formName(st.FormID))
	}
	header := append(append([]interface{}{}, studentHeader...), "CLASS")
	p.render("Students", header, rows)
	return nil
}

var studentHeader = []interface{}{"ID", "NAME", "CONTACT", "FEES"}

func studentRows(students []student.Student) [][]interface{} {
	rows := make([][]interface{}, 0, len(students))
	for _, st := range students {
		rows = append(rows, []interface{}{st.ID, st.FullName(), st.Contact.String, st.Fees})
	}
	return rows
}

// Class forms

func (p *portal) classes(ctx context.Context, args []string) error {
	return p.manageNames(ctx, args, nameScreen{
		title:  "Classes",
		what:   "class",
		format: core.ClassNameRegex.MatchString,
		errFmt: errClassNameFormat,
		list: func(ctx context.Context, search string) ([][]interface{}, error) {
			forms, err := client.All(ctx, func(ctx context.Context, page client.Page) (client.List[classform.ClassForm], error) {
				return p.api.ClassForms(ctx, client.SearchQuery{Search: search, Page: page})
			})
			rows := make([][]interface{}, 0, len(forms))
			for _, cf := range forms {
				rows = append(rows, []interface{}{cf.ID, cf.Name})
			}
			return rows, err
		},
		create: func(ctx context.Context, name string) (string, error) {
			cf, err := p.api.CreateClassForm(ctx, name)
			return cf.Name, err
		},
		update: func(ctx context.Context, id, name string) (string, error) {
			cf, err := p.api.UpdateClassForm(ctx, id, name)
			return cf.Name, err
		},
		remove: p.api.DeleteClassForm,
	})
}

// Subjects

func (p *portal) subjects(ctx context.Context, args []string) error {
	return p.manageNames(ctx, args, nameScreen{
		title:  "Subjects",
		what:   "subject",
		format: core.SubjectNameRegex.MatchString,
		errFmt: errSubjectFormat,
		list: func(ctx context.Context, search string) ([][]interface{}, error) {
			subjects, err := client.All(ctx, func(ctx context.Context, page client.Page) (client.List[subject.Subject], error) {
				return p.api.Subjects(ctx, client.SubjectQuery{Search: search, Page: page})
			})
			rows := make([][]interface{}, 0, len(subjects))
			for _, sub := range subjects {
				rows = append(rows, []interface{}{sub.ID, sub.Name})
			}
			return rows, err
		},
		create: func(ctx context.Context, name string) (string, error) {
			sub, err := p.api.CreateSubject(ctx, name)
			return sub.Name, err
		},
		update: func(ctx context.Context, id, name string) (string, error) {
			sub, err := p.api.UpdateSubject(ctx, id, name)
			return sub.Name, err
		},
		remove: p.api.DeleteSubject,
	})
}

// nameScreen manages entities that only have a normalized name.
type nameScreen struct {
	title, what string
	format      func(string) bool
	errFmt      error
	list        func(ctx context.Context, search string) ([][]interface{}, error)
	create      func(ctx context.Context, name string) (string, error)
	update      func(ctx context.Context, id, name string) (string, error)
	remove      func(ctx context.Context, id string) error
}

func (p *portal) manageNames(ctx context.Context, args []string, scr nameScreen) error {
	sub, args, err := p.subcommand(args, "list", "add", "edit", "delete")
	if err != nil {
		return err
	}

	fs := p.flagSet(strings.ToLower(scr.title) + " " + sub)
	var id, name, search string
	switch sub {
	case "list":
		fs.StringVar(&search, "search", "", "Filter by name.")
	case "add":
		fs.StringVar(&name, "name", "", fmt.Sprintf("The %s name.", scr.what))
	case "edit":
		fs.StringVar(&id, "id", "", fmt.Sprintf("The %s ID.", scr.what))
		fs.StringVar(&name, "name", "", fmt.Sprintf("The new %s name.", scr.what))
	case "delete":
		fs.StringVar(&id, "id", "", fmt.Sprintf("The %s ID.", scr.what))
	}
	if err = parse(fs, args); err != nil {
		return err
	}
	if (sub == "edit" || sub == "delete") && id == "" {
		return errIDRequired
	}
	if sub == "add" || sub == "edit" {
		if name = core.Normalize(name); name == "" {
			return errNameRequired
		}
		if !scr.format(name) {
			return scr.errFmt
		}
	}

	switch sub {
	case "list":
		return p.listNames(ctx, scr, search)
	case "add":
		if name, err = scr.create(ctx, name); err != nil {
			return err
		}
		p.printf("Added %s %s.", scr.what, name)
	case "edit":
		if name, err = scr.update(ctx, id, name); err != nil {
			return err
		}
		p.printf("Renamed %s to %s.", scr.what, name)
	case "delete":
		if err = scr.remove(ctx, id); err != nil {
			return err
		}
		p.printf("Deleted %s.", scr.what)
	}
	return p.listNames(ctx, scr, "")
}

func (p *portal) listNames(ctx context.Context, scr nameScreen, search string) error {
	rows, err := scr.list(ctx, search)
	if err != nil {
		return errors.Wrapf(err, "loading %s", strings.ToLower(scr.title))
	}
	p.render(scr.title, []interface{}{"ID", "NAME"}, rows)
	return nil
}
