package main

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/client"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/user"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^0\d{9}$`)

	errEmailOrPhone     = errors.New("Please enter a valid email address or phone number.")
	errPasswordTooShort = errors.New("Password must be at least 8 characters long.")
	errPasswordMismatch = errors.New("Passwords do not match.")
	errAssignmentExists = errors.New("This assignment already exists.")
	errAssignmentFields = errors.New("Please select teacher, class, and subject.")
)

func validEmailOrPhone(s string) bool {
	s = core.CleanString(s)
	return emailRegex.MatchString(s) || phoneRegex.MatchString(s)
}

// promptNewPassword asks for a password twice.
func (p *portal) promptNewPassword(label string) (string, string, error) {
	pwd, err := p.promptPassword(label)
	if err != nil {
		return "", "", err
	}
	confirm, err := p.promptPassword("Confirm password")
	if err != nil {
		return "", "", err
	}
	if len(pwd) < 8 {
		return "", "", errPasswordTooShort
	}
	if pwd != confirm {
		return "", "", errPasswordMismatch
	}
	return pwd, confirm, nil
}

// Teachers

func (p *portal) teachers(ctx context.Context, args []string) error {
	sub, args, err := p.subcommand(args, "list", "add", "edit", "delete", "assignments", "classes")
	if err != nil {
		return err
	}

	fs := p.flagSet("teachers " + sub)
	var (
		id, name, email, search          string
		classTeacher, accountant, active bool
		classFilter, subjectFilter       string
		teacherFilter                    string
	)
	switch sub {
	case "list":
		fs.StringVar(&search, "search", "", "Filter by name or email.")
	case "add":
		fs.StringVar(&name, "name", "", "Full name.")
		fs.StringVar(&email, "email", "", "Email or phone number. The password will be prompted next.")
		fs.BoolVar(&classTeacher, "class-teacher", false, "Also a class teacher.")
		fs.BoolVar(&accountant, "accountant", false, "Also an accountant.")
		fs.BoolVar(&active, "active", true, "Whether the account can log in.")
	case "edit":
		fs.StringVar(&id, "id", "", "The teacher's ID.")
		fs.StringVar(&name, "name", "", "Full name.")
		fs.StringVar(&email, "email", "", "Email or phone number.")
		fs.BoolVar(&active, "active", true, "Whether the account can log in.")
	case "delete":
		fs.StringVar(&id, "id", "", "The teacher's ID.")
	case "assignments":
		fs.StringVar(&classFilter, "class", "", "Filter by class.")
		fs.StringVar(&subjectFilter, "subject", "", "Filter by subject.")
		fs.StringVar(&teacherFilter, "teacher", "", "Filter by teacher.")
	}
	if err = parse(fs, args); err != nil {
		return err
	}
	given := visited(fs)
	if (sub == "edit" || sub == "delete") && id == "" {
		return errIDRequired
	}

	switch sub {
	case "list":
		return p.listTeachers(ctx, search)
	case "assignments":
		return p.teachersAssignments(ctx, classFilter, subjectFilter, teacherFilter)
	case "classes":
		return p.myClasses(ctx)

	case "add":
		if !validEmailOrPhone(email) {
			return errEmailOrPhone
		}
		pwd, confirm, err := p.promptNewPassword("Password")
		if err != nil {
			return err
		}
		roles := []string{user.RoleTeacher}
		if classTeacher {
			roles = append(roles, user.RoleClassTeacher)
		}
		if accountant {
			roles = append(roles, user.RoleAccountant)
		}
		usr, err := p.api.CreateUser(ctx, user.NewUser{
			FullName:        core.CleanString(name),
			Email:           user.LoginEmail(email),
			Password:        pwd,
			PasswordConfirm: confirm,
			IsActive:        &active,
			Roles:           roles,
		})
		if err != nil {
			return err
		}
		p.printf("Added teacher %s.", displayName(usr.FullName, usr.Email))

	case "edit":
		if email != "" && !validEmailOrPhone(email) {
			return errEmailOrPhone
		}
		data := user.UpdateUser{FullName: name, Email: user.LoginEmail(email)}
		if given["active"] {
			data.IsActive = &active
		}
		usr, err := p.api.UpdateUser(ctx, id, data)
		if err != nil {
			return err
		}
		p.printf("Updated teacher %s.", displayName(usr.FullName, usr.Email))

	case "delete":
		if err = p.api.DeleteUser(ctx, id); err != nil {
			return err
		}
		p.printf("Teacher deleted.")
	}
	return p.listTeachers(ctx, "")
}

func (p *portal) listTeachers(ctx context.Context, search string) error {
	teachers, err := client.All(ctx, func(ctx context.Context, page client.Page) (client.List[user.User], error) {
		return p.api.Users(ctx, client.UserQuery{Search: search, Roles: []string{user.RoleTeacher}, Ordering: "full_name", Page: page})
	})
	if err != nil {
		return errors.Wrap(err, "loading teachers")
	}
	rows := make([][]interface{}, 0, len(teachers))
	for _, t := range teachers {
		status := "active"
		if !t.IsActive {
			status = "inactive"
		}
		rows = append(rows, []interface{}{t.ID, t.FullName, t.Email, strings.Join(t.Roles, " "), status})
	}
	p.render("Teachers", []interface{}{"ID", "NAME", "EMAIL", "ROLES", "STATUS"}, rows)
	return nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// teachersAssignments lists subjects and teachers grouped by class; classes without a match are skipped.
func (p *portal) teachersAssignments(ctx context.Context, classFilter, subjectFilter, teacherFilter string) error {
	r, err := p.loadRefs(ctx)
	if err != nil {
		return err
	}
	shown := 0
	for _, cf := range r.forms {
		if !containsFold(cf.Name, classFilter) {
			continue
		}
		var rows [][]interface{}
		for _, asg := range r.assignments {
			if asg.ClassFormID != cf.ID {
				continue
			}
			subName, teacher := r.subjectName(asg.SubjectID), r.teacherName(asg.TeacherID)
			if !containsFold(subName, subjectFilter) || !containsFold(teacher, teacherFilter) {
				continue
			}
			rows = append(rows, []interface{}{subName, teacher})
		}
		if len(rows) == 0 {
			continue
		}
		p.render(cf.Name, []interface{}{"SUBJECT", "TEACHER"}, rows)
		shown++
	}
	if shown == 0 {
		p.printf("No assignments found.")
	}
	return nil
}

// myClasses lists the students of every class the logged in teacher teaches.
func (p *portal) myClasses(ctx context.Context) error {
	mine, err := p.api.MyAssignments(ctx)
	if err != nil {
		return err
	}
	groups, err := p.api.StudentsByClass(ctx)
	if err != nil {
		return errors.Wrap(err, "loading students")
	}
	subjects, err := p.allSubjects(ctx)
	if err != nil {
		return errors.Wrap(err, "loading subjects")
	}
	r := refs{subjects: subjects}

	taught := make(map[string][]string) // class ID -> subject names
	for _, asg := range mine.Data {
		taught[asg.ClassFormID] = append(taught[asg.ClassFormID], r.subjectName(asg.SubjectID))
	}
	if len(taught) == 0 {
		p.printf("You are not assigned to any class yet.")
		return nil
	}
	for _, group := range groups {
		names, ok := taught[group.ClassForm.ID]
		if !ok {
			continue
		}
		rows := make([][]interface{}, 0, len(group.Students))
		for i, st := range group.Students {
			rows = append(rows, []interface{}{i + 1, st.FullName(), st.Contact.String})
		}
		p.render(group.ClassForm.Name+" ("+strings.Join(names, ", ")+")", []interface{}{"#", "NAME", "CONTACT"}, rows)
	}
	return nil
}

// Assignments

func (p *portal) assignments(ctx context.Context, args []string) error {
	sub, args, err := p.subcommand(args, "list", "add", "edit", "delete")
	if err != nil {
		return err
	}

	fs := p.flagSet("assignments " + sub)
	var id, teacher, subj, class string
	if sub == "edit" || sub == "delete" {
		fs.StringVar(&id, "id", "", "The assignment's ID.")
	}
	if sub != "delete" {
		fs.StringVar(&teacher, "teacher", "", "Teacher ID, email or phone.")
		fs.StringVar(&subj, "subject", "", "Subject name or ID.")
		fs.StringVar(&class, "class", "", "Class name or ID.")
	}
	if err = parse(fs, args); err != nil {
		return err
	}
	if (sub == "edit" || sub == "delete") && id == "" {
		return errIDRequired
	}

	r, err := p.loadRefs(ctx)
	if err != nil {
		return err
	}
	var asg assignment.Assignment
	if teacher != "" {
		t, err := r.findTeacher(teacher)
		if err != nil {
			return err
		}
		asg.TeacherID = t.ID
	}
	if subj != "" {
		s, err := r.findSubject(subj)
		if err != nil {
			return err
		}
		asg.SubjectID = s.ID
	}
	if class != "" {
		cf, err := r.findForm(class)
		if err != nil {
			return err
		}
		asg.ClassFormID = cf.ID
	}

	switch sub {
	case "list":
		return p.listAssignments(r, asg)

	case "add":
		if asg.TeacherID == "" || asg.SubjectID == "" || asg.ClassFormID == "" {
			return errAssignmentFields
		}
		if err = checkAssignment(r.assignments, asg); err != nil {
			return err
		}
		if _, err = p.api.CreateAssignment(ctx, assignment.NewAssignment{
			TeacherID:   asg.TeacherID,
			SubjectID:   asg.SubjectID,
			ClassFormID: asg.ClassFormID,
		}); err != nil {
			return err
		}
		p.printf("Assigned %s to %s in %s.", r.teacherName(asg.TeacherID), r.subjectName(asg.SubjectID), r.formName(asg.ClassFormID))

	case "edit":
		if _, err = p.api.UpdateAssignment(ctx, id, assignment.UpdateAssignment{
			TeacherID:   asg.TeacherID,
			SubjectID:   asg.SubjectID,
			ClassFormID: asg.ClassFormID,
		}); err != nil {
			return err
		}
		p.printf("Assignment updated.")

	case "delete":
		if err = p.api.DeleteAssignment(ctx, id); err != nil {
			return err
		}
		p.printf("Assignment deleted.")
	}

	if r.assignments, err = p.allAssignments(ctx); err != nil {
		return errors.Wrap(err, "loading assignments")
	}
	return p.listAssignments(r, assignment.Assignment{})
}

// checkAssignment rejects a triple that already exists, or a class subject another teacher already has.
func checkAssignment(existing []assignment.Assignment, asg assignment.Assignment) error {
	for _, e := range existing {
		if e.ClassFormID != asg.ClassFormID || e.SubjectID != asg.SubjectID {
			continue
		}
		if e.TeacherID == asg.TeacherID {
			return errAssignmentExists
		}
		return assignment.ErrSlotTaken
	}
	return nil
}

// listAssignments renders the assignments matching the non-empty IDs of filter.
func (p *portal) listAssignments(r refs, filter assignment.Assignment) error {
	var rows [][]interface{}
	for _, asg := range r.assignments {
		if (filter.TeacherID != "" && asg.TeacherID != filter.TeacherID) ||
			(filter.SubjectID != "" && asg.SubjectID != filter.SubjectID) ||
			(filter.ClassFormID != "" && asg.ClassFormID != filter.ClassFormID) {
			continue
		}
		rows = append(rows, []interface{}{asg.ID, r.formName(asg.ClassFormID), r.subjectName(asg.SubjectID), r.teacherName(asg.TeacherID)})
	}
	p.render("Assignments", []interface{}{"ID", "CLASS", "SUBJECT", "TEACHER"}, rows)
	return nil
}
