package gradebook

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/classform"
	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subject"
)

// MaxEntryRemarkLen bounds remarks typed in the grade entry sheet.
const MaxEntryRemarkLen = 200

var (
	ErrNotAssigned = core.NewForbiddenError("You are not assigned to this class.")

	errStudentNotInClass  = "Student is not in this class."
	errSubjectNotAssigned = "You are not assigned to this subject for this class."
)

// Entry is one cell of the grade entry sheet.
type Entry struct {
	StudentID string  `json:"student_id"`
	SubjectID string  `json:"subject_id"`
	Score     float64 `json:"score"`
	Remark    string  `json:"remark"`
}

type (
	Service interface {
		// StudentsByClass lists every student grouped by class form.
		StudentsByClass(ctx context.Context) ([]ClassGroup, error)
		Summary(ctx context.Context) (Summary, error)
		TeacherView(ctx context.Context, teacherID string) (TeacherView, error)
		// SubmitClassGrades upserts the entries of a class sheet. Either every entry is stored or none.
		SubmitClassGrades(ctx context.Context, teacherID, classID string, entries []Entry) ([]grade.Grade, error)
		// DeleteClassGrades removes the grades the teacher gave in a class and returns how many were removed.
		DeleteClassGrades(ctx context.Context, teacherID, classID string) (int, error)
	}

	service struct {
		students    student.Service
		forms       classform.Service
		subjects    subject.Service
		assignments assignment.Service
		grades      grade.Service
	}
)

func NewService(
	students student.Service,
	forms classform.Service,
	subjects subject.Service,
	assignments assignment.Service,
	grades grade.Service,
) Service {
	return &service{
		students:    students,
		forms:       forms,
		subjects:    subjects,
		assignments: assignments,
		grades:      grades,
	}
}

func (svc *service) allForms(ctx context.Context) ([]classform.ClassForm, error) {
	return core.FetchAll(ctx, func(ctx context.Context, page core.Pagination) ([]classform.ClassForm, int, error) {
		return svc.forms.Query(ctx, classform.QueryFilter{}, page)
	})
}

func (svc *service) allSubjects(ctx context.Context, ids ...string) ([]subject.Subject, error) {
	return core.FetchAll(ctx, func(ctx context.Context, page core.Pagination) ([]subject.Subject, int, error) {
		return svc.subjects.Query(ctx, subject.QueryFilter{IDs: ids}, page)
	})
}

func (svc *service) allStudents(ctx context.Context, formIDs ...string) ([]student.Student, error) {
	return core.FetchAll(ctx, func(ctx context.Context, page core.Pagination) ([]student.Student, int, error) {
		return svc.students.Query(ctx, student.QueryFilter{FormIDs: formIDs}, page)
	})
}

func (svc *service) allGrades(ctx context.Context, filter grade.QueryFilter) ([]grade.Grade, error) {
	return core.FetchAll(ctx, func(ctx context.Context, page core.Pagination) ([]grade.Grade, int, error) {
		return svc.grades.Query(ctx, filter, page)
	})
}

func (svc *service) StudentsByClass(ctx context.Context) ([]ClassGroup, error) {
	var (
		students []student.Student
		forms    []classform.ClassForm
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		students, err = svc.allStudents(gctx)
		return errors.Wrap(err, "querying students")
	})
	g.Go(func() (err error) {
		forms, err = svc.allForms(gctx)
		return errors.Wrap(err, "querying class forms")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return GroupStudentsByClass(students, forms), nil
}

func (svc *service) Summary(ctx context.Context) (Summary, error) {
	var (
		students []student.Student
		forms    []classform.ClassForm
		subjects []subject.Subject
		grades   []grade.Grade
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		students, err = svc.allStudents(gctx)
		return errors.Wrap(err, "querying students")
	})
	g.Go(func() (err error) {
		forms, err = svc.allForms(gctx)
		return errors.Wrap(err, "querying class forms")
	})
	g.Go(func() (err error) {
		subjects, err = svc.allSubjects(gctx)
		return errors.Wrap(err, "querying subjects")
	})
	g.Go(func() (err error) {
		grades, err = svc.allGrades(gctx, grade.QueryFilter{})
		return errors.Wrap(err, "querying grades")
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return BuildSummary(students, forms, subjects, grades), nil
}

// teacherSlots maps each class form of the teacher to the subject IDs they teach there.
func (svc *service) teacherSlots(ctx context.Context, teacherID string) (map[string][]string, error) {
	asgs, err := svc.assignments.Mine(ctx, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	slots := make(map[string][]string)
	for _, asg := range asgs {
		slots[asg.ClassFormID] = append(slots[asg.ClassFormID], asg.SubjectID)
	}
	return slots, nil
}

func (svc *service) TeacherView(ctx context.Context, teacherID string) (TeacherView, error) {
	view := TeacherView{Subjects: []subject.Subject{}, Classes: []ClassSheet{}}

	slots, err := svc.teacherSlots(ctx, teacherID)
	if err != nil {
		return TeacherView{}, err
	}
	if len(slots) == 0 {
		return view, nil
	}
	classIDs := make([]string, 0, len(slots))
	subjectIDs := make([]string, 0)
	seen := make(map[string]bool)
	for classID, subIDs := range slots {
		classIDs = append(classIDs, classID)
		for _, id := range subIDs {
			if !seen[id] {
				seen[id] = true
				subjectIDs = append(subjectIDs, id)
			}
		}
	}

	var (
		students []student.Student
		forms    []classform.ClassForm
		subjects []subject.Subject
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		students, err = svc.allStudents(gctx, classIDs...)
		return errors.Wrap(err, "querying students")
	})
	g.Go(func() (err error) {
		forms, err = svc.allForms(gctx)
		return errors.Wrap(err, "querying class forms")
	})
	g.Go(func() (err error) {
		subjects, err = svc.allSubjects(gctx, subjectIDs...)
		return errors.Wrap(err, "querying subjects")
	})
	if err = g.Wait(); err != nil {
		return TeacherView{}, err
	}

	studentIDs := make([]string, 0, len(students))
	for _, st := range students {
		studentIDs = append(studentIDs, st.ID)
	}
	var grades []grade.Grade
	if len(studentIDs) > 0 {
		grades, err = svc.allGrades(ctx, grade.QueryFilter{StudentIDs: studentIDs, SubjectIDs: subjectIDs})
		if err != nil {
			return TeacherView{}, errors.Wrap(err, "querying grades")
		}
	}
	m := BuildMatrix(grades).Filter(subjectIDs...)

	subjectsByID := make(map[string]subject.Subject, len(subjects))
	for _, sub := range subjects {
		subjectsByID[sub.ID] = sub
	}
	SortSubjects(subjects)
	view.Subjects = subjects

	// every assigned class gets a sheet, even when it has no students yet
	groups := GroupStudentsByClass(students, forms)
	grouped := make(map[string]ClassGroup, len(groups))
	for _, group := range groups {
		grouped[group.ClassForm.ID] = group
	}
	classGroups := make([]ClassGroup, 0, len(slots))
	for _, cf := range forms {
		if _, ok := slots[cf.ID]; !ok {
			continue
		}
		group, ok := grouped[cf.ID]
		if !ok {
			group = ClassGroup{ClassForm: cf, Students: []student.Student{}}
		}
		classGroups = append(classGroups, group)
	}
	sortGroups(classGroups)

	for _, group := range classGroups {
		classSubjects := make([]subject.Subject, 0, len(slots[group.ClassForm.ID]))
		for _, id := range slots[group.ClassForm.ID] {
			if sub, ok := subjectsByID[id]; ok {
				classSubjects = append(classSubjects, sub)
			}
		}
		SortSubjects(classSubjects)
		view.Classes = append(view.Classes, newSheet(group, classSubjects, m))
	}
	return view, nil
}

func (svc *service) SubmitClassGrades(ctx context.Context, teacherID, classID string, entries []Entry) ([]grade.Grade, error) {
	if _, err := svc.forms.GetByID(ctx, classID); err != nil {
		return nil, err
	}
	slots, err := svc.teacherSlots(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]bool)
	for _, id := range slots[classID] {
		allowed[id] = true
	}
	if len(allowed) == 0 {
		return nil, ErrNotAssigned
	}

	students, err := svc.allStudents(ctx, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	enrolled := make(map[string]bool, len(students))
	for _, st := range students {
		enrolled[st.ID] = true
	}

	fldErrs := make([]core.FieldError, 0)
	grades := make([]grade.Grade, 0, len(entries))
	for i, entry := range entries {
		if !enrolled[entry.StudentID] {
			fldErrs = append(fldErrs, core.FieldError{Field: fmt.Sprintf("entries[%d].student_id", i), Error: errStudentNotInClass})
		}
		if !allowed[entry.SubjectID] {
			fldErrs = append(fldErrs, core.FieldError{Field: fmt.Sprintf("entries[%d].subject_id", i), Error: errSubjectNotAssigned})
		}
		remark := core.Truncate(core.StripTags(entry.Remark), MaxEntryRemarkLen)
		grades = append(grades, grade.Grade{
			StudentID: entry.StudentID,
			SubjectID: entry.SubjectID,
			Score:     ClampScore(entry.Score),
			Remark:    null.NewString(remark, remark != ""),
		})
	}
	if len(fldErrs) > 0 {
		return nil, core.NewValidationError(nil, fldErrs...)
	}
	return svc.grades.CreateMany(ctx, grades)
}

func (svc *service) DeleteClassGrades(ctx context.Context, teacherID, classID string) (int, error) {
	if _, err := svc.forms.GetByID(ctx, classID); err != nil {
		return 0, err
	}
	slots, err := svc.teacherSlots(ctx, teacherID)
	if err != nil {
		return 0, err
	}
	subjectIDs := slots[classID]
	if len(subjectIDs) == 0 {
		return 0, ErrNotAssigned
	}

	students, err := svc.allStudents(ctx, classID)
	if err != nil {
		return 0, errors.Wrap(err, "querying students")
	}
	studentIDs := make([]string, 0, len(students))
	for _, st := range students {
		studentIDs = append(studentIDs, st.ID)
	}
	return svc.grades.DeleteFor(ctx, studentIDs, subjectIDs)
}

// ClampScore brings score back into [grade.MinScore, grade.MaxScore].
func ClampScore(score float64) float64 {
	return math.Max(grade.MinScore, math.Min(grade.MaxScore, score))
}

func sortGroups(groups []ClassGroup) {
	sort.SliceStable(groups, func(i, j int) bool { return lessGroup(groups[i], groups[j]) })
}

func lessGroup(a, b ClassGroup) bool {
	if a.ClassForm.Name != b.ClassForm.Name {
		return a.ClassForm.Name < b.ClassForm.Name
	}
	return a.ClassForm.ID < b.ClassForm.ID
}
