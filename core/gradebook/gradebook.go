// Package gradebook reshapes students, subjects and grades into the per-class views used to read and enter grades.
package gradebook

import (
	"math"
	"sort"
	"strings"

	"github.com/trezcool/darasa/core/classform"
	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subject"
)

// UnknownClassName names the group of students whose class form no longer exists.
const UnknownClassName = "Unknown Class"

// Matrix indexes grades by student ID, then subject ID.
type Matrix map[string]map[string]grade.Grade

func (m Matrix) Get(studentID, subjectID string) (grade.Grade, bool) {
	g, ok := m[studentID][subjectID]
	return g, ok
}

// BuildMatrix indexes grades; a later grade for the same pair wins.
func BuildMatrix(grades []grade.Grade) Matrix {
	m := make(Matrix)
	for _, g := range grades {
		if _, ok := m[g.StudentID]; !ok {
			m[g.StudentID] = make(map[string]grade.Grade)
		}
		m[g.StudentID][g.SubjectID] = g
	}
	return m
}

// Filter keeps the grades of the given subjects only.
func (m Matrix) Filter(subjectIDs ...string) Matrix {
	keep := make(map[string]bool, len(subjectIDs))
	for _, id := range subjectIDs {
		keep[id] = true
	}
	filtered := make(Matrix, len(m))
	for stID, row := range m {
		for subID, g := range row {
			if !keep[subID] {
				continue
			}
			if _, ok := filtered[stID]; !ok {
				filtered[stID] = make(map[string]grade.Grade)
			}
			filtered[stID][subID] = g
		}
	}
	return filtered
}

// Average returns the mean score of a student over the given subjects, nil if none is graded.
func (m Matrix) Average(studentID string, subjectIDs ...string) *float64 {
	var total float64
	var count int
	for _, subID := range subjectIDs {
		if g, ok := m.Get(studentID, subID); ok {
			total += g.Score
			count++
		}
	}
	if count == 0 {
		return nil
	}
	avg := math.Round(total/float64(count)*100) / 100
	return &avg
}

type ClassGroup struct {
	ClassForm classform.ClassForm `json:"class_form"`
	Students  []student.Student   `json:"students"`
}

// SortStudents orders students by last name, then first name.
func SortStudents(students []student.Student) {
	sort.SliceStable(students, func(i, j int) bool {
		li, lj := strings.ToLower(students[i].LastName), strings.ToLower(students[j].LastName)
		if li != lj {
			return li < lj
		}
		fi, fj := strings.ToLower(students[i].FirstName), strings.ToLower(students[j].FirstName)
		if fi != fj {
			return fi < fj
		}
		return students[i].ID < students[j].ID
	})
}

// GroupStudentsByClass groups students by class form, groups ordered by class name.
// Students whose class form is missing from forms share one group named UnknownClassName,
// with an empty class form ID. Class forms without students are left out.
func GroupStudentsByClass(students []student.Student, forms []classform.ClassForm) []ClassGroup {
	byID := make(map[string]classform.ClassForm, len(forms))
	for _, cf := range forms {
		byID[cf.ID] = cf
	}

	index := make(map[string]int)
	groups := make([]ClassGroup, 0)
	for _, st := range students {
		cf, known := byID[st.FormID]
		if !known {
			cf = classform.ClassForm{Name: UnknownClassName}
		}
		i, ok := index[cf.ID]
		if !ok {
			groups = append(groups, ClassGroup{ClassForm: cf, Students: make([]student.Student, 0, 1)})
			i = len(groups) - 1
			index[cf.ID] = i
		}
		groups[i].Students = append(groups[i].Students, st)
	}

	for i := range groups {
		SortStudents(groups[i].Students)
	}
	sortGroups(groups)
	return groups
}

// SortSubjects orders subjects by name.
func SortSubjects(subjects []subject.Subject) {
	sort.SliceStable(subjects, func(i, j int) bool {
		if subjects[i].Name != subjects[j].Name {
			return subjects[i].Name < subjects[j].Name
		}
		return subjects[i].ID < subjects[j].ID
	})
}

type StudentRow struct {
	Student student.Student        `json:"student"`
	Grades  map[string]grade.Grade `json:"grades"` // by subject ID
	Average *float64               `json:"average"`
}

type ClassSheet struct {
	ClassForm classform.ClassForm `json:"class_form"`
	Subjects  []subject.Subject   `json:"subjects"`
	Rows      []StudentRow        `json:"rows"`
}

// Summary is the read-only view of every grade.
type Summary struct {
	Subjects []subject.Subject `json:"subjects"`
	Classes  []ClassSheet      `json:"classes"`
}

// TeacherView only holds the classes and subjects a teacher is assigned to.
type TeacherView struct {
	Subjects []subject.Subject `json:"subjects"`
	Classes  []ClassSheet      `json:"classes"`
}

func newSheet(group ClassGroup, subjects []subject.Subject, m Matrix) ClassSheet {
	subjectIDs := make([]string, 0, len(subjects))
	for _, sub := range subjects {
		subjectIDs = append(subjectIDs, sub.ID)
	}
	sheet := ClassSheet{
		ClassForm: group.ClassForm,
		Subjects:  subjects,
		Rows:      make([]StudentRow, 0, len(group.Students)),
	}
	for _, st := range group.Students {
		row := StudentRow{Student: st, Grades: make(map[string]grade.Grade)}
		for _, subID := range subjectIDs {
			if g, ok := m.Get(st.ID, subID); ok {
				row.Grades[subID] = g
			}
		}
		row.Average = m.Average(st.ID, subjectIDs...)
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

// BuildSummary lays every student out against every subject.
func BuildSummary(students []student.Student, forms []classform.ClassForm, subjects []subject.Subject, grades []grade.Grade) Summary {
	subjects = append([]subject.Subject(nil), subjects...)
	SortSubjects(subjects)
	if subjects == nil {
		subjects = []subject.Subject{}
	}

	m := BuildMatrix(grades)
	groups := GroupStudentsByClass(students, forms)
	summary := Summary{Subjects: subjects, Classes: make([]ClassSheet, 0, len(groups))}
	for _, group := range groups {
		summary.Classes = append(summary.Classes, newSheet(group, subjects, m))
	}
	return summary
}
