package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/student"
)

const studentColumns = "id, first_name, middle_name, last_name, contact, form_id, fees, class_teacher_remark, head_teacher_remark, owner_id"

type studentRepository struct {
	db core.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db core.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	_, err := exec(
		ctx, repo.db,
		"INSERT INTO students ("+studentColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		st.ID, st.FirstName, st.MiddleName, st.LastName, st.Contact, st.FormID, st.Fees,
		st.ClassTeacherRemark, st.HeadTeacherRemark, st.OwnerID,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return st, nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter student.QueryFilter, page core.Pagination) ([]student.Student, int, error) {
	var w where
	if filter.Search != "" {
		val := likeArg(filter.Search)
		w.add("LOWER(first_name) LIKE ? OR LOWER(middle_name) LIKE ? OR LOWER(last_name) LIKE ?", val, val, val)
	}
	if len(filter.FormIDs) > 0 {
		w.add("form_id IN (?)", filter.FormIDs)
	}
	orderBy := " ORDER BY LOWER(last_name), LOWER(first_name), id"
	return queryPage[student.Student](ctx, repo.db, studentColumns, "students", w, orderBy, page)
}

func (repo studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	var st student.Student
	if err := get(ctx, repo.db, &st, "SELECT "+studentColumns+" FROM students WHERE id = ?", id); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "finding student")
	}
	return st, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	n, err := exec(
		ctx, repo.db,
		`UPDATE students SET first_name = ?, middle_name = ?, last_name = ?, contact = ?, form_id = ?, fees = ?,
			class_teacher_remark = ?, head_teacher_remark = ?
		WHERE id = ?`,
		st.FirstName, st.MiddleName, st.LastName, st.Contact, st.FormID, st.Fees,
		st.ClassTeacherRemark, st.HeadTeacherRemark, st.ID,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return st, nil
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id string) error {
	return core.WithTx(ctx, repo.db, func(tx core.DBExecutor) error {
		if _, err := exec(ctx, tx, "DELETE FROM grades WHERE student_id = ?", id); err != nil {
			return errors.Wrap(err, "deleting student grades")
		}
		n, err := exec(ctx, tx, "DELETE FROM students WHERE id = ?", id)
		if err != nil {
			return errors.Wrap(err, "deleting student")
		}
		if n == 0 {
			return student.ErrNotFound
		}
		return nil
	})
}
