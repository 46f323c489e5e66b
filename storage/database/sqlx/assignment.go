package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
)

const assignmentColumns = "id, teacher_id, subject_id, class_form_id"

type assignmentRepository struct {
	db core.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db core.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	_, err := exec(
		ctx, repo.db,
		"INSERT INTO assignments ("+assignmentColumns+") VALUES (?, ?, ?, ?)",
		asg.ID, asg.TeacherID, asg.SubjectID, asg.ClassFormID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return assignment.Assignment{}, assignment.ErrSlotTaken
		}
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return asg, nil
}

func (repo assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter, page core.Pagination) ([]assignment.Assignment, int, error) {
	var w where
	if filter.TeacherID != "" {
		w.add("teacher_id = ?", filter.TeacherID)
	}
	if filter.SubjectID != "" {
		w.add("subject_id = ?", filter.SubjectID)
	}
	if filter.ClassFormID != "" {
		w.add("class_form_id = ?", filter.ClassFormID)
	}
	return queryPage[assignment.Assignment](ctx, repo.db, assignmentColumns, "assignments", w, " ORDER BY id", page)
}

func (repo assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	var asg assignment.Assignment
	if err := get(ctx, repo.db, &asg, "SELECT "+assignmentColumns+" FROM assignments WHERE id = ?", id); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "finding assignment")
	}
	return asg, nil
}

func (repo assignmentRepository) FindBySlot(ctx context.Context, classFormID, subjectID string) (assignment.Assignment, error) {
	var asg assignment.Assignment
	err := get(
		ctx, repo.db, &asg,
		"SELECT "+assignmentColumns+" FROM assignments WHERE class_form_id = ? AND subject_id = ?",
		classFormID, subjectID,
	)
	if err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "finding assignment slot")
	}
	return asg, nil
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	n, err := exec(
		ctx, repo.db,
		"UPDATE assignments SET teacher_id = ?, subject_id = ?, class_form_id = ? WHERE id = ?",
		asg.TeacherID, asg.SubjectID, asg.ClassFormID, asg.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return assignment.Assignment{}, assignment.ErrSlotTaken
		}
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if n == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return asg, nil
}

func (repo assignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	n, err := exec(ctx, repo.db, "DELETE FROM assignments WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	if n == 0 {
		return assignment.ErrNotFound
	}
	return nil
}
