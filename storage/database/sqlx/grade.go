package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/grade"
)

const gradeColumns = "id, student_id, subject_id, score, remark"

type gradeRepository struct {
	db core.DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db core.DB) *gradeRepository {
	return &gradeRepository{db: db}
}

func (repo gradeRepository) UpsertGrades(ctx context.Context, grades ...grade.Grade) ([]grade.Grade, error) {
	stored := make([]grade.Grade, 0, len(grades))
	err := core.WithTx(ctx, repo.db, func(tx core.DBExecutor) error {
		for _, g := range grades {
			_, err := exec(
				ctx, tx,
				`INSERT INTO grades (`+gradeColumns+`) VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (student_id, subject_id) DO UPDATE SET score = excluded.score, remark = excluded.remark`,
				g.ID, g.StudentID, g.SubjectID, g.Score, g.Remark,
			)
			if err != nil {
				return errors.Wrap(err, "upserting grade")
			}

			// the stored row keeps its original ID on conflict
			var row grade.Grade
			err = get(
				ctx, tx, &row,
				"SELECT "+gradeColumns+" FROM grades WHERE student_id = ? AND subject_id = ?",
				g.StudentID, g.SubjectID,
			)
			if err != nil {
				return errors.Wrap(err, "reading upserted grade")
			}
			stored = append(stored, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (repo gradeRepository) QueryGrades(ctx context.Context, filter grade.QueryFilter, page core.Pagination) ([]grade.Grade, int, error) {
	var w where
	if len(filter.StudentIDs) > 0 {
		w.add("student_id IN (?)", filter.StudentIDs)
	}
	if len(filter.SubjectIDs) > 0 {
		w.add("subject_id IN (?)", filter.SubjectIDs)
	}
	return queryPage[grade.Grade](ctx, repo.db, gradeColumns, "grades", w, " ORDER BY student_id, subject_id", page)
}

func (repo gradeRepository) GetGrade(ctx context.Context, id string) (grade.Grade, error) {
	var g grade.Grade
	if err := get(ctx, repo.db, &g, "SELECT "+gradeColumns+" FROM grades WHERE id = ?", id); err != nil {
		return grade.Grade{}, trapNoRowsErr(err, grade.ErrNotFound, "finding grade")
	}
	return g, nil
}

func (repo gradeRepository) UpdateGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	n, err := exec(ctx, repo.db, "UPDATE grades SET score = ?, remark = ? WHERE id = ?", g.Score, g.Remark, g.ID)
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "updating grade")
	}
	if n == 0 {
		return grade.Grade{}, grade.ErrNotFound
	}
	return g, nil
}

func (repo gradeRepository) DeleteGrade(ctx context.Context, id string) error {
	n, err := exec(ctx, repo.db, "DELETE FROM grades WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	if n == 0 {
		return grade.ErrNotFound
	}
	return nil
}

func (repo gradeRepository) DeleteGrades(ctx context.Context, studentIDs, subjectIDs []string) (int, error) {
	if len(studentIDs) == 0 || len(subjectIDs) == 0 {
		return 0, nil
	}
	n, err := exec(ctx, repo.db, "DELETE FROM grades WHERE student_id IN (?) AND subject_id IN (?)", studentIDs, subjectIDs)
	if err != nil {
		return 0, errors.Wrap(err, "deleting grades")
	}
	return n, nil
}
