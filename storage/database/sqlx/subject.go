package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/subject"
)

type subjectRepository struct {
	db core.DB
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db core.DB) *subjectRepository {
	return &subjectRepository{db: db}
}

func (repo subjectRepository) CreateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	if _, err := exec(ctx, repo.db, "INSERT INTO subjects (id, name) VALUES (?, ?)", sub.ID, sub.Name); err != nil {
		if vErr := nameTaken(err, subject.ErrNameExists); vErr != nil {
			return subject.Subject{}, vErr
		}
		return subject.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return sub, nil
}

func (repo subjectRepository) QuerySubjects(ctx context.Context, filter subject.QueryFilter, page core.Pagination) ([]subject.Subject, int, error) {
	var w where
	if filter.Search != "" {
		w.add("LOWER(name) LIKE ?", likeArg(filter.Search))
	}
	if len(filter.IDs) > 0 {
		w.add("id IN (?)", filter.IDs)
	}
	return queryPage[subject.Subject](ctx, repo.db, "id, name", "subjects", w, " ORDER BY name, id", page)
}

func (repo subjectRepository) GetSubject(ctx context.Context, id string) (subject.Subject, error) {
	var sub subject.Subject
	if err := get(ctx, repo.db, &sub, "SELECT id, name FROM subjects WHERE id = ?", id); err != nil {
		return subject.Subject{}, trapNoRowsErr(err, subject.ErrNotFound, "finding subject")
	}
	return sub, nil
}

func (repo subjectRepository) NameExists(ctx context.Context, name string, excludedIDs ...string) (bool, error) {
	var w where
	w.add("name = ?", name)
	if len(excludedIDs) > 0 {
		w.add("id NOT IN (?)", excludedIDs)
	}
	found, err := exists(ctx, repo.db, "SELECT 1 FROM subjects"+w.String(), w.args...)
	return found, errors.Wrap(err, "checking subject name")
}

func (repo subjectRepository) IsReferenced(ctx context.Context, id string) (bool, error) {
	found, err := exists(
		ctx, repo.db,
		"SELECT 1 FROM grades WHERE subject_id = ? UNION ALL SELECT 1 FROM assignments WHERE subject_id = ?",
		id, id,
	)
	return found, errors.Wrap(err, "checking subject references")
}

func (repo subjectRepository) UpdateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	n, err := exec(ctx, repo.db, "UPDATE subjects SET name = ? WHERE id = ?", sub.Name, sub.ID)
	if err != nil {
		if vErr := nameTaken(err, subject.ErrNameExists); vErr != nil {
			return subject.Subject{}, vErr
		}
		return subject.Subject{}, errors.Wrap(err, "updating subject")
	}
	if n == 0 {
		return subject.Subject{}, subject.ErrNotFound
	}
	return sub, nil
}

func (repo subjectRepository) DeleteSubject(ctx context.Context, id string) error {
	n, err := exec(ctx, repo.db, "DELETE FROM subjects WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	if n == 0 {
		return subject.ErrNotFound
	}
	return nil
}
