package inmemdb

import (
	"context"

	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/grade"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *DB) *gradeRepository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) FindGrade(_ context.Context, studentID, assignmentID int64) (grade.Grade, error) {
	found := repo.db.grades.query(func(g grade.Grade) bool {
		return g.StudentID == studentID && g.AssignmentID == assignmentID
	})
	if len(found) == 0 {
		return grade.Grade{}, core.NewNotFoundError("Grade", 0)
	}
	return found[0], nil
}

func (repo *gradeRepository) CreateGrade(_ context.Context, g grade.Grade) (grade.Grade, error) {
	return repo.db.grades.insert(g, func(row *grade.Grade, pk int64) { row.ID = pk }), nil
}

func (repo *gradeRepository) UpdateGradeScore(_ context.Context, id int64, score *float64) error {
	if score != nil {
		s := *score
		score = &s
	}
	if !repo.db.grades.update(id, func(g *grade.Grade) { g.Score = score }) {
		return core.NewNotFoundError("Grade", id)
	}
	return nil
}

func (repo *gradeRepository) GetGrade(_ context.Context, id int64) (grade.Grade, error) {
	if g, ok := repo.db.grades.get(id); ok {
		return g, nil
	}
	return grade.Grade{}, core.NewNotFoundError("Grade", id)
}

func (repo *gradeRepository) QueryGrades(_ context.Context, filter grade.QueryFilter) ([]grade.Grade, error) {
	return repo.db.grades.query(func(g grade.Grade) bool {
		return (filter.StudentID == 0 || g.StudentID == filter.StudentID) &&
			(filter.AssignmentID == 0 || g.AssignmentID == filter.AssignmentID)
	}), nil
}
