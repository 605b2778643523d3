package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/grade"
)

type gradeRow struct {
	ID           int64        `db:"id"`
	Score        null.Float64 `db:"score"`
	StudentID    int64        `db:"student_id"`
	SubjectID    null.Int64   `db:"subject_id"`
	AssignmentID int64        `db:"assignment_id"`
}

func (row gradeRow) toGrade() grade.Grade {
	return grade.Grade{
		ID:           row.ID,
		Score:        row.Score.Ptr(),
		StudentID:    row.StudentID,
		SubjectID:    row.SubjectID.Ptr(),
		AssignmentID: row.AssignmentID,
	}
}

const gradeColumns = "id, score, student_id, subject_id, assignment_id"

type gradeRepository struct {
	repo
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(exec core.DBExecutor) *gradeRepository {
	return &gradeRepository{repo{exec: exec}}
}

func (r *gradeRepository) FindGrade(ctx context.Context, studentID, assignmentID int64) (grade.Grade, error) {
	var row gradeRow
	q := r.rebind("SELECT " + gradeColumns + " FROM grades WHERE student_id = ? AND assignment_id = ? ORDER BY id LIMIT 1")
	if err := r.exec.GetContext(ctx, &row, q, studentID, assignmentID); err != nil {
		return grade.Grade{}, trapNoRowsErr(err, core.NewNotFoundError("Grade", 0), "selecting grade")
	}
	return row.toGrade(), nil
}

func (r *gradeRepository) CreateGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	q := r.rebind("INSERT INTO grades (score, student_id, subject_id, assignment_id) VALUES (?, ?, ?, ?) RETURNING id")
	err := r.exec.GetContext(ctx, &g.ID, q,
		null.Float64FromPtr(g.Score), g.StudentID, null.Int64FromPtr(g.SubjectID), g.AssignmentID)
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return g, nil
}

func (r *gradeRepository) UpdateGradeScore(ctx context.Context, id int64, score *float64) error {
	res, err := r.exec.ExecContext(ctx, r.rebind("UPDATE grades SET score = ? WHERE id = ?"), null.Float64FromPtr(score), id)
	if err != nil {
		return errors.Wrap(err, "updating grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NewNotFoundError("Grade", id)
	}
	return nil
}

func (r *gradeRepository) GetGrade(ctx context.Context, id int64) (grade.Grade, error) {
	var row gradeRow
	q := r.rebind("SELECT " + gradeColumns + " FROM grades WHERE id = ?")
	if err := r.exec.GetContext(ctx, &row, q, id); err != nil {
		return grade.Grade{}, trapNoRowsErr(err, core.NewNotFoundError("Grade", id), "selecting grade")
	}
	return row.toGrade(), nil
}

func (r *gradeRepository) QueryGrades(ctx context.Context, filter grade.QueryFilter) ([]grade.Grade, error) {
	q := "SELECT " + gradeColumns + " FROM grades WHERE 1 = 1"
	var args []interface{}
	if filter.StudentID != 0 {
		q += " AND student_id = ?"
		args = append(args, filter.StudentID)
	}
	if filter.AssignmentID != 0 {
		q += " AND assignment_id = ?"
		args = append(args, filter.AssignmentID)
	}
	q += " ORDER BY id"

	var rows []gradeRow
	if err := r.exec.SelectContext(ctx, &rows, r.rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting grades")
	}
	res := make([]grade.Grade, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toGrade())
	}
	return res, nil
}
