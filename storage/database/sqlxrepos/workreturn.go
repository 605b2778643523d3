package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/workreturn"
)

type workReturnRow struct {
	ID           int64      `db:"id"`
	FilePath     string     `db:"file_path"`
	Grade        null.Int   `db:"grade"`
	StudentID    null.Int64 `db:"student_id"`
	AssignmentID null.Int64 `db:"assignment_id"`
	SubmittedAt  null.Time  `db:"submitted_at"`
}

func (row workReturnRow) toWorkReturn() workreturn.WorkReturn {
	return workreturn.WorkReturn{
		ID:           row.ID,
		FilePath:     row.FilePath,
		Grade:        row.Grade.Ptr(),
		StudentID:    row.StudentID.Ptr(),
		AssignmentID: row.AssignmentID.Ptr(),
		SubmittedAt:  row.SubmittedAt.Time.UTC(),
	}
}

const workReturnColumns = "wr.id, wr.file_path, wr.grade, wr.student_id, wr.assignment_id, wr.submitted_at"

type workReturnRepository struct {
	repo
}

var _ workreturn.Repository = (*workReturnRepository)(nil) // interface compliance check

func NewWorkReturnRepository(exec core.DBExecutor) *workReturnRepository {
	return &workReturnRepository{repo{exec: exec}}
}

func (r *workReturnRepository) CreateWorkReturn(ctx context.Context, wr workreturn.WorkReturn) (workreturn.WorkReturn, error) {
	q := r.rebind(`INSERT INTO work_returns (file_path, grade, student_id, assignment_id, submitted_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`)
	err := r.exec.GetContext(ctx, &wr.ID, q,
		wr.FilePath, null.IntFromPtr(wr.Grade), null.Int64FromPtr(wr.StudentID), null.Int64FromPtr(wr.AssignmentID), wr.SubmittedAt.UTC())
	if err != nil {
		return workreturn.WorkReturn{}, errors.Wrap(err, "inserting work return")
	}
	return wr, nil
}

func (r *workReturnRepository) GetWorkReturn(ctx context.Context, id int64) (workreturn.WorkReturn, error) {
	var row workReturnRow
	q := r.rebind("SELECT " + workReturnColumns + " FROM work_returns wr WHERE wr.id = ?")
	if err := r.exec.GetContext(ctx, &row, q, id); err != nil {
		return workreturn.WorkReturn{}, trapNoRowsErr(err, core.NewNotFoundError("WorkReturn", id), "selecting work return")
	}
	return row.toWorkReturn(), nil
}

// QueryWorkReturns joins students so records whose student is gone are left out.
func (r *workReturnRepository) QueryWorkReturns(ctx context.Context, filter workreturn.QueryFilter) ([]workreturn.WorkReturn, error) {
	q := "SELECT " + workReturnColumns + " FROM work_returns wr JOIN students s ON s.id = wr.student_id"
	var args []interface{}
	switch {
	case filter.StudentID != 0:
		q += " WHERE wr.student_id = ?"
		args = append(args, filter.StudentID)
	case filter.GroupID != 0:
		q += " JOIN assignments a ON a.id = wr.assignment_id WHERE a.group_id = ?"
		args = append(args, filter.GroupID)
	}
	q += " ORDER BY wr.id"

	var rows []workReturnRow
	if err := r.exec.SelectContext(ctx, &rows, r.rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting work returns")
	}
	res := make([]workreturn.WorkReturn, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toWorkReturn())
	}
	return res, nil
}

func (r *workReturnRepository) UpdateWorkReturnGrade(ctx context.Context, id int64, grade *int) error {
	res, err := r.exec.ExecContext(ctx, r.rebind("UPDATE work_returns SET grade = ? WHERE id = ?"), null.IntFromPtr(grade), id)
	if err != nil {
		return errors.Wrap(err, "updating work return grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NewNotFoundError("WorkReturn", id)
	}
	return nil
}

func (r *workReturnRepository) DeleteWorkReturn(ctx context.Context, id int64) error {
	if _, err := r.exec.ExecContext(ctx, r.rebind("DELETE FROM work_returns WHERE id = ?"), id); err != nil {
		return errors.Wrap(err, "deleting work return")
	}
	return nil
}
