package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/assignment"
)

type assignmentRow struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	DueAt       null.Time `db:"due_at"`
	Status      string    `db:"status"`
	SubjectID   int64     `db:"subject_id"`
	GroupID     int64     `db:"group_id"`
	ProgramID   int64     `db:"program_id"`
}

func (row assignmentRow) toAssignment() assignment.Assignment {
	asg := assignment.Assignment{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Status:      assignment.Status(row.Status),
		SubjectID:   row.SubjectID,
		GroupID:     row.GroupID,
		ProgramID:   row.ProgramID,
	}
	if row.DueAt.Valid {
		due := row.DueAt.Time.UTC()
		asg.DueAt = &due
	}
	return asg
}

const assignmentColumns = "id, title, description, due_at, status, subject_id, group_id, program_id"

var refTables = map[assignment.Ref]string{
	assignment.RefSubject: "subjects",
	assignment.RefGroup:   "student_groups",
	assignment.RefProgram: "programs",
}

type assignmentRepository struct {
	repo
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(exec core.DBExecutor) *assignmentRepository {
	return &assignmentRepository{repo{exec: exec}}
}

func (r *assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	var due null.Time
	if asg.DueAt != nil {
		due = null.TimeFrom(asg.DueAt.UTC())
	}
	q := r.rebind(`INSERT INTO assignments (title, description, due_at, status, subject_id, group_id, program_id)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := r.exec.GetContext(ctx, &asg.ID, q,
		asg.Title, asg.Description, due, string(asg.Status), asg.SubjectID, asg.GroupID, asg.ProgramID)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return asg, nil
}

func (r *assignmentRepository) GetAssignment(ctx context.Context, id int64) (assignment.Assignment, error) {
	var row assignmentRow
	q := r.rebind("SELECT " + assignmentColumns + " FROM assignments WHERE id = ?")
	if err := r.exec.GetContext(ctx, &row, q, id); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, core.NewNotFoundError("Assignment", id), "selecting assignment")
	}
	return row.toAssignment(), nil
}

func (r *assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	q := "SELECT " + assignmentColumns + " FROM assignments"
	var args []interface{}
	if filter.GroupID != 0 {
		q += " WHERE group_id = ?"
		args = append(args, filter.GroupID)
	}
	q += " ORDER BY id"

	var rows []assignmentRow
	if err := r.exec.SelectContext(ctx, &rows, r.rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting assignments")
	}
	res := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toAssignment())
	}
	return res, nil
}

func (r *assignmentRepository) UpdateAssignmentStatus(ctx context.Context, id int64, status assignment.Status) error {
	res, err := r.exec.ExecContext(ctx, r.rebind("UPDATE assignments SET status = ? WHERE id = ?"), string(status), id)
	if err != nil {
		return errors.Wrap(err, "updating assignment status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NewNotFoundError("Assignment", id)
	}
	return nil
}

func (r *assignmentRepository) CreateRef(ctx context.Context, ref assignment.Ref, name string) (int64, error) {
	table, ok := refTables[ref]
	if !ok {
		return 0, assignment.ErrUnknownRef
	}
	var id int64
	if err := r.exec.GetContext(ctx, &id, r.rebind("INSERT INTO "+table+" (name) VALUES (?) RETURNING id"), name); err != nil {
		return 0, errors.Wrapf(err, "inserting into %s", table)
	}
	return id, nil
}

func (r *assignmentRepository) RefExists(ctx context.Context, ref assignment.Ref, id int64) (bool, error) {
	table, ok := refTables[ref]
	if !ok {
		return false, assignment.ErrUnknownRef
	}
	var n int
	if err := r.exec.GetContext(ctx, &n, r.rebind("SELECT COUNT(*) FROM "+table+" WHERE id = ?"), id); err != nil {
		return false, errors.Wrapf(err, "checking %s", table)
	}
	return n > 0, nil
}
