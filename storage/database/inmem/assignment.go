package inmemdb

import (
	"context"

	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	return repo.db.assignments.insert(asg, func(a *assignment.Assignment, pk int64) { a.ID = pk }), nil
}

func (repo *assignmentRepository) GetAssignment(_ context.Context, id int64) (assignment.Assignment, error) {
	if asg, ok := repo.db.assignments.get(id); ok {
		return asg, nil
	}
	return assignment.Assignment{}, core.NewNotFoundError("Assignment", id)
}

func (repo *assignmentRepository) QueryAssignments(_ context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	return repo.db.assignments.query(func(a assignment.Assignment) bool {
		return filter.GroupID == 0 || a.GroupID == filter.GroupID
	}), nil
}

func (repo *assignmentRepository) UpdateAssignmentStatus(_ context.Context, id int64, status assignment.Status) error {
	if !repo.db.assignments.update(id, func(a *assignment.Assignment) { a.Status = status }) {
		return core.NewNotFoundError("Assignment", id)
	}
	return nil
}

func (repo *assignmentRepository) CreateRef(_ context.Context, ref assignment.Ref, name string) (int64, error) {
	t, ok := repo.db.refs[ref]
	if !ok {
		return 0, assignment.ErrUnknownRef
	}
	var id int64
	t.insert(name, func(_ *string, pk int64) { id = pk })
	return id, nil
}

func (repo *assignmentRepository) RefExists(_ context.Context, ref assignment.Ref, id int64) (bool, error) {
	t, ok := repo.db.refs[ref]
	if !ok {
		return false, nil
	}
	_, ok = t.get(id)
	return ok, nil
}
