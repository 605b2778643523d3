package inmemdb

import (
	"context"

	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/identity"
	"github.com/douaaea/schoolhub/core/workreturn"
)

type workReturnRepository struct {
	db *DB
}

var _ workreturn.Repository = (*workReturnRepository)(nil)

func NewWorkReturnRepository(db *DB) *workReturnRepository {
	return &workReturnRepository{db: db}
}

func (repo *workReturnRepository) CreateWorkReturn(_ context.Context, wr workreturn.WorkReturn) (workreturn.WorkReturn, error) {
	return repo.db.workReturns.insert(wr, func(row *workreturn.WorkReturn, pk int64) { row.ID = pk }), nil
}

func (repo *workReturnRepository) GetWorkReturn(_ context.Context, id int64) (workreturn.WorkReturn, error) {
	if wr, ok := repo.db.workReturns.get(id); ok {
		return wr, nil
	}
	return workreturn.WorkReturn{}, core.NewNotFoundError("WorkReturn", id)
}

func (repo *workReturnRepository) QueryWorkReturns(_ context.Context, filter workreturn.QueryFilter) ([]workreturn.WorkReturn, error) {
	students := repo.db.identities[identity.Student]
	return repo.db.workReturns.query(func(wr workreturn.WorkReturn) bool {
		if wr.StudentID == nil {
			return false
		}
		if _, ok := students.get(*wr.StudentID); !ok {
			return false
		}
		switch {
		case filter.StudentID != 0:
			return *wr.StudentID == filter.StudentID
		case filter.GroupID != 0:
			if wr.AssignmentID == nil {
				return false
			}
			asg, ok := repo.db.assignments.get(*wr.AssignmentID)
			return ok && asg.GroupID == filter.GroupID
		}
		return true
	}), nil
}

func (repo *workReturnRepository) UpdateWorkReturnGrade(_ context.Context, id int64, g *int) error {
	if g != nil {
		v := *g
		g = &v
	}
	if !repo.db.workReturns.update(id, func(wr *workreturn.WorkReturn) { wr.Grade = g }) {
		return core.NewNotFoundError("WorkReturn", id)
	}
	return nil
}

func (repo *workReturnRepository) DeleteWorkReturn(_ context.Context, id int64) error {
	repo.db.workReturns.delete(id)
	return nil
}
