package grade

import (
	"context"

	"github.com/pkg/errors"

	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/assignment"
	"github.com/douaaea/schoolhub/core/identity"
)

type Outcome string

const (
	Created Outcome = "created"
	Updated Outcome = "updated"
)

// Ledger keeps at most one grade per (student, assignment) pair in the common case.
//
// Upsert is a find followed by a write with no lock or unique constraint in between:
// two concurrent upserts for a new pair both insert. Callers needing strict uniqueness
// have to add a unique index and retry on conflict.
type Ledger struct {
	repo Repository
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// Upsert records score for the student on asg; a nil score clears it.
// The subject is copied from the assignment on create.
func (l *Ledger) Upsert(ctx context.Context, studentID int64, asg assignment.Assignment, score *float64) (Grade, Outcome, error) {
	existing, err := l.repo.FindGrade(ctx, studentID, asg.ID)
	switch {
	case err == nil:
		if err := l.repo.UpdateGradeScore(ctx, existing.ID, score); err != nil {
			return Grade{}, "", errors.Wrap(err, "updating grade")
		}
		existing.Score = score
		return existing, Updated, nil
	case core.IsNotFound(err):
	default:
		return Grade{}, "", errors.Wrap(err, "finding grade")
	}

	g := Grade{
		Score:        score,
		StudentID:    studentID,
		AssignmentID: asg.ID,
	}
	if asg.SubjectID != 0 {
		subjectID := asg.SubjectID
		g.SubjectID = &subjectID
	}
	g, err = l.repo.CreateGrade(ctx, g)
	if err != nil {
		return Grade{}, "", errors.Wrap(err, "creating grade")
	}
	return g, Created, nil
}

// Service exposes the ledger directly. Scores recorded here are not range checked.
type Service struct {
	repo        Repository
	ledger      *Ledger
	assignments assignment.Repository
	identities  identity.Repository
}

func NewService(repo Repository, ledger *Ledger, assignments assignment.Repository, identities identity.Repository) *Service {
	return &Service{repo: repo, ledger: ledger, assignments: assignments, identities: identities}
}

func (svc *Service) Upsert(ctx context.Context, ug UpsertGrade) (Grade, Outcome, error) {
	if _, err := svc.identities.GetIdentityByID(ctx, identity.Student, ug.StudentID); err != nil {
		if errors.Cause(err) == identity.ErrNotFound {
			return Grade{}, "", core.NewNotFoundError("Student", ug.StudentID)
		}
		return Grade{}, "", errors.Wrap(err, "finding student")
	}
	asg, err := svc.assignments.GetAssignment(ctx, ug.AssignmentID)
	if err != nil {
		return Grade{}, "", err
	}
	return svc.ledger.Upsert(ctx, ug.StudentID, asg, ug.Score)
}

func (svc *Service) Get(ctx context.Context, id int64) (Grade, error) {
	return svc.repo.GetGrade(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Grade, error) {
	return svc.repo.QueryGrades(ctx, filter)
}
