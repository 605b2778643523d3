package workreturn

import (
	"context"

	"github.com/pkg/errors"

	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/assignment"
	"github.com/douaaea/schoolhub/core/grade"
	"github.com/douaaea/schoolhub/core/identity"
)

const (
	MinGrade = 0
	MaxGrade = 100
)

var (
	errGradeRange     = errors.New("Grade must be between 0 and 100")
	errMissingParties = errors.New("Student or assignment missing")
)

// Grader grades a single WorkReturn. It writes the ledger first and the WorkReturn second,
// as two independent writes: if the second fails the ledger keeps the new score.
type Grader struct {
	repo        Repository
	identities  identity.Repository
	assignments assignment.Repository
	ledger      *grade.Ledger
}

func NewGrader(repo Repository, identities identity.Repository, assignments assignment.Repository, ledger *grade.Ledger) *Grader {
	return &Grader{repo: repo, identities: identities, assignments: assignments, ledger: ledger}
}

// Grade sets the grade of the WorkReturn id and of its ledger entry. A nil score clears both.
func (g *Grader) Grade(ctx context.Context, id int64, score *int) (WorkReturn, grade.Outcome, error) {
	wr, err := g.repo.GetWorkReturn(ctx, id)
	if err != nil {
		return WorkReturn{}, "", err
	}
	if score != nil && (*score < MinGrade || *score > MaxGrade) {
		return WorkReturn{}, "", core.NewValidationError(errGradeRange)
	}
	if wr.StudentID == nil || wr.AssignmentID == nil {
		return WorkReturn{}, "", core.NewValidationError(errMissingParties)
	}

	student, err := g.identities.GetIdentityByID(ctx, identity.Student, *wr.StudentID)
	if err != nil {
		if errors.Cause(err) == identity.ErrNotFound {
			return WorkReturn{}, "", core.NewValidationError(errMissingParties)
		}
		return WorkReturn{}, "", errors.Wrap(err, "finding student")
	}
	asg, err := g.assignments.GetAssignment(ctx, *wr.AssignmentID)
	if err != nil {
		if core.IsNotFound(err) {
			return WorkReturn{}, "", core.NewValidationError(errMissingParties)
		}
		return WorkReturn{}, "", errors.Wrap(err, "finding assignment")
	}

	var ledgerScore *float64
	if score != nil {
		s := float64(*score)
		ledgerScore = &s
	}
	_, outcome, err := g.ledger.Upsert(ctx, student.ID, asg, ledgerScore)
	if err != nil {
		return WorkReturn{}, "", errors.Wrap(err, "recording grade")
	}
	if err := g.repo.UpdateWorkReturnGrade(ctx, wr.ID, score); err != nil {
		return WorkReturn{}, outcome, errors.Wrap(err, "updating work return grade")
	}
	wr.Grade = score
	return wr, outcome, nil
}
