package assignment

import (
	"context"

	"github.com/pkg/errors"

	"github.com/douaaea/schoolhub/core"
)

// Lifecycle owns the status transitions of an assignment.
// The only transition is NotStarted -> Submitted, triggered by any student's submission
// and never reverted.
type Lifecycle struct {
	repo Repository
}

func NewLifecycle(repo Repository) *Lifecycle {
	return &Lifecycle{repo: repo}
}

func (Lifecycle) Initial() Status { return NotStarted }

// MarkSubmitted sets the status to Submitted. Calling it on a submitted assignment is a no-op write.
func (lc *Lifecycle) MarkSubmitted(ctx context.Context, id int64) error {
	if _, err := lc.repo.GetAssignment(ctx, id); err != nil {
		return err
	}
	if err := lc.repo.UpdateAssignmentStatus(ctx, id, Submitted); err != nil {
		return errors.Wrap(err, "updating assignment status")
	}
	return nil
}

var errRefsRequired = errors.New("Subject, group, and program are required")

type Service struct {
	repo      Repository
	lifecycle *Lifecycle
}

func NewService(repo Repository, lifecycle *Lifecycle) *Service {
	return &Service{repo: repo, lifecycle: lifecycle}
}

func (svc *Service) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	if na.SubjectID == 0 || na.GroupID == 0 || na.ProgramID == 0 {
		return Assignment{}, core.NewValidationError(errRefsRequired)
	}
	refs := []struct {
		ref Ref
		id  int64
	}{{RefSubject, na.SubjectID}, {RefGroup, na.GroupID}, {RefProgram, na.ProgramID}}
	for _, r := range refs {
		ok, err := svc.repo.RefExists(ctx, r.ref, r.id)
		if err != nil {
			return Assignment{}, errors.Wrapf(err, "checking %s", r.ref)
		}
		if !ok {
			return Assignment{}, core.NewValidationError(errors.Errorf("%s not found", r.ref))
		}
	}

	asg := Assignment{
		Title:       na.Title,
		Description: na.Description,
		DueAt:       na.DueAt,
		Status:      svc.lifecycle.Initial(),
		SubjectID:   na.SubjectID,
		GroupID:     na.GroupID,
		ProgramID:   na.ProgramID,
	}
	return svc.repo.CreateAssignment(ctx, asg)
}

func (svc *Service) Get(ctx context.Context, id int64) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, filter)
}
