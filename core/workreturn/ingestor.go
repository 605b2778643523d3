package workreturn

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/artifact"
	"github.com/douaaea/schoolhub/core/assignment"
	"github.com/douaaea/schoolhub/core/identity"
)

// Submission steps, in execution order.
const (
	StepStoreArtifact    = "store-artifact"
	StepRecordWorkReturn = "record-work-return"
	StepMarkSubmitted    = "mark-submitted"
)

var (
	errIDsRequired     = errors.New("Assignment ID and Student ID are required")
	errEmptyFile       = errors.New("File is empty or missing")
	errUnsupportedType = errors.New("Only PDF, DOC, DOCX files are allowed")

	allowedExts = map[string]bool{"pdf": true, "doc": true, "docx": true}
)

type File struct {
	Name    string
	Size    int64
	Content io.Reader
}

type Submission struct {
	AssignmentID int64
	StudentID    int64
	File         *File
}

type Receipt struct {
	WorkReturnID int64  `json:"id"`
	Locator      string `json:"fileUrl"`
}

// StepError reports the submission step that failed. Steps completed before it are not undone.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return e.Err.Error()
}

func (e *StepError) Unwrap() error { return e.Err }

// StepObserver is called after every attempted step with its outcome.
type StepObserver func(step string, err error)

type step struct {
	name string
	run  func(ctx context.Context, st *submitState) error
}

type submitState struct {
	sub Submission
	key string
	wr  WorkReturn
}

// Ingestor turns an uploaded file into a stored artifact, a WorkReturn and an assignment
// status change. The steps run in order without a transaction: a failure leaves the effects
// of the previous steps in place.
type Ingestor struct {
	repo        Repository
	identities  identity.Repository
	assignments assignment.Repository
	lifecycle   *assignment.Lifecycle
	store       artifact.Store
	observe     StepObserver
	now         func() time.Time
	steps       []step
}

func NewIngestor(
	repo Repository,
	identities identity.Repository,
	assignments assignment.Repository,
	lifecycle *assignment.Lifecycle,
	store artifact.Store,
	observer StepObserver,
) *Ingestor {
	ing := &Ingestor{
		repo:        repo,
		identities:  identities,
		assignments: assignments,
		lifecycle:   lifecycle,
		store:       store,
		observe:     observer,
		now:         func() time.Time { return time.Now().UTC() },
	}
	ing.steps = []step{
		{StepStoreArtifact, ing.storeArtifact},
		{StepRecordWorkReturn, ing.recordWorkReturn},
		{StepMarkSubmitted, ing.markSubmitted},
	}
	return ing
}

func validateSubmission(sub Submission) error {
	if sub.AssignmentID == 0 || sub.StudentID == 0 {
		return core.NewValidationError(errIDsRequired)
	}
	if sub.File == nil || sub.File.Content == nil || sub.File.Size <= 0 {
		return core.NewValidationError(errEmptyFile)
	}
	if !allowedExts[artifact.Ext(sub.File.Name)] || artifact.BaseName(sub.File.Name) == "" {
		return core.NewValidationError(errUnsupportedType)
	}
	return nil
}

// Submit validates the submission, resolves its references and runs the submission steps.
func (ing *Ingestor) Submit(ctx context.Context, sub Submission) (Receipt, error) {
	if err := validateSubmission(sub); err != nil {
		return Receipt{}, err
	}

	if _, err := ing.identities.GetIdentityByID(ctx, identity.Student, sub.StudentID); err != nil {
		if errors.Cause(err) == identity.ErrNotFound {
			return Receipt{}, core.NewNotFoundError("Student", sub.StudentID)
		}
		return Receipt{}, errors.Wrap(err, "finding student")
	}
	if _, err := ing.assignments.GetAssignment(ctx, sub.AssignmentID); err != nil {
		if core.IsNotFound(err) {
			return Receipt{}, err
		}
		return Receipt{}, errors.Wrap(err, "finding assignment")
	}

	st := &submitState{sub: sub}
	for _, s := range ing.steps {
		err := s.run(ctx, st)
		if ing.observe != nil {
			ing.observe(s.name, err)
		}
		if err != nil {
			return Receipt{}, &StepError{Step: s.name, Err: err}
		}
	}
	return Receipt{WorkReturnID: st.wr.ID, Locator: st.wr.FilePath}, nil
}

func (ing *Ingestor) storeArtifact(ctx context.Context, st *submitState) error {
	key := artifact.NewKey(st.sub.File.Name)
	if err := ing.store.Put(ctx, key, st.sub.File.Content); err != nil {
		return core.NewStorageError("store", key, err)
	}
	st.key = key
	return nil
}

func (ing *Ingestor) recordWorkReturn(ctx context.Context, st *submitState) error {
	studentID, assignmentID := st.sub.StudentID, st.sub.AssignmentID
	wr, err := ing.repo.CreateWorkReturn(ctx, WorkReturn{
		FilePath:     artifact.Locator(st.key),
		StudentID:    &studentID,
		AssignmentID: &assignmentID,
		SubmittedAt:  ing.now(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to save work return")
	}
	st.wr = wr
	return nil
}

func (ing *Ingestor) markSubmitted(ctx context.Context, st *submitState) error {
	if err := ing.lifecycle.MarkSubmitted(ctx, st.sub.AssignmentID); err != nil {
		return errors.Wrap(err, "failed to update assignment status")
	}
	return nil
}
