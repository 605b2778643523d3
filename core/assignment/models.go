package assignment

import (
	"context"
	"errors"
	"strings"
	"time"
)

type Status string

const (
	NotStarted Status = "Not Started"
	Submitted  Status = "SUBMITTED"
)

// Ref names a lookup table an assignment points to.
type Ref string

const (
	RefSubject Ref = "Subject"
	RefGroup   Ref = "Group"
	RefProgram Ref = "Program"
)

var ErrUnknownRef = errors.New("unknown reference table")

func ParseRef(s string) (Ref, error) {
	switch strings.ToLower(s) {
	case "subject":
		return RefSubject, nil
	case "group":
		return RefGroup, nil
	case "program":
		return RefProgram, nil
	}
	return "", ErrUnknownRef
}

type Assignment struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	DueAt       *time.Time `json:"dueAt" db:"due_at"`
	Status      Status     `json:"status" db:"status"`
	SubjectID   int64      `json:"subjectId" db:"subject_id"`
	GroupID     int64      `json:"groupId" db:"group_id"`
	ProgramID   int64      `json:"programId" db:"program_id"`
}

type NewAssignment struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"dueAt"`
	SubjectID   int64      `json:"subjectId"`
	GroupID     int64      `json:"groupId"`
	ProgramID   int64      `json:"programId"`
}

type QueryFilter struct {
	GroupID int64
}

type Repository interface {
	CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
	GetAssignment(ctx context.Context, id int64) (Assignment, error)
	QueryAssignments(ctx context.Context, filter QueryFilter) ([]Assignment, error)
	UpdateAssignmentStatus(ctx context.Context, id int64, status Status) error
	// CreateRef inserts a named row in the table named by ref.
	CreateRef(ctx context.Context, ref Ref, name string) (int64, error)
	// RefExists reports whether the row id exists in the table named by ref.
	RefExists(ctx context.Context, ref Ref, id int64) (bool, error)
}
