package workreturn

import (
	"context"
	"time"
)

// WorkReturn is one submitted artifact of a student for an assignment.
// Several may exist for the same pair.
type WorkReturn struct {
	ID           int64     `json:"id" db:"id"`
	FilePath     string    `json:"fileUrl" db:"file_path"`
	Grade        *int      `json:"grade" db:"grade"`
	StudentID    *int64    `json:"studentId" db:"student_id"`
	AssignmentID *int64    `json:"assignmentId" db:"assignment_id"`
	SubmittedAt  time.Time `json:"submittedAt" db:"submitted_at"`
}

// QueryFilter narrows a listing. StudentID wins over GroupID, which matches the assignment's group.
type QueryFilter struct {
	StudentID int64
	GroupID   int64
}

type Repository interface {
	CreateWorkReturn(ctx context.Context, wr WorkReturn) (WorkReturn, error)
	GetWorkReturn(ctx context.Context, id int64) (WorkReturn, error)
	// QueryWorkReturns never returns records whose student cannot be resolved.
	QueryWorkReturns(ctx context.Context, filter QueryFilter) ([]WorkReturn, error)
	// UpdateWorkReturnGrade sets the grade; nil stores NULL.
	UpdateWorkReturnGrade(ctx context.Context, id int64, grade *int) error
	DeleteWorkReturn(ctx context.Context, id int64) error
}
