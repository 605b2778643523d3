package grade

import "context"

// Grade is the authoritative score of a student for an assignment.
// Nothing in the schema prevents two grades for the same pair; readers take the lowest id.
type Grade struct {
	ID           int64    `json:"id" db:"id"`
	Score        *float64 `json:"score" db:"score"`
	StudentID    int64    `json:"studentId" db:"student_id"`
	SubjectID    *int64   `json:"subjectId" db:"subject_id"`
	AssignmentID int64    `json:"assignmentId" db:"assignment_id"`
}

type QueryFilter struct {
	StudentID    int64
	AssignmentID int64
}

type Repository interface {
	// FindGrade returns the grade with the lowest id for the pair, or a core.NotFoundError.
	FindGrade(ctx context.Context, studentID, assignmentID int64) (Grade, error)
	CreateGrade(ctx context.Context, g Grade) (Grade, error)
	// UpdateGradeScore sets the score; nil stores NULL.
	UpdateGradeScore(ctx context.Context, id int64, score *float64) error
	GetGrade(ctx context.Context, id int64) (Grade, error)
	QueryGrades(ctx context.Context, filter QueryFilter) ([]Grade, error)
}

type UpsertGrade struct {
	StudentID    int64    `json:"studentId" validate:"required"`
	AssignmentID int64    `json:"assignmentId" validate:"required"`
	Score        *float64 `json:"score" validate:"required"`
}
