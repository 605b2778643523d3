package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/douaaea/schoolhub/core/assignment"
	"github.com/douaaea/schoolhub/core/identity"
	"github.com/douaaea/schoolhub/storage/database"
)

// PrepareSQLite returns a migrated private in-memory database closed at the end of the test.
func PrepareSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	return db
}

func CreateIdentity(t *testing.T, repo identity.Repository, kind identity.Kind, first, last, email, pwd string) identity.Identity {
	t.Helper()
	idn, err := repo.CreateIdentity(context.Background(), identity.Identity{
		Kind:      kind,
		FirstName: first,
		LastName:  last,
		Email:     email,
		Password:  pwd,
	})
	if err != nil {
		t.Fatalf("CreateIdentity() failed: %v", err)
	}
	idn.Kind = kind
	return idn
}

func CreateStudent(t *testing.T, repo identity.Repository, email string) identity.Identity {
	return CreateIdentity(t, repo, identity.Student, "Student", "Test", email, "secret")
}

func CreateRef(t *testing.T, repo assignment.Repository, ref assignment.Ref, name string) int64 {
	t.Helper()
	id, err := repo.CreateRef(context.Background(), ref, name)
	if err != nil {
		t.Fatalf("CreateRef() failed: %v", err)
	}
	return id
}

// CreateAssignment creates a not started assignment along with its subject, group and program.
func CreateAssignment(t *testing.T, repo assignment.Repository, title string) assignment.Assignment {
	t.Helper()
	due := time.Now().UTC().Add(7 * 24 * time.Hour).Truncate(time.Second)
	asg, err := repo.CreateAssignment(context.Background(), assignment.Assignment{
		Title:     title,
		DueAt:     &due,
		Status:    assignment.NotStarted,
		SubjectID: CreateRef(t, repo, assignment.RefSubject, title+" subject"),
		GroupID:   CreateRef(t, repo, assignment.RefGroup, title+" group"),
		ProgramID: CreateRef(t, repo, assignment.RefProgram, title+" program"),
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return asg
}
