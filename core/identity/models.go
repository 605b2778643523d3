package identity

import (
	"context"
	"errors"
)

// Kind is one of the three disjoint identity classes.
// Ids are unique within a Kind only.
type Kind string

const (
	Student Kind = "student"
	Teacher Kind = "teacher"
	Admin   Kind = "admin"
)

// DefaultOrder is the priority in which identity stores are consulted at login:
// when the same credential pair exists in several stores, the earliest kind wins.
var DefaultOrder = []Kind{Student, Teacher, Admin}

var (
	ErrNotFound        = errors.New("identity not found")
	ErrUnauthenticated = errors.New("invalid credentials")
	ErrUnknownKind     = errors.New("unknown identity kind")
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Student, Teacher, Admin:
		return k, nil
	}
	return "", ErrUnknownKind
}

type Identity struct {
	ID        int64  `json:"id" db:"id"`
	Kind      Kind   `json:"-" db:"-"`
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName" db:"last_name"`
	Email     string `json:"email" db:"email"`
	Password  string `json:"-" db:"password"`
}

// Descriptor is what a successful login returns. No token or session is issued.
type Descriptor struct {
	Role  Kind   `json:"role"`
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type Repository interface {
	CreateIdentity(ctx context.Context, idn Identity) (Identity, error)
	GetIdentityByID(ctx context.Context, kind Kind, id int64) (Identity, error)
	// GetIdentityByEmail matches the email exactly as given.
	GetIdentityByEmail(ctx context.Context, kind Kind, email string) (Identity, error)
	UpdateIdentity(ctx context.Context, idn Identity) (Identity, error)
}
