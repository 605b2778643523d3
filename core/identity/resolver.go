package identity

import (
	"context"

	"github.com/pkg/errors"
)

// Resolver determines which identity store owns a credential pair.
type Resolver struct {
	providers []Provider
	verifier  CredentialVerifier
}

func NewResolver(verifier CredentialVerifier, providers ...Provider) *Resolver {
	if verifier == nil {
		verifier = PlainVerifier{}
	}
	return &Resolver{providers: providers, verifier: verifier}
}

// Resolve tries every provider in priority order and returns the first match.
// It fails with ErrUnauthenticated when no store matches, without telling which store came close.
func (r *Resolver) Resolve(ctx context.Context, email, password string) (Descriptor, error) {
	for _, p := range r.providers {
		idn, err := p.Lookup(ctx, email)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				continue
			}
			return Descriptor{}, errors.Wrapf(err, "looking up %s", p.Kind())
		}
		if !r.verifier.Verify(idn.Password, password) {
			continue
		}
		return Descriptor{Role: p.Kind(), ID: idn.ID, Email: idn.Email}, nil
	}
	return Descriptor{}, ErrUnauthenticated
}

// Service manages identities on behalf of the admin tooling.
type Service struct {
	repo     Repository
	verifier CredentialVerifier
}

func NewService(repo Repository, verifier CredentialVerifier) *Service {
	return &Service{repo: repo, verifier: verifier}
}

// Save updates the identity registered under email for kind, or creates it.
func (svc *Service) Save(ctx context.Context, idn Identity, password string) (Identity, error) {
	encoded, err := svc.verifier.Encode(password)
	if err != nil {
		return Identity{}, errors.Wrap(err, "encoding credential")
	}

	existing, err := svc.repo.GetIdentityByEmail(ctx, idn.Kind, idn.Email)
	switch {
	case err == nil:
		existing.Kind = idn.Kind
		existing.Password = encoded
		if idn.FirstName != "" {
			existing.FirstName = idn.FirstName
		}
		if idn.LastName != "" {
			existing.LastName = idn.LastName
		}
		return svc.repo.UpdateIdentity(ctx, existing)
	case errors.Cause(err) == ErrNotFound:
		idn.Password = encoded
		return svc.repo.CreateIdentity(ctx, idn)
	default:
		return Identity{}, errors.Wrap(err, "finding identity by email")
	}
}

func (svc *Service) Get(ctx context.Context, kind Kind, id int64) (Identity, error) {
	return svc.repo.GetIdentityByID(ctx, kind, id)
}
