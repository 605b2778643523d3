package identity

import "context"

// Provider looks identities of a single Kind up by email.
type Provider interface {
	Kind() Kind
	// Lookup returns ErrNotFound when the store holds no such email.
	Lookup(ctx context.Context, email string) (Identity, error)
}

type repoProvider struct {
	kind Kind
	repo Repository
}

var _ Provider = (*repoProvider)(nil)

func NewProvider(kind Kind, repo Repository) Provider {
	return &repoProvider{kind: kind, repo: repo}
}

func (p *repoProvider) Kind() Kind { return p.kind }

func (p *repoProvider) Lookup(ctx context.Context, email string) (Identity, error) {
	idn, err := p.repo.GetIdentityByEmail(ctx, p.kind, email)
	if err != nil {
		return Identity{}, err
	}
	idn.Kind = p.kind
	return idn, nil
}

// Providers returns one repository backed Provider per kind, in the given order.
func Providers(repo Repository, order ...Kind) []Provider {
	if len(order) == 0 {
		order = DefaultOrder
	}
	providers := make([]Provider, 0, len(order))
	for _, kind := range order {
		providers = append(providers, NewProvider(kind, repo))
	}
	return providers
}
