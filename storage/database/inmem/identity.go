package inmemdb

import (
	"context"

	"github.com/pkg/errors"

	"github.com/douaaea/schoolhub/core/identity"
)

type identityRepository struct {
	db *DB
}

var _ identity.Repository = (*identityRepository)(nil)

func NewIdentityRepository(db *DB) *identityRepository {
	return &identityRepository{db: db}
}

func (repo *identityRepository) table(kind identity.Kind) (*table[identity.Identity], error) {
	t, ok := repo.db.identities[kind]
	if !ok {
		return nil, identity.ErrUnknownKind
	}
	return t, nil
}

func (repo *identityRepository) CreateIdentity(_ context.Context, idn identity.Identity) (identity.Identity, error) {
	t, err := repo.table(idn.Kind)
	if err != nil {
		return identity.Identity{}, err
	}
	if len(t.query(func(i identity.Identity) bool { return i.Email == idn.Email })) > 0 {
		return identity.Identity{}, errors.Errorf("%s with email %s already exists", idn.Kind, idn.Email)
	}
	return t.insert(idn, func(i *identity.Identity, pk int64) { i.ID = pk }), nil
}

func (repo *identityRepository) GetIdentityByID(_ context.Context, kind identity.Kind, id int64) (identity.Identity, error) {
	t, err := repo.table(kind)
	if err != nil {
		return identity.Identity{}, err
	}
	if idn, ok := t.get(id); ok {
		return idn, nil
	}
	return identity.Identity{}, identity.ErrNotFound
}

func (repo *identityRepository) GetIdentityByEmail(_ context.Context, kind identity.Kind, email string) (identity.Identity, error) {
	t, err := repo.table(kind)
	if err != nil {
		return identity.Identity{}, err
	}
	if found := t.query(func(i identity.Identity) bool { return i.Email == email }); len(found) > 0 {
		return found[0], nil
	}
	return identity.Identity{}, identity.ErrNotFound
}

func (repo *identityRepository) UpdateIdentity(_ context.Context, idn identity.Identity) (identity.Identity, error) {
	t, err := repo.table(idn.Kind)
	if err != nil {
		return identity.Identity{}, err
	}
	ok := t.update(idn.ID, func(i *identity.Identity) {
		i.FirstName = idn.FirstName
		i.LastName = idn.LastName
		i.Email = idn.Email
		i.Password = idn.Password
	})
	if !ok {
		return identity.Identity{}, identity.ErrNotFound
	}
	return idn, nil
}
