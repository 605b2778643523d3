package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/identity"
)

type identityRepository struct {
	repo
}

var _ identity.Repository = (*identityRepository)(nil) // interface compliance check

func NewIdentityRepository(exec core.DBExecutor) *identityRepository {
	return &identityRepository{repo{exec: exec}}
}

var identityTables = map[identity.Kind]string{
	identity.Student: "students",
	identity.Teacher: "teachers",
	identity.Admin:   "admins",
}

func tableFor(kind identity.Kind) (string, error) {
	table, ok := identityTables[kind]
	if !ok {
		return "", identity.ErrUnknownKind
	}
	return table, nil
}

func (r *identityRepository) CreateIdentity(ctx context.Context, idn identity.Identity) (identity.Identity, error) {
	table, err := tableFor(idn.Kind)
	if err != nil {
		return identity.Identity{}, err
	}
	q := r.rebind("INSERT INTO " + table + " (first_name, last_name, email, password) VALUES (?, ?, ?, ?) RETURNING id")
	if err := r.exec.GetContext(ctx, &idn.ID, q, idn.FirstName, idn.LastName, idn.Email, idn.Password); err != nil {
		return identity.Identity{}, errors.Wrapf(err, "inserting %s", idn.Kind)
	}
	return idn, nil
}

func (r *identityRepository) get(ctx context.Context, kind identity.Kind, where string, arg interface{}) (identity.Identity, error) {
	table, err := tableFor(kind)
	if err != nil {
		return identity.Identity{}, err
	}
	var idn identity.Identity
	q := r.rebind("SELECT id, first_name, last_name, email, password FROM " + table + " WHERE " + where + " = ?")
	if err := r.exec.GetContext(ctx, &idn, q, arg); err != nil {
		return identity.Identity{}, trapNoRowsErr(err, identity.ErrNotFound, "selecting "+string(kind))
	}
	idn.Kind = kind
	return idn, nil
}

func (r *identityRepository) GetIdentityByID(ctx context.Context, kind identity.Kind, id int64) (identity.Identity, error) {
	return r.get(ctx, kind, "id", id)
}

func (r *identityRepository) GetIdentityByEmail(ctx context.Context, kind identity.Kind, email string) (identity.Identity, error) {
	return r.get(ctx, kind, "email", email)
}

func (r *identityRepository) UpdateIdentity(ctx context.Context, idn identity.Identity) (identity.Identity, error) {
	table, err := tableFor(idn.Kind)
	if err != nil {
		return identity.Identity{}, err
	}
	q := r.rebind("UPDATE " + table + " SET first_name = ?, last_name = ?, email = ?, password = ? WHERE id = ?")
	res, err := r.exec.ExecContext(ctx, q, idn.FirstName, idn.LastName, idn.Email, idn.Password, idn.ID)
	if err != nil {
		return identity.Identity{}, errors.Wrapf(err, "updating %s", idn.Kind)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return identity.Identity{}, identity.ErrNotFound
	}
	return idn, nil
}
