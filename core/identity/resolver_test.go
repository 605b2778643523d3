package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/douaaea/schoolhub/core/identity"
	"github.com/douaaea/schoolhub/storage/database/inmem"
	"github.com/douaaea/schoolhub/tests"
)

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewIdentityRepository(inmemdb.Open())

	student := testutil.CreateIdentity(t, repo, identity.Student, "Sara", "A", "sara@school.ma", "s-pass")
	teacher := testutil.CreateIdentity(t, repo, identity.Teacher, "Karim", "B", "karim@school.ma", "t-pass")
	admin := testutil.CreateIdentity(t, repo, identity.Admin, "Nadia", "C", "nadia@school.ma", "a-pass")
	// same pair in teacher and admin stores
	testutil.CreateIdentity(t, repo, identity.Admin, "Karim", "B", "karim@school.ma", "t-pass")
	// same email in two stores with different passwords
	shadow := testutil.CreateIdentity(t, repo, identity.Teacher, "Sara", "A", "sara@school.ma", "other")
	testutil.CreateIdentity(t, repo, identity.Student, "No", "Pass", "nopass@school.ma", "")

	resolver := identity.NewResolver(identity.PlainVerifier{}, identity.Providers(repo)...)

	tests := []struct {
		name     string
		email    string
		password string
		want     identity.Descriptor
		wantErr  error
	}{
		{name: "student", email: "sara@school.ma", password: "s-pass", want: identity.Descriptor{Role: identity.Student, ID: student.ID, Email: student.Email}},
		{name: "teacher wins over admin", email: "karim@school.ma", password: "t-pass", want: identity.Descriptor{Role: identity.Teacher, ID: teacher.ID, Email: teacher.Email}},
		{name: "admin", email: "nadia@school.ma", password: "a-pass", want: identity.Descriptor{Role: identity.Admin, ID: admin.ID, Email: admin.Email}},
		{name: "falls through to next store", email: "sara@school.ma", password: "other", want: identity.Descriptor{Role: identity.Teacher, ID: shadow.ID, Email: shadow.Email}},
		{name: "wrong password", email: "nadia@school.ma", password: "nope", wantErr: identity.ErrUnauthenticated},
		{name: "unknown email", email: "ghost@school.ma", password: "s-pass", wantErr: identity.ErrUnauthenticated},
		{name: "no normalization", email: "SARA@school.ma", password: "s-pass", wantErr: identity.ErrUnauthenticated},
		{name: "padded password", email: "sara@school.ma", password: " s-pass", wantErr: identity.ErrUnauthenticated},
		{name: "empty stored credential", email: "nopass@school.ma", password: "", wantErr: identity.ErrUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.Resolve(ctx, tt.email, tt.password)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type stubProvider struct {
	kind  identity.Kind
	idn   identity.Identity
	err   error
	calls int
}

func (p *stubProvider) Kind() identity.Kind { return p.kind }

func (p *stubProvider) Lookup(context.Context, string) (identity.Identity, error) {
	p.calls++
	return p.idn, p.err
}

func TestResolver_Resolve_order(t *testing.T) {
	ctx := context.Background()
	student := &stubProvider{kind: identity.Student, idn: identity.Identity{ID: 7, Email: "x@y.z", Password: "pw"}}
	teacher := &stubProvider{kind: identity.Teacher, idn: identity.Identity{ID: 7, Email: "x@y.z", Password: "pw"}}

	got, err := identity.NewResolver(nil, student, teacher).Resolve(ctx, "x@y.z", "pw")
	require.NoError(t, err)
	assert.Equal(t, identity.Student, got.Role)
	assert.Equal(t, 0, teacher.calls, "later stores are not consulted after a match")
}

func TestResolver_Resolve_storeError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	student := &stubProvider{kind: identity.Student, err: identity.ErrNotFound}
	teacher := &stubProvider{kind: identity.Teacher, err: boom}
	admin := &stubProvider{kind: identity.Admin, idn: identity.Identity{ID: 1, Password: "pw"}}

	_, err := identity.NewResolver(nil, student, teacher, admin).Resolve(ctx, "x@y.z", "pw")
	require.Error(t, err)
	assert.NotEqual(t, identity.ErrUnauthenticated, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, admin.calls)
}

func TestVerifiers(t *testing.T) {
	plain, err := identity.NewVerifier("")
	require.NoError(t, err)
	assert.True(t, plain.Verify("secret", "secret"))
	assert.False(t, plain.Verify("secret", "Secret"))
	assert.False(t, plain.Verify("", ""))

	bc, err := identity.NewVerifier(identity.SchemeBcrypt)
	require.NoError(t, err)
	hash, err := bc.Encode("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)
	assert.True(t, bc.Verify(hash, "secret"))
	assert.False(t, bc.Verify(hash, "secret "))

	_, err = identity.NewVerifier("md5")
	assert.Error(t, err)
}

func TestService_Save(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewIdentityRepository(inmemdb.Open())
	svc := identity.NewService(repo, identity.PlainVerifier{})

	created, err := svc.Save(ctx, identity.Identity{Kind: identity.Teacher, FirstName: "Ali", Email: "ali@school.ma"}, "one")
	require.NoError(t, err)

	updated, err := svc.Save(ctx, identity.Identity{Kind: identity.Teacher, Email: "ali@school.ma"}, "two")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Ali", updated.FirstName)

	got, err := svc.Get(ctx, identity.Teacher, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "two", got.Password)
}
