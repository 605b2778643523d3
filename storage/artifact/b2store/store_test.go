package b2store

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/douaaea/schoolhub/core/artifact"
)

func TestObjectName(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    string
		wantErr error
	}{
		{name: "valid", key: "abc_essay.pdf", want: "uploads/abc_essay.pdf"},
		{name: "nested", key: "a/b.pdf", wantErr: artifact.ErrInvalidKey},
		{name: "parent", key: "..", wantErr: artifact.ErrInvalidKey},
		{name: "empty", key: "", wantErr: artifact.ErrInvalidKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := objectName(DefaultPrefix, tt.key)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestStore talks to a real bucket and only runs when B2 credentials are provided.
func TestStore(t *testing.T) {
	keyID, appKey, bucket := os.Getenv("B2_KEY_ID"), os.Getenv("B2_APP_KEY"), os.Getenv("B2_BUCKET")
	if keyID == "" || appKey == "" || bucket == "" {
		t.Skip("B2 credentials not set")
	}

	ctx := context.Background()
	s, err := New(ctx, keyID, appKey, bucket)
	require.NoError(t, err)

	key := artifact.NewKey("essay.pdf")
	require.NoError(t, s.Put(ctx, key, strings.NewReader("%PDF-1.4")))
	t.Cleanup(func() { _ = s.Delete(ctx, key) })

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Open(ctx, "missing_"+key)
	assert.Equal(t, artifact.ErrNotExist, err)
}
