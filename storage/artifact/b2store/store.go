// Package b2store keeps artifacts in a Backblaze B2 bucket.
package b2store

import (
	"context"
	"io"
	"path"

	"github.com/kurin/blazer/b2"
	"github.com/pkg/errors"

	"github.com/douaaea/schoolhub/core/artifact"
)

// DefaultPrefix is the folder objects are written to inside the bucket.
const DefaultPrefix = "uploads"

type store struct {
	client *b2.Client
	bucket *b2.Bucket
	prefix string
}

var _ artifact.Store = (*store)(nil)

func New(ctx context.Context, keyID, appKey, bucketName string) (*store, error) {
	client, err := b2.NewClient(ctx, keyID, appKey)
	if err != nil {
		return nil, errors.Wrap(err, "creating b2 client")
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, errors.Wrap(err, "getting bucket")
	}
	return &store{client: client, bucket: bucket, prefix: DefaultPrefix}, nil
}

func objectName(prefix, key string) (string, error) {
	if !artifact.ValidKey(key) {
		return "", artifact.ErrInvalidKey
	}
	return path.Join(prefix, key), nil
}

func (s *store) object(key string) (*b2.Object, error) {
	name, err := objectName(s.prefix, key)
	if err != nil {
		return nil, err
	}
	return s.bucket.Object(name), nil
}

func (s *store) Put(ctx context.Context, key string, r io.Reader) error {
	obj, err := s.object(key)
	if err != nil {
		return err
	}
	w := obj.NewWriter(ctx, b2.WithAttrsOption(&b2.Attrs{ContentType: artifact.ContentType(key)}))
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return errors.Wrap(err, "writing object")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "closing writer")
	}
	return nil
}

func (s *store) Exists(ctx context.Context, key string) (bool, error) {
	obj, err := s.object(key)
	if err != nil {
		return false, err
	}
	if _, err := obj.Attrs(ctx); err != nil {
		if b2.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "reading object attributes")
	}
	return true, nil
}

// Open checks the object exists first: the b2 reader only reports a missing object on the first Read.
func (s *store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	ok, err := s.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, artifact.ErrNotExist
	}
	obj, _ := s.object(key)
	return obj.NewReader(ctx), nil
}

func (s *store) Delete(ctx context.Context, key string) error {
	obj, err := s.object(key)
	if err != nil {
		return err
	}
	if err := obj.Delete(ctx); err != nil && !b2.IsNotExist(err) {
		return errors.Wrap(err, "deleting object")
	}
	return nil
}
