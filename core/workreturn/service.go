package workreturn

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/artifact"
)

type Service struct {
	repo  Repository
	store artifact.Store
}

func NewService(repo Repository, store artifact.Store) *Service {
	return &Service{repo: repo, store: store}
}

func (svc *Service) Get(ctx context.Context, id int64) (WorkReturn, error) {
	return svc.repo.GetWorkReturn(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]WorkReturn, error) {
	return svc.repo.QueryWorkReturns(ctx, filter)
}

// Delete removes the record only. The stored artifact stays in place.
func (svc *Service) Delete(ctx context.Context, id int64) error {
	if _, err := svc.repo.GetWorkReturn(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteWorkReturn(ctx, id)
}

// Artifact is an open stored file ready to be streamed back.
type Artifact struct {
	Key         string
	ContentType string
	Content     io.ReadCloser
}

// OpenArtifact opens the file of a WorkReturn. It fails with artifact.ErrMalformedLocator when
// the persisted locator is not under the public prefix, and with a core.NotFoundError when the
// record or its file is missing.
func (svc *Service) OpenArtifact(ctx context.Context, id int64) (Artifact, error) {
	wr, err := svc.repo.GetWorkReturn(ctx, id)
	if err != nil {
		return Artifact{}, err
	}
	key, err := artifact.KeyFromLocator(wr.FilePath)
	if err != nil {
		return Artifact{}, err
	}
	rc, err := svc.store.Open(ctx, key)
	if err != nil {
		if errors.Cause(err) == artifact.ErrNotExist {
			return Artifact{}, core.NewNotFoundError("File", id)
		}
		return Artifact{}, core.NewStorageError("open", key, err)
	}
	return Artifact{Key: key, ContentType: artifact.ContentType(key), Content: rc}, nil
}
