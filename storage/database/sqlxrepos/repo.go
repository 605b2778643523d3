// Package sqlxrepos implements the repositories on top of sqlx.
// Queries use ? placeholders and are rebound for the driver in use.
package sqlxrepos

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/douaaea/schoolhub/core"
)

type repo struct {
	exec core.DBExecutor
}

func (r repo) rebind(query string) string {
	return r.exec.Rebind(query)
}

// trapNoRowsErr maps "no rows" to notFound and wraps any other error with msg.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}
