// Package artifact defines the contract of the durable byte store holding uploaded work
// and the naming rules of its keys and public locators.
package artifact

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PublicPrefix is the fixed prefix of every locator persisted on a WorkReturn.
const PublicPrefix = "/uploads/"

var (
	ErrNotExist         = errors.New("artifact does not exist")
	ErrInvalidKey       = errors.New("invalid artifact key")
	ErrMalformedLocator = errors.New("malformed artifact locator")
)

// Store is a durable byte store keyed by generated identifiers.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Exists(ctx context.Context, key string) (bool, error)
	// Open returns ErrNotExist when nothing is stored under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewKey returns a collision-resistant key: a random UUID joined to the original file name.
func NewKey(filename string) string {
	return uuid.NewString() + "_" + BaseName(filename)
}

// BaseName strips any directory component a client may have sent along with the file name.
func BaseName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// ValidKey reports whether key names a single entry directly under the store root.
func ValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, "/\\")
}

func Locator(key string) string {
	return PublicPrefix + key
}

// KeyFromLocator extracts the store key from a persisted locator.
func KeyFromLocator(locator string) (string, error) {
	if !strings.HasPrefix(locator, PublicPrefix) {
		return "", ErrMalformedLocator
	}
	key := strings.TrimPrefix(locator, PublicPrefix)
	if !ValidKey(key) || path.Clean(key) != key {
		return "", ErrMalformedLocator
	}
	return key, nil
}

// Ext returns the lower-cased extension of name without the leading dot.
func Ext(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ContentType infers the content type of a stored artifact from its extension.
func ContentType(name string) string {
	if ct, ok := contentTypes[Ext(name)]; ok {
		return ct
	}
	return "application/octet-stream"
}
