// Package storage saves uploaded course files and returns the reference stored on the course.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidName is returned for file names that reduce to nothing usable.
var ErrInvalidName = errors.New("invalid file name")

// Uploader stores a file under name. Saving the same name again overwrites it.
type Uploader interface {
	Save(ctx context.Context, name, contentType string, body io.Reader, size int64) (ref string, err error)
}

// CleanName strips any directory part from a client-supplied file name.
func CleanName(name string) (string, error) {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", ErrInvalidName
	}
	return name, nil
}

// ContentTypeForFilename guesses a MIME type from the extension.
func ContentTypeForFilename(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
