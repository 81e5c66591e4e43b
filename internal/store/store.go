// Package store implements the document collections backing the application: whole
// collections are read, mutated in memory and written back, with one writer per collection
// at a time.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection names a top-level JSON array document.
type Collection string

const (
	Questions     Collection = "questions"
	QuizResponses Collection = "quiz_responses"
	Teams         Collection = "teams"
	Modules       Collection = "modules"
	Users         Collection = "users"
)

// All lists every collection the application uses.
var All = []Collection{Questions, QuizResponses, Teams, Modules, Users}

// ErrMalformedCollection is returned when a stored collection is not a JSON array.
var ErrMalformedCollection = errors.New("malformed collection")

// Backend stores raw collection documents.
type Backend interface {
	// Read returns the encoded collection. A collection that was never written reads as "[]".
	Read(ctx context.Context, c Collection) ([]byte, error)
	// Update runs fn with the current encoded collection and stores what it returns. Calls
	// for the same collection are serialized. If fn fails nothing is written.
	Update(ctx context.Context, c Collection, fn func(current []byte) ([]byte, error)) error
}

// List decodes every document in a collection.
func List[T any](ctx context.Context, b Backend, c Collection) ([]T, error) {
	raw, err := b.Read(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c, err)
	}
	return decode[T](c, raw)
}

// Mutate decodes a collection, applies fn and stores the result. An error from fn leaves
// the collection unchanged.
func Mutate[T any](ctx context.Context, b Backend, c Collection, fn func(docs []T) ([]T, error)) error {
	return b.Update(ctx, c, func(current []byte) ([]byte, error) {
		docs, err := decode[T](c, current)
		if err != nil {
			return nil, err
		}
		docs, err = fn(docs)
		if err != nil {
			return nil, err
		}
		return encode(docs)
	})
}

// Append adds doc to the end of a collection.
func Append[T any](ctx context.Context, b Backend, c Collection, doc T) error {
	return Mutate(ctx, b, c, func(docs []T) ([]T, error) {
		return append(docs, doc), nil
	})
}

// ReplaceAll overwrites a collection with docs.
func ReplaceAll[T any](ctx context.Context, b Backend, c Collection, docs []T) error {
	if docs == nil {
		docs = []T{}
	}
	return b.Update(ctx, c, func([]byte) ([]byte, error) {
		return encode(docs)
	})
}

// SeedIfEmpty writes docs only when the collection holds no documents. It reports whether
// the seed was written.
func SeedIfEmpty[T any](ctx context.Context, b Backend, c Collection, docs []T) (bool, error) {
	seeded := false
	err := b.Update(ctx, c, func(current []byte) ([]byte, error) {
		existing, err := decode[json.RawMessage](c, current)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return current, nil
		}
		seeded = true
		return encode(docs)
	})
	return seeded && err == nil, err
}

// Count returns the number of documents in a collection without decoding them fully.
func Count(ctx context.Context, b Backend, c Collection) (int, error) {
	docs, err := List[json.RawMessage](ctx, b, c)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func decode[T any](c Collection, raw []byte) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []T{}, nil
	}
	var docs []T
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrMalformedCollection, c, err)
	}
	if docs == nil {
		docs = []T{}
	}
	return docs, nil
}

func encode[T any](docs []T) ([]byte, error) {
	out, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}
	return out, nil
}
