package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanName(t *testing.T) {
	for in, want := range map[string]string{
		"summary.pdf":           "summary.pdf",
		"../../etc/passwd":      "passwd",
		`C:\Users\me\notes.pdf`: "notes.pdf",
		" spaced.pdf ":          "spaced.pdf",
	} {
		got, err := CleanName(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "/", "..", "."} {
		_, err := CleanName(in)
		require.ErrorIs(t, err, ErrInvalidName, in)
	}
}

func TestLocal_SaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(filepath.Join(dir, "uploads"), "/uploads", nil)
	require.NoError(t, err)

	ref, err := l.Save(context.Background(), "week1.pdf", "application/pdf", strings.NewReader("first"), 5)
	require.NoError(t, err)
	require.Equal(t, "/uploads/week1.pdf", ref)

	_, err = l.Save(context.Background(), "week1.pdf", "application/pdf", strings.NewReader("second"), 6)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(l.Dir(), "week1.pdf"))
	require.NoError(t, err)
	require.Equal(t, "second", string(data))
}

func TestObjectKey(t *testing.T) {
	require.Equal(t, "uploads/a.pdf", ObjectKey("a.pdf"))
	require.Equal(t, "application/pdf", ContentTypeForFilename("A.PDF"))
}

func TestS3PublicObjectURL(t *testing.T) {
	s := &S3{cfg: S3Config{Region: "eu-west-1", Bucket: "internhub-uploads"}}
	require.Equal(t, "https://internhub-uploads.s3.eu-west-1.amazonaws.com/uploads/a.pdf", s.PublicObjectURL(ObjectKey("a.pdf")))

	s.cfg.PublicBaseURL = "https://cdn.example.com/"
	require.Equal(t, "https://cdn.example.com/uploads/a.pdf", s.PublicObjectURL(ObjectKey("a.pdf")))
}
