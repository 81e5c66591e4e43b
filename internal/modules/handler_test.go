package modules

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/internhub/backend/internal/models"
	"github.com/internhub/backend/internal/store"
	"github.com/internhub/backend/pkg/storage"
)

func setup(t *testing.T, maxBytes int64) (*gin.Engine, *store.FileBackend, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	b, err := store.NewFileBackend(t.TempDir(), nil)
	require.NoError(t, err)
	uploadsDir := filepath.Join(t.TempDir(), "uploads")
	uploads, err := storage.NewLocal(uploadsDir, "/uploads", nil)
	require.NoError(t, err)

	h := NewHandler(b, uploads, maxBytes, nil)
	r := gin.New()
	r.GET("/modules", h.List)
	r.POST("/modules", h.Create)
	return r, b, uploadsDir
}

func multipartRequest(t *testing.T, fields map[string]string, fileName, fileBody string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("summaryPdf", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(fileBody))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/modules", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreate_PublicCourseWithSummary(t *testing.T) {
	r, b, uploadsDir := setup(t, 0)
	req := multipartRequest(t, map[string]string{
		"moduleName":  "Backend",
		"contentName": "Intro to Go",
		"videos":      "https://v/1\n https://v/2 \n",
		"tags":        "go, http ,",
		"access":      "PUBLIC",
		"accessor":    `["Acme","Globex"]`,
	}, "week1.pdf", "%PDF-1.4")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	stored, err := store.List[models.Module](context.Background(), b, store.Modules)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	course := stored[0].Content[0]
	require.Equal(t, "Backend", stored[0].ModuleName)
	require.Equal(t, []string{"https://v/1", "https://v/2"}, course.Videos)
	require.Equal(t, []string{"go", "http"}, course.Tags)
	require.Equal(t, []string{"Acme", "Globex"}, course.Accessor)
	require.Equal(t, "/uploads/week1.pdf", course.SummaryPDF)

	data, err := os.ReadFile(filepath.Join(uploadsDir, "week1.pdf"))
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(data))
}

func TestCreate_PrivateIgnoresAccessor(t *testing.T) {
	r, b, _ := setup(t, 0)
	req := multipartRequest(t, map[string]string{
		"moduleName":  "Ops",
		"contentName": "Deploys",
		"access":      "PRIVATE",
		"accessor":    `["Acme"]`,
	}, "", "")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	stored, err := store.List[models.Module](context.Background(), b, store.Modules)
	require.NoError(t, err)
	require.Nil(t, stored[0].Content[0].Accessor)
	require.Empty(t, stored[0].Content[0].SummaryPDF)
}

func TestCreate_Validation(t *testing.T) {
	r, b, _ := setup(t, 4)
	cases := []struct {
		fields map[string]string
		file   string
	}{
		{map[string]string{"contentName": "x", "access": "PUBLIC"}, ""},
		{map[string]string{"moduleName": "m", "contentName": "x", "access": "SECRET"}, ""},
		{map[string]string{"moduleName": "m", "contentName": "x", "access": "PUBLIC", "accessor": "Acme"}, ""},
		{map[string]string{"moduleName": "m", "contentName": "x", "access": "PUBLIC"}, "too-large"},
	}
	for i, tc := range cases {
		fileName := ""
		if tc.file != "" {
			fileName = "a.pdf"
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartRequest(t, tc.fields, fileName, tc.file))
		require.Equal(t, http.StatusBadRequest, w.Code, "case %d", i)
	}
	count, err := store.Count(context.Background(), b, store.Modules)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestList(t *testing.T) {
	r, b, _ := setup(t, 0)
	require.NoError(t, store.Append(context.Background(), b, store.Modules, models.Module{ModuleName: "A", Content: []models.Course{}}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/modules", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []models.Module `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "A", body.Data[0].ModuleName)
}
