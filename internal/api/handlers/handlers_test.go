// Package handlers_test provides behavior tests for the API handlers package.
package handlers_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/zonepress/internal/api/handlers"
	"github.com/jroosing/zonepress/internal/api/models"
	"github.com/jroosing/zonepress/internal/client"
	"github.com/jroosing/zonepress/internal/database"
	"github.com/jroosing/zonepress/internal/frontmatter"
	"github.com/jroosing/zonepress/internal/logging"
	"github.com/jroosing/zonepress/internal/records"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeLibrary struct {
	entries []client.Entry
	docs    map[string]*client.Document
	listErr error
}

func (l *fakeLibrary) List(context.Context) ([]client.Entry, error) {
	return l.entries, l.listErr
}

func (l *fakeLibrary) Fetch(_ context.Context, name string) (*client.Document, error) {
	if name == "broken" {
		return nil, errors.New("server failure")
	}
	d, ok := l.docs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", client.ErrNotFound, name)
	}
	return d, nil
}

type fakeLedger struct {
	pubs []database.Publication
}

func (l *fakeLedger) ListPublications(_ context.Context, limit int) ([]database.Publication, error) {
	if limit > 0 && limit < len(l.pubs) {
		return l.pubs[:limit], nil
	}
	return l.pubs, nil
}

func (l *fakeLedger) GetPublication(_ context.Context, id int64) (database.Publication, error) {
	for _, p := range l.pubs {
		if p.ID == id {
			return p, nil
		}
	}
	return database.Publication{}, fmt.Errorf("%w: %d", database.ErrPublicationNotFound, id)
}

func helloIndex() records.Index {
	var meta frontmatter.Metadata
	meta.Set("title", "Hello")
	meta.Set("date", "2024-03-15")
	return records.Index{MimeType: "text/markdown", ChunkCount: 2, HashAlgorithm: "SHA-1", Hash: "deadbeef", Metadata: meta}
}

func newRouter(lib client.Library, ledger handlers.Ledger) *gin.Engine {
	h := handlers.New(lib, ledger, logging.Discard())
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/documents", h.ListDocuments)
	router.GET("/documents/:name", h.GetDocument)
	router.GET("/publications", h.ListPublications)
	router.GET("/publications/:id", h.GetPublication)
	return router
}

func testLibrary() *fakeLibrary {
	return &fakeLibrary{
		entries: []client.Entry{{Name: "posts-hello-md", Index: helloIndex()}},
		docs: map[string]*client.Document{
			"posts-hello-md": {Name: "posts-hello-md", Index: helloIndex(), Body: []byte("# Hello\n"), Verified: true},
			"bin":            {Name: "bin", Index: records.Index{MimeType: "application/octet-stream"}, Body: []byte{0xff, 0xfe}},
		},
	}
}

func performRequest(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth_ReturnsOK(t *testing.T) {
	w := performRequest(newRouter(testLibrary(), nil), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListDocuments(t *testing.T) {
	w := performRequest(newRouter(testLibrary(), nil), http.MethodGet, "/documents")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.DocumentListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "posts-hello-md", resp.Documents[0].Name)
	assert.Equal(t, 2, resp.Documents[0].ChunkCount)
	assert.Contains(t, w.Body.String(), `"metadata":{"title":"Hello","date":"2024-03-15"}`, "metadata keeps front matter order")
}

func TestListDocuments_Unsupported(t *testing.T) {
	lib := &fakeLibrary{listErr: client.ErrListUnsupported}
	w := performRequest(newRouter(lib, nil), http.MethodGet, "/documents")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestListDocuments_Failure(t *testing.T) {
	lib := &fakeLibrary{listErr: errors.New("zone file unreadable")}
	w := performRequest(newRouter(lib, nil), http.MethodGet, "/documents")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGetDocument(t *testing.T) {
	router := newRouter(testLibrary(), nil)

	tests := []struct {
		name     string
		path     string
		status   int
		encoding string
		content  string
		verified bool
	}{
		{"text document", "/documents/posts-hello-md", http.StatusOK, models.EncodingUTF8, "# Hello\n", true},
		{"binary document", "/documents/bin", http.StatusOK, models.EncodingBase64, base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe}), false},
		{"missing", "/documents/nope", http.StatusNotFound, "", "", false},
		{"resolver failure", "/documents/broken", http.StatusBadGateway, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodGet, tt.path)
			require.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				return
			}
			var resp models.DocumentResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.encoding, resp.Encoding)
			assert.Equal(t, tt.content, resp.Content)
			assert.Equal(t, tt.verified, resp.Verified)
		})
	}
}

func TestGetDocument_Raw(t *testing.T) {
	w := performRequest(newRouter(testLibrary(), nil), http.MethodGet, "/documents/posts-hello-md?raw=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# Hello\n", w.Body.String())
	assert.Equal(t, "text/markdown", w.Header().Get("Content-Type"))
	assert.Equal(t, "true", w.Header().Get(handlers.VerifiedHeader))
}

func TestPublications_NoLedger(t *testing.T) {
	router := newRouter(testLibrary(), nil)
	assert.Equal(t, http.StatusNotImplemented, performRequest(router, http.MethodGet, "/publications").Code)
	assert.Equal(t, http.StatusNotImplemented, performRequest(router, http.MethodGet, "/publications/1").Code)
}

func TestPublications(t *testing.T) {
	at := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	ledger := &fakeLedger{pubs: []database.Publication{
		{ID: 2, Serial: "2024031503", PreviousSerial: "2024031502", Changed: true, Bumped: true, PublishedAt: at,
			Documents: []database.PublishedDocument{{Name: "posts-hello-md", Path: "posts/hello.md", ChunkCount: 2}}},
		{ID: 1, Serial: "2024031502", PreviousSerial: "2024031501", Bumped: true, PublishedAt: at.Add(-time.Hour)},
	}}
	router := newRouter(testLibrary(), ledger)

	t.Run("list", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/publications?limit=1")
		require.Equal(t, http.StatusOK, w.Code)
		var resp models.PublicationListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, "2024031503", resp.Publications[0].Serial)
	})

	t.Run("bad limit", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, performRequest(router, http.MethodGet, "/publications?limit=x").Code)
	})

	t.Run("detail", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/publications/2")
		require.Equal(t, http.StatusOK, w.Code)
		var resp models.PublicationDetailResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Changed)
		require.Len(t, resp.Documents, 1)
		assert.Equal(t, "posts/hello.md", resp.Documents[0].Path)
	})

	t.Run("not found", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, performRequest(router, http.MethodGet, "/publications/9").Code)
	})

	t.Run("bad id", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, performRequest(router, http.MethodGet, "/publications/abc").Code)
	})
}
