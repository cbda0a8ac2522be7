package serve

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeDocs(t *testing.T) string {
	t.Helper()
	docs := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(docs, "award"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "index.html"), []byte("home"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "award", "index.html"), []byte("awards"), 0644))
	return docs
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandler(t *testing.T) {
	h := Handler(writeDocs(t), "", nil)

	rec := get(t, h, "/award/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "awards", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, h, "/fund/").Code)
}

func TestHandlerBasePath(t *testing.T) {
	h := Handler(writeDocs(t), "/performance/", nil)

	rec := get(t, h, "/performance/award/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "awards", rec.Body.String())

	rec = get(t, h, "/performance")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/performance/", rec.Header().Get("Location"))

	assert.Equal(t, http.StatusNotFound, get(t, h, "/award/").Code)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	docs := writeDocs(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{Address: "127.0.0.1:0", Docs: docs})
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestHandlerOverHTTP(t *testing.T) {
	srv := httptest.NewServer(Handler(writeDocs(t), "", nil))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "home", string(body))
}

func TestRunRejectsBadAddress(t *testing.T) {
	err := Run(context.Background(), Options{Address: "not-an-address", Docs: t.TempDir()})
	assert.Error(t, err)
}
