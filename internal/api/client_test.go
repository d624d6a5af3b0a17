package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NormalizesBaseURL(t *testing.T) {
	c := New("http://viewer.local:5000/", "key")
	assert.Equal(t, "http://viewer.local:5000", c.baseURL)
	assert.Equal(t, "key", c.apiKey)
	require.NotNil(t, c.httpClient)
}

func TestHealthcheck(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthcheck" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	assert.NoError(t, c.Healthcheck(context.Background()))

	status.Store(http.StatusServiceUnavailable)
	assert.EqualError(t, c.Healthcheck(context.Background()), "healthcheck returned status 503")
}

func TestHealthcheck_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := New(url, "").Healthcheck(context.Background())
	assert.ErrorContains(t, err, "healthcheck request failed")
}

func TestUpload_SendsForm(t *testing.T) {
	got := map[string]string{}
	var content string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != uploadPath {
			http.Error(w, "wrong route", http.StatusNotFound)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, k := range []string{"secret", "filename", "runName", "seed", "duration", "distance", "tag"} {
			got[k] = r.FormValue(k)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		content = string(b)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "dusk_20260101_120000.json.gz")
	require.NoError(t, os.WriteFile(path, []byte("frames"), 0644))

	err := New(srv.URL, "s3cret").Upload(context.Background(), path, UploadMetadata{
		RunName:  "dusk",
		Seed:     42,
		Duration: 90.5,
		Distance: 1200,
		Tag:      "slalom",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"secret":   "s3cret",
		"filename": "dusk_20260101_120000.json.gz",
		"runName":  "dusk",
		"seed":     "42",
		"duration": "90.500",
		"distance": "1200.000",
		"tag":      "slalom",
	}, got)
	assert.Equal(t, "frames", content)
}

func TestUpload_MissingFile(t *testing.T) {
	err := New("http://localhost:5000", "").Upload(context.Background(), filepath.Join(t.TempDir(), "none.json"), UploadMetadata{})
	assert.ErrorContains(t, err, "failed to open file")
}

func TestUpload_RejectedIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		http.Error(w, "bad secret", http.StatusForbidden)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	err := New(srv.URL, "nope").Upload(context.Background(), path, UploadMetadata{})
	assert.EqualError(t, err, "upload returned status 403: bad secret")
}
