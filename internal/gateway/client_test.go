package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/pkg/config"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/students", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"nome":"Ana","curso":"CS","modalidade":"EAD","status":"Active"}]`))
	})
	mux.HandleFunc("/students/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":1,"nome":"Ana","curso":"CS","modalidade":"EAD","status":"Active"}`))
	})
	mux.HandleFunc("/courses", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":10,"curso":"CS","nome":"Algorithms","vagas":3},{"id":11,"curso":"CS","nome":"Databases","vagas":"4"}]`))
	})
	mux.HandleFunc("/library", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAllExternalDataPartialFailure(t *testing.T) {
	srv := newUpstream(t)
	client := NewClient(config.UpstreamConfig{
		StudentsURL: srv.URL + "/students",
		CoursesURL:  srv.URL + "/courses",
		LibraryURL:  srv.URL + "/library",
		Timeout:     time.Second,
	}, nil)

	data := client.FetchAllExternalData(context.Background())
	assert.True(t, data.Success)
	assert.Len(t, data.Students, 1)
	assert.Len(t, data.Courses, 2)
	assert.Empty(t, data.Items)
	require.Len(t, data.Errors, 1)
	assert.Contains(t, data.Errors[0], "error fetching library items")
	assert.Contains(t, data.Errors[0], "HTTP 500")
}

func TestFetchAllExternalDataAllFailing(t *testing.T) {
	srv := newUpstream(t)
	client := NewClient(config.UpstreamConfig{
		StudentsURL: srv.URL + "/missing-a",
		CoursesURL:  srv.URL + "/library",
		LibraryURL:  srv.URL + "/library",
	}, nil)

	data := client.FetchAllExternalData(context.Background())
	assert.False(t, data.Success)
	assert.Len(t, data.Errors, 3)
}

func TestFetchStudent(t *testing.T) {
	srv := newUpstream(t)
	client := NewClient(config.UpstreamConfig{StudentsURL: srv.URL + "/students/"}, nil)

	record, err := client.FetchStudent(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ana", record["nome"])

	_, err = client.FetchStudent(context.Background(), 2)
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestFetchStudentUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	client := NewClient(config.UpstreamConfig{StudentsURL: srv.URL}, nil)

	_, err := client.FetchStudent(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUpstream)
}
