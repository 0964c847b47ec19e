package postgrest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UniversalTze/FormBase/pkg/middleware/requestid"
)

type captured struct {
	method  string
	uri     string
	headers http.Header
	body    map[string]interface{}
}

func newServer(t *testing.T, status int, contentType, reply string, seen *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.method = r.Method
		seen.uri = r.URL.RequestURI()
		seen.headers = r.Header.Clone()
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			assert.NoError(t, json.Unmarshal(data, &seen.body))
		}
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPostStampsOwnerAndPrefer(t *testing.T) {
	var seen captured
	srv := newServer(t, http.StatusCreated, "application/json; charset=utf-8", `[{"id":7,"name":"Trees"}]`, &seen)

	var observed []string
	client := New(srv.URL+"/", Credentials{Token: "default-token", Username: "s1234"}, time.Second,
		WithObserver(func(method, resource string, status int, _ time.Duration) {
			observed = append(observed, method+" "+resource)
			assert.Equal(t, http.StatusCreated, status)
		}))

	ctx := requestid.WithValue(context.Background(), "req-1")
	var rows []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	err := client.Post(ctx, "/form", map[string]interface{}{"name": "Trees", "username": "spoofed"}, &rows)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), rows[0].ID)
	assert.Equal(t, http.MethodPost, seen.method)
	assert.Equal(t, "/form", seen.uri)
	assert.Equal(t, "Bearer default-token", seen.headers.Get("Authorization"))
	assert.Equal(t, "return=representation", seen.headers.Get("Prefer"))
	assert.Equal(t, "req-1", seen.headers.Get("X-Request-ID"))
	assert.Equal(t, "s1234", seen.body["username"])
	assert.Equal(t, "Trees", seen.body["name"])
	assert.Equal(t, []string{"POST form"}, observed)
}

func TestContextCredentialsOverrideDefaults(t *testing.T) {
	var seen captured
	srv := newServer(t, http.StatusOK, "application/json", `[]`, &seen)
	client := New(srv.URL, Credentials{Token: "default-token", Username: "s1234"}, 0)

	ctx := WithCredentials(context.Background(), Credentials{Token: "caller-token", Username: "alice"})
	require.NoError(t, client.Patch(ctx, "/form?id=eq.1", map[string]string{"name": "x"}, nil))

	assert.Equal(t, "Bearer caller-token", seen.headers.Get("Authorization"))
	assert.Equal(t, "alice", seen.body["username"])
	assert.Equal(t, "alice", client.Owner(ctx))
	assert.Equal(t, "s1234", client.Owner(context.Background()))
}

func TestGetHasNoPreferHeader(t *testing.T) {
	var seen captured
	srv := newServer(t, http.StatusOK, "application/json", `[{"id":1}]`, &seen)
	client := New(srv.URL, Credentials{}, time.Second)

	var rows []map[string]interface{}
	require.NoError(t, client.Get(context.Background(), "/record?form_id=eq.1&order=id.asc", &rows))
	assert.Empty(t, seen.headers.Get("Prefer"))
	assert.Empty(t, seen.headers.Get("Authorization"))
	assert.Equal(t, "/record?form_id=eq.1&order=id.asc", seen.uri)
	assert.Len(t, rows, 1)
}

func TestNonSuccessSurfacesStatusAndBody(t *testing.T) {
	var seen captured
	srv := newServer(t, http.StatusForbidden, "application/json", `{"message":"permission denied"}`, &seen)
	client := New(srv.URL, Credentials{Token: "t"}, time.Second)

	err := client.Delete(context.Background(), "/record?id=eq.4")
	require.Error(t, err)
	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusForbidden, herr.Status)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "permission denied")
	assert.True(t, IsStatus(err, http.StatusForbidden))
}

func TestNonJSONResponseIsEmptySuccess(t *testing.T) {
	var seen captured
	srv := newServer(t, http.StatusNoContent, "", ``, &seen)
	client := New(srv.URL, Credentials{}, time.Second)

	out := map[string]interface{}{}
	require.NoError(t, client.Do(context.Background(), http.MethodDelete, "/field?id=eq.2", nil, &out))
	assert.Empty(t, out)
}

func TestNonObjectBodyIsRejectedWhenOwnerSet(t *testing.T) {
	client := New("http://127.0.0.1:1", Credentials{Username: "s1234"}, time.Second)
	err := client.Post(context.Background(), "/form", []string{"a"}, nil)
	require.Error(t, err)
}

func TestResourceOf(t *testing.T) {
	assert.Equal(t, "record", resourceOf("/record?form_id=eq.1"))
	assert.Equal(t, "form", resourceOf("form"))
	assert.Equal(t, "root", resourceOf("/"))
}
