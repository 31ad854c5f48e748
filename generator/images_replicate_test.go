package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replicateServer answers create with "starting" and reports the given
// terminal body after pending polls.
func replicateServer(t *testing.T, pending int32, terminal string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/predictions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer r8_test", r.Header.Get("Authorization"))
		var body struct {
			Version string         `json:"version"`
			Input   map[string]any `json:"input"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, defaultReplicateVersion, body.Version)
		assert.EqualValues(t, 1024, body.Input["width"])
		assert.EqualValues(t, 576, body.Input["height"])
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"p1","status":"starting"}`))
	})
	mux.HandleFunc("GET /v1/predictions/p1", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) <= pending {
			w.Write([]byte(`{"id":"p1","status":"processing"}`))
			return
		}
		w.Write([]byte(terminal))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls
}

func newTestReplicate(srv *httptest.Server) *ReplicateImages {
	r := NewReplicateImages(ImageSettings{BaseURL: srv.URL, PollInterval: time.Millisecond, MaxWait: 5 * time.Second})
	r.Client = srv.Client()
	return r
}

func TestReplicateImages_PollsUntilSucceeded(t *testing.T) {
	srv, polls := replicateServer(t, 2, `{"id":"p1","status":"succeeded","output":["https://replicate.delivery/out-0.png"]}`)

	u, err := newTestReplicate(srv).Generate(context.Background(), "r8_test", BuildImagePrompt("Why Mars Matters"))
	require.NoError(t, err)
	assert.Equal(t, "https://replicate.delivery/out-0.png", u)
	assert.Equal(t, int32(3), polls.Load())
}

func TestReplicateImages_SingleStringOutput(t *testing.T) {
	srv, _ := replicateServer(t, 0, `{"id":"p1","status":"succeeded","output":"https://replicate.delivery/one.webp"}`)

	u, err := newTestReplicate(srv).Generate(context.Background(), "r8_test", BuildImagePrompt("x"))
	require.NoError(t, err)
	assert.Equal(t, "https://replicate.delivery/one.webp", u)
}

func TestReplicateImages_FailedStatusIsAnError(t *testing.T) {
	srv, _ := replicateServer(t, 1, `{"id":"p1","status":"failed","error":"NSFW content detected"}`)

	u, err := newTestReplicate(srv).Generate(context.Background(), "r8_test", BuildImagePrompt("x"))
	require.Error(t, err)
	assert.Empty(t, u)
	assert.Contains(t, err.Error(), "NSFW content detected")
}

func TestReplicateImages_SucceededWithoutOutput(t *testing.T) {
	srv, _ := replicateServer(t, 0, `{"id":"p1","status":"succeeded","output":null}`)

	_, err := newTestReplicate(srv).Generate(context.Background(), "r8_test", BuildImagePrompt("x"))
	assert.Error(t, err)
}

func TestReplicateImages_MaxWait(t *testing.T) {
	srv, _ := replicateServer(t, 1<<30, "")
	r := newTestReplicate(srv)
	r.MaxWait = 30 * time.Millisecond

	_, err := r.Generate(context.Background(), "r8_test", BuildImagePrompt("x"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReplicateImages_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid token."}`))
	}))
	defer srv.Close()

	_, err := newTestReplicate(srv).Generate(context.Background(), "r8_test", BuildImagePrompt("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid token.")

	_, err = newTestReplicate(srv).Generate(context.Background(), "", BuildImagePrompt("x"))
	assert.Error(t, err)
}
