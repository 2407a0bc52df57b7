package trigger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citia/citewatch/internal/conf"
	"github.com/citia/citewatch/internal/observability"
)

func testController(t *testing.T, stages map[string]StageFunc) *Controller {
	t.Helper()
	m, err := observability.NewMetrics()
	require.NoError(t, err)

	settings := &conf.Settings{}
	settings.Pipeline.StageTimeout = 5 * time.Second
	settings.HTTP.Listen = ":0"
	settings.Metrics.Enabled = true

	return New(settings, stages, m)
}

func post(c *Controller, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c.echo.ServeHTTP(rec, req)
	return rec
}

func TestTriggerPlainPayload(t *testing.T) {
	t.Parallel()

	var ran atomic.Bool
	done := make(chan struct{})
	c := testController(t, map[string]StageFunc{
		ActionExtract: func(ctx context.Context) error {
			ran.Store(true)
			close(done)
			return nil
		},
	})

	rec := post(c, `{"action":"extract"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])
	assert.Equal(t, "extract", resp["action"])

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stage did not run")
	}
	assert.True(t, ran.Load())
}

func TestTriggerPubSubEnvelope(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	c := testController(t, map[string]StageFunc{
		ActionAggregate: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})

	data := base64.StdEncoding.EncodeToString([]byte(`{"action":"aggregate"}`))
	body := fmt.Sprintf(`{"message":{"data":%q,"messageId":"m-1"},"subscription":"sub"}`, data)

	rec := post(c, body)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stage did not run")
	}
}

func TestTriggerRejectsUnknownAction(t *testing.T) {
	t.Parallel()

	c := testController(t, map[string]StageFunc{
		ActionExtract: func(ctx context.Context) error { return nil },
	})

	rec := post(c, `{"action":"reprocess-everything"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	c := testController(t, map[string]StageFunc{})

	assert.Equal(t, http.StatusBadRequest, post(c, `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, post(c, `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(c, `{"message":{"data":"!!!"}}`).Code)
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	c := testController(t, map[string]StageFunc{})

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rec := httptest.NewRecorder()
	c.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	c := testController(t, map[string]StageFunc{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	c.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "citewatch_answers_processed_total")
}

func TestTriggerCompletionChannel(t *testing.T) {
	t.Parallel()

	stageErr := fmt.Errorf("window read failed")
	c := testController(t, map[string]StageFunc{
		ActionAlert: func(ctx context.Context) error { return stageErr },
	})

	done, ok := c.Trigger(ActionAlert)
	require.True(t, ok, "acceptance is immediate")

	select {
	case err := <-done:
		assert.ErrorIs(t, err, stageErr)
	case <-time.After(time.Second):
		t.Fatal("stage result never arrived")
	}

	_, ok = c.Trigger("unknown")
	assert.False(t, ok)
}

func TestShutdownWaitsForStages(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var finished atomic.Bool
	c := testController(t, map[string]StageFunc{
		ActionExtract: func(ctx context.Context) error {
			<-release
			finished.Store(true)
			return nil
		},
	})

	_, ok := c.Trigger(ActionExtract)
	require.True(t, ok)

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Shutdown(ctx))
	assert.True(t, finished.Load(), "shutdown returns only after in-flight runs finish")
}
