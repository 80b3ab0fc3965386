package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icednano/nano/store"
)

func TestGesturesAndSaves(t *testing.T) {
	m := New()
	m.ObserveGesture("xover", "committed")
	m.ObserveGesture("xover", "committed")
	m.ObserveGesture("rotate", "cancelled")
	m.ObserveSave(store.SaveResult{Elapsed: time.Millisecond})
	m.ObserveSave(store.SaveResult{Err: errors.New("disk full")})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.gestures.WithLabelValues("xover", "committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gestures.WithLabelValues("rotate", "cancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.saves.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.saves.WithLabelValues("error")))
}

func TestObserveBuild(t *testing.T) {
	m := New()
	m.ObserveBuild("2d", 2*time.Millisecond, 17, 120)
	m.FramePresented()

	assert.Equal(t, 17.0, testutil.ToFloat64(m.primitives.WithLabelValues("2d")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.vertices.WithLabelValues("2d")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.frames))
	assert.Equal(t, 1, testutil.CollectAndCount(m.buildSeconds))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveGesture("cut", "committed")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `icednano_session_gestures_total{kind="cut",outcome="committed"} 1`), text)
	assert.Contains(t, text, "icednano_build_info")
}
