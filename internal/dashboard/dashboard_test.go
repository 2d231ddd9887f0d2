package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakePublisher struct {
	mu     sync.Mutex
	events []string
	args   [][]any
	err    error
}

func (p *fakePublisher) Emit(ev string, args ...any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	p.args = append(p.args, args)
	return nil
}

func (p *fakePublisher) Id() string { return "sid-1" }

type recordingWriter struct {
	name   string
	epochs []int
	err    error
	closed *[]string
}

func (w *recordingWriter) AddScalars(_ context.Context, epoch int, _ map[string]float64) error {
	w.epochs = append(w.epochs, epoch)
	return w.err
}

func (w *recordingWriter) Close() error {
	*w.closed = append(*w.closed, w.name)
	return w.err
}

func TestScalarFile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := filepath.Join(t.TempDir(), "runs", "HDGAN_COCO", "0501_120000")
	w, err := NewScalarFile(dir, "0501_120000")
	require.NoError(t, err)
	w.now = func() time.Time { return fixedTime }
	scalars := map[string]float64{"loss_G": 1.5, "loss_D": 0.25}

	// --- Act ---
	require.NoError(t, w.AddScalars(context.Background(), 1, scalars))
	scalars["loss_G"] = 99
	require.NoError(t, w.AddScalars(context.Background(), 2, map[string]float64{"loss_G": 1.0}))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "closing twice is harmless")

	// --- Assert ---
	require.Equal(t, filepath.Join(dir, ScalarFileName), w.Path())
	f, err := os.Open(w.Path())
	require.NoError(t, err)
	defer f.Close()

	var events []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, sc.Err())
	require.Equal(t, []Event{
		{Time: fixedTime, Run: "0501_120000", Epoch: 1, Scalars: map[string]float64{"loss_G": 1.5, "loss_D": 0.25}},
		{Time: fixedTime, Run: "0501_120000", Epoch: 2, Scalars: map[string]float64{"loss_G": 1.0}},
	}, events)

	require.Error(t, w.AddScalars(context.Background(), 3, nil), "writes after close fail")
}

func TestSocketIO_EmitsScalars(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	pub := &fakePublisher{}
	disconnects := 0
	w := newSocketIO(pub, func() { disconnects++ }, "run-1")
	w.now = func() time.Time { return fixedTime }

	// --- Act ---
	err := w.AddScalars(context.Background(), 3, map[string]float64{"acc": 0.5})

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, []string{ScalarsEvent}, pub.events)
	require.Equal(t, Event{Time: fixedTime, Run: "run-1", Epoch: 3, Scalars: map[string]float64{"acc": 0.5}}, pub.args[0][0])

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	require.Equal(t, 1, disconnects)
}

func TestSocketIO_EmitError(t *testing.T) {
	t.Parallel()

	boom := errors.New("socket closed")
	w := newSocketIO(&fakePublisher{err: boom}, nil, "run-1")

	err := w.AddScalars(context.Background(), 1, nil)

	require.ErrorIs(t, err, boom)
	require.NoError(t, w.Close())
}

func TestNewSocketIO_BadURL(t *testing.T) {
	t.Parallel()

	_, err := NewSocketIO(context.Background(), "http://[::1", "run")

	require.ErrorContains(t, err, "failed to parse dashboard URL")
}

func TestMulti(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var closed []string
	boom := errors.New("boom")
	a := &recordingWriter{name: "a", closed: &closed}
	b := &recordingWriter{name: "b", err: boom, closed: &closed}
	c := &recordingWriter{name: "c", closed: &closed}
	m := Multi{a, b, c}

	// --- Act ---
	addErr := m.AddScalars(context.Background(), 7, map[string]float64{"x": 1})
	closeErr := m.Close()

	// --- Assert ---
	require.ErrorIs(t, addErr, boom)
	assert.Equal(t, []int{7}, a.epochs)
	assert.Equal(t, []int{7}, c.epochs, "a failing writer does not stop the others")
	require.ErrorIs(t, closeErr, boom)
	assert.Equal(t, []string{"c", "b", "a"}, closed)
}

func TestCombine(t *testing.T) {
	t.Parallel()

	var closed []string
	a := &recordingWriter{name: "a", closed: &closed}
	b := &recordingWriter{name: "b", closed: &closed}

	require.Equal(t, Nop{}, Combine())
	require.Equal(t, Nop{}, Combine(nil, Nop{}))
	require.Same(t, a, Combine(Nop{}, a))
	require.Equal(t, Multi{a, b}, Combine(a, nil, b))
}

func TestConnectError(t *testing.T) {
	t.Parallel()

	refused := errors.New("refused")
	testCases := []struct {
		name    string
		payload []any
		want    string
	}{
		{name: "empty payload", payload: nil, want: "socket.io connection refused"},
		{name: "error value", payload: []any{refused}, want: "refused"},
		{name: "other value", payload: []any{map[string]any{"message": "bad ns"}}, want: "socket.io connection refused: map[message:bad ns]"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var err error
			require.NotPanics(t, func() { err = connectError(tc.payload) })

			require.EqualError(t, err, tc.want)
		})
	}
}
