package actor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/leapstack-labs/leapframe/internal/backend"
	"github.com/leapstack-labs/leapframe/internal/frame"
	"github.com/leapstack-labs/leapframe/internal/source"
	"github.com/leapstack-labs/leapframe/internal/state"
	"github.com/leapstack-labs/leapframe/internal/testutil"
)

// fakeBackend records Connect calls. Special names change its behavior:
// "gate" blocks until gate is closed, "boom" panics and "fail" errors.
type fakeBackend struct {
	mu     sync.Mutex
	calls  []string
	gate   chan struct{}
	closed bool
}

func newFake() *fakeBackend {
	return &fakeBackend{gate: make(chan struct{})}
}

func (f *fakeBackend) Connect(_ context.Context, opts backend.ConnectOptions) error {
	f.mu.Lock()
	f.calls = append(f.calls, opts.Name)
	f.mu.Unlock()

	switch opts.Name {
	case "gate":
		<-f.gate
	case "boom":
		panic("kaboom")
	case "fail":
		return &backend.RegistrationError{Name: opts.Name, Source: opts.Source.String(), Err: errors.New("bad file")}
	}
	return nil
}

func (f *fakeBackend) List(context.Context) (frame.Frame, error) {
	return frame.Frame{}, backend.ErrUnsupported
}

func (f *fakeBackend) Schema(_ context.Context, name string) (frame.Frame, error) {
	return frame.Frame{}, &backend.UnknownDatasetError{Name: name}
}

func (f *fakeBackend) Head(_ context.Context, name string, _ int) (frame.Frame, error) {
	return frame.Frame{}, &backend.UnknownDatasetError{Name: name}
}

func (f *fakeBackend) Describe(_ context.Context, name string) (frame.Frame, error) {
	return frame.Frame{}, &backend.UnknownDatasetError{Name: name}
}

func (f *fakeBackend) SQL(_ context.Context, query string) (frame.Frame, error) {
	return frame.Frame{}, &backend.QueryError{Query: query, Err: errors.New("no engine")}
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// verifyNoLeaks checks for stray goroutines after every other cleanup ran.
func verifyNoLeaks(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { goleak.VerifyNone(t) })
}

var csvSource = source.DelimitedFile{FileSpec: source.FileSpec{Path: "data.csv", Format: source.FormatCSV}}

func connectCmd(name string) Connect {
	return Connect{Source: csvSource, Name: name}
}

// start runs a over fb and stops it when the test ends.
func start(t *testing.T, fb *fakeBackend, opts ...Option) *Actor {
	t.Helper()
	opts = append([]Option{WithLogger(testutil.NewTestLogger(t))}, opts...)
	a := New(func(context.Context) (backend.Backend, error) { return fb, nil }, opts...)

	runErr := make(chan error, 1)
	go func() { runErr <- a.Run(context.Background()) }()
	require.NoError(t, a.WaitReady(context.Background()))

	t.Cleanup(func() {
		a.Close()
		assert.NoError(t, <-runErr)
	})
	return a
}

func TestActor_ReplyPerCommand(t *testing.T) {
	verifyNoLeaks(t)
	fb := newFake()
	a := start(t, fb)
	ctx := context.Background()

	text, err := a.Submit(ctx, connectCmd("people"))
	require.NoError(t, err)
	assert.Equal(t, `Registered dataset "people" from data.csv`, text)

	_, err = a.Submit(ctx, connectCmd("fail"))
	var regErr *backend.RegistrationError
	require.ErrorAs(t, err, &regErr)

	_, err = a.Submit(ctx, Head{Name: "ghost", N: 5})
	var unknown *backend.UnknownDatasetError
	require.ErrorAs(t, err, &unknown)

	_, err = a.Submit(ctx, List{})
	assert.ErrorIs(t, err, backend.ErrUnsupported)
}

func TestActor_FIFO(t *testing.T) {
	verifyNoLeaks(t)
	fb := newFake()
	a := start(t, fb)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = a.Submit(ctx, connectCmd("gate"))
	}()
	require.Eventually(t, func() bool { return len(fb.Calls()) == 1 }, time.Second, time.Millisecond)

	want := []string{"gate"}
	for i := range 5 {
		name := fmt.Sprintf("c%d", i)
		want = append(want, name)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Submit(ctx, connectCmd(name))
			assert.NoError(t, err)
		}()
		require.Eventually(t, func() bool { return len(a.inbox) == i+1 }, time.Second, time.Millisecond)
	}

	close(fb.gate)
	wg.Wait()
	assert.Equal(t, want, fb.Calls())
}

func TestActor_SequentialCallerOrdering(t *testing.T) {
	verifyNoLeaks(t)
	fb := newFake()
	a := start(t, fb)
	ctx := context.Background()

	for _, name := range []string{"one", "two", "three"} {
		_, err := a.Submit(ctx, connectCmd(name))
		require.NoError(t, err)
		// The reply for a command arrives only after it ran.
		calls := fb.Calls()
		assert.Equal(t, name, calls[len(calls)-1])
	}
}

func TestActor_PanicIsRecovered(t *testing.T) {
	verifyNoLeaks(t)
	fb := newFake()
	a := start(t, fb)
	ctx := context.Background()

	_, err := a.Submit(ctx, connectCmd("boom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect: internal error: kaboom")

	_, err = a.Submit(ctx, connectCmd("after"))
	assert.NoError(t, err)
}

func TestActor_Backpressure(t *testing.T) {
	verifyNoLeaks(t)
	fb := newFake()
	a := start(t, fb, WithInboxSize(1))
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = a.Submit(ctx, connectCmd("gate"))
	}()
	require.Eventually(t, func() bool { return len(fb.Calls()) == 1 }, time.Second, time.Millisecond)
	go func() {
		defer wg.Done()
		_, _ = a.Submit(ctx, connectCmd("queued"))
	}()
	require.Eventually(t, func() bool { return len(a.inbox) == 1 }, time.Second, time.Millisecond)

	full, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err := a.Submit(full, connectCmd("rejected"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(fb.gate)
	wg.Wait()
	assert.Equal(t, []string{"gate", "queued"}, fb.Calls())
}

func TestActor_AcceptedCommandIgnoresCancel(t *testing.T) {
	verifyNoLeaks(t)
	fb := newFake()
	a := start(t, fb)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := a.Submit(ctx, connectCmd("gate"))
		done <- err
	}()
	require.Eventually(t, func() bool { return len(fb.Calls()) == 1 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
		t.Fatal("Submit returned before its command finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(fb.gate)
	assert.NoError(t, <-done)
}

func TestActor_Stopped(t *testing.T) {
	verifyNoLeaks(t)
	fb := newFake()
	a := New(func(context.Context) (backend.Backend, error) { return fb, nil })

	runErr := make(chan error, 1)
	go func() { runErr <- a.Run(context.Background()) }()
	require.NoError(t, a.WaitReady(context.Background()))

	a.Close()
	require.NoError(t, <-runErr)
	assert.True(t, fb.Closed())

	_, err := a.Submit(context.Background(), List{})
	assert.ErrorIs(t, err, ErrStopped)
	assert.NoError(t, a.WaitReady(context.Background()), "a worker that started stays ready")

	assert.Error(t, a.Run(context.Background()), "second Run must fail")
}

func TestActor_ContextEndsWorker(t *testing.T) {
	verifyNoLeaks(t)
	fb := newFake()
	a := New(func(context.Context) (backend.Backend, error) { return fb, nil })

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- a.Run(ctx) }()
	require.NoError(t, a.WaitReady(ctx))

	cancel()
	require.NoError(t, <-runErr)
	<-a.Done()
	assert.True(t, fb.Closed())

	_, err := a.Submit(context.Background(), List{})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestActor_OpenFailure(t *testing.T) {
	verifyNoLeaks(t)
	openErr := errors.New("no disk")
	a := New(func(context.Context) (backend.Backend, error) { return nil, openErr })

	runErr := make(chan error, 1)
	go func() { runErr <- a.Run(context.Background()) }()

	err := a.WaitReady(context.Background())
	assert.ErrorIs(t, err, openErr)
	assert.ErrorIs(t, <-runErr, openErr)

	_, err = a.Submit(context.Background(), List{})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestActor_Journal(t *testing.T) {
	ctx := context.Background()
	journal, err := state.Open(ctx, ":memory:", testutil.NewTestLogger(t))
	require.NoError(t, err)
	defer func() { _ = journal.Close() }()

	fb := newFake()
	a := start(t, fb, WithJournal(journal))

	_, err = a.Submit(ctx, connectCmd("people"))
	require.NoError(t, err)
	_, err = a.Submit(ctx, connectCmd("fail"))
	require.Error(t, err)

	datasets, err := journal.Datasets(ctx)
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Equal(t, "people", datasets[0].Name)
	wantSource, err := filepath.Abs("data.csv")
	require.NoError(t, err)
	assert.Equal(t, wantSource, datasets[0].Source)

	commands, err := journal.Commands(ctx, 0)
	require.NoError(t, err)
	require.Len(t, commands, 2)
	for _, rec := range commands {
		assert.Equal(t, "connect", rec.Name)
	}
	failed := 0
	for _, rec := range commands {
		if !rec.OK {
			failed++
			assert.Contains(t, rec.Error, "bad file")
		}
	}
	assert.Equal(t, 1, failed)
}

func TestActor_Restore(t *testing.T) {
	ctx := context.Background()
	journal, err := state.Open(ctx, ":memory:", nil)
	require.NoError(t, err)
	defer func() { _ = journal.Close() }()

	require.NoError(t, journal.RecordDataset(ctx, "people", "people.csv"))
	require.NoError(t, journal.RecordDataset(ctx, "broken", "broken.unknownext"))
	require.NoError(t, journal.RecordDataset(ctx, "fail", "fail.csv"))

	fb := newFake()
	start(t, fb, WithJournal(journal), WithRestore(true))

	// Unparseable sources are skipped before reaching the backend.
	assert.Equal(t, []string{"people", "fail"}, fb.Calls())
}

func TestActor_WithDuckDB(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "people.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name\n1,alice\n2,bob\n"), 0o600))

	a := New(func(ctx context.Context) (backend.Backend, error) {
		return backend.OpenDuckDB(ctx, backend.Config{Database: ":memory:", Logger: testutil.NewTestLogger(t)})
	}, WithLogger(testutil.NewTestLogger(t)))

	runErr := make(chan error, 1)
	go func() { runErr <- a.Run(ctx) }()
	require.NoError(t, a.WaitReady(ctx))
	defer func() {
		a.Close()
		assert.NoError(t, <-runErr)
	}()

	src, err := source.Parse(path)
	require.NoError(t, err)
	_, err = a.Submit(ctx, Connect{Source: src, Name: "people"})
	require.NoError(t, err)

	tests := []struct {
		name string
		cmd  Command
		want []string
	}{
		{"list", List{}, []string{"people", "VIEW", "(1 row)"}},
		{"schema", Schema{Name: "people"}, []string{"id", "name", "BIGINT", "VARCHAR"}},
		{"head", Head{Name: "people", N: 1}, []string{"alice", "(1 row)"}},
		{"head zero", Head{Name: "people", N: 0}, []string{"id", "(0 rows)"}},
		{"describe", Describe{Name: "people"}, []string{"Null Total", "Median", "(7 rows)"}},
		{"sql", SQL{Query: "SELECT upper(name) AS shout FROM people ORDER BY id"}, []string{"ALICE", "BOB"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := a.Submit(ctx, tt.cmd)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}

	_, err = a.Submit(ctx, SQL{Query: "SELECT * FROM nowhere"})
	var qErr *backend.QueryError
	require.ErrorAs(t, err, &qErr)
	assert.Contains(t, qErr.Error(), "nowhere")

	_, err = a.Submit(ctx, SQL{Query: "SELECT CAST('x' AS INTEGER)"})
	require.ErrorAs(t, err, &qErr, "execution errors are query errors too")
}
