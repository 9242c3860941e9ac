package service

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chasetripleseven/attention/internal/adapter/audio/mock"
	"github.com/chasetripleseven/attention/internal/adapter/eventbus"
	"github.com/chasetripleseven/attention/internal/domain"
	"github.com/chasetripleseven/attention/internal/logger"
)

// fakePresence records reporter calls.
type fakePresence struct {
	mu        sync.Mutex
	reports   []string
	clears    int
	reportErr error
}

func (p *fakePresence) Report(artist, title string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reportErr != nil {
		return p.reportErr
	}
	p.reports = append(p.reports, artist+" - "+title)
	return nil
}

func (p *fakePresence) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clears++
	return nil
}

func (p *fakePresence) Close() error { return nil }

func (p *fakePresence) last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.reports) == 0 {
		return ""
	}
	return p.reports[len(p.reports)-1]
}

type testPlayback struct {
	service  *PlaybackService
	sink     *mock.Sink
	loader   *mock.Loader
	bus      *eventbus.SyncEventBus
	presence *fakePresence
}

// Helper to create a test playback service with an initialized mock sink
func newTestPlaybackService(t *testing.T) *testPlayback {
	t.Helper()
	log := logger.NewTestLogger()

	sink := mock.NewSink()
	require.NoError(t, sink.Initialize(44100, 100*time.Millisecond))
	loader := mock.NewLoader(sink)
	bus := eventbus.NewSyncEventBus(log)
	presence := &fakePresence{}

	library := NewLibraryService(log, loader, bus)
	service := NewPlaybackService(log, sink, library, bus, presence)

	t.Cleanup(func() {
		_ = service.Shutdown()
		_ = sink.Shutdown()
		_ = bus.Close()
	})

	return &testPlayback{service: service, sink: sink, loader: loader, bus: bus, presence: presence}
}

// library creates files named after the given tracks and loads them into the queue.
// Durations are in seconds.
func (tp *testPlayback) library(t *testing.T, tracks map[string]int) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, seconds := range tracks {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("audio"), 0o644))
		tp.sink.SetDuration(path, time.Duration(seconds)*time.Second)
		paths = append(paths, path)
	}

	n, err := tp.service.LoadDirectory(dir)
	require.NoError(t, err)
	require.Equal(t, len(tracks), n)
	return dir, paths
}

func TestPlaybackService_InitialState(t *testing.T) {
	tp := newTestPlaybackService(t)

	state := tp.service.State()
	assert.Nil(t, state.Track)
	assert.Equal(t, -1, state.Index)
	assert.Equal(t, 0, state.QueueLength)
	assert.Equal(t, domain.StatusIdle, state.Status)
	assert.False(t, state.CanNext)
	assert.False(t, state.CanPrev)
	assert.Equal(t, 1.0, state.Volume)
	assert.Nil(t, tp.service.Track())
	assert.Equal(t, -1, tp.service.Index())
}

func TestPlaybackService_LoadDirectory(t *testing.T) {
	tp := newTestPlaybackService(t)

	var queueEvent domain.QueueChangedEvent
	eventbus.On(tp.bus, domain.EventQueueChanged, func(e domain.QueueChangedEvent) {
		queueEvent = e
	})

	dir, _ := tp.library(t, map[string]int{"a.mp3": 180, "b.mp3": 200})

	assert.Len(t, tp.service.Queue(), 2)
	assert.Equal(t, 0, tp.service.Index())
	assert.Equal(t, domain.StatusIdle, tp.service.Status(), "loading does not start playback")
	assert.Equal(t, dir, tp.service.LibraryPath())
	assert.Equal(t, dir, queueEvent.Path)
	assert.Len(t, queueEvent.Queue, 2)
	assert.Equal(t, 0, tp.sink.Loads())
}

func TestPlaybackService_LoadDirectory_SkipsRejectedEntries(t *testing.T) {
	tp := newTestPlaybackService(t)
	dir := t.TempDir()
	good := filepath.Join(dir, "good.mp3")
	bad := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(good, []byte("audio"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("text"), 0o644))
	tp.loader.Reject(bad)

	n, err := tp.service.LoadDirectory(dir)
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	queue := tp.service.Queue()
	require.Len(t, queue, 1)
	assert.Equal(t, good, queue[0].Path)
}

func TestPlaybackService_LoadDirectory_Unreadable(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"a.mp3": 180})

	n, err := tp.service.LoadDirectory(filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
	assert.Equal(t, 0, n)
	assert.Empty(t, tp.service.Queue())
	assert.Empty(t, tp.service.LibraryPath())
}

func TestPlaybackService_LoadDirectory_StopsCurrentTrack(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"a.mp3": 180})
	require.NoError(t, tp.service.PlayTrack(0))

	var idle domain.PlaybackIdleEvent
	eventbus.On(tp.bus, domain.EventPlaybackIdle, func(e domain.PlaybackIdleEvent) { idle = e })

	tp.library(t, map[string]int{"x.mp3": 60, "y.mp3": 60})

	assert.Equal(t, domain.StatusIdle, tp.service.Status())
	assert.True(t, tp.sink.Empty())
	assert.Equal(t, "library changed", idle.Reason)
	assert.Equal(t, 0, tp.service.Index())
	assert.GreaterOrEqual(t, tp.presence.clears, 1)
}

func TestPlaybackService_PlayTrack(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"Band - a.mp3": 180, "Band - b.mp3": 200, "c.mp3": 90})
	queue := tp.service.Queue()

	var started []domain.TrackStartedEvent
	eventbus.On(tp.bus, domain.EventTrackStarted, func(e domain.TrackStartedEvent) {
		started = append(started, e)
	})

	for i := range queue {
		require.NoError(t, tp.service.PlayTrack(i))

		assert.Equal(t, i, tp.service.Index())
		require.NotNil(t, tp.service.Track())
		assert.Equal(t, queue[i], *tp.service.Track())
		assert.Equal(t, queue[i].Path, tp.sink.LoadedPath())
		assert.Equal(t, domain.StatusPlaying, tp.service.Status())
		assert.False(t, tp.sink.IsPaused())
	}

	require.Len(t, started, len(queue))
	assert.Equal(t, 2, started[2].Index)
}

func TestPlaybackService_PlayTrack_ReportsPresence(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"Band - Song.mp3": 180})

	require.NoError(t, tp.service.PlayTrack(0))
	assert.Equal(t, "Band - Song", tp.presence.last())
}

func TestPlaybackService_PlayTrack_PresenceFailureIsIgnored(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"Band - Song.mp3": 180})
	tp.presence.reportErr = errors.New("discord not running")

	require.NoError(t, tp.service.PlayTrack(0))
	assert.Equal(t, domain.StatusPlaying, tp.service.Status())
}

func TestPlaybackService_PlayTrack_InvalidIndex(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"a.mp3": 180, "b.mp3": 200})
	require.NoError(t, tp.service.PlayTrack(1))
	before := tp.service.State()
	loads := tp.sink.Loads()

	for _, index := range []int{2, 3, 100, -1} {
		err := tp.service.PlayTrack(index)
		assert.ErrorIs(t, err, domain.ErrInvalidIndex)

		after := tp.service.State()
		assert.Equal(t, before.Index, after.Index)
		assert.Equal(t, before.Status, after.Status)
	}
	assert.Equal(t, loads, tp.sink.Loads())
}

func TestPlaybackService_PlayTrack_EmptyQueue(t *testing.T) {
	tp := newTestPlaybackService(t)

	assert.ErrorIs(t, tp.service.PlayTrack(0), domain.ErrInvalidIndex)
	assert.Equal(t, domain.StatusIdle, tp.service.Status())
}

func TestPlaybackService_PlayTrack_DecodeFailure(t *testing.T) {
	tp := newTestPlaybackService(t)
	_, paths := tp.library(t, map[string]int{"a.mp3": 180})
	tp.sink.SetFailLoad(paths[0], true)

	var trackErr domain.TrackErrorEvent
	eventbus.On(tp.bus, domain.EventTrackError, func(e domain.TrackErrorEvent) { trackErr = e })

	err := tp.service.PlayTrack(0)

	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Equal(t, domain.StatusIdle, tp.service.Status())
	assert.Equal(t, 0, tp.service.Index())
	assert.Equal(t, paths[0], trackErr.Track.Path)
	assert.Error(t, trackErr.Error)
}

func TestPlaybackService_CanNextCanPrev(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"a.mp3": 10, "b.mp3": 10, "c.mp3": 10})
	n := len(tp.service.Queue())

	for i := 0; i < n; i++ {
		require.NoError(t, tp.service.PlayTrack(i))
		assert.Equal(t, i != 0, tp.service.CanPrev(), "index %d", i)
		assert.Equal(t, i+1 != n, tp.service.CanNext(), "index %d", i)

		state := tp.service.State()
		assert.Equal(t, tp.service.CanPrev(), state.CanPrev)
		assert.Equal(t, tp.service.CanNext(), state.CanNext)
	}
}

func TestPlaybackService_NextPrev(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"a.mp3": 10, "b.mp3": 10})
	queue := tp.service.Queue()

	assert.ErrorIs(t, tp.service.Prev(), domain.ErrStartOfQueue)

	require.NoError(t, tp.service.Next())
	assert.Equal(t, 1, tp.service.Index())
	assert.Equal(t, queue[1].Path, tp.sink.LoadedPath())

	assert.ErrorIs(t, tp.service.Next(), domain.ErrEndOfQueue)
	assert.Equal(t, 1, tp.service.Index())

	require.NoError(t, tp.service.Prev())
	assert.Equal(t, 0, tp.service.Index())
	assert.Equal(t, queue[0].Path, tp.sink.LoadedPath())
}

func TestPlaybackService_PlayWithNothingLoaded(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"a.mp3": 10})

	require.NoError(t, tp.service.Play())
	assert.Equal(t, domain.StatusIdle, tp.service.Status())
	assert.Equal(t, 0, tp.sink.Loads())
}

func TestPlaybackService_PauseResume(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"a.mp3": 180})
	require.NoError(t, tp.service.PlayTrack(0))
	require.NoError(t, tp.sink.SimulateProgress(42*time.Second))

	var paused domain.TrackPausedEvent
	eventbus.On(tp.bus, domain.EventTrackPaused, func(e domain.TrackPausedEvent) { paused = e })

	require.NoError(t, tp.service.Pause())
	assert.Equal(t, domain.StatusPaused, tp.service.Status())
	assert.True(t, tp.sink.IsPaused())
	assert.Equal(t, 42*time.Second, paused.Position)

	require.NoError(t, tp.service.Play())
	assert.Equal(t, domain.StatusPlaying, tp.service.Status())
	assert.False(t, tp.sink.IsPaused())
	assert.Equal(t, 0, tp.service.Index())
}

func TestPlaybackService_PauseIsIdempotent(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"a.mp3": 180})
	require.NoError(t, tp.service.PlayTrack(0))

	pauses := 0
	tp.bus.Subscribe(domain.EventTrackPaused, func(domain.Event) { pauses++ })

	require.NoError(t, tp.service.Pause())
	once := tp.service.State()
	require.NoError(t, tp.service.Pause())
	twice := tp.service.State()

	assert.Equal(t, once, twice)
	assert.Equal(t, 1, pauses)
}

func TestPlaybackService_TogglePlay(t *testing.T) {
	tp := newTestPlaybackService(t)

	assert.ErrorIs(t, tp.service.TogglePlay(), domain.ErrQueueEmpty)

	tp.library(t, map[string]int{"a.mp3": 180})

	require.NoError(t, tp.service.TogglePlay())
	assert.Equal(t, domain.StatusPlaying, tp.service.Status())

	require.NoError(t, tp.service.TogglePlay())
	assert.Equal(t, domain.StatusPaused, tp.service.Status())

	require.NoError(t, tp.service.TogglePlay())
	assert.Equal(t, domain.StatusPlaying, tp.service.Status())
	assert.Equal(t, 1, tp.sink.Loads(), "resume does not reload")
}

func TestPlaybackService_Tick_RefreshesPlayhead(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"a.mp3": 180})
	require.NoError(t, tp.service.PlayTrack(0))

	require.NoError(t, tp.sink.SimulateProgress(5*time.Second))
	tp.service.Tick()

	state := tp.service.State()
	assert.Equal(t, 5*time.Second, state.Playhead)
	assert.Equal(t, 180*time.Second, state.Duration)
}

func TestPlaybackService_Tick_AutoAdvance(t *testing.T) {
	tp := newTestPlaybackService(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp3")
	b := filepath.Join(dir, "b.mp3")
	for _, p := range []string{a, b} {
		require.NoError(t, os.WriteFile(p, []byte("audio"), 0o644))
	}
	tp.sink.SetDuration(a, 180*time.Second)
	tp.sink.SetDuration(b, 200*time.Second)
	_, err := tp.service.LoadDirectory(dir)
	require.NoError(t, err)

	require.NoError(t, tp.service.PlayTrack(0))
	tp.sink.Finish()
	tp.service.Tick()

	state := tp.service.State()
	assert.Equal(t, 1, state.Index)
	assert.Equal(t, domain.StatusPlaying, state.Status)
	assert.Equal(t, b, tp.sink.LoadedPath())
	assert.Equal(t, time.Duration(0), state.Playhead)
	assert.Equal(t, 200*time.Second, state.Duration)
}

func TestPlaybackService_Tick_StopsAtEndOfQueue(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"a.mp3": 180})
	require.NoError(t, tp.service.PlayTrack(0))

	var idle domain.PlaybackIdleEvent
	eventbus.On(tp.bus, domain.EventPlaybackIdle, func(e domain.PlaybackIdleEvent) { idle = e })

	tp.sink.Finish()
	tp.service.Tick()

	assert.Equal(t, 0, tp.service.Index())
	assert.Equal(t, domain.StatusIdle, tp.service.Status())
	assert.Equal(t, 1, tp.sink.Loads(), "last track is not replayed")
	assert.Equal(t, "end of queue", idle.Reason)

	// Further ticks change nothing.
	tp.service.Tick()
	assert.Equal(t, 1, tp.sink.Loads())
}

func TestPlaybackService_Tick_PausedDoesNotAdvance(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"a.mp3": 10, "b.mp3": 10})
	require.NoError(t, tp.service.PlayTrack(0))
	require.NoError(t, tp.service.Pause())

	tp.service.Tick()
	assert.Equal(t, 0, tp.service.Index())
	assert.Equal(t, domain.StatusPaused, tp.service.Status())
}

func TestPlaybackService_Tick_AutoAdvanceDecodeFailure(t *testing.T) {
	tp := newTestPlaybackService(t)
	_, _ = tp.library(t, map[string]int{"a.mp3": 10, "b.mp3": 10})
	queue := tp.service.Queue()
	tp.sink.SetFailLoad(queue[1].Path, true)

	require.NoError(t, tp.service.PlayTrack(0))
	tp.sink.Finish()
	tp.service.Tick()

	assert.Equal(t, domain.StatusIdle, tp.service.Status())
	assert.Equal(t, 0, tp.service.Index())

	loads := tp.sink.Loads()
	tp.service.Tick()
	assert.Equal(t, loads, tp.sink.Loads(), "no automatic retry")
}

func TestPlaybackService_SetVolume(t *testing.T) {
	tp := newTestPlaybackService(t)

	var volumeEvent domain.VolumeChangedEvent
	eventbus.On(tp.bus, domain.EventVolumeChanged, func(e domain.VolumeChangedEvent) { volumeEvent = e })

	tp.service.SetVolume(0.5)
	assert.Equal(t, 0.5, tp.service.Volume())
	assert.Equal(t, 1.0, tp.sink.Volume(), "applied on the next tick")
	assert.Equal(t, 0.5, volumeEvent.Volume)

	tp.service.Tick()
	assert.Equal(t, 0.5, tp.sink.Volume())
}

func TestPlaybackService_SetVolume_Clamps(t *testing.T) {
	tp := newTestPlaybackService(t)

	tp.service.SetVolume(1.7)
	assert.Equal(t, 1.0, tp.service.Volume())

	tp.service.SetVolume(-3)
	assert.Equal(t, 0.0, tp.service.Volume())
}

func TestPlaybackService_Tick_ControllerVolumeWins(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"a.mp3": 10})
	require.NoError(t, tp.service.PlayTrack(0))
	tp.service.SetVolume(0.3)

	tp.sink.SetVolume(0.9)
	tp.service.Tick()
	assert.Equal(t, 0.3, tp.sink.Volume())
}

func TestPlaybackService_Seek(t *testing.T) {
	tp := newTestPlaybackService(t)

	assert.ErrorIs(t, tp.service.Seek(time.Second), domain.ErrNoTrackLoaded)

	tp.library(t, map[string]int{"a.mp3": 180})
	require.NoError(t, tp.service.PlayTrack(0))

	require.NoError(t, tp.service.Seek(90*time.Second))
	assert.Equal(t, 90*time.Second, tp.service.State().Playhead)
	assert.Equal(t, 90*time.Second, tp.sink.Position())
}

func TestPlaybackService_Seek_Rejected(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"a.mp3": 180})
	require.NoError(t, tp.service.PlayTrack(0))
	require.NoError(t, tp.service.Seek(10*time.Second))

	err := tp.service.Seek(10 * time.Minute)
	assert.ErrorIs(t, err, domain.ErrInvalidPosition)
	assert.Equal(t, 10*time.Second, tp.service.State().Playhead)

	tp.sink.SetFailSeek(true)
	assert.ErrorIs(t, tp.service.Seek(20*time.Second), domain.ErrSeekUnsupported)
	assert.Equal(t, domain.StatusPlaying, tp.service.Status())
}

func TestPlaybackService_Enqueue(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"a.mp3": 10})

	extra := filepath.Join(t.TempDir(), "Guest - Single.flac")
	require.NoError(t, tp.service.Enqueue(extra))

	queue := tp.service.Queue()
	require.Len(t, queue, 2)
	assert.Equal(t, extra, queue[1].Path)
	assert.Equal(t, "Guest", queue[1].Artist)
	assert.True(t, tp.service.CanNext())

	tp.loader.Reject("/nope.txt")
	assert.Error(t, tp.service.Enqueue("/nope.txt"))
	assert.Len(t, tp.service.Queue(), 2)
}

func TestPlaybackService_QueueIsACopy(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"a.mp3": 10})

	queue := tp.service.Queue()
	queue[0].Title = "changed"
	assert.NotEqual(t, "changed", tp.service.Queue()[0].Title)
}

func TestPlaybackService_SetPresenceReporter(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"Band - Song.mp3": 10})
	require.NoError(t, tp.service.PlayTrack(0))

	next := &fakePresence{}
	tp.service.SetPresenceReporter(next)

	assert.Equal(t, 1, tp.presence.clears, "old reporter is cleared")
	assert.Equal(t, "Band - Song", next.last(), "new reporter learns the current track")

	// nil switches reporting off without failing later calls.
	tp.service.SetPresenceReporter(nil)
	require.NoError(t, tp.service.PlayTrack(0))
	assert.Len(t, next.reports, 1)
}

func TestPlaybackService_WithoutPresenceReporter(t *testing.T) {
	log := logger.NewTestLogger()
	sink := mock.NewSink()
	require.NoError(t, sink.Initialize(44100, 100*time.Millisecond))
	bus := eventbus.NewSyncEventBus(log)
	defer bus.Close()

	service := NewPlaybackService(log, sink, NewLibraryService(log, mock.NewLoader(sink), bus), bus, nil)

	dir := t.TempDir()
	path := filepath.Join(dir, "Band - Song.mp3")
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o644))
	_, err := service.LoadDirectory(dir)
	require.NoError(t, err)

	require.NoError(t, service.PlayTrack(0))
	assert.Equal(t, domain.StatusPlaying, service.Status())
	require.NoError(t, service.Shutdown())
	assert.Equal(t, domain.StatusIdle, service.Status())
}

func TestPlaybackService_Shutdown(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"a.mp3": 10})
	require.NoError(t, tp.service.PlayTrack(0))

	require.NoError(t, tp.service.Shutdown())
	assert.True(t, tp.sink.Empty())
	assert.Equal(t, domain.StatusIdle, tp.service.Status())
	assert.GreaterOrEqual(t, tp.presence.clears, 1)
}

func TestPlaybackService_HandlersMayCallBack(t *testing.T) {
	tp := newTestPlaybackService(t)

	var seen domain.PlayerState
	tp.bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {
		seen = tp.service.State()
	})

	tp.library(t, map[string]int{"a.mp3": 10})
	require.NoError(t, tp.service.PlayTrack(0))
	assert.Equal(t, domain.StatusPlaying, seen.Status)
}

func TestPlaybackService_ConcurrentCommands(t *testing.T) {
	tp := newTestPlaybackService(t)
	tp.library(t, map[string]int{"a.mp3": 10, "b.mp3": 10, "c.mp3": 10})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 4 {
			case 0:
				_ = tp.service.PlayTrack(i % 3)
			case 1:
				_ = tp.service.TogglePlay()
			case 2:
				tp.service.Tick()
			default:
				_ = tp.service.State()
			}
		}(i)
	}
	wg.Wait()

	state := tp.service.State()
	assert.GreaterOrEqual(t, state.Index, 0)
	assert.Less(t, state.Index, 3)
}
