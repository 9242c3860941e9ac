package service

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/chasetripleseven/attention/internal/domain"
	"github.com/chasetripleseven/attention/internal/ports"
)

// Library is what the playback service needs from the library service.
type Library interface {
	Scan(dir string) (domain.ScanResult, error)
	LoadFile(path string) (*domain.Track, error)
}

// PlaybackService is the playback/queue controller.
// It owns the queue, the current index and the audio sink, and keeps the
// playback status as an explicit Idle/Playing/Paused variant.
//
// The presentation layer calls Tick once per frame and reads State; every other
// method is a user command. Events are published after the lock is released,
// so handlers may call back into the service.
//
// All operations are thread-safe via sync.Mutex.
type PlaybackService struct {
	// Dependencies (injected)
	logger   *slog.Logger
	sink     ports.AudioSink
	library  Library
	bus      ports.EventBus
	presence ports.PresenceReporter

	// Queue
	queue       []domain.Track
	index       int
	libraryPath string

	// Playback
	status   domain.PlaybackStatus
	playhead time.Duration
	duration time.Duration
	volume   float64

	// Events collected under the lock, published on unlock
	pending []domain.Event

	// Concurrency control
	mu sync.Mutex
}

// NewPlaybackService creates a new playback service with an empty queue.
// presence may be nil, in which case nothing is reported.
func NewPlaybackService(
	logger *slog.Logger,
	sink ports.AudioSink,
	library Library,
	bus ports.EventBus,
	presence ports.PresenceReporter,
) *PlaybackService {
	s := &PlaybackService{
		logger:   logger.With(slog.String("service", "playback")),
		sink:     sink,
		library:  library,
		bus:      bus,
		presence: presence,
		status:   domain.StatusIdle,
		volume:   1.0,
	}

	s.logger.Debug("playback service initialized")
	return s
}

// unlockAndPublish releases the lock and publishes the events collected while holding it.
func (s *PlaybackService) unlockAndPublish() {
	events := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, event := range events {
		s.bus.Publish(event)
	}
}

// LoadDirectory replaces the queue with the tracks found in dir.
// Anything playing from the previous queue is stopped first. Playback is not started.
// Returns the number of tracks queued; when dir cannot be read the queue is left empty.
func (s *PlaybackService) LoadDirectory(dir string) (int, error) {
	s.mu.Lock()
	s.stopLocked("library changed")
	s.queue = nil
	s.index = 0
	s.unlockAndPublish()

	result, err := s.library.Scan(dir)

	s.mu.Lock()
	defer s.unlockAndPublish()

	if err != nil {
		s.logger.Warn("failed to load directory", slog.String("path", dir), slog.Any("error", err))
		s.libraryPath = ""
		s.pending = append(s.pending, domain.NewQueueChangedEvent(nil, ""))
		return 0, err
	}

	s.queue = result.Tracks
	s.index = 0
	s.libraryPath = dir
	s.pending = append(s.pending, domain.NewQueueChangedEvent(slices.Clone(s.queue), dir))

	s.logger.Info("queue loaded", slog.String("path", dir), slog.Int("tracks", len(s.queue)))
	return len(s.queue), nil
}

// Enqueue appends a single file to the end of the queue.
func (s *PlaybackService) Enqueue(path string) error {
	track, err := s.library.LoadFile(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.unlockAndPublish()

	s.queue = append(s.queue, *track)
	s.pending = append(s.pending, domain.NewQueueChangedEvent(slices.Clone(s.queue), s.libraryPath))
	return nil
}

// PlayTrack starts the track at index.
// An out of range index returns domain.ErrInvalidIndex and changes nothing.
// A decode failure leaves playback Idle at the previous index.
func (s *PlaybackService) PlayTrack(index int) error {
	s.mu.Lock()
	defer s.unlockAndPublish()
	return s.playTrackLocked(index)
}

func (s *PlaybackService) playTrackLocked(index int) error {
	if index < 0 || index >= len(s.queue) {
		err := fmt.Errorf("%w: %d (queue length %d)", domain.ErrInvalidIndex, index, len(s.queue))
		s.logger.Warn("cannot play track", slog.Any("error", err))
		return err
	}

	track := s.queue[index]
	s.sink.Clear()

	duration, err := s.sink.Load(track.Path)
	if err != nil {
		s.logger.Warn("failed to load track", slog.String("path", track.Path), slog.Any("error", err))
		s.setIdleLocked()
		s.pending = append(s.pending, domain.NewTrackErrorEvent(track, err))
		return domain.NewServiceError("PlaybackService", "PlayTrack", "cannot decode "+track.FileName(), err)
	}
	if duration <= 0 {
		duration = track.Duration
	}

	s.sink.SetVolume(s.volume)
	s.sink.Play()

	s.index = index
	s.status = domain.StatusPlaying
	s.playhead = 0
	s.duration = duration

	s.reportLocked(track)

	s.logger.Info("track started",
		slog.Int("index", index),
		slog.String("title", track.Title),
		slog.String("artist", track.Artist))
	s.pending = append(s.pending, domain.NewTrackStartedEvent(track, index))
	return nil
}

// Play resumes a paused track. With nothing loaded it does nothing.
func (s *PlaybackService) Play() error {
	s.mu.Lock()
	defer s.unlockAndPublish()
	s.playLocked()
	return nil
}

func (s *PlaybackService) playLocked() {
	if s.status != domain.StatusPaused {
		return
	}

	s.sink.Play()
	s.status = domain.StatusPlaying
	s.pending = append(s.pending, domain.NewTrackResumedEvent(s.queue[s.index]))
}

// Pause pauses the current track. Pausing twice is the same as pausing once.
func (s *PlaybackService) Pause() error {
	s.mu.Lock()
	defer s.unlockAndPublish()
	s.pauseLocked()
	return nil
}

func (s *PlaybackService) pauseLocked() {
	if s.status != domain.StatusPlaying {
		return
	}

	s.sink.Pause()
	s.status = domain.StatusPaused
	s.playhead = s.sink.Position()
	s.pending = append(s.pending, domain.NewTrackPausedEvent(s.queue[s.index], s.playhead))
}

// TogglePlay pauses when playing, resumes when paused, and starts the
// current index when idle.
func (s *PlaybackService) TogglePlay() error {
	s.mu.Lock()
	defer s.unlockAndPublish()

	switch s.status {
	case domain.StatusPlaying:
		s.pauseLocked()
	case domain.StatusPaused:
		s.playLocked()
	default:
		if len(s.queue) == 0 {
			return domain.ErrQueueEmpty
		}
		return s.playTrackLocked(s.index)
	}
	return nil
}

// Next plays the following track.
func (s *PlaybackService) Next() error {
	s.mu.Lock()
	defer s.unlockAndPublish()

	if !s.canNextLocked() {
		return domain.ErrEndOfQueue
	}
	return s.playTrackLocked(s.index + 1)
}

// Prev plays the preceding track.
func (s *PlaybackService) Prev() error {
	s.mu.Lock()
	defer s.unlockAndPublish()

	if !s.canPrevLocked() {
		return domain.ErrStartOfQueue
	}
	return s.playTrackLocked(s.index - 1)
}

// CanNext reports whether Next would stay inside the queue.
func (s *PlaybackService) CanNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canNextLocked()
}

// CanPrev reports whether Prev would stay inside the queue.
func (s *PlaybackService) CanPrev() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canPrevLocked()
}

func (s *PlaybackService) canNextLocked() bool {
	return len(s.queue) > 0 && s.index+1 != len(s.queue)
}

func (s *PlaybackService) canPrevLocked() bool {
	return len(s.queue) > 0 && s.index != 0
}

// Tick is called once per frame. It pushes the volume to the sink when they
// disagree, refreshes the playhead and advances when the sink ran out.
// At the end of the queue playback stops; it does not wrap around.
func (s *PlaybackService) Tick() {
	s.mu.Lock()
	defer s.unlockAndPublish()

	if s.sink.Volume() != s.volume {
		s.sink.SetVolume(s.volume)
	}

	if s.status == domain.StatusIdle {
		return
	}

	s.playhead = s.sink.Position()

	if s.status != domain.StatusPlaying || !s.sink.Empty() {
		return
	}

	if s.canNextLocked() {
		if err := s.playTrackLocked(s.index + 1); err != nil {
			s.logger.Warn("auto-advance failed", slog.Any("error", err))
		}
		return
	}

	s.logger.Info("end of queue reached")
	s.stopLocked("end of queue")
}

// Seek moves the playhead of the current track.
func (s *PlaybackService) Seek(position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.StatusIdle {
		return domain.ErrNoTrackLoaded
	}

	if err := s.sink.Seek(position); err != nil {
		s.logger.Warn("seek rejected", slog.Duration("position", position), slog.Any("error", err))
		return domain.NewServiceError("PlaybackService", "Seek", "seek rejected", err)
	}

	s.playhead = position
	return nil
}

// SetVolume stores the volume level (clamped to 0..1). It reaches the sink on the next Tick.
func (s *PlaybackService) SetVolume(level float64) {
	s.mu.Lock()
	defer s.unlockAndPublish()

	level = lo.Clamp(level, 0, 1)
	if level == s.volume {
		return
	}
	s.volume = level
	s.pending = append(s.pending, domain.NewVolumeChangedEvent(level))
}

// Volume returns the controller's volume level.
func (s *PlaybackService) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Track returns the track at the current index, or nil when the queue is empty.
func (s *PlaybackService) Track() *domain.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackLocked()
}

func (s *PlaybackService) trackLocked() *domain.Track {
	if len(s.queue) == 0 {
		return nil
	}
	track := s.queue[s.index]
	return &track
}

// Index returns the current queue index, or -1 when the queue is empty.
func (s *PlaybackService) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return -1
	}
	return s.index
}

// Queue returns a copy of the queue.
func (s *PlaybackService) Queue() []domain.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.queue)
}

// LibraryPath returns the directory the queue was built from.
func (s *PlaybackService) LibraryPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.libraryPath
}

// Status returns the playback status.
func (s *PlaybackService) Status() domain.PlaybackStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// State returns a snapshot for rendering.
func (s *PlaybackService) State() domain.PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := domain.PlayerState{
		Track:       s.trackLocked(),
		Index:       -1,
		QueueLength: len(s.queue),
		Status:      s.status,
		Playhead:    s.playhead,
		Volume:      s.volume,
		CanNext:     s.canNextLocked(),
		CanPrev:     s.canPrevLocked(),
	}
	if len(s.queue) > 0 {
		state.Index = s.index
	}
	if s.status != domain.StatusIdle {
		state.Duration = s.duration
	}
	return state
}

// SetPresenceReporter swaps the presence reporter. The old reporter is cleared,
// and the new one is told about the current track if one is active.
// A nil reporter disables reporting.
func (s *PlaybackService) SetPresenceReporter(reporter ports.PresenceReporter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearPresenceLocked()
	s.presence = reporter

	if s.status != domain.StatusIdle {
		s.reportLocked(s.queue[s.index])
	}
}

func (s *PlaybackService) reportLocked(track domain.Track) {
	if s.presence == nil {
		return
	}
	if err := s.presence.Report(track.Artist, track.Title); err != nil {
		s.logger.Warn("failed to report presence", slog.Any("error", err))
	}
}

func (s *PlaybackService) clearPresenceLocked() {
	if s.presence == nil {
		return
	}
	if err := s.presence.Clear(); err != nil {
		s.logger.Warn("failed to clear presence", slog.Any("error", err))
	}
}

// Shutdown stops playback and clears the presence status.
func (s *PlaybackService) Shutdown() error {
	s.mu.Lock()
	defer s.unlockAndPublish()

	s.stopLocked("shutdown")
	s.logger.Debug("playback service stopped")
	return nil
}

// stopLocked releases the sink source and goes Idle, if not Idle already.
func (s *PlaybackService) stopLocked(reason string) {
	if s.status == domain.StatusIdle {
		return
	}

	s.sink.Clear()
	s.setIdleLocked()
	s.pending = append(s.pending, domain.NewPlaybackIdleEvent(reason))
}

func (s *PlaybackService) setIdleLocked() {
	s.status = domain.StatusIdle
	s.playhead = 0
	s.duration = 0

	s.clearPresenceLocked()
}
