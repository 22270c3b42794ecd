package spyn

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spynners/api/internal/model"
	"github.com/spynners/api/internal/recorder"
)

// Config holds the engine timing. Zero values fall back to the product
// defaults: a recognition attempt every 12s on 8s samples, sessions
// capped at 5 hours.
type Config struct {
	RecognitionInterval time.Duration
	RecordingDuration   time.Duration
	MaxDuration         time.Duration

	// durationTick drives elapsed-time recomputation; 1 Hz in production,
	// shrunk by tests.
	durationTick time.Duration
}

func (c Config) withDefaults() Config {
	if c.RecognitionInterval <= 0 {
		c.RecognitionInterval = 12 * time.Second
	}
	if c.RecordingDuration <= 0 {
		c.RecordingDuration = 8 * time.Second
	}
	if c.MaxDuration <= 0 {
		c.MaxDuration = 5 * time.Hour
	}
	if c.durationTick <= 0 {
		c.durationTick = time.Second
	}
	return c
}

// Deps are the engine's collaborators. Recorder, Recognizer and Queue are
// required; the rest degrade gracefully when nil.
type Deps struct {
	Recorder   recorder.Recorder
	Recognizer Recognizer
	Queue      OfflineQueue
	Locator    VenueLocator
	Rewarder   Rewarder
	Notifier   Notifier
	Events     EventSink
}

// Engine owns one SPYN session at a time: the state machine, the
// recognition loop, the de-duplication set and the settlement sequence.
// One engine instance serves one user; it is not designed for concurrent
// sessions.
type Engine struct {
	cfg  Config
	deps Deps

	mu             sync.Mutex
	state          model.SessionState
	sessionID      string
	userID         string
	displayName    string
	startTime      time.Time
	elapsed        int64
	venue          *model.Venue
	tracks         []model.RecognizedTrack // newest first
	seen           map[string]struct{}
	online         bool
	offlineCount   int
	discarded      int
	cycleInFlight  bool
	syncInFlight   bool
	rewardGranted  bool
	alreadyAwarded bool
	stop           chan struct{}
}

func NewEngine(userID string, cfg Config, deps Deps) *Engine {
	return &Engine{
		cfg:    cfg.withDefaults(),
		deps:   deps,
		state:  model.SessionStateIdle,
		userID: userID,
		seen:   make(map[string]struct{}),
		online: true,
	}
}

// Start transitions Idle → Active: probes the capture capability, snapshots
// the venue best-effort, clears per-session state and starts the duration
// and recognition tickers.
func (e *Engine) Start(ctx context.Context, displayName string, lat, lng *float64) (*model.SessionSnapshot, error) {
	e.mu.Lock()
	if e.state != model.SessionStateIdle {
		e.mu.Unlock()
		return nil, ErrSessionInProgress
	}
	e.mu.Unlock()

	// Permission failure is the only hard failure of the whole lifecycle.
	if err := e.deps.Recorder.Probe(ctx); err != nil {
		return nil, err
	}

	var venue *model.Venue
	if e.deps.Locator != nil && lat != nil && lng != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		v, err := e.deps.Locator.Nearby(lookupCtx, *lat, *lng)
		cancel()
		if err != nil {
			log.Printf("spyn: venue lookup failed, continuing without snapshot: %v", err)
		} else {
			venue = v
		}
	}

	e.mu.Lock()
	if e.state != model.SessionStateIdle {
		e.mu.Unlock()
		return nil, ErrSessionInProgress
	}
	e.state = model.SessionStateActive
	e.sessionID = uuid.New().String()
	e.displayName = displayName
	e.startTime = time.Now()
	e.elapsed = 0
	e.venue = venue
	e.tracks = nil
	e.seen = make(map[string]struct{})
	e.online = true
	e.offlineCount = 0
	e.discarded = 0
	e.rewardGranted = false
	e.alreadyAwarded = false
	e.stop = make(chan struct{})
	stop := e.stop
	snap := e.snapshotLocked()
	e.mu.Unlock()

	go e.durationLoop(stop)
	go e.recognitionLoop(stop)

	e.emitState(snap)
	return &snap, nil
}

func (e *Engine) durationLoop(stop chan struct{}) {
	ticker := time.NewTicker(e.cfg.durationTick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.mu.Lock()
			if e.state != model.SessionStateActive {
				e.mu.Unlock()
				return
			}
			elapsed := time.Since(e.startTime)
			expired := elapsed >= e.cfg.MaxDuration
			if expired {
				elapsed = e.cfg.MaxDuration
			}
			e.elapsed = int64(elapsed / time.Second)
			snap := e.snapshotLocked()
			e.mu.Unlock()

			e.emitState(snap)

			if expired {
				if _, err := e.End(context.Background()); err != nil {
					log.Printf("spyn: automatic end failed: %v", err)
				}
				return
			}
		}
	}
}

func (e *Engine) recognitionLoop(stop chan struct{}) {
	ticker := time.NewTicker(e.cfg.RecognitionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.runCycle(context.Background())
		}
	}
}

// runCycle performs one capture-then-identify attempt. Cycles never
// overlap: a tick that fires while a cycle is still in flight is skipped.
func (e *Engine) runCycle(ctx context.Context) {
	e.mu.Lock()
	if e.state != model.SessionStateActive || e.cycleInFlight {
		e.mu.Unlock()
		return
	}
	e.cycleInFlight = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.cycleInFlight = false
		e.mu.Unlock()
	}()

	sample, err := e.deps.Recorder.Capture(ctx, e.cfg.RecordingDuration)
	if err != nil {
		// Capture failures skip the cycle, nothing is surfaced.
		log.Printf("spyn: capture failed, skipping cycle: %v", err)
		return
	}

	e.mu.Lock()
	online := e.online
	rc := RecognitionContext{UserID: e.userID, DisplayName: e.displayName, Venue: e.venue}
	e.mu.Unlock()

	if !online {
		e.enqueueOffline(ctx, sample)
		return
	}

	res, err := e.deps.Recognizer.Recognize(ctx, sample, rc)
	if err != nil {
		if IsConnectivityError(err) {
			e.mu.Lock()
			e.online = false
			e.mu.Unlock()
			log.Printf("spyn: connectivity lost, switching to offline recording: %v", err)
			e.enqueueOffline(ctx, sample)
		} else {
			log.Printf("spyn: recognition failed, skipping cycle: %v", err)
		}
		return
	}

	e.applyResult(res)
}

// applyResult folds a recognition outcome into the session. Tolerated in
// Settling/Ended too: a cycle in flight when the session ends still lands.
func (e *Engine) applyResult(res *RecognitionResult) {
	if res == nil || !res.Identified || res.Track == nil {
		return
	}

	e.mu.Lock()
	if e.state == model.SessionStateIdle {
		e.mu.Unlock()
		return
	}
	if !res.InCatalog {
		e.discarded++
		e.mu.Unlock()
		log.Printf("spyn: %q by %q identified but not in catalog, discarding", res.Track.Title, res.Track.Artist)
		return
	}

	key := model.TrackDedupeKey(res.Track.Title, res.Track.Artist)
	if _, dup := e.seen[key]; dup {
		e.mu.Unlock()
		return
	}
	e.seen[key] = struct{}{}

	track := *res.Track
	track.DedupeKey = key
	if track.RecognizedAt.IsZero() {
		track.RecognizedAt = time.Now()
	}
	e.tracks = append([]model.RecognizedTrack{track}, e.tracks...)
	sessionID := e.sessionID
	total := len(e.tracks)
	e.mu.Unlock()

	if e.deps.Events != nil {
		e.deps.Events.TrackRecognized(sessionID, track, total)
	}
}

func (e *Engine) enqueueOffline(ctx context.Context, sample []byte) {
	e.mu.Lock()
	rec := &model.OfflineRecording{
		ID:          uuid.New().String(),
		SessionID:   e.sessionID,
		UserID:      e.userID,
		DisplayName: e.displayName,
		Audio:       sample,
		CapturedAt:  time.Now(),
		Venue:       e.venue,
	}
	e.mu.Unlock()

	if err := e.deps.Queue.Enqueue(ctx, rec); err != nil {
		// Losing one recognition opportunity beats crashing the session.
		log.Printf("spyn: offline enqueue failed, dropping sample: %v", err)
		return
	}

	e.mu.Lock()
	e.offlineCount++
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emitState(snap)
}

// SetNetworkAvailable records a connectivity change. A false→true
// transition with pending offline recordings starts exactly one sync pass;
// re-entrant triggers while one is running are ignored.
func (e *Engine) SetNetworkAvailable(available bool) {
	e.mu.Lock()
	was := e.online
	e.online = available
	trigger := available && !was && !e.syncInFlight && e.state != model.SessionStateIdle
	if trigger {
		e.syncInFlight = true
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.emitState(snap)

	if !trigger {
		return
	}

	pending, err := e.deps.Queue.PendingCount(context.Background(), e.userID)
	if err != nil || pending == 0 {
		e.mu.Lock()
		e.syncInFlight = false
		e.mu.Unlock()
		return
	}

	go e.runSync(context.Background())
}

// runSync replays the offline queue. Caller must have set syncInFlight.
func (e *Engine) runSync(ctx context.Context) {
	defer func() {
		e.mu.Lock()
		e.syncInFlight = false
		e.mu.Unlock()
	}()

	batch, err := e.deps.Queue.SyncAll(ctx, e.userID, e.deps.Recognizer)
	if err != nil {
		log.Printf("spyn: offline sync failed: %v", err)
		return
	}

	for i := range batch.Results {
		r := batch.Results[i]
		if r.Identified && r.Track != nil {
			e.applyResult(&RecognitionResult{Identified: true, InCatalog: r.InCatalog, Track: r.Track})
		}
	}

	e.mu.Lock()
	e.offlineCount -= batch.Synced
	if e.offlineCount < 0 {
		e.offlineCount = 0
	}
	sessionID := e.sessionID
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.emitState(snap)
	if e.deps.Events != nil {
		e.deps.Events.SyncCompleted(sessionID, *batch)
	}
}

// End transitions Active → Settling → Ended. Timers stop immediately; an
// in-flight recognition cycle is left to land on its own. Settlement never
// fails: collaborator errors degrade to "no reward".
func (e *Engine) End(ctx context.Context) (*model.SpynEndResponse, error) {
	e.mu.Lock()
	if e.state != model.SessionStateActive {
		e.mu.Unlock()
		return nil, ErrSessionNotActive
	}
	e.state = model.SessionStateSettling
	close(e.stop)
	elapsed := time.Since(e.startTime)
	if elapsed > e.cfg.MaxDuration {
		elapsed = e.cfg.MaxDuration
	}
	e.elapsed = int64(elapsed / time.Second)
	venue := e.venue
	online := e.online
	tracks := append([]model.RecognizedTrack(nil), e.tracks...)
	sessionID := e.sessionID
	displayName := e.displayName
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.emitState(snap)

	// Refresh the venue classification best-effort before the reward
	// decision; the snapshot from session start may be stale.
	if e.deps.Locator != nil && venue != nil && venue.Latitude != 0 && venue.Longitude != 0 {
		if v, err := e.deps.Locator.Nearby(ctx, venue.Latitude, venue.Longitude); err == nil && v != nil {
			venue = v
			e.mu.Lock()
			e.venue = v
			e.mu.Unlock()
		}
	}

	e.notifyProducers(ctx, displayName, venue, tracks)

	pending := 0
	if n, err := e.deps.Queue.PendingCount(ctx, e.userID); err == nil {
		pending = n
	}

	var granted, already bool
	switch {
	case pending > 0:
		// Offline sessions never self-trigger rewards: eligibility can
		// only be known after a sync pass identifies catalog tracks.
		// Deferred, not denied.
		if online {
			e.triggerSync()
		}
	case venue != nil && venue.Classification == model.VenueValid && len(tracks) > 0 && online && e.deps.Rewarder != nil:
		res, err := e.deps.Rewarder.AwardSessionReward(ctx, e.userID, venue)
		if err != nil {
			log.Printf("spyn: reward call failed, settling without reward: %v", err)
		} else if res != nil {
			granted = res.Awarded
			already = res.AlreadyAwarded
		}
	}

	e.mu.Lock()
	e.state = model.SessionStateEnded
	e.rewardGranted = granted
	e.alreadyAwarded = already
	resp := &model.SpynEndResponse{
		SessionID:      sessionID,
		State:          e.state,
		Duration:       e.elapsed,
		Tracks:         append([]model.RecognizedTrack(nil), e.tracks...),
		OfflinePending: pending,
		RewardGranted:  granted,
		AlreadyAwarded: already,
	}
	snap = e.snapshotLocked()
	e.mu.Unlock()

	e.emitState(snap)
	return resp, nil
}

// triggerSync starts a sync pass unless one is already running.
func (e *Engine) triggerSync() {
	e.mu.Lock()
	if e.syncInFlight {
		e.mu.Unlock()
		return
	}
	e.syncInFlight = true
	e.mu.Unlock()
	go e.runSync(context.Background())
}

func (e *Engine) notifyProducers(ctx context.Context, djName string, venue *model.Venue, tracks []model.RecognizedTrack) {
	if e.deps.Notifier == nil {
		return
	}
	for i := range tracks {
		t := tracks[i]
		n := &model.NotifyProducerRequest{
			TrackTitle:  t.Title,
			TrackArtist: t.Artist,
			TrackAlbum:  t.Album,
			DJName:      djName,
			PlayedAt:    t.RecognizedAt.UTC().Format(time.RFC3339),
		}
		if venue != nil {
			n.Venue = venue.Name
			n.City = venue.City
			n.Country = venue.Country
			n.Latitude = venue.Latitude
			n.Longitude = venue.Longitude
		}
		if err := e.deps.Notifier.NotifyTrackPlayed(ctx, n); err != nil {
			log.Printf("spyn: producer notification for %q failed: %v", t.Title, err)
		}
	}
}

// Reset transitions Ended → Idle, discarding transient state. The only
// way back to Idle; never automatic.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != model.SessionStateEnded {
		return ErrSessionNotEnded
	}
	e.state = model.SessionStateIdle
	e.sessionID = ""
	e.tracks = nil
	e.seen = make(map[string]struct{})
	e.venue = nil
	e.elapsed = 0
	e.offlineCount = 0
	e.discarded = 0
	e.rewardGranted = false
	e.alreadyAwarded = false
	e.online = true
	return nil
}

// Snapshot returns the current session state for display.
func (e *Engine) Snapshot() model.SessionSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == model.SessionStateActive {
		elapsed := time.Since(e.startTime)
		if elapsed > e.cfg.MaxDuration {
			elapsed = e.cfg.MaxDuration
		}
		e.elapsed = int64(elapsed / time.Second)
	}
	return e.snapshotLocked()
}

// SessionID returns the current session identifier, empty when Idle.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

func (e *Engine) snapshotLocked() model.SessionSnapshot {
	return model.SessionSnapshot{
		SessionID:     e.sessionID,
		UserID:        e.userID,
		State:         e.state,
		StartTime:     e.startTime,
		Elapsed:       e.elapsed,
		Venue:         e.venue,
		Tracks:        append([]model.RecognizedTrack(nil), e.tracks...),
		OfflineCount:  e.offlineCount,
		Discarded:     e.discarded,
		Online:        e.online,
		RewardGranted: e.rewardGranted,
	}
}

func (e *Engine) emitState(snap model.SessionSnapshot) {
	if e.deps.Events != nil {
		e.deps.Events.StateChanged(snap)
	}
}
