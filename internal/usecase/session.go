package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"SignalDesk/internal/domain/models"
	drepo "SignalDesk/internal/domain/repository"
	applogger "SignalDesk/pkg/logger"
)

// Status is the session's connection state. The machine is
// CONNECTING -> CONNECTED -> (DISCONNECTED -> CONNECTING)* and terminal
// only on explicit Close. There is no separate SYNCED state; freshness
// is tracked per collection.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// ChangeKind names what part of the mirror a notification refers to.
type ChangeKind string

const (
	ChangeStatus    ChangeKind = "status"
	ChangeSignals   ChangeKind = "signals"
	ChangeNews      ChangeKind = "news"
	ChangePortfolio ChangeKind = "portfolio"
	ChangeSettings  ChangeKind = "settings"
)

// Listener observes session changes. Listeners are invoked synchronously
// from the event loop, in registration order.
type Listener func(ChangeKind)

type subscriber struct {
	id int
	fn Listener
}

// Session maintains one coherent, eventually-consistent mirror of server
// state. All mutation happens on the single event-loop goroutine fed by
// the transport; every other component only reads copies or issues
// change requests through the backend.
type Session struct {
	transport drepo.StreamTransport
	metrics   drepo.Metrics
	log       *applogger.Logger

	cancel  context.CancelFunc
	started bool

	mu           sync.RWMutex
	status       Status
	staleSince   time.Time
	signals      []models.Signal
	news         []models.NewsItem
	portfolio    models.Portfolio
	hasPortfolio bool
	settingsRaw  json.RawMessage
	snapshotSeen bool

	// latest pre-snapshot delta per collection; a delta arriving before
	// the initial snapshot is never applied against an undefined base,
	// it is buffered and replayed right after the snapshot lands
	pending models.Update

	subMu  sync.Mutex
	subs   []subscriber
	nextID int
}

// NewSession creates a session over the given transport.
func NewSession(transport drepo.StreamTransport, metrics drepo.Metrics, log *applogger.Logger) *Session {
	return &Session{
		transport: transport,
		metrics:   metrics,
		log:       log,
		status:    StatusConnecting,
	}
}

// Start connects the transport and launches the event loop. Idempotent
// while already running.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if err := s.transport.Connect(loopCtx); err != nil {
		s.log.Warn("initial connect failed, transport will retry", applogger.Error(err))
		s.metrics.RecordError("connect")
	}

	events, errs := s.transport.Read(loopCtx)
	go s.consume(loopCtx, events, errs)
	return nil
}

// Close terminates the session. Events arriving afterwards are discarded.
func (s *Session) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.setStatus(StatusDisconnected)
	return s.transport.Close()
}

func (s *Session) consume(ctx context.Context, events <-chan models.StreamEvent, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			if err != nil {
				// reconnection is transport-owned; never escalates
				s.metrics.RecordError("stream")
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.handleEvent(ctx, ev)
		}
	}
}

func (s *Session) handleEvent(ctx context.Context, ev models.StreamEvent) {
	switch ev.Type {
	case models.EventConnect:
		wasSynced := s.SnapshotSeen()
		s.setStatus(StatusConnected)
		s.metrics.RecordConnected(true)
		if wasSynced {
			// ask for a fresh snapshot after a reconnect; the cached
			// mirror may have missed deltas while we were away
			s.RequestRefresh(ctx)
		}
	case models.EventDisconnect:
		s.setStatus(StatusDisconnected)
		s.metrics.RecordConnected(false)
	case models.EventInitialData:
		var snap models.Snapshot
		if err := json.Unmarshal(ev.Payload, &snap); err != nil {
			s.log.Warn("bad snapshot payload", applogger.Error(err))
			s.metrics.RecordError("snapshot_decode")
			return
		}
		s.applySnapshot(snap)
	case models.EventDataUpdate:
		var upd models.Update
		if err := json.Unmarshal(ev.Payload, &upd); err != nil {
			s.log.Warn("bad update payload", applogger.Error(err))
			s.metrics.RecordError("update_decode")
			return
		}
		s.applyUpdate(upd)
	default:
		s.log.Debug("unhandled stream event", applogger.String("type", ev.Type))
	}
}

// applySnapshot replaces collections present in the payload wholesale.
// A missing collection keeps its prior value: the backend may omit
// unchanged top-level collections even in a "full" push, so absence can
// never erase already-known good state.
func (s *Session) applySnapshot(snap models.Snapshot) {
	changed := make([]ChangeKind, 0, 4)

	s.mu.Lock()
	if snap.Signals != nil {
		s.signals = snap.Signals
		changed = append(changed, ChangeSignals)
	}
	if snap.News != nil {
		s.news = snap.News
		changed = append(changed, ChangeNews)
	}
	if snap.Portfolio != nil {
		s.portfolio = *snap.Portfolio
		s.hasPortfolio = true
		changed = append(changed, ChangePortfolio)
	}
	if len(snap.Settings) > 0 {
		s.settingsRaw = snap.Settings
		changed = append(changed, ChangeSettings)
	}
	first := !s.snapshotSeen
	s.snapshotSeen = true
	pending := s.pending
	s.pending = models.Update{}
	nSignals := len(s.signals)
	equity := s.portfolio.TotalEquity
	s.mu.Unlock()

	s.metrics.RecordEvent("snapshot")
	s.metrics.RecordSignalCount(nSignals)
	s.metrics.RecordEquity(equity)
	s.notify(changed...)

	if first {
		// replay the latest buffered delta per collection now that a base exists
		s.applyUpdate(pending)
	}
}

// applyUpdate atomically swaps each collection present in the delta and
// leaves absent ones untouched. Deltas are never deep-merged item by
// item: the backend always sends a complete recomputed collection.
func (s *Session) applyUpdate(upd models.Update) {
	s.mu.Lock()
	if !s.snapshotSeen {
		if upd.Signals != nil {
			s.pending.Signals = upd.Signals
		}
		if upd.News != nil {
			s.pending.News = upd.News
		}
		if upd.Portfolio != nil {
			s.pending.Portfolio = upd.Portfolio
		}
		s.mu.Unlock()
		return
	}

	changed := make([]ChangeKind, 0, 3)
	if upd.Signals != nil {
		s.signals = upd.Signals
		changed = append(changed, ChangeSignals)
	}
	if upd.News != nil {
		s.news = upd.News
		changed = append(changed, ChangeNews)
	}
	if upd.Portfolio != nil {
		s.portfolio = *upd.Portfolio
		s.hasPortfolio = true
		changed = append(changed, ChangePortfolio)
	}
	nSignals := len(s.signals)
	equity := s.portfolio.TotalEquity
	s.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	s.metrics.RecordEvent("delta")
	s.metrics.RecordSignalCount(nSignals)
	s.metrics.RecordEquity(equity)
	s.notify(changed...)
}

// RequestRefresh hints the backend to push a fresh snapshot. Best
// effort: no timeout, no retry, no acknowledgment.
func (s *Session) RequestRefresh(ctx context.Context) {
	if err := s.transport.Send(ctx, models.StreamEvent{Type: models.EventRequestUpdate}); err != nil {
		s.log.Debug("refresh hint not delivered", applogger.Error(err))
		s.metrics.RecordError("refresh_hint")
	}
}

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	if s.status == status {
		s.mu.Unlock()
		return
	}
	s.status = status
	if status == StatusDisconnected {
		s.staleSince = time.Now()
	} else if status == StatusConnected {
		s.staleSince = time.Time{}
	}
	s.mu.Unlock()

	s.notify(ChangeStatus)
}

// Subscribe registers a listener and returns its handle.
func (s *Session) Subscribe(fn Listener) int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextID++
	s.subs = append(s.subs, subscriber{id: s.nextID, fn: fn})
	return s.nextID
}

// Unsubscribe removes a listener; its in-flight notifications are the
// caller's to ignore.
func (s *Session) Unsubscribe(id int) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

func (s *Session) notify(kinds ...ChangeKind) {
	if len(kinds) == 0 {
		return
	}
	s.subMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, kind := range kinds {
		for _, sub := range subs {
			sub.fn(kind)
		}
	}
}

// --- Read accessors; all return defensive copies ---

// Status returns the connection state.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Stale reports the advisory warning when cached data is shown while
// disconnected.
func (s *Session) Stale() (*models.StaleDataWarning, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status != StatusDisconnected || s.staleSince.IsZero() || !s.snapshotSeen {
		return nil, false
	}
	return &models.StaleDataWarning{Since: s.staleSince}, true
}

// SnapshotSeen reports whether an initial snapshot has been applied.
func (s *Session) SnapshotSeen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotSeen
}

// Signals returns the current signal set, newest first by backend order.
func (s *Session) Signals() []models.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Signal, len(s.signals))
	copy(out, s.signals)
	return out
}

// News returns the current news set.
func (s *Session) News() []models.NewsItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.NewsItem, len(s.news))
	copy(out, s.news)
	return out
}

// Portfolio returns the book and whether one has been received yet.
func (s *Session) Portfolio() (models.Portfolio, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasPortfolio {
		return models.Portfolio{}, false
	}
	return s.portfolio.Clone(), true
}

// SettingsRaw returns the latest server settings payload as sent,
// preserving which leaves the server actually included.
func (s *Session) SettingsRaw() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settingsRaw == nil {
		return nil
	}
	out := make(json.RawMessage, len(s.settingsRaw))
	copy(out, s.settingsRaw)
	return out
}
