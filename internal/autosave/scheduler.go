package autosave

import (
	"context"
	"sync"
	"time"

	"resume-builder/internal/resumes"
	"resume-builder/internal/shared/telemetry"
)

// State is the scheduler's save lifecycle state.
type State int

const (
	// StateIdle means the document matches the last-persisted snapshot.
	StateIdle State = iota
	// StatePending means edits exist and the debounce window is open.
	StatePending
	// StateSaving means exactly one save is in flight.
	StateSaving
	// StateErrorAwaitingRetry means the last save failed and the session
	// must either edit again or explicitly retry.
	StateErrorAwaitingRetry
)

// DefaultDebounce is the quiet period measured from the last edit.
const DefaultDebounce = 1500 * time.Millisecond

// SaveFunc invokes the persistence gateway with a serialized document.
type SaveFunc func(ctx context.Context, req resumes.SaveRequest) (resumes.Resume, error)

// Scheduler coalesces bursts of edits into at most one in-flight save.
// A new edit resets the debounce timer; a save only starts once the window
// elapses with no further change, and never while another save is in flight
// or a failed save is awaiting retry. All methods are safe for concurrent
// use, though a single editing session is the expected caller.
type Scheduler struct {
	mu       sync.Mutex
	ctx      context.Context
	debounce time.Duration
	save     SaveFunc
	onSaved  func(resumes.Resume)

	state       State
	draft       resumes.Resume
	snapshot    resumes.Resume
	timer       *time.Timer
	lastPayload resumes.SaveRequest
	sentDraft   resumes.Resume
	lastErr     error
	stopped     bool
}

// New constructs a Scheduler seeded with the last-persisted snapshot (the
// zero Resume for a brand-new document). onSaved fires after each successful
// save so the session can update its navigable document reference; it may
// be nil.
func New(ctx context.Context, snapshot resumes.Resume, debounce time.Duration, save SaveFunc, onSaved func(resumes.Resume)) *Scheduler {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Scheduler{
		ctx:      ctx,
		debounce: debounce,
		save:     save,
		onSaved:  onSaved,
		snapshot: snapshot,
		draft:    snapshot,
	}
}

// Edit replaces the working document and re-arms the debounce window.
// Edits arriving while a save is in flight are picked up by the next cycle
// once the current save resolves. An edit clears a pending error state.
func (s *Scheduler) Edit(draft resumes.Resume) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	s.draft = draft

	switch s.state {
	case StateSaving:
		// Reflected in the draft; the next cycle picks it up.
		return
	case StateErrorAwaitingRetry:
		s.lastErr = nil
	}

	if !IsDirty(s.snapshot, s.draft) {
		s.cancelTimer()
		s.state = StateIdle
		return
	}

	s.state = StatePending
	s.cancelTimer()
	s.timer = time.AfterFunc(s.debounce, s.windowElapsed)
}

// Dirty reports whether the working document has unsaved changes. The UI
// indicator reads this on every render.
func (s *Scheduler) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return IsDirty(s.snapshot, s.draft)
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error from the last failed save, if the scheduler is
// awaiting a retry.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Snapshot returns the document as of the last successful save.
func (s *Scheduler) Snapshot() resumes.Resume {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Document returns the current working document, including any server id
// adopted from a completed save.
func (s *Scheduler) Document() resumes.Resume {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Retry replays the exact payload of the failed save. It is a no-op unless
// the scheduler is awaiting a retry.
func (s *Scheduler) Retry() {
	s.mu.Lock()
	if s.state != StateErrorAwaitingRetry {
		s.mu.Unlock()
		return
	}
	s.state = StateSaving
	payload := s.lastPayload
	s.mu.Unlock()

	go s.runSave(payload)
}

// Stop cancels any pending debounce timer. An in-flight save is not
// interrupted; its result is discarded for scheduling purposes.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.cancelTimer()
}

// windowElapsed fires when the debounce window closes with no further edit.
func (s *Scheduler) windowElapsed() {
	s.mu.Lock()
	if s.stopped || s.state != StatePending {
		s.mu.Unlock()
		return
	}
	if !IsDirty(s.snapshot, s.draft) {
		s.state = StateIdle
		s.mu.Unlock()
		return
	}

	payload := buildPayload(s.draft, s.snapshot)
	s.lastPayload = payload
	s.sentDraft = s.draft
	s.state = StateSaving
	s.mu.Unlock()

	go s.runSave(payload)
}

func (s *Scheduler) runSave(payload resumes.SaveRequest) {
	persisted, err := s.save(s.ctx, payload)

	s.mu.Lock()
	if err != nil {
		s.state = StateErrorAwaitingRetry
		s.lastErr = err
		s.mu.Unlock()
		telemetry.Error("autosave.failed", map[string]any{
			"resume_id": payload.ID,
			"error":     err.Error(),
		})
		return
	}

	// The snapshot advances to the draft exactly as it was sent, never to
	// the server's copy. The gateway normalizes what it persists (style
	// defaults, child ids), so comparing a clean draft against the server
	// response would report phantom edits and re-save forever. Only the
	// server-assigned id and the persisted photo reference are adopted;
	// the photo replaces the draft's only if it was not edited mid-save.
	sent := s.sentDraft
	sent.ID = persisted.ID
	sent.Photo = persisted.Photo
	if s.draft.ID == "" {
		s.draft.ID = persisted.ID
	}
	if s.draft.Photo.Surrogate() == s.sentDraft.Photo.Surrogate() {
		s.draft.Photo = persisted.Photo
	}
	s.snapshot = sent
	s.lastErr = nil

	if !s.stopped && IsDirty(s.snapshot, s.draft) {
		// Edits arrived mid-save; open a fresh debounce window.
		s.state = StatePending
		s.cancelTimer()
		s.timer = time.AfterFunc(s.debounce, s.windowElapsed)
	} else {
		s.state = StateIdle
	}
	onSaved := s.onSaved
	s.mu.Unlock()

	if onSaved != nil {
		onSaved(persisted)
	}
}

func (s *Scheduler) cancelTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// buildPayload serializes the draft, omitting the photo entirely when its
// surrogate matches the snapshot so identical binary data is never re-sent.
// Explicit removals and fresh payloads pass through untouched.
func buildPayload(draft, snapshot resumes.Resume) resumes.SaveRequest {
	req := resumes.RequestFromResume(draft)
	if draft.Photo.Surrogate() == snapshot.Photo.Surrogate() {
		req.Photo = resumes.Photo{}
	}
	return req
}
