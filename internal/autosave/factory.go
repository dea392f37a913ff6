package autosave

import (
	"context"
	"time"

	"resume-builder/internal/resumes"
)

// Factory builds per-user editing sessions bound to the persistence
// gateway, carrying the configured debounce window.
type Factory struct {
	Debounce time.Duration
	Gateway  *resumes.Service
}

// NewFactory constructs a Factory. A non-positive debounce falls back to
// the default window.
func NewFactory(debounce time.Duration, gateway *resumes.Service) *Factory {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Factory{Debounce: debounce, Gateway: gateway}
}

// NewSession returns a scheduler whose saves persist on behalf of the
// given user. snapshot is the last-persisted document, or the zero Resume
// for a brand-new one.
func (f *Factory) NewSession(ctx context.Context, userID string, snapshot resumes.Resume, onSaved func(resumes.Resume)) *Scheduler {
	save := func(ctx context.Context, req resumes.SaveRequest) (resumes.Resume, error) {
		return f.Gateway.Save(ctx, userID, req)
	}
	return New(ctx, snapshot, f.Debounce, save, onSaved)
}
