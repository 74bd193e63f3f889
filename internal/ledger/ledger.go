// internal/ledger/ledger.go
package ledger

import (
	"sort"
	"sync"
	"time"

	apperrors "github.com/scalixity/campaign-backend/internal/errors"
	"github.com/scalixity/campaign-backend/internal/model"
)

// entry is the mutable state of one campaign. The dispatching goroutine is
// the only writer for a key; the ledger lock guards it against concurrent
// snapshot readers. Processed is derived from successful+failed, so a reader
// can never observe the counters and the outcome list out of step.
type entry struct {
	status     model.CampaignStatus
	total      int
	successful int
	failed     int
	errDetail  string
	startedAt  time.Time
	finishedAt *time.Time
	outcomes   []model.OutcomeRecord
}

// Ledger is the in-memory store of campaign progress and outcome history.
// All methods are safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func New() *Ledger {
	return &Ledger{entries: make(map[string]*entry)}
}

// Start registers key in processing state with all counters at zero. A key
// whose previous run is still processing collides; a terminal entry is
// replaced, so a finished campaign may be re-run under the same key.
func (l *Ledger) Start(key string, total int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[key]; ok && !e.status.Terminal() {
		return apperrors.NewCampaignExists(key)
	}
	if total < 0 {
		total = 0
	}
	l.entries[key] = &entry{
		status:    model.StatusProcessing,
		total:     total,
		startedAt: time.Now(),
	}
	return nil
}

// SetTotal raises the recipient count for key. The total never decreases
// once set; a lower value is ignored.
func (l *Ledger) SetTotal(key string, total int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return apperrors.NewCampaignNotFound(key)
	}
	if total > e.total {
		e.total = total
	}
	return nil
}

// Record appends one outcome and bumps the matching counter in the same
// critical section.
func (l *Ledger) Record(key string, rec model.OutcomeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return apperrors.NewCampaignNotFound(key)
	}
	e.outcomes = append(e.outcomes, rec)
	if rec.Success {
		e.successful++
	} else {
		e.failed++
	}
	return nil
}

// Finish moves the campaign to a terminal status. Finishing twice with the
// same status is a no-op; a conflicting terminal status is rejected.
func (l *Ledger) Finish(key string, status model.CampaignStatus, detail string) error {
	if !status.Terminal() {
		return apperrors.NewInvalidTransition(key, string(model.StatusProcessing), string(status))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return apperrors.NewCampaignNotFound(key)
	}
	if e.status.Terminal() {
		if e.status == status {
			return nil
		}
		return apperrors.NewInvalidTransition(key, string(e.status), string(status))
	}
	e.status = status
	if detail != "" {
		e.errDetail = detail
	}
	now := time.Now()
	e.finishedAt = &now
	return nil
}

// Snapshot returns a point-in-time copy of the campaign's state. The outcome
// list is copied only when requested, keeping status polls cheap.
func (l *Ledger) Snapshot(key string, includeOutcomes bool) (*model.CampaignView, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.entries[key]
	if !ok {
		return nil, apperrors.NewCampaignNotFound(key)
	}
	return l.view(key, e, includeOutcomes), nil
}

// List returns a snapshot of every known campaign, sorted by key, without
// outcome histories.
func (l *Ledger) List() []*model.CampaignView {
	l.mu.RLock()
	defer l.mu.RUnlock()

	views := make([]*model.CampaignView, 0, len(l.entries))
	for key, e := range l.entries {
		views = append(views, l.view(key, e, false))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Key < views[j].Key })
	return views
}

// view copies an entry; callers must hold at least the read lock.
func (l *Ledger) view(key string, e *entry, includeOutcomes bool) *model.CampaignView {
	v := &model.CampaignView{
		Key:        key,
		Status:     e.status,
		Total:      e.total,
		Processed:  e.successful + e.failed,
		Successful: e.successful,
		Failed:     e.failed,
		Error:      e.errDetail,
		StartedAt:  e.startedAt,
	}
	if e.finishedAt != nil {
		t := *e.finishedAt
		v.FinishedAt = &t
	}
	if includeOutcomes {
		v.Outcomes = append([]model.OutcomeRecord(nil), e.outcomes...)
	}
	return v
}
