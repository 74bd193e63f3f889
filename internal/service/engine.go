// internal/service/engine.go
package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scalixity/campaign-backend/internal/model"
)

// RecipientSource yields recipients in input order. Next returns (nil, nil)
// when the source is exhausted; a non-nil error aborts the whole campaign.
type RecipientSource interface {
	Next() (*model.Recipient, error)
}

// SliceSource adapts an in-memory recipient batch. Its length gives the
// campaign total upfront.
type SliceSource struct {
	recipients []model.Recipient
	pos        int
}

func NewSliceSource(recipients []model.Recipient) *SliceSource {
	return &SliceSource{recipients: recipients}
}

func (s *SliceSource) Next() (*model.Recipient, error) {
	if s.pos >= len(s.recipients) {
		return nil, nil
	}
	r := s.recipients[s.pos]
	s.pos++
	return &r, nil
}

func (s *SliceSource) Len() int { return len(s.recipients) }

// CampaignLedger defines the ledger operations the engine needs.
type CampaignLedger interface {
	Start(key string, total int) error
	SetTotal(key string, total int) error
	Record(key string, rec model.OutcomeRecord) error
	Finish(key string, status model.CampaignStatus, detail string) error
}

// Sender is the outbound delivery port. ok reports whether the provider
// accepted the message; a non-nil error means the sender itself is broken
// (bad credentials, malformed endpoint) and the campaign cannot continue.
type Sender interface {
	Send(ctx context.Context, phone, message string) (ok bool, err error)
}

// Pacer blocks between successive sends of one campaign.
type Pacer interface {
	Wait(ctx context.Context, sent int) error
}

// Engine runs campaign dispatches as background goroutines. Within one
// campaign sends are strictly sequential; separate campaigns run
// independently against the shared ledger.
type Engine struct {
	Ledger CampaignLedger
	Sender Sender
	Pacer  Pacer
	Log    zerolog.Logger
}

// WithSender returns a copy of the engine that delivers through snd. Used for
// campaigns that send provider-side templates instead of rendered text.
func (e *Engine) WithSender(snd Sender) *Engine {
	cp := *e
	cp.Sender = snd
	return &cp
}

// Run is a handle to one in-flight campaign dispatch.
type Run struct {
	Key    string
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel asks the dispatch to stop. An in-progress pacing wait or send
// unwinds promptly and the campaign finishes as failed with reason
// "cancelled".
func (r *Run) Cancel() { r.cancel() }

// Done is closed when the dispatch goroutine has finished.
func (r *Run) Done() <-chan struct{} { return r.done }

// Submit registers the campaign in the ledger and starts dispatching in the
// background. It returns once the ledger entry exists, so a status query
// issued right after Submit never sees NotFound. The caller must not submit
// two concurrent campaigns under the same key.
func (e *Engine) Submit(ctx context.Context, key string, src RecipientSource, producer MessageProducer) (*Run, error) {
	total := 0
	sized := false
	if s, ok := src.(interface{ Len() int }); ok {
		total = s.Len()
		sized = true
	}
	if err := e.Ledger.Start(key, total); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	run := &Run{Key: key, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(run.done)
		defer cancel()
		e.dispatch(ctx, key, src, producer, sized)
	}()
	return run, nil
}

// dispatch drives one campaign to a terminal status: draw, attempt, record,
// pace, repeat. It reads one recipient ahead so the pacing wait is skipped
// after the final send.
func (e *Engine) dispatch(ctx context.Context, key string, src RecipientSource, producer MessageProducer, sized bool) {
	log := e.Log.With().Str("campaign", key).Logger()

	cur, err := src.Next()
	if err != nil {
		log.Error().Err(err).Msg("recipient source unreadable")
		e.finish(key, model.StatusFailed, err.Error(), log)
		return
	}

	sent := 0
	for cur != nil {
		if ctx.Err() != nil {
			e.finish(key, model.StatusFailed, "cancelled", log)
			return
		}
		sent++
		if !sized {
			// Unknown upfront count: grow the total as recipients are drawn.
			if err := e.Ledger.SetTotal(key, sent); err != nil {
				log.Error().Err(err).Msg("grow campaign total")
			}
		}

		outcome, fatal := e.attempt(ctx, *cur, producer)
		if err := e.Ledger.Record(key, outcome); err != nil {
			log.Error().Err(err).Msg("record outcome")
		}
		log.Debug().Str("to", outcome.Phone).Bool("success", outcome.Success).Str("note", outcome.Note).Msg("recipient processed")

		if fatal != nil {
			if ctx.Err() != nil {
				e.finish(key, model.StatusFailed, "cancelled", log)
				return
			}
			log.Error().Err(fatal).Str("to", cur.Phone).Msg("fatal send error, aborting campaign")
			e.finish(key, model.StatusFailed, fatal.Error(), log)
			return
		}

		next, err := src.Next()
		if err != nil {
			log.Error().Err(err).Msg("recipient source failed mid-stream")
			e.finish(key, model.StatusFailed, err.Error(), log)
			return
		}
		if next == nil {
			break
		}
		if err := e.Pacer.Wait(ctx, sent); err != nil {
			e.finish(key, model.StatusFailed, "cancelled", log)
			return
		}
		cur = next
	}

	e.finish(key, model.StatusCompleted, "", log)
}

// attempt validates, renders, and sends one message. The returned outcome is
// always recordable; a non-nil fatal error aborts the campaign after the
// outcome has been recorded, so the fatally-failed recipient still counts as
// processed.
func (e *Engine) attempt(ctx context.Context, r model.Recipient, producer MessageProducer) (model.OutcomeRecord, error) {
	if strings.TrimSpace(r.Phone) == "" {
		return model.OutcomeRecord{Phone: r.Phone, Success: false, Note: "invalid recipient: empty phone"}, nil
	}

	message, err := producer.Produce(ctx, r)
	if err != nil {
		return model.OutcomeRecord{Phone: r.Phone, Success: false, Note: "message production failed: " + err.Error()}, nil
	}

	ok, err := e.Sender.Send(ctx, r.Phone, message)
	if err != nil {
		return model.OutcomeRecord{Phone: r.Phone, Message: message, Success: false, Note: err.Error()}, err
	}
	if !ok {
		return model.OutcomeRecord{Phone: r.Phone, Message: message, Success: false, Note: "delivery rejected"}, nil
	}
	return model.OutcomeRecord{Phone: r.Phone, Message: message, Success: true, Note: "sent"}, nil
}

func (e *Engine) finish(key string, status model.CampaignStatus, detail string, log zerolog.Logger) {
	if err := e.Ledger.Finish(key, status, detail); err != nil {
		log.Error().Err(err).Msg("finish campaign")
		return
	}
	log.Info().Str("status", string(status)).Msg("campaign finished")
}
