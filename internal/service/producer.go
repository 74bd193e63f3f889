// internal/service/producer.go
package service

import (
	"context"

	"github.com/scalixity/campaign-backend/internal/model"
)

// MessageProducer turns one recipient into the message body to deliver. The
// dispatch loop does not care whether the body comes from a placeholder
// template, a fixed string, or an external generator.
type MessageProducer interface {
	Produce(ctx context.Context, r model.Recipient) (string, error)
}

// TemplateProducer renders a {{placeholder}} template against the recipient's
// attributes. Missing attributes never fail production; they render as [name]
// markers so the message stays sendable.
type TemplateProducer struct {
	Template string
}

func (p TemplateProducer) Produce(_ context.Context, r model.Recipient) (string, error) {
	rendered, _ := Render(p.Template, r.Attributes)
	return rendered, nil
}

// StaticProducer sends the same body to every recipient.
type StaticProducer struct {
	Body string
}

func (p StaticProducer) Produce(context.Context, model.Recipient) (string, error) {
	return p.Body, nil
}

// ProducerFunc adapts a plain function, e.g. a generative-model client, into
// a MessageProducer. A returned error fails only that recipient.
type ProducerFunc func(ctx context.Context, r model.Recipient) (string, error)

func (f ProducerFunc) Produce(ctx context.Context, r model.Recipient) (string, error) {
	return f(ctx, r)
}
