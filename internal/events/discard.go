// Package events delivers domain events.
package events

import (
	"context"

	"github.com/dtroode/salesdesk/internal/model"
)

var _ model.EventPublisher = Discard{}

// Discard drops every event. It is used when no broker is configured.
type Discard struct{}

func (Discard) Publish(context.Context, ...model.Event) error {
	return nil
}
