package audit

import (
	"context"

	"github.com/rs/zerolog"
)

const (
	ActionEmployeeCreate = "directory.employee.create"
	ActionEmployeeUpdate = "directory.employee.update"
	ActionEmployeeDelete = "directory.employee.delete"
)

type Event struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	RequestID  string
	IP         string
	After      any
}

// Recorder writes audit events as structured log lines on a dedicated
// channel so they can be routed apart from access logs.
type Recorder struct {
	log zerolog.Logger
}

func New(base zerolog.Logger) *Recorder {
	return &Recorder{log: base.With().Str("channel", "audit").Logger()}
}

func (r *Recorder) Record(_ context.Context, evt Event) {
	if r == nil {
		return
	}
	entry := r.log.Info().
		Str("action", evt.Action).
		Str("actorId", evt.ActorID).
		Str("entityType", evt.EntityType).
		Str("entityId", evt.EntityID).
		Str("requestId", evt.RequestID).
		Str("ip", evt.IP)
	if evt.After != nil {
		entry = entry.Interface("after", evt.After)
	}
	entry.Msg("audit")
}
