package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// contextFields are copied from the event context onto every log line, in
// this order. Empty values are skipped.
var contextFields = []struct {
	key string
	get func(context.Context) string
}{
	{"command", GetCommand},
	{"op", GetOp},
	{"task_id", GetTaskID},
}

// ContextHook copies the command, operation and task ID carried by an
// event's context onto the event. Attach it with logger.Hook and log with
// .Ctx(ctx).
type ContextHook struct{}

// Run implements zerolog.Hook.
func (ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil || ctx == context.Background() {
		return
	}

	for _, f := range contextFields {
		if v := f.get(ctx); v != "" {
			e.Str(f.key, v)
		}
	}
}
