package internal

import (
	"context"
	"sync"
	"time"
)

// TelemetryEmitter receives engine measurements. The default is a no-op;
// service wiring may register a metrics backend, tests a recorder.
type TelemetryEmitter func(ctx context.Context, name string, labels map[string]string, value any)

var (
	teleMu   sync.Mutex
	teleImpl TelemetryEmitter = func(ctx context.Context, name string, labels map[string]string, value any) {}
)

// RegisterTelemetryEmitter installs fn. A nil fn restores the no-op.
func RegisterTelemetryEmitter(fn TelemetryEmitter) {
	teleMu.Lock()
	defer teleMu.Unlock()
	if fn == nil {
		teleImpl = func(ctx context.Context, name string, labels map[string]string, value any) {}
		return
	}
	teleImpl = fn
}

func emit(ctx context.Context, name string, labels map[string]string, value any) {
	teleMu.Lock()
	fn := teleImpl
	teleMu.Unlock()
	fn(ctx, name, labels, value)
}

// EmitLatency records the duration of one engine stage in milliseconds.
// name: "entretien_stage_latency_ms", labels {"stage": "introspect"|"save", "table": <table>}
func EmitLatency(ctx context.Context, stage, table string, d time.Duration) {
	emit(ctx, "entretien_stage_latency_ms", map[string]string{"stage": stage, "table": table}, d.Milliseconds())
}

// EmitChildRows records how many child rows a committed save wrote to table.
func EmitChildRows(ctx context.Context, table string, rows int) {
	emit(ctx, "entretien_child_rows", map[string]string{"table": table}, int64(rows))
}
