package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports audit and HTTP events to a logger at debug level.
type LogHooks struct {
	Logger *log.Logger
}

var (
	_ AuditHooks = LogHooks{}
	_ HTTPHooks  = LogHooks{}
)

func (h LogHooks) OnImportStart(_ context.Context, path string) {
	h.Logger.Debug("import started", "path", path)
}

func (h LogHooks) OnImportComplete(_ context.Context, path string, blocks int, d time.Duration, err error) {
	h.done("import finished", err, "path", path, "blocks", blocks, "duration", d)
}

func (h LogHooks) OnAuditStart(_ context.Context, event string) {
	h.Logger.Debug("audit started", "event", event)
}

func (h LogHooks) OnAuditComplete(_ context.Context, event string, boundaries, errs int, d time.Duration, err error) {
	h.done("audit finished", err, "event", event, "boundaries", boundaries, "errors", errs, "duration", d)
}

func (h LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.Logger.Debug("render started", "formats", formats)
}

func (h LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.done("render finished", err, "formats", formats, "duration", d)
}

func (h LogHooks) OnRequest(_ context.Context, method, route string) {
	h.Logger.Debug("request", "method", method, "route", route)
}

func (h LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.Logger.Debug("response", "method", method, "route", route, "status", status, "duration", d)
}

func (h LogHooks) done(msg string, err error, kv ...any) {
	if err != nil {
		h.Logger.Warn(msg, append(kv, "error", err)...)
		return
	}
	h.Logger.Debug(msg, kv...)
}
