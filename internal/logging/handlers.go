package logging

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// ContextProvider returns attributes describing the current run. It is
// called for every record that passes the level check.
type ContextProvider func() []slog.Attr

// runHandler stamps each record with the provider's attributes. Keys the
// caller already set on the record are left alone.
type runHandler struct {
	slog.Handler
	provider ContextProvider
}

// NewContextHandler wraps inner so every record carries provider's attrs.
// A nil provider returns inner unchanged.
func NewContextHandler(inner slog.Handler, provider ContextProvider) slog.Handler {
	if provider == nil {
		return inner
	}
	return &runHandler{Handler: inner, provider: provider}
}

func (h *runHandler) Handle(ctx context.Context, r slog.Record) error {
	extra := h.provider()
	if len(extra) == 0 {
		return h.Handler.Handle(ctx, r)
	}

	set := make(map[string]struct{}, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		set[a.Key] = struct{}{}
		return true
	})
	for _, a := range extra {
		if _, ok := set[a.Key]; !ok {
			r.AddAttrs(a)
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *runHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &runHandler{Handler: h.Handler.WithAttrs(attrs), provider: h.provider}
}

func (h *runHandler) WithGroup(name string) slog.Handler {
	return &runHandler{Handler: h.Handler.WithGroup(name), provider: h.provider}
}

// Fanout sends each record to every sink whose level admits it.
type Fanout struct {
	sinks []slog.Handler
}

// NewFanout drops nil sinks so optional outputs can be passed unconditionally.
func NewFanout(sinks ...slog.Handler) *Fanout {
	return &Fanout{sinks: slices.DeleteFunc(slices.Clone(sinks), func(h slog.Handler) bool {
		return h == nil
	})}
}

func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(f.sinks, func(h slog.Handler) bool {
		return h.Enabled(ctx, level)
	})
}

// Handle delivers to all sinks and reports every failure. A failing sink
// does not stop delivery to the others.
func (f *Fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.sinks {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *Fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *Fanout) each(fn func(slog.Handler) slog.Handler) *Fanout {
	out := make([]slog.Handler, len(f.sinks))
	for i, h := range f.sinks {
		out[i] = fn(h)
	}
	return &Fanout{sinks: out}
}
