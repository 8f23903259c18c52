// Package obslog is a thin wrapper around log/slog giving every
// component in this module the same sub-logger convention the teacher
// uses: a *slog.Logger field that defaults to slog.Default() when nil,
// and a .With("component", name) child for every package that logs.
package obslog

import "log/slog"

// Named returns a logger scoped to component, falling back to
// slog.Default() if base is nil - the same nil-safe convention
// pkg/network.Network.SetLogger and pkg/heartbeat.Consumer use.
func Named(base *slog.Logger, component string) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return base.With("component", component)
}
