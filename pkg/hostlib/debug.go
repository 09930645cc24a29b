package hostlib

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/interop"
)

// RegisterDebug routes Debug.Log, Debug.LogWarning and Debug.LogError to
// log. Script messages carry source=script so they can be filtered.
func RegisterDebug(reg *interop.Registry, log *slog.Logger) error {
	if _, err := reg.RegisterType("Debug"); err != nil {
		return err
	}
	log = log.With("source", "script")
	members := []struct {
		name  string
		level slog.Level
	}{
		{"Log", slog.LevelInfo},
		{"LogWarning", slog.LevelWarn},
		{"LogError", slog.LevelError},
	}
	for _, m := range members {
		level := m.level
		if err := reg.RegisterStatic("Debug", m.name, interop.Action1(func(msg string) {
			log.Log(context.Background(), level, msg)
		})); err != nil {
			return fmt.Errorf("debug: Debug.%s: %w", m.name, err)
		}
	}
	return nil
}
