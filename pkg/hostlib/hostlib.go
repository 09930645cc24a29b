// Package hostlib holds the standard host members that algorithm scripts
// can call: math helpers, string methods, logging, random numbers and the
// per-user data store.
package hostlib

import (
	"context"
	"log/slog"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/interop"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/logger"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/userdata"
)

// Options configures NewStandardRegistry.
type Options struct {
	Logger *slog.Logger    // Debug.* target; logger.GetLogger() when nil
	Store  *userdata.Store // User.* is registered only when set
	Seed   uint64          // seed of the shared Random generator
	Locale string          // String.FormatNumber locale, English when empty
}

// NewStandardRegistry returns a registry with every standard member
// registered.
func NewStandardRegistry(opts Options) (*interop.Registry, error) {
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	reg := interop.NewRegistry()
	if err := RegisterMath(reg); err != nil {
		return nil, err
	}
	if err := RegisterStrings(reg, opts.Locale); err != nil {
		return nil, err
	}
	if err := RegisterDebug(reg, opts.Logger); err != nil {
		return nil, err
	}
	if err := RegisterRandom(reg, opts.Seed); err != nil {
		return nil, err
	}
	if opts.Store != nil {
		if err := RegisterUserData(reg, opts.Store); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// constant is a read-only static property.
func constant(v float64) interop.Property {
	return interop.Property{
		Type: types.Double,
		Get: func(context.Context, types.Value) (types.Value, error) {
			return types.DoubleValue(v), nil
		},
	}
}
