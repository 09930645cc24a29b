package hostlib

import (
	"context"
	"fmt"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/interop"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/userdata"
)

func keyArgs(rest ...types.Type) []types.ArgumentData {
	args := []types.ArgumentData{{Identifier: "key", Type: types.String}}
	for _, t := range rest {
		args = append(args, types.ArgumentData{Identifier: "value", Type: t})
	}
	return args
}

// storeGetter builds User.GetX(key, default).
func storeGetter[T any](t types.Type, get func(ctx context.Context, key string, def T) (T, error)) interop.Adapter {
	return interop.Adapter{
		Params: keyArgs(t),
		Return: t,
		Invoke: func(ctx context.Context, _ types.Value, args []types.Value) (types.Value, error) {
			var def T
			if err := types.AssignNative(&def, args[1]); err != nil {
				return types.Value{}, err
			}
			v, err := get(ctx, args[0].Str(), def)
			if err != nil {
				return types.Value{}, err
			}
			return types.FromNative(v)
		},
	}
}

// storeSetter builds User.SetX(key, value).
func storeSetter[T any](t types.Type, set func(ctx context.Context, key string, v T) error) interop.Adapter {
	return interop.Adapter{
		Params: keyArgs(t),
		Return: types.Void,
		Invoke: func(ctx context.Context, _ types.Value, args []types.Value) (types.Value, error) {
			var v T
			if err := types.AssignNative(&v, args[1]); err != nil {
				return types.Value{}, err
			}
			return types.VoidValue, set(ctx, args[0].Str(), v)
		},
	}
}

// RegisterUserData exposes store through static members of the User type:
// GetInt/SetInt, GetDouble/SetDouble, GetString/SetString, GetBool/SetBool,
// Has and Delete.
func RegisterUserData(reg *interop.Registry, store *userdata.Store) error {
	if _, err := reg.RegisterType("User"); err != nil {
		return err
	}
	members := []struct {
		name    string
		adapter interop.Adapter
	}{
		{"GetInt", storeGetter(types.Int, store.GetInt)},
		{"SetInt", storeSetter(types.Int, store.SetInt)},
		{"GetDouble", storeGetter(types.Double, store.GetDouble)},
		{"SetDouble", storeSetter(types.Double, store.SetDouble)},
		{"GetString", storeGetter(types.String, store.GetString)},
		{"SetString", storeSetter(types.String, store.SetString)},
		{"GetBool", storeGetter(types.Bool, store.GetBool)},
		{"SetBool", storeSetter(types.Bool, store.SetBool)},
		{"Has", interop.Adapter{
			Params: keyArgs(),
			Return: types.Bool,
			Invoke: func(ctx context.Context, _ types.Value, args []types.Value) (types.Value, error) {
				ok, err := store.Has(ctx, args[0].Str())
				return types.BoolValue(ok), err
			},
		}},
		{"Delete", interop.Adapter{
			Params: keyArgs(),
			Return: types.Void,
			Invoke: func(ctx context.Context, _ types.Value, args []types.Value) (types.Value, error) {
				return types.VoidValue, store.Delete(ctx, args[0].Str())
			},
		}},
	}
	for _, m := range members {
		if err := reg.RegisterStatic("User", m.name, m.adapter); err != nil {
			return fmt.Errorf("userdata: User.%s: %w", m.name, err)
		}
	}
	return nil
}
