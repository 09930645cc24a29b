package hostlib

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/interop"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/runtime"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// substring returns the runes [start, start+length). A negative length
// means "to the end".
func substring(s string, start, length int64) (string, error) {
	rs := []rune(s)
	n := int64(len(rs))
	if length < 0 {
		length = n - start
	}
	if start < 0 || start > n || length < 0 || start+length > n {
		return "", runtime.NewRuntimeError(runtime.ErrorIndexOutOfRange,
			"substring(%d, %d) out of range for length %d", start, length, n)
	}
	return string(rs[start : start+length]), nil
}

func substringAdapter(withLength bool) interop.Adapter {
	params := []types.ArgumentData{{Identifier: "start", Type: types.Int}}
	if withLength {
		params = append(params, types.ArgumentData{Identifier: "length", Type: types.Int})
	}
	return interop.Adapter{
		Params: params,
		Return: types.String,
		Invoke: func(_ context.Context, recv types.Value, args []types.Value) (types.Value, error) {
			length := int64(-1)
			if withLength {
				length = args[1].Int()
			}
			s, err := substring(recv.Str(), args[0].Int(), length)
			if err != nil {
				return types.Value{}, err
			}
			return types.StringValue(s), nil
		},
	}
}

// RegisterStrings adds instance members on string and the static String
// helpers. locale selects the digit grouping used by String.FormatNumber;
// an empty locale means English.
func RegisterStrings(reg *interop.Registry, locale string) error {
	tag := language.English
	if locale != "" {
		t, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("strings: invalid locale %q: %w", locale, err)
		}
		tag = t
	}
	printer := message.NewPrinter(tag)

	methods := []struct {
		name    string
		adapter interop.Adapter
	}{
		{"ToUpper", interop.Method0(strings.ToUpper)},
		{"ToLower", interop.Method0(strings.ToLower)},
		{"Trim", interop.Method0(strings.TrimSpace)},
		{"Contains", interop.Method1(strings.Contains)},
		{"StartsWith", interop.Method1(strings.HasPrefix)},
		{"EndsWith", interop.Method1(strings.HasSuffix)},
		{"IndexOf", interop.Method1(func(s, sub string) int {
			i := strings.Index(s, sub)
			if i < 0 {
				return i
			}
			return len([]rune(s[:i]))
		})},
		{"Replace", interop.Method2(strings.ReplaceAll)},
		{"Substring", substringAdapter(false)},
		{"Substring", substringAdapter(true)},
	}
	for _, m := range methods {
		if err := reg.RegisterMethod(types.String, m.name, m.adapter); err != nil {
			return fmt.Errorf("strings: string.%s: %w", m.name, err)
		}
	}

	if _, err := reg.RegisterType("String"); err != nil {
		return err
	}
	statics := []struct {
		name    string
		adapter interop.Adapter
	}{
		{"Join", interop.Func2(func(sep string, items []string) string {
			return strings.Join(items, sep)
		})},
		{"IsNullOrEmpty", interop.Func1(func(s string) bool { return s == "" })},
		{"Repeat", interop.Func2(func(s string, n int) string {
			if n < 0 {
				n = 0
			}
			return strings.Repeat(s, n)
		})},
		{"FormatNumber", interop.Func2(func(v float64, decimals int) string {
			if decimals < 0 {
				decimals = 0
			}
			return printer.Sprint(number.Decimal(v,
				number.MinFractionDigits(decimals), number.MaxFractionDigits(decimals)))
		})},
		{"FormatNumber", interop.Func1(func(v int64) string {
			return printer.Sprint(number.Decimal(v))
		})},
	}
	for _, m := range statics {
		if err := reg.RegisterStatic("String", m.name, m.adapter); err != nil {
			return fmt.Errorf("strings: String.%s: %w", m.name, err)
		}
	}
	return nil
}
