package catalog

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/vk/cryptoasl/internal/jsonvalue"
)

// marshalReturn converts a method's raw reflect.Value result into a JSON
// value, first resolving future-of-T (await) and async-sequence-of-T
// (drain) shapes per spec §4.2.
func marshalReturn(ctx context.Context, rv reflect.Value) (jsonvalue.Value, error) {
	if !rv.IsValid() {
		return jsonvalue.Null, nil
	}
	kind, _ := unwrapReturn(rv.Type())
	switch kind {
	case returnKindFuture:
		method := rv.MethodByName("Await")
		results := method.Call([]reflect.Value{reflect.ValueOf(ctx)})
		if err, _ := results[1].Interface().(error); err != nil {
			return jsonvalue.Null, err
		}
		return marshalValue(results[0]), nil
	case returnKindAsyncSeq:
		return drainChannel(ctx, rv), nil
	default:
		return marshalValue(rv), nil
	}
}

// drainChannel fully consumes a channel value into a sequence, per spec §9's
// "drain async sequences fully before marshalling" rule. An already-closed
// or context-cancelled channel yields whatever was buffered.
func drainChannel(ctx context.Context, ch reflect.Value) jsonvalue.Value {
	out := jsonvalue.NewSeq()
	for {
		chosen, recv, ok := reflect.Select([]reflect.SelectCase{
			{Dir: reflect.SelectRecv, Chan: ch},
			{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
		})
		if chosen == 1 {
			return out
		}
		if !ok {
			return out
		}
		out.Seq = append(out.Seq, marshalValue(recv))
	}
}

// marshalValue converts an arbitrary native Go value into a JSON value.
func marshalValue(rv reflect.Value) jsonvalue.Value {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return jsonvalue.Null
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return jsonvalue.Null
	}

	switch {
	case rv.Type() == timeType:
		return jsonvalue.String(rv.Interface().(time.Time).UTC().Format(time.RFC3339))
	case rv.Type() == errorType:
		if rv.IsNil() {
			return jsonvalue.Null
		}
		return jsonvalue.String(rv.Interface().(error).Error())
	case rv.Kind() == reflect.Bool:
		return jsonvalue.Bool(rv.Bool())
	case isNumericKind(rv.Kind()):
		return jsonvalue.Number(numericToFloat(rv))
	case rv.Kind() == reflect.String:
		return jsonvalue.String(rv.String())
	case rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array:
		out := jsonvalue.NewSeq()
		for i := 0; i < rv.Len(); i++ {
			out.Seq = append(out.Seq, marshalValue(rv.Index(i)))
		}
		return out
	case rv.Kind() == reflect.Map:
		out := jsonvalue.NewMap()
		keys := rv.MapKeys()
		strKeys := make([]string, len(keys))
		for i, k := range keys {
			strKeys[i] = fmt.Sprintf("%v", k.Interface())
		}
		for i, k := range keys {
			out.Set(strKeys[i], marshalValue(rv.MapIndex(k)))
		}
		return out
	case rv.Kind() == reflect.Struct:
		out := jsonvalue.NewMap()
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || fieldIgnored(f) {
				continue
			}
			out.Set(fieldName(f), marshalValue(rv.Field(i)))
		}
		return out
	default:
		return jsonvalue.Null
	}
}

func numericToFloat(rv reflect.Value) float64 {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	default:
		return 0
	}
}

// unmarshalValue converts a JSON value into a reflect.Value of type t,
// following spec §4.2's marshalling rules. Any element that cannot be
// parsed yields the zero value for its slot rather than an error — the
// reflector is contractually never allowed to throw on a single bad
// argument; callers must handle zero values defensively.
func unmarshalValue(jv jsonvalue.Value, t reflect.Type) reflect.Value {
	if t.Kind() == reflect.Ptr {
		if jv.IsNull() {
			return reflect.Zero(t)
		}
		inner := unmarshalValue(jv, t.Elem())
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(inner)
		return ptr
	}

	switch {
	case t == timeType:
		if jv.Kind != jsonvalue.KindString {
			return reflect.Zero(t)
		}
		parsed, err := time.Parse(time.RFC3339, jv.Str)
		if err != nil {
			return reflect.Zero(t)
		}
		return reflect.ValueOf(parsed.UTC())
	case t.Kind() == reflect.Bool:
		return reflect.ValueOf(coerceBool(jv)).Convert(t)
	case isNumericKind(t.Kind()):
		f, ok := coerceNumber(jv)
		if !ok {
			return reflect.Zero(t)
		}
		return reflect.ValueOf(f).Convert(t)
	case t.Kind() == reflect.String:
		if zero := reflect.Zero(t); isEnumType(t) {
			if s, ok := matchEnum(t, jv); ok {
				return s
			}
			return zero
		}
		return reflect.ValueOf(coerceString(jv)).Convert(t)
	case t.Kind() == reflect.Slice:
		if jv.Kind != jsonvalue.KindSeq {
			return reflect.MakeSlice(t, 0, 0)
		}
		out := reflect.MakeSlice(t, len(jv.Seq), len(jv.Seq))
		for i, e := range jv.Seq {
			out.Index(i).Set(unmarshalValue(e, t.Elem()))
		}
		return out
	case t.Kind() == reflect.Map:
		out := reflect.MakeMap(t)
		if jv.Kind != jsonvalue.KindMap {
			return out
		}
		for _, k := range jv.SortedKeys() {
			keyVal := reflect.ValueOf(k).Convert(t.Key())
			out.SetMapIndex(keyVal, unmarshalValue(jv.Map[k], t.Elem()))
		}
		return out
	case t.Kind() == reflect.Struct:
		out := reflect.New(t).Elem()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || fieldIgnored(f) {
				continue
			}
			field := jv.Get(fieldName(f))
			if field.IsNull() {
				continue
			}
			out.Field(i).Set(unmarshalValue(field, f.Type))
		}
		return out
	case t.Kind() == reflect.Interface:
		any := jsonvalue.ToAny(jv)
		if any == nil {
			// reflect.ValueOf(nil) is the zero reflect.Value, and calling a
			// method with a zero Value argument panics — Null must still
			// marshal to something bound.fn.Call can hold, so fall back to
			// the interface type's own zero value.
			return reflect.Zero(t)
		}
		return reflect.ValueOf(any)
	default:
		return reflect.Zero(t)
	}
}

func isEnumType(t reflect.Type) bool {
	if t.Name() == "" {
		return false
	}
	_, ok := reflect.Zero(t).Interface().(enumerable)
	return ok
}

func matchEnum(t reflect.Type, jv jsonvalue.Value) (reflect.Value, bool) {
	if jv.Kind != jsonvalue.KindString {
		return reflect.Value{}, false
	}
	members := reflect.Zero(t).Interface().(enumerable).EnumValues()
	for _, m := range members {
		if strings.EqualFold(m, jv.Str) {
			return reflect.ValueOf(m).Convert(t), true
		}
	}
	return reflect.Value{}, false
}

func coerceBool(jv jsonvalue.Value) bool {
	switch jv.Kind {
	case jsonvalue.KindBool:
		return jv.Bool
	case jsonvalue.KindString:
		b, err := strconv.ParseBool(jv.Str)
		return err == nil && b
	case jsonvalue.KindNumber:
		return jv.Num != 0
	default:
		return false
	}
}

func coerceNumber(jv jsonvalue.Value) (float64, bool) {
	switch jv.Kind {
	case jsonvalue.KindNumber:
		return jv.Num, true
	case jsonvalue.KindString:
		f, err := strconv.ParseFloat(jv.Str, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceString(jv jsonvalue.Value) string {
	switch jv.Kind {
	case jsonvalue.KindString:
		return jv.Str
	case jsonvalue.KindNumber:
		return strconv.FormatFloat(jv.Num, 'f', -1, 64)
	case jsonvalue.KindBool:
		return strconv.FormatBool(jv.Bool)
	default:
		return ""
	}
}
