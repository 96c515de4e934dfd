// Package serialize renders the recorded-output transcript (spec §4.4)
// into the plain-text, indentation-sensitive format spec §6 describes,
// for embedding in the orchestrator's final LLM prompt.
package serialize

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vk/cryptoasl/internal/domain"
)

const cycleSentinel = "∞"

// Records renders every recorded output in call order, one "category"
// header per entry followed by its tab-indented content.
func Records(records []domain.RecordedOutput) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(r.Category)
		b.WriteString(":\n")
		renderValue(&b, reflect.ValueOf(r.Content), 1, map[uintptr]bool{})
	}
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteByte('\t')
	}
}

// renderValue writes v at the given indentation depth, recursing into
// composites and refusing to re-enter an already-visited map/slice
// (emitting the cycle sentinel instead of looping forever).
func renderValue(b *strings.Builder, v reflect.Value, depth int, visited map[uintptr]bool) {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			indent(b, depth)
			b.WriteString("null\n")
			return
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		indent(b, depth)
		b.WriteString("null\n")
		return
	}

	if v.Type() == reflect.TypeOf(time.Time{}) {
		indent(b, depth)
		b.WriteString(formatTemporal(v.Interface().(time.Time)))
		b.WriteByte('\n')
		return
	}

	switch v.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		indent(b, depth)
		b.WriteString(scalarString(v))
		b.WriteByte('\n')
		return
	case reflect.Slice, reflect.Array:
		renderSeq(b, v, depth, visited)
	case reflect.Map:
		renderMap(b, v, depth, visited)
	case reflect.Struct:
		renderStruct(b, v, depth, visited)
	default:
		indent(b, depth)
		b.WriteString(fmt.Sprintf("%v\n", v.Interface()))
	}
}

func withCycleGuard(b *strings.Builder, v reflect.Value, depth int, visited map[uintptr]bool, render func()) {
	ptr := v.Pointer()
	if visited[ptr] {
		indent(b, depth)
		b.WriteString(cycleSentinel + "\n")
		return
	}
	visited[ptr] = true
	render()
	delete(visited, ptr)
}

func renderSeq(b *strings.Builder, v reflect.Value, depth int, visited map[uintptr]bool) {
	if v.Kind() == reflect.Slice && v.Len() > 0 {
		withCycleGuard(b, v, depth, visited, func() { renderSeqBody(b, v, depth, visited) })
		return
	}
	renderSeqBody(b, v, depth, visited)
}

func renderSeqBody(b *strings.Builder, v reflect.Value, depth int, visited map[uintptr]bool) {
	if v.Len() == 0 {
		indent(b, depth)
		b.WriteString("(empty)\n")
		return
	}
	if cols, ok := homogeneousColumns(v); ok {
		indent(b, depth)
		b.WriteString(strings.Join(cols, "\t"))
		b.WriteByte('\n')
		for i := 0; i < v.Len(); i++ {
			row := rowValues(derefStruct(v.Index(i)), cols)
			indent(b, depth)
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
		return
	}
	for i := 0; i < v.Len(); i++ {
		renderValue(b, v.Index(i), depth, visited)
	}
}

func derefStruct(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

// homogeneousColumns reports whether every element of v is a struct (or
// map) whose fields/keys are all simple scalars, and if so returns the
// shared column names in a stable order — spec §6's "column-header line
// plus tab-indented rows" rule.
func homogeneousColumns(v reflect.Value) ([]string, bool) {
	if v.Len() == 0 {
		return nil, false
	}
	var cols []string
	for i := 0; i < v.Len(); i++ {
		elem := derefStruct(v.Index(i))
		if !elem.IsValid() {
			return nil, false
		}
		var fields []string
		switch elem.Kind() {
		case reflect.Struct:
			if elem.Type() == reflect.TypeOf(time.Time{}) {
				return nil, false
			}
			fields = structFieldNames(elem)
		case reflect.Map:
			fields = mapKeyNames(elem)
		default:
			return nil, false
		}
		if !allSimple(elem, fields) {
			return nil, false
		}
		if i == 0 {
			cols = fields
		} else if !sameColumns(cols, fields) {
			return nil, false
		}
	}
	return cols, true
}

func structFieldNames(v reflect.Value) []string {
	t := v.Type()
	var names []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.IsExported() {
			names = append(names, f.Name)
		}
	}
	return names
}

func mapKeyNames(v reflect.Value) []string {
	keys := v.MapKeys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = fmt.Sprintf("%v", k.Interface())
	}
	sort.Strings(names)
	return names
}

func allSimple(v reflect.Value, fields []string) bool {
	for _, name := range fields {
		val := fieldOrKey(v, name)
		val = derefStruct(val)
		if !val.IsValid() {
			continue
		}
		if val.Type() == reflect.TypeOf(time.Time{}) {
			continue
		}
		switch val.Kind() {
		case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
			return false
		}
	}
	return true
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func fieldOrKey(v reflect.Value, name string) reflect.Value {
	switch v.Kind() {
	case reflect.Struct:
		return v.FieldByName(name)
	case reflect.Map:
		return v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
	default:
		return reflect.Value{}
	}
}

func rowValues(v reflect.Value, cols []string) []string {
	out := make([]string, len(cols))
	for i, name := range cols {
		val := derefStruct(fieldOrKey(v, name))
		if !val.IsValid() {
			out[i] = "null"
			continue
		}
		if val.Type() == reflect.TypeOf(time.Time{}) {
			out[i] = formatTemporal(val.Interface().(time.Time))
			continue
		}
		out[i] = scalarString(val)
	}
	return out
}

func renderMap(b *strings.Builder, v reflect.Value, depth int, visited map[uintptr]bool) {
	if v.Len() == 0 {
		indent(b, depth)
		b.WriteString("(empty)\n")
		return
	}
	withCycleGuard(b, v, depth, visited, func() {
		keys := mapKeyNames(v)
		simpleOnly := true
		for _, k := range keys {
			val := derefStruct(fieldOrKey(v, k))
			if val.IsValid() && val.Type() != reflect.TypeOf(time.Time{}) {
				switch val.Kind() {
				case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
					simpleOnly = false
				}
			}
		}
		for _, k := range keys {
			val := fieldOrKey(v, k)
			if simpleOnly {
				indent(b, depth)
				b.WriteString(k)
				b.WriteString(": ")
				b.WriteString(scalarLine(derefStruct(val)))
				b.WriteByte('\n')
				continue
			}
			indent(b, depth)
			b.WriteString(k)
			b.WriteString(":\n")
			renderValue(b, val, depth+1, visited)
		}
	})
}

func renderStruct(b *strings.Builder, v reflect.Value, depth int, visited map[uintptr]bool) {
	fields := structFieldNames(v)
	for _, name := range fields {
		val := v.FieldByName(name)
		indent(b, depth)
		b.WriteString(name)
		b.WriteString(":\n")
		renderValue(b, val, depth+1, visited)
	}
}

func scalarString(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.String:
		return v.String()
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// scalarLine renders a single value for the "key: value" dictionary form,
// falling back to "null" for an invalid/nil field.
func scalarLine(v reflect.Value) string {
	if !v.IsValid() {
		return "null"
	}
	if v.Type() == reflect.TypeOf(time.Time{}) {
		return formatTemporal(v.Interface().(time.Time))
	}
	return scalarString(v)
}

// formatTemporal renders t per spec §6: "yyyy-MM-dd HH:mm:ssK".
func formatTemporal(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05Z07:00")
}
