package catalog

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/cryptoasl/internal/jsonvalue"
)

// boundMethod pairs a method's reflect.Method with its host receiver and the
// parameter types needed to unmarshal arguments on invocation.
type boundMethod struct {
	name       string
	receiver   reflect.Value
	fn         reflect.Value
	paramTypes []reflect.Type
	paramNames []string
}

// Catalog is the metadata + marshalling facade over a host object, per spec
// §4.2. It is built once per host type at service start and is safe for
// concurrent use thereafter. Its method bindings never change after New;
// its Document is returned by pointer, so a caller can still edit it
// (cmd/cryptoasl adds manifest descriptions once at startup).
type Catalog struct {
	host     any
	methods  map[string]*boundMethod // keyed by lower(name)+"/"+arity
	byName   map[string][]*boundMethod
	document *Document
}

// New reflects over host's exported methods and builds a Catalog. Every
// exported method must have the shape
//
//	func (h *Host) Name(ctx context.Context, params...) (Return, error)
//
// Methods not matching that shape are skipped (this lets a host carry
// private helpers alongside catalog entries).
func New(host any) (*Catalog, error) {
	doc := newDocument()
	c := &Catalog{
		host:     host,
		methods:  make(map[string]*boundMethod),
		byName:   make(map[string][]*boundMethod),
		document: doc,
	}

	hv := reflect.ValueOf(host)
	ht := hv.Type()
	for i := 0; i < ht.NumMethod(); i++ {
		m := ht.Method(i)
		bound, methodDoc, ok := reflectMethod(hv, m, doc)
		if !ok {
			continue
		}
		key := methodKey(m.Name, len(bound.paramTypes))
		c.methods[key] = bound
		c.byName[strings.ToLower(m.Name)] = append(c.byName[strings.ToLower(m.Name)], bound)
		doc.Methods[m.Name] = methodDoc
	}
	return c, nil
}

func methodKey(name string, arity int) string {
	return fmt.Sprintf("%s/%d", strings.ToLower(name), arity)
}

// reflectMethod validates a method's shape and builds both its invocation
// binding and its documentation entry in one pass, so the two can never
// drift relative to each other.
func reflectMethod(hv reflect.Value, m reflect.Method, doc *Document) (*boundMethod, MethodDoc, bool) {
	ft := m.Func.Type()
	// ft.In(0) is the receiver; ft.In(1) must be a context.Context.
	if ft.NumIn() < 2 || !ft.In(1).Implements(ctxType) {
		return nil, MethodDoc{}, false
	}
	if ft.NumOut() != 2 || ft.Out(1) != errorType {
		return nil, MethodDoc{}, false
	}

	paramCount := ft.NumIn() - 2
	paramTypes := make([]reflect.Type, paramCount)
	paramNames := make([]string, paramCount)
	params := make(map[string]TypeDescriptor, paramCount)
	var order []string
	for i := 0; i < paramCount; i++ {
		pt := ft.In(i + 2)
		paramTypes[i] = pt
		name := fmt.Sprintf("arg%d", i)
		paramNames[i] = name
		params[name] = describeType(pt, doc)
		order = append(order, name)
	}

	returnKind, elemType := unwrapReturn(ft.Out(0))
	_ = returnKind
	returnDesc := describeType(elemType, doc)

	bound := &boundMethod{
		name:       m.Name,
		receiver:   hv,
		fn:         m.Func,
		paramTypes: paramTypes,
		paramNames: paramNames,
	}
	docEntry := MethodDoc{
		Parameters: params,
		paramOrder: order,
		Return:     returnDesc,
	}
	return bound, docEntry, true
}

// Document returns the metadata document suitable for embedding in the LLM
// prompt. Calling it twice returns the same *Document (spec §8 property
// 9); the catalog itself never edits it after New, but the pointer lets a
// caller do so.
func (c *Catalog) Document() *Document {
	return c.document
}

// ResourceError is raised when Task dispatch cannot find a matching method.
type ResourceError struct {
	Resource string
	Reason   string
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("catalog: resource %q: %s", e.Resource, e.Reason)
}

// Invoke resolves a method by (case-insensitive name, arity), marshals args
// into native parameters, calls it, and marshals the result back to JSON,
// per spec §4.2's method-resolution and marshalling rules.
func (c *Catalog) Invoke(ctx context.Context, name string, args []jsonvalue.Value) (jsonvalue.Value, error) {
	bound, err := c.resolve(name, len(args))
	if err != nil {
		return jsonvalue.Null, err
	}

	callArgs := make([]reflect.Value, 0, len(args)+2)
	callArgs = append(callArgs, bound.receiver, reflect.ValueOf(ctx))
	for i, t := range bound.paramTypes {
		var av jsonvalue.Value
		if i < len(args) {
			av = args[i]
		} else {
			av = jsonvalue.Null
		}
		callArgs = append(callArgs, unmarshalValue(av, t))
	}

	results := bound.fn.Call(callArgs)
	if errVal, _ := results[1].Interface().(error); errVal != nil {
		return jsonvalue.Null, &HostError{Method: bound.name, Cause: errVal}
	}
	return marshalReturn(ctx, results[0])
}

// HostError wraps an exception raised by an invoked domain method, per spec
// §7's HostError taxonomy entry.
type HostError struct {
	Method string
	Cause  error
}

func (e *HostError) Error() string {
	return fmt.Sprintf("host method %q failed: %v", e.Method, e.Cause)
}

func (e *HostError) Unwrap() error { return e.Cause }

// ParamOrder returns the declared positional parameter names for name's
// first-registered overload, letting a caller (the Task state) turn a
// Parameters object keyed by name into a positional argument array. Most
// catalog hosts expose one overload per name; when more than one arity
// exists for the same name, the first one registered wins.
func (c *Catalog) ParamOrder(name string) ([]string, bool) {
	candidates := c.byName[strings.ToLower(name)]
	if len(candidates) == 0 {
		return nil, false
	}
	return candidates[0].paramNames, true
}

func (c *Catalog) resolve(name string, arity int) (*boundMethod, error) {
	if bound, ok := c.methods[methodKey(name, arity)]; ok {
		return bound, nil
	}
	candidates := c.byName[strings.ToLower(name)]
	if len(candidates) == 0 {
		return nil, &ResourceError{Resource: name, Reason: "unknown method"}
	}
	return nil, &ResourceError{Resource: name, Reason: fmt.Sprintf("no overload accepts %d argument(s)", arity)}
}
