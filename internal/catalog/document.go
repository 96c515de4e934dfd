// Package catalog is the metadata/reflection layer described in spec §4.2:
// given a host object, it enumerates its methods, builds an ASL-oriented
// schema document suitable for embedding in an LLM prompt, and marshals JSON
// values into native parameters (and native returns back into JSON), for
// the interpreter's Task state to invoke.
//
// The reflection shape is grounded on the teacher's registry/node_runner
// pattern (github.com/vk/burstgridgo's internal/registry + internal/dag's
// node_runner.go): a manifest-like descriptor sits beside a Go handler,
// and reflect.Value.Call drives invocation. Here the "manifest" is computed
// live from reflection instead of hand-written HCL, per spec §4.2.
package catalog

// TypeDescriptor describes one parameter, return value, or object property
// in the fixed ASL-ish vocabulary from spec §6: string, number, boolean,
// null, "array of X", "object as T", each optionally suffixed " or null".
type TypeDescriptor struct {
	Type        string `json:"Type"`
	Description string `json:"Description,omitempty"`
	Format      string `json:"Format,omitempty"`
}

// MethodDoc is one entry of the Document's Methods table.
type MethodDoc struct {
	Description string                    `json:"Description,omitempty"`
	Parameters  map[string]TypeDescriptor `json:"Parameters"`
	// paramOrder preserves declaration order for positional marshalling;
	// not part of the JSON document itself (spec describes Parameters as a
	// map), but the catalog needs it, so it is tracked out of band.
	paramOrder []string
	Return     TypeDescriptor `json:"Return"`
}

// TypeDoc is one entry of the Document's Types table: a composite object
// type's public properties.
type TypeDoc struct {
	Description string                    `json:"Description,omitempty"`
	Properties  map[string]TypeDescriptor `json:"Properties"`
	propOrder   []string
}

// Document is the metadata document embedded verbatim into the LLM prompt,
// per spec §6.
type Document struct {
	Methods map[string]MethodDoc  `json:"Methods"`
	Types   map[string]TypeDoc    `json:"Types"`
	Enums   map[string][]string   `json:"Enums"`
}

func newDocument() *Document {
	return &Document{
		Methods: make(map[string]MethodDoc),
		Types:   make(map[string]TypeDoc),
		Enums:   make(map[string][]string),
	}
}
