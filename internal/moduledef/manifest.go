// Package moduledef parses the HCL method manifests that sit beside
// internal/domain's reflected Toolbox methods, grounded on the
// teacher's internal/schema.RunnerDefinition (an HCL manifest
// describing a Go handler's inputs/outputs, loaded by
// internal/registry.LoadGridsRecursively and cross-checked against the
// Go side by internal/registry.ValidateRegistry).
//
// Here the manifest describes a reflected catalog method rather than a
// hand-registered HCL runner, so Validate checks parity against
// catalog.Catalog's live Document instead of a hand-written Go struct's
// field tags — but the shape of the check (does the declared side
// match the code side, field by field) is the same idea.
package moduledef

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/cryptoasl/internal/catalog"
)

// InputManifest describes one declared parameter of a method manifest.
type InputManifest struct {
	Name        string `hcl:"name,label"`
	Description string `hcl:"description,optional"`
}

// MethodManifest is the HCL-described sibling of one domain.Toolbox
// method.
type MethodManifest struct {
	Method      string          `hcl:"method,label"`
	Description string          `hcl:"description,optional"`
	Inputs      []InputManifest `hcl:"input,block"`
	Body        hcl.Body        `hcl:",remain"`
}

// File is the top-level structure of one *.hcl manifest file: any
// number of method manifests.
type File struct {
	Methods []*MethodManifest `hcl:"method,block"`
	Body    hcl.Body          `hcl:",remain"`
}

// Load parses every *.hcl file directly under dir into a flat list of
// method manifests, mirroring the teacher's
// registry.LoadGridsRecursively shape (non-recursive here: one manifest
// directory per reflected host).
func Load(dir string) ([]*MethodManifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("moduledef: read %s: %w", dir, err)
	}

	parser := hclparse.NewParser()
	var all []*MethodManifest
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".hcl") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		hclFile, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("moduledef: parse %s: %w", path, diags)
		}
		var f File
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &f); diags.HasErrors() {
			return nil, fmt.Errorf("moduledef: decode %s: %w", path, diags)
		}
		all = append(all, f.Methods...)
	}
	return all, nil
}

// Validate cross-checks every loaded manifest's declared method name
// and input count against cat's reflected Document — a belt-and-
// suspenders parity check catching drift between a method's Go
// signature and its advertised catalog entry before the LLM ever sees
// stale metadata. The shape of the JSON document embedded in the LLM
// prompt comes from reflection (spec §4.2); Validate only checks that
// the manifest describes the same shape, and EnrichDocument adds the
// manifest's descriptions to it.
func Validate(manifests []*MethodManifest, cat *catalog.Catalog) error {
	doc := cat.Document()
	var errs []string
	for _, m := range manifests {
		methodDoc, ok := lookupMethod(doc, m.Method)
		if !ok {
			errs = append(errs, fmt.Sprintf("manifest declares method %q which the catalog does not reflect", m.Method))
			continue
		}
		if len(m.Inputs) != len(methodDoc.Parameters) {
			errs = append(errs, fmt.Sprintf("method %q: manifest declares %d input(s), catalog reflects %d", m.Method, len(m.Inputs), len(methodDoc.Parameters)))
		}
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("moduledef: validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func lookupMethod(doc *catalog.Document, name string) (catalog.MethodDoc, bool) {
	if m, ok := doc.Methods[name]; ok {
		return m, true
	}
	lower := strings.ToLower(name)
	for k, m := range doc.Methods {
		if strings.ToLower(k) == lower {
			return m, true
		}
	}
	return catalog.MethodDoc{}, false
}

// EnrichDocument copies every manifest's method Description and each
// input block's Description onto doc's reflected MethodDoc entries, by
// position (manifest input i describes reflected parameter argI). The
// live Document stays the source of truth for shape (spec §4.2); this
// only adds the prose reflection can't recover — Go doesn't preserve
// parameter names, so a handler's own doc comments have nowhere to
// land in the reflected schema without this manifest-beside-handler
// path. Call after Validate has confirmed the manifests match cat's
// Document shape.
func EnrichDocument(manifests []*MethodManifest, doc *catalog.Document) {
	for _, m := range manifests {
		key, ok := canonicalMethodKey(doc, m.Method)
		if !ok {
			continue
		}
		methodDoc := doc.Methods[key]
		if m.Description != "" {
			methodDoc.Description = m.Description
		}
		for i, input := range m.Inputs {
			if input.Description == "" {
				continue
			}
			argKey := fmt.Sprintf("arg%d", i)
			param, ok := methodDoc.Parameters[argKey]
			if !ok {
				continue
			}
			param.Description = input.Description
			methodDoc.Parameters[argKey] = param
		}
		doc.Methods[key] = methodDoc
	}
}

func canonicalMethodKey(doc *catalog.Document, name string) (string, bool) {
	if _, ok := doc.Methods[name]; ok {
		return name, true
	}
	lower := strings.ToLower(name)
	for k := range doc.Methods {
		if strings.ToLower(k) == lower {
			return k, true
		}
	}
	return "", false
}
