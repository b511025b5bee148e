package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed plan_schema.json
var planSchemaJSON string

var (
	compileOnce sync.Once
	planSchema  *jsonschema.Schema
	compileErr  error
)

// sectionOrder fixes the reporting order of top-level plan fields so that a
// FieldError list is deterministic for identical input.
var sectionOrder = map[string]int{
	"business_name":               0,
	"industry":                    1,
	"market_analysis":             2,
	"competitors":                 3,
	"recommended_business_models": 4,
	"financial_projections":       5,
	"next_steps":                  6,
	"resources":                   7,
}

// PlanSchema returns the compiled JSON Schema for structured plans.
func PlanSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("plan_schema.json", strings.NewReader(planSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("plan_schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile plan schema: %w", err)
			return
		}
		planSchema = schema
	})
	return planSchema, compileErr
}

// ValidatePlanDocument validates the provided JSON bytes against the plan
// schema and returns one FieldError per offending field, ordered by section.
func ValidatePlanDocument(data []byte) (FieldErrors, error) {
	schema, err := PlanSchema()
	if err != nil {
		return nil, err
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("plan is not valid JSON: %w", err)
	}
	err = schema.Validate(doc)
	if err == nil {
		return nil, nil
	}
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, fmt.Errorf("plan validation: %w", err)
	}
	errs := collectFieldErrors(verr, nil)
	sortFieldErrors(errs)
	return dedupeFieldErrors(errs), nil
}

// collectFieldErrors walks the validation error tree and keeps leaf causes,
// which carry the most specific instance locations.
func collectFieldErrors(verr *jsonschema.ValidationError, acc FieldErrors) FieldErrors {
	if len(verr.Causes) == 0 {
		acc = append(acc, FieldError{
			Path:   pointerToPath(verr.InstanceLocation),
			Reason: verr.Message,
		})
		return acc
	}
	for _, cause := range verr.Causes {
		acc = collectFieldErrors(cause, acc)
	}
	return acc
}

// pointerToPath converts a JSON pointer ("/market_analysis/key_trends/0")
// into a dotted field path ("market_analysis.key_trends[0]").
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return "(root)"
	}
	segs := strings.Split(ptr, "/")
	var b strings.Builder
	for _, seg := range segs {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		if isDigits(seg) {
			fmt.Fprintf(&b, "[%s]", seg)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

// topLevelField extracts the first segment of a field path, which identifies
// the owning plan section ("market_analysis.key_trends[0]" -> "market_analysis").
func topLevelField(path string) string {
	if i := strings.IndexAny(path, ".["); i >= 0 {
		return path[:i]
	}
	return path
}

func sortFieldErrors(errs FieldErrors) {
	sort.SliceStable(errs, func(i, j int) bool {
		si, iOK := sectionOrder[topLevelField(errs[i].Path)]
		sj, jOK := sectionOrder[topLevelField(errs[j].Path)]
		if !iOK {
			si = len(sectionOrder)
		}
		if !jOK {
			sj = len(sectionOrder)
		}
		if si != sj {
			return si < sj
		}
		if errs[i].Path != errs[j].Path {
			return errs[i].Path < errs[j].Path
		}
		return errs[i].Reason < errs[j].Reason
	})
}

func dedupeFieldErrors(errs FieldErrors) FieldErrors {
	var out FieldErrors
	seen := make(map[string]struct{}, len(errs))
	for _, fe := range errs {
		key := fe.Path + "\x00" + fe.Reason
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, fe)
	}
	return out
}
