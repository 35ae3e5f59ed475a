package fhirpath

import (
	"testing"

	"github.com/rs/zerolog"
)

// legacyEval mirrors the teacher's mustEval helper in its original
// fhirpath_test.go: a plain t.Fatalf-on-error helper rather than testify
// assertions, kept for the subset of tests that predate this module's
// switch to a table-driven style.
func legacyEval(t *testing.T, resource map[string]interface{}, expr string) Collection {
	t.Helper()
	node, err := parseFHIRPath(expr)
	if err != nil {
		t.Fatalf("parseFHIRPath(%q) unexpected error: %v", expr, err)
	}
	var focus Collection
	if resource != nil {
		focus = Single(NewElement(NewMapElement(resource)))
	}
	ctx := newContext(focus, nil, DefaultPrecision, Temporal{}, zerolog.Nop())
	result, err := eval(ctx, node, focus)
	if err != nil {
		t.Fatalf("eval(%q) unexpected error: %v", expr, err)
	}
	return result
}

func legacyPatient() map[string]interface{} {
	return map[string]interface{}{
		"resourceType": "Patient",
		"active":       true,
		"name": []interface{}{
			map[string]interface{}{
				"family": "Smith",
				"given":  []interface{}{"Alice", "Marie"},
			},
		},
	}
}

func TestFHIRPath_Nav_SimpleField(t *testing.T) {
	result := legacyEval(t, legacyPatient(), "Patient.active")
	if len(result) != 1 {
		t.Fatalf("expected 1 result, got %d", len(result))
	}
	if !result[0].Boolean() {
		t.Fatalf("expected true, got %v", result[0].Boolean())
	}
}

func TestFHIRPath_Nav_GivenNames(t *testing.T) {
	result := legacyEval(t, legacyPatient(), "name.given")
	if len(result) != 2 {
		t.Fatalf("expected 2 given names, got %d: %v", len(result), result)
	}
}

func TestFHIRPath_Nav_MissingField(t *testing.T) {
	result := legacyEval(t, legacyPatient(), "Patient.deceasedDateTime")
	if len(result) != 0 {
		t.Fatalf("expected empty collection, got %d: %v", len(result), result)
	}
}

func TestFHIRPath_Literal_Integer(t *testing.T) {
	result := legacyEval(t, nil, "42")
	if len(result) != 1 {
		t.Fatalf("expected 1 result, got %d", len(result))
	}
	if result[0].Integer() != 42 {
		t.Fatalf("expected 42, got %d", result[0].Integer())
	}
}

func TestFHIRPath_Literal_BoolTrue(t *testing.T) {
	result := legacyEval(t, nil, "true")
	if len(result) != 1 || !result[0].Boolean() {
		t.Fatalf("expected [true], got %v", result)
	}
}

func TestFHIRPath_Cmp_StringEqual(t *testing.T) {
	result := legacyEval(t, nil, "'a' = 'a'")
	if len(result) != 1 || !result[0].Boolean() {
		t.Fatalf("expected [true], got %v", result)
	}
}

func TestFHIRPath_Cmp_StringNotEqual(t *testing.T) {
	result := legacyEval(t, nil, "'a' = 'b'")
	if len(result) != 1 || result[0].Boolean() {
		t.Fatalf("expected [false], got %v", result)
	}
}

func TestFHIRPath_Nav_ResourceTypeMismatch(t *testing.T) {
	observation := map[string]interface{}{"resourceType": "Observation", "status": "final"}
	result := legacyEval(t, observation, "Patient.active")
	if len(result) != 0 {
		t.Fatalf("expected empty for wrong resource type, got %v", result)
	}
}
