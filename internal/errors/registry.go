package errors

import "sort"

// Error codes.
const (
	CodeCircularDependency = "R001"
	CodeFlushLimit         = "R002"
	CodeEffectPanic        = "R003"

	CodeDuplicateKey = "R020"
	CodeInvalidNode  = "R021"

	CodeStaleNode   = "R040"
	CodeNoContainer = "R041"
	CodeHostFailure = "R042"
	CodeDisposed    = "R043"
	CodeBadPatch    = "R044"

	CodeInvalidFixture = "R060"
	CodeFixtureRead    = "R061"

	CodeInvalidConfig = "R080"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Reactive (R001-R019)
	CodeCircularDependency: {
		Category:   CategoryReactive,
		Message:    "Circular dependency detected",
		Detail:     "A computed value read itself while it was being evaluated, directly or through other computeds.",
		Suggestion: "Break the cycle by reading one side with Peek or moving the write into an effect.",
	},
	CodeFlushLimit: {
		Category:   CategoryReactive,
		Message:    "Effect flush did not settle",
		Detail:     "Effects kept scheduling each other by writing signals that other running effects read.",
		Suggestion: "Make sure an effect does not write a value it (transitively) depends on on every run.",
	},
	CodeEffectPanic: {
		Category: CategoryReactive,
		Message:  "Effect panicked",
		Detail:   "An effect body panicked. Dependency tracking was restored before the panic was reported.",
	},

	// Diff (R020-R039)
	CodeDuplicateKey: {
		Category:   CategoryDiff,
		Message:    "Duplicate sibling key",
		Detail:     "Two children of the same parent share a key. Keyed reconciliation cannot decide which one keeps the live node.",
		Suggestion: "Give every sibling a unique key, for example the record ID instead of a display label.",
	},
	CodeInvalidNode: {
		Category:   CategoryDiff,
		Message:    "Invalid virtual node",
		Detail:     "The virtual tree contains a node that cannot be rendered, such as an element without a tag.",
		Suggestion: "Build nodes with vdom.H or the element helpers.",
	},

	// Patch (R040-R059)
	CodeStaleNode: {
		Category:   CategoryPatch,
		Message:    "Stale live node reference",
		Detail:     "A patch targets a node whose element ID is not in the identity cache. The live tree no longer matches the previous snapshot.",
		Suggestion: "Only diff against the snapshot that was last applied, and never mutate the live tree outside the applier.",
	},
	CodeNoContainer: {
		Category: CategoryPatch,
		Message:  "No container",
		Detail:   "Patches were applied without a container node.",
	},
	CodeHostFailure: {
		Category: CategoryPatch,
		Message:  "Host operation failed",
	},
	CodeDisposed: {
		Category:   CategoryPatch,
		Message:    "Root disposed",
		Detail:     "The root was disposed and can no longer be updated.",
		Suggestion: "Create a new root to mount again.",
	},

	CodeBadPatch: {
		Category:   CategoryPatch,
		Message:    "Inconsistent patch list",
		Detail:     "The child patches of one parent place two nodes at the same index or outside the new children list.",
		Suggestion: "Apply patches exactly as returned by the differ.",
	},

	// Fixtures (R060-R079)
	CodeInvalidFixture: {
		Category:   CategoryFixture,
		Message:    "Invalid tree fixture",
		Suggestion: "A node is either {text: ...} or {tag: ..., props: ..., children: [...]}.",
	},
	CodeFixtureRead: {
		Category: CategoryFixture,
		Message:  "Cannot read tree fixture",
	},

	// Config (R080-R099)
	CodeInvalidConfig: {
		Category:   CategoryConfig,
		Message:    "Invalid configuration",
		Suggestion: "Check reconcile.yaml against the documented keys.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for a code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Explain returns the registered long explanation for a code.
func Explain(code string) string {
	return registry[code].Detail
}
