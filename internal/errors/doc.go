// Package errors provides structured, actionable errors for reconcile.
//
// Every error has a code (e.g. "R020") that maps to a registered template
// with a short message, a longer explanation and a suggestion. Packages
// declare sentinels from codes and return fresh instances carrying detail;
// errors.Is matches them by code:
//
//	var ErrDuplicateKey = errors.New(errors.CodeDuplicateKey)
//
//	return errors.New(errors.CodeDuplicateKey).
//	    WithDetail(fmt.Sprintf("key %q appears twice under <ul>", key))
//
// # Error Categories
//
//   - reactive: dependency tracking and effect scheduling
//   - diff: malformed virtual trees handed to the differ
//   - patch: live-tree identity corruption detected by the applier
//   - fixture: tree fixture files read by the CLI
//   - config: configuration files
//
// Format renders an error for terminals:
//
//	ERROR R020: Duplicate sibling key
//
//	  testdata/list.yaml:12:7
//
//	  Two children of the same parent share a key...
//
//	  Hint: Give every sibling a unique key.
package errors
