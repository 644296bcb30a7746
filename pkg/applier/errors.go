package applier

import (
	"fmt"

	"github.com/vango-dev/reconcile/internal/errors"
)

var (
	// ErrStaleNode is returned when a patch references an element ID that
	// is not in the identity cache.
	ErrStaleNode = errors.New(errors.CodeStaleNode)

	// ErrNoContainer is returned when patches are applied without a
	// container.
	ErrNoContainer = errors.New(errors.CodeNoContainer)

	// ErrBadPatch is returned when child patches do not describe a valid
	// child order.
	ErrBadPatch = errors.New(errors.CodeBadPatch)
)

func staleNode(op string, hid string) error {
	if hid == "" {
		return errors.New(errors.CodeStaleNode).WithDetailf("%s: node has no element ID", op)
	}
	return errors.New(errors.CodeStaleNode).WithDetailf("%s: no live node for element ID %q", op, hid)
}

func hostFailure(op string, err error) error {
	return fmt.Errorf("applier: %s: %w", op, err)
}

func badPatch(format string, args ...any) error {
	return errors.New(errors.CodeBadPatch).WithDetailf(format, args...)
}
