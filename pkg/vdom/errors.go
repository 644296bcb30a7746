package vdom

import "github.com/vango-dev/reconcile/internal/errors"

// ErrDuplicateKey is returned by Diff when two siblings share a key.
var ErrDuplicateKey = errors.New(errors.CodeDuplicateKey)

// ErrInvalidNode is returned by Diff for nodes that cannot be built, such
// as an element without a tag or a text node with children.
var ErrInvalidNode = errors.New(errors.CodeInvalidNode)

func duplicateKey(parent *VNode, key string, first, second int) error {
	return errors.New(errors.CodeDuplicateKey).
		WithDetailf("key %q used by children %d and %d of <%s>", key, first, second, parent.Tag)
}

func invalidNode(v *VNode, reason string) error {
	return errors.New(errors.CodeInvalidNode).WithDetailf("%s node %q: %s", v.Kind, v.Tag, reason)
}

// Validate checks a whole tree for invalid nodes and duplicate sibling keys.
func Validate(v *VNode) error {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case KindElement:
		if v.Tag == "" {
			return invalidNode(v, "element without tag")
		}
	case KindText:
		if len(v.Children) > 0 {
			return invalidNode(v, "text node with children")
		}
		return nil
	default:
		return invalidNode(v, "unknown kind")
	}
	if _, err := keyIndex(v); err != nil {
		return err
	}
	for _, child := range v.Children {
		if child == nil {
			return invalidNode(v, "nil child")
		}
		if err := Validate(child); err != nil {
			return err
		}
	}
	return nil
}

// keyIndex maps each child key of parent to its index.
func keyIndex(parent *VNode) (map[string]int, error) {
	var index map[string]int
	for i, child := range parent.Children {
		if child == nil || child.Key == "" {
			continue
		}
		if index == nil {
			index = make(map[string]int, len(parent.Children))
		}
		if first, dup := index[child.Key]; dup {
			return nil, duplicateKey(parent, child.Key, first, i)
		}
		index[child.Key] = i
	}
	return index, nil
}
