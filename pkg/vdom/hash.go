package vdom

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Hash returns the structural hash of the tree rooted at v. Equal trees
// have equal hashes. The result is cached in the node, so a tree must not
// be modified after it has been hashed.
func Hash(v *VNode) uint64 {
	if v == nil {
		return 0
	}
	if v.hashed {
		return v.hash
	}

	d := xxhash.New()
	var buf [8]byte

	d.Write([]byte{byte(v.Kind)})
	writeString(d, v.Tag)
	writeString(d, v.Key)
	writeString(d, v.Text)

	keys := make([]string, 0, len(v.Props))
	for k := range v.Props {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		writeString(d, k)
		writeString(d, propHashString(v.Props[k]))
	}

	binary.LittleEndian.PutUint64(buf[:], uint64(len(v.Children)))
	d.Write(buf[:])
	for _, child := range v.Children {
		binary.LittleEndian.PutUint64(buf[:], Hash(child))
		d.Write(buf[:])
	}

	v.hash = d.Sum64()
	v.hashed = true
	return v.hash
}

func writeString(d *xxhash.Digest, s string) {
	d.WriteString(s)
	d.Write([]byte{0})
}

// maxHashDepth bounds how deep propHashString follows nested values, so
// cyclic values terminate.
const maxHashDepth = 16

// propHashString renders a prop value for hashing. Values equal under
// propEqual render the same.
func propHashString(v any) string {
	switch val := v.(type) {
	case string:
		return "s" + val
	case bool:
		return "b" + strconv.FormatBool(val)
	case int:
		return "i" + strconv.Itoa(val)
	case int64:
		return "l" + strconv.FormatInt(val, 10)
	case float64:
		return "f" + strconv.FormatUint(math.Float64bits(val), 16)
	case nil:
		return "n"
	}
	var b strings.Builder
	writeValue(&b, reflect.ValueOf(v), 0)
	return b.String()
}

// writeValue follows pointers and interfaces and sorts map entries, so
// values equal under reflect.DeepEqual render the same. Functions render
// as their code pointer.
func writeValue(b *strings.Builder, rv reflect.Value, depth int) {
	if !rv.IsValid() {
		b.WriteString("n")
		return
	}
	b.WriteString(rv.Type().String())
	if depth > maxHashDepth {
		return
	}

	switch rv.Kind() {
	case reflect.Func:
		fmt.Fprintf(b, "@%x", rv.Pointer())
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			b.WriteString("(nil)")
			return
		}
		b.WriteByte('*')
		writeValue(b, rv.Elem(), depth+1)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			b.WriteString("(nil)")
			return
		}
		b.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			writeValue(b, rv.Index(i), depth+1)
			b.WriteByte(',')
		}
		b.WriteByte(']')
	case reflect.Map:
		if rv.IsNil() {
			b.WriteString("(nil)")
			return
		}
		entries := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			var e strings.Builder
			writeValue(&e, iter.Key(), depth+1)
			e.WriteByte(':')
			writeValue(&e, iter.Value(), depth+1)
			entries = append(entries, e.String())
		}
		slices.Sort(entries)
		b.WriteString("{" + strings.Join(entries, ",") + "}")
	case reflect.Struct:
		b.WriteByte('{')
		for i := 0; i < rv.NumField(); i++ {
			writeValue(b, rv.Field(i), depth+1)
			b.WriteByte(',')
		}
		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "(%v)", rv)
	}
}
