package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/tailscale/hujson"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/woodfish/woodfish/internal/core"
)

// Tx stages changes against a Snapshot.
// Reads through a Tx observe values staged earlier in the same Tx.
type Tx struct {
	snap    *Snapshot
	order   []string
	pending map[string]staged
}

type staged struct {
	value any
	unset bool
}

func newTx(snap *Snapshot) *Tx {
	return &Tx{snap: snap, pending: make(map[string]staged)}
}

// Value returns the effective value of key inside the transaction.
func (tx *Tx) Value(key string) (any, bool) {
	if st, ok := tx.pending[key]; ok {
		if st.unset {
			return nil, false
		}
		return st.value, true
	}
	return tx.snap.Value(key)
}

// List returns key as an import list. A missing key yields nil.
func (tx *Tx) List(key string) (core.List, error) {
	return asList(key, tx.Value)
}

// Bool returns key as a boolean, or def when unset or not a boolean.
func (tx *Tx) Bool(key string, def bool) bool {
	return asBool(key, def, tx.Value)
}

// Object returns key as an insertion-ordered map. A missing key yields an
// empty map.
func (tx *Tx) Object(key string) (*orderedmap.OrderedMap[string, any], error) {
	v, ok := tx.Value(key)
	if !ok {
		return orderedmap.New[string, any](), nil
	}
	if om, ok := v.(*orderedmap.OrderedMap[string, any]); ok {
		return om, nil
	}
	return objectFromSnapshot(tx.snap, key)
}

// SetList stages key = list.
func (tx *Tx) SetList(key string, list core.List) {
	if list == nil {
		list = core.List{}
	}
	tx.set(key, list)
}

// SetBool stages key = v.
func (tx *Tx) SetBool(key string, v bool) {
	tx.set(key, v)
}

// SetString stages key = v.
func (tx *Tx) SetString(key, v string) {
	tx.set(key, v)
}

// SetObject stages key = om, keeping the map's key order.
func (tx *Tx) SetObject(key string, om *orderedmap.OrderedMap[string, any]) {
	tx.set(key, om)
}

// Unset stages removal of key, restoring the editor default.
func (tx *Tx) Unset(key string) {
	tx.touch(key)
	tx.pending[key] = staged{unset: true}
}

func (tx *Tx) set(key string, v any) {
	tx.touch(key)
	tx.pending[key] = staged{value: v}
}

func (tx *Tx) touch(key string) {
	if _, ok := tx.pending[key]; !ok {
		tx.order = append(tx.order, key)
	}
}

// Changed reports whether any staged value differs from the snapshot.
func (tx *Tx) Changed() bool {
	return len(tx.ops()) > 0
}

// Keys returns the keys whose value would change.
func (tx *Tx) Keys() []string {
	ops := tx.ops()
	keys := make([]string, 0, len(ops))
	for _, op := range ops {
		keys = append(keys, op.key)
	}
	return keys
}

type patchOp struct {
	Op    string           `json:"op"`
	Path  string           `json:"path"`
	Value *json.RawMessage `json:"value,omitempty"`
	key   string
}

func (tx *Tx) ops() []patchOp {
	var ops []patchOp
	for _, key := range tx.order {
		st := tx.pending[key]
		cur, exists := tx.snap.Value(key)
		path := "/" + escapePointer(key)

		switch {
		case st.unset && exists:
			ops = append(ops, patchOp{Op: "remove", Path: path, key: key})
		case st.unset:
			// Already at the default.
		case exists && sameJSON(cur, st.value):
			// No change.
		case exists:
			ops = append(ops, patchOp{Op: "replace", Path: path, Value: rawValue(st.value), key: key})
		default:
			ops = append(ops, patchOp{Op: "add", Path: path, Value: rawValue(st.value), key: key})
		}
	}
	return ops
}

func (tx *Tx) patch() ([]byte, error) {
	return json.Marshal(tx.ops())
}

// rawValue encodes v for a patch document. A value that cannot be encoded
// becomes null; staged values come from JSON decoding or from lists,
// booleans, strings and ordered maps, which always encode.
func rawValue(v any) *json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte("null")
	}
	msg := json.RawMessage(data)
	return &msg
}

// escapePointer escapes a member name for use in a JSON pointer.
func escapePointer(key string) string {
	key = strings.ReplaceAll(key, "~", "~0")
	return strings.ReplaceAll(key, "/", "~1")
}

// sameJSON compares two values by their JSON meaning, ignoring object key
// order.
func sameJSON(a, b any) bool {
	na, errA := normalize(a)
	nb, errB := normalize(b)
	if errA != nil || errB != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}

func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func asList(key string, get func(string) (any, bool)) (core.List, error) {
	v, ok := get(key)
	if !ok || v == nil {
		return nil, nil
	}
	switch l := v.(type) {
	case core.List:
		return l, nil
	case []any:
		return core.List(l), nil
	default:
		return nil, fmt.Errorf("setting %q is %T, not an array", key, v)
	}
}

func asBool(key string, def bool, get func(string) (any, bool)) bool {
	v, ok := get(key)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// objectFromSnapshot re-decodes key from the raw document so that member
// order is preserved.
func objectFromSnapshot(s *Snapshot, key string) (*orderedmap.OrderedMap[string, any], error) {
	v, ok := s.Value(key)
	if !ok {
		return orderedmap.New[string, any](), nil
	}
	if _, isObj := v.(map[string]any); !isObj {
		return nil, fmt.Errorf("setting %q is %T, not an object", key, v)
	}

	std, err := hujson.Standardize(bytes.Clone(s.raw))
	if err != nil {
		return nil, err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(std, &members); err != nil {
		return nil, err
	}

	om := orderedmap.New[string, any]()
	if err := json.Unmarshal(members[key], om); err != nil {
		return nil, fmt.Errorf("decode %q: %w", key, err)
	}
	return om, nil
}

// List returns key as an import list. A missing key yields nil.
func (s *Snapshot) List(key string) (core.List, error) {
	return asList(key, s.Value)
}

// Bool returns key as a boolean, or def when unset or not a boolean.
func (s *Snapshot) Bool(key string, def bool) bool {
	return asBool(key, def, s.Value)
}

// Object returns key as an insertion-ordered map.
func (s *Snapshot) Object(key string) (*orderedmap.OrderedMap[string, any], error) {
	return objectFromSnapshot(s, key)
}
