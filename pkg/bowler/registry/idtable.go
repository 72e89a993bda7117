package registry

// IDTable is the bidirectional namespace wire-id ↔ dotted-name map
// consulted by the packet codec (wire.ParsePacket/AssemblePacket) and
// populated by the introspector's `_nms` walk. It satisfies
// wire.NamespaceResolver without importing the wire package's concrete
// types, breaking what would otherwise be a wire↔registry import cycle.
//
// The device model is single-threaded cooperative, so IDTable carries no
// mutex: it is owned and mutated only by the device's single owning task.
type IDTable struct {
	byID   map[byte]string
	byName map[string]byte
}

// NewIDTable creates an empty table.
func NewIDTable() *IDTable {
	return &IDTable{byID: map[byte]string{}, byName: map[string]byte{}}
}

// Assign records that id refers to name, overwriting any prior assignment
// for either key -- introspection re-running after a device reboot is
// expected to simply relearn the table from scratch.
func (t *IDTable) Assign(id byte, name string) {
	t.byID[id] = name
	t.byName[name] = id
}

// ResolveID implements wire.NamespaceResolver.
func (t *IDTable) ResolveID(id byte) (string, bool) {
	name, ok := t.byID[id]
	return name, ok
}

// ResolveName implements wire.NamespaceResolver.
func (t *IDTable) ResolveName(name string) (byte, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// Len reports how many namespace ids have been assigned.
func (t *IDTable) Len() int {
	return len(t.byID)
}
