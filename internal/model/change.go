package model

// ChangeKind is the kind of mutation reported by the change feed
type ChangeKind int

const (
	ChangeInserted ChangeKind = iota + 1
	ChangeDeleted
	ChangeModified
)

// String returns the lowercase name of the change kind
func (k ChangeKind) String() string {
	switch k {
	case ChangeInserted:
		return "inserted"
	case ChangeDeleted:
		return "deleted"
	case ChangeModified:
		return "modified"
	default:
		return "unknown"
	}
}

// ChangeEvent pairs a change kind with the heartbeat image it applies to.
// Deletions carry the old image, insertions the new one.
type ChangeEvent struct {
	Kind      ChangeKind
	HeartBeat HeartBeat
}
