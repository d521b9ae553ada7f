package domain

import "time"

// SessionRecord is the durable state shared by the session cache and its stores.
type SessionRecord struct {
	Entrance   SceneID
	Snapshot   []SceneID
	RunID      string
	CapturedAt time.Time
}

func (r SessionRecord) HasSnapshot() bool {
	return len(r.Snapshot) > 0
}

// Clone returns a copy whose snapshot does not alias r's.
func (r SessionRecord) Clone() SessionRecord {
	out := r
	out.Snapshot = CloneSceneIDs(r.Snapshot)
	return out
}

func CloneSceneIDs(ids []SceneID) []SceneID {
	if ids == nil {
		return nil
	}
	out := make([]SceneID, len(ids))
	copy(out, ids)
	return out
}
