package chat

import "querydesk/models"

// History is an append-only transcript. The zero value is empty.
// Append never modifies the receiver; it returns a new History.
type History struct {
	entries []models.ChatEntry
}

// NewHistory builds a history from previously stored entries, renumbering
// them 1..n in the given order.
func NewHistory(entries []models.ChatEntry) History {
	h, _ := History{}.Append(entries...)
	return h
}

// Append returns a history with entries added at the end and the added
// entries as stored, with IDs continuing from Len()+1.
func (h History) Append(entries ...models.ChatEntry) (History, []models.ChatEntry) {
	if len(entries) == 0 {
		return h, nil
	}
	next := make([]models.ChatEntry, len(h.entries), len(h.entries)+len(entries))
	copy(next, h.entries)

	for _, e := range entries {
		e.ID = len(next) + 1
		next = append(next, e)
	}
	added := make([]models.ChatEntry, len(entries))
	copy(added, next[len(h.entries):])
	return History{entries: next}, added
}

func (h History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the entries in chronological order.
func (h History) Entries() []models.ChatEntry {
	out := make([]models.ChatEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h History) Last() (models.ChatEntry, bool) {
	if len(h.entries) == 0 {
		return models.ChatEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}
