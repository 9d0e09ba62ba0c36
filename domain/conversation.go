package domain

import "time"

// Conversation is a directory entry.
type Conversation struct {
	ID             string
	Name           string
	Description    string
	LastActivityAt time.Time
	CreatedAt      time.Time
}

// Directory holds the known conversations ordered most-recent-activity
// first. It is replaced wholesale only by a snapshot fetch; individual
// entries are appended by creation events and reordered by activity.
type Directory struct {
	entries []Conversation
}

func NewDirectory() *Directory {
	return &Directory{}
}

// Replace swaps the whole directory for a fetched snapshot.
func (d *Directory) Replace(snapshot []Conversation) {
	d.entries = make([]Conversation, len(snapshot))
	copy(d.entries, snapshot)
}

// Append adds a newly created conversation at the front. A conversation
// that already exists is left untouched.
func (d *Directory) Append(c Conversation) {
	for _, existing := range d.entries {
		if existing.ID == c.ID {
			return
		}
	}
	d.entries = append([]Conversation{c}, d.entries...)
}

// Touch records activity on a conversation: it moves to the front of the
// ordering without being duplicated, and its activity timestamp advances.
// Touching an unknown conversation is a no-op.
func (d *Directory) Touch(id string, at time.Time) bool {
	for i, c := range d.entries {
		if c.ID != id {
			continue
		}
		if at.After(c.LastActivityAt) {
			c.LastActivityAt = at
		}
		d.entries = append(d.entries[:i], d.entries[i+1:]...)
		d.entries = append([]Conversation{c}, d.entries...)
		return true
	}
	return false
}

// Get returns the conversation with the given id.
func (d *Directory) Get(id string) (Conversation, bool) {
	for _, c := range d.entries {
		if c.ID == id {
			return c, true
		}
	}
	return Conversation{}, false
}

// List returns a copy of the current ordering.
func (d *Directory) List() []Conversation {
	out := make([]Conversation, len(d.entries))
	copy(out, d.entries)
	return out
}

func (d *Directory) Len() int {
	return len(d.entries)
}
