// Package runtime hosts the engine loop, the message reconciler, and the
// action dispatcher. It serializes every mutation of the active log onto
// one consumer goroutine; nothing in here talks to the network directly
// except through the contract interfaces.
package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"chat-sync/domain"
)

// duplicateWindow is the trailing window inside which a same-body,
// same-sender message is treated as a re-delivery even when the source
// regenerated its identity.
const duplicateWindow = 10 * time.Second

// Reconciler maintains the ordered, duplicate-free log of the active
// conversation. It reconciles optimistic local entries against server
// echoes, deduplicates remote inserts, and applies edit/delete/reaction
// deltas. All methods run on the engine goroutine.
type Reconciler struct {
	log      *slog.Logger
	identity *domain.Identity
	entries  []domain.Message
	now      func() time.Time
}

func NewReconciler(log *slog.Logger, identity *domain.Identity) *Reconciler {
	return &Reconciler{log: log, identity: identity, now: time.Now}
}

// Clear discards the whole log, called on conversation switch before the
// replacement history arrives so the previous conversation cannot bleed
// into the new one.
func (r *Reconciler) Clear() {
	r.entries = nil
}

// Replace swaps the log wholesale for a fetched history, already in
// chronological order. Ownership is derived here because the query
// interface does not know who we are.
func (r *Reconciler) Replace(messages []domain.Message) {
	r.entries = make([]domain.Message, len(messages))
	copy(r.entries, messages)
	for i := range r.entries {
		r.entries[i].IsOwn = r.identity.SameSender(r.entries[i].Sender)
	}
}

// AppendLocal appends an optimistic or synthetic entry. The caller has
// already minted a local identity; the entry is visible before any
// network confirmation.
func (r *Reconciler) AppendLocal(msg domain.Message) {
	r.entries = append(r.entries, r.clampTimestamp(msg))
}

// Apply processes a message arriving from the realtime channel and
// reports whether a new entry was appended. Echo reconciliation mutates
// an existing entry in place and appends nothing; duplicate deliveries
// append nothing either.
func (r *Reconciler) Apply(msg domain.Message, correlationToken string) bool {
	if correlationToken != "" && r.reconcileByToken(correlationToken, msg) {
		return false
	}
	if r.identity.SameSender(msg.Sender) && r.reconcileByContent(msg) {
		return false
	}

	if _, idx, found := lo.FindIndexOf(r.entries, func(e domain.Message) bool { return e.ID == msg.ID }); found {
		r.log.Debug(fmt.Sprintf("Dropping re-delivered message %s (position %d)", msg.ID, idx))
		return false
	}
	if r.isContentDuplicate(msg) {
		r.log.Debug("Dropping content-duplicate message", "sender", msg.Sender)
		return false
	}

	msg.IsOwn = r.identity.SameSender(msg.Sender)
	r.entries = append(r.entries, r.clampTimestamp(msg))
	return true
}

// reconcileByToken resolves an echo whose correlation token equals the
// optimistic identity used at insert time. Identity and timestamp are
// rewritten in place; the entry is never duplicated.
func (r *Reconciler) reconcileByToken(token string, msg domain.Message) bool {
	for i := range r.entries {
		if r.entries[i].ID != token {
			continue
		}
		r.entries[i].ID = msg.ID
		r.entries[i].CreatedAt = msg.CreatedAt
		return true
	}
	return false
}

// reconcileByContent is the fallback for echoes without a token: same
// sender as this identity, exact body match, and an entry still carrying
// a local identity. A confirmed entry is never reconciled twice.
func (r *Reconciler) reconcileByContent(msg domain.Message) bool {
	for i := range r.entries {
		e := r.entries[i]
		if !e.IsOwn || !domain.IsLocalID(e.ID) || e.Body != msg.Body {
			continue
		}
		r.entries[i].ID = msg.ID
		r.entries[i].CreatedAt = msg.CreatedAt
		return true
	}
	return false
}

// isContentDuplicate guards against re-delivery where the source
// regenerated the identity: same body and sender, non-system, and the
// existing entry was created within the trailing duplicate window.
func (r *Reconciler) isContentDuplicate(msg domain.Message) bool {
	cutoff := r.now().Add(-duplicateWindow)
	for _, e := range r.entries {
		if e.IsSystem {
			continue
		}
		if e.Body == msg.Body && domain.SameSender(e.Sender, msg.Sender) && e.CreatedAt.After(cutoff) {
			return true
		}
	}
	return false
}

// Edit replaces the body of an existing entry and stamps EditedAt.
// Unknown identities are ignored: the message may belong to a
// conversation that is not currently loaded.
func (r *Reconciler) Edit(id, body string, at time.Time) {
	for i := range r.entries {
		if r.entries[i].ID != id {
			continue
		}
		r.entries[i].Body = body
		r.entries[i].EditedAt = &at
		return
	}
}

// Delete removes an entry by identity; absent is a silent no-op.
func (r *Reconciler) Delete(id string) {
	r.entries = lo.Reject(r.entries, func(e domain.Message, _ int) bool { return e.ID == id })
}

// SetReactions replaces the reaction mapping of an entry wholesale.
func (r *Reconciler) SetReactions(id string, reactions map[string][]string) {
	for i := range r.entries {
		if r.entries[i].ID != id {
			continue
		}
		r.entries[i].Reactions = reactions
		return
	}
}

// ToggleReaction flips the actor's reaction on an entry and reports
// whether the entry exists.
func (r *Reconciler) ToggleReaction(id, symbol, actor string) bool {
	for i := range r.entries {
		if r.entries[i].ID != id {
			continue
		}
		r.entries[i].ToggleReaction(symbol, actor)
		return true
	}
	return false
}

// Find returns a copy of the entry with the given identity.
func (r *Reconciler) Find(id string) (domain.Message, bool) {
	return lo.Find(r.entries, func(e domain.Message) bool { return e.ID == id })
}

// Messages returns a copy of the ordered log.
func (r *Reconciler) Messages() []domain.Message {
	out := make([]domain.Message, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Reconciler) Len() int {
	return len(r.entries)
}

// clampTimestamp keeps CreatedAt monotonic non-decreasing within the log
// so display ordering never has to re-sort appended entries.
func (r *Reconciler) clampTimestamp(msg domain.Message) domain.Message {
	if n := len(r.entries); n > 0 && msg.CreatedAt.Before(r.entries[n-1].CreatedAt) {
		msg.CreatedAt = r.entries[n-1].CreatedAt
	}
	return msg
}
