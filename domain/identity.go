// Package domain contains core concepts of the chat client.
// This file defines the identity context shared by every component.
// No runtime, network, or UI logic should be added here.
package domain

import "strings"

// Identity is the current user's context: who they are and which
// conversation their log is bound to. It is mutated only by explicit
// user action (settings save, conversation switch).
type Identity struct {
	DisplayName        string
	ActiveConversation string
}

// SameSender reports whether a wire sender name refers to this identity.
// Comparison is case-insensitive and ignores surrounding whitespace,
// because the service echoes names exactly as typed at join time.
func (i Identity) SameSender(name string) bool {
	return SameSender(i.DisplayName, name)
}

// SameSender compares two sender names with the identity rules
// (trimmed, case-insensitive).
func SameSender(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
