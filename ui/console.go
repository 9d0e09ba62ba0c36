// Package ui renders the engine's state to a terminal. It is strictly a
// consumer of the ordered log and the directory; it never mutates them.
package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"chat-sync/domain"
)

type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// RenderLog prints the active conversation's messages in display order.
func (c *Console) RenderLog(messages []domain.Message) {
	for _, msg := range messages {
		fmt.Fprintln(c.out, c.renderMessage(msg))
	}
}

func (c *Console) renderMessage(msg domain.Message) string {
	stamp := msg.CreatedAt.Format(time.TimeOnly)

	if msg.IsSystem {
		return color.Yellow.Sprintf("[%s] ** %s **", stamp, msg.Body)
	}

	sender := color.Cyan.Sprint(msg.Sender)
	if msg.IsOwn {
		sender = color.Green.Sprint(msg.Sender)
	}

	line := fmt.Sprintf("[%s] %s: %s", stamp, sender, msg.Body)
	if domain.IsLocalID(msg.ID) && msg.IsOwn {
		line += color.Yellow.Sprint(" (sending)")
	}
	if msg.EditedAt != nil {
		line += color.Magenta.Sprint(" (edited)")
	}
	if msg.IsForwarded {
		line += color.Magenta.Sprintf(" (forwarded from %s)", msg.ForwardedFrom)
	}
	for symbol, reactors := range msg.Reactions {
		line += fmt.Sprintf("  %s x%d", symbol, len(reactors))
	}
	return line
}

// RenderDirectory prints the conversation directory, most recent
// activity first.
func (c *Console) RenderDirectory(conversations []domain.Conversation, active string) {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"", "ID", "Name", "Last activity"})
	for _, conv := range conversations {
		marker := ""
		if conv.ID == active {
			marker = "*"
		}
		activity := ""
		if !conv.LastActivityAt.IsZero() {
			activity = conv.LastActivityAt.Format(time.DateTime)
		}
		table.Append([]string{marker, conv.ID, conv.Name, activity})
	}
	table.Render()
}

// Tail prints only the log entries appended since the previous call, so
// the engine's change callback can stream a conversation without
// re-rendering it wholesale. A shrunk, replaced, or mutated log (echo
// reconciliation, edit, delete, reaction change) re-renders fully.
type Tail struct {
	console *Console
	seen    []string
}

func NewTail(console *Console) *Tail {
	return &Tail{console: console}
}

func (t *Tail) Render(messages []domain.Message) {
	if len(messages) < len(t.seen) || t.mutated(messages) {
		t.seen = t.seen[:0]
	}
	for _, msg := range messages[len(t.seen):] {
		fmt.Fprintln(t.console.out, t.console.renderMessage(msg))
		t.seen = append(t.seen, fingerprint(msg))
	}
}

// mutated reports whether an already-rendered entry changed in place.
func (t *Tail) mutated(messages []domain.Message) bool {
	for i, fp := range t.seen {
		if fingerprint(messages[i]) != fp {
			return true
		}
	}
	return false
}

// fingerprint captures everything renderMessage displays for an entry.
func fingerprint(m domain.Message) string {
	edited := ""
	if m.EditedAt != nil {
		edited = m.EditedAt.Format(time.RFC3339Nano)
	}
	reactions := make([]string, 0, len(m.Reactions))
	for symbol, names := range m.Reactions {
		reactions = append(reactions, fmt.Sprintf("%s:%d", symbol, len(names)))
	}
	sort.Strings(reactions)
	return fmt.Sprintf("%s|%s|%s|%s", m.ID, m.Body, edited, strings.Join(reactions, ","))
}

// RenderStatus prints a one-line connection status.
func (c *Console) RenderStatus(state domain.ConnState) {
	switch state {
	case domain.StateConnected:
		fmt.Fprintln(c.out, color.Green.Sprint("connected"))
	case domain.StateConnecting:
		fmt.Fprintln(c.out, color.Yellow.Sprint("connecting..."))
	default:
		fmt.Fprintln(c.out, color.Red.Sprint(string(state)))
	}
}
