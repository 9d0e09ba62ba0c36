package runtime

import (
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"

	"chat-sync/domain"
	"chat-sync/domain/event"
	cerrors "chat-sync/errors"
)

func newTestDispatcher(t *testing.T, transport *fakeTransport, demoMode bool) (*Dispatcher, *Reconciler, *domain.Directory) {
	t.Helper()
	log := slogt.New(t)
	identity := &domain.Identity{DisplayName: "Alice", ActiveConversation: "c1"}
	recon := NewReconciler(log, identity)
	directory := domain.NewDirectory()
	directory.Replace([]domain.Conversation{{ID: "c2"}, {ID: "c1"}})

	var demo *DemoPeer
	if demoMode {
		demo = NewDemoPeer(log, newFakeSink(), "Sam", time.Millisecond, 2*time.Millisecond)
	}
	return NewDispatcher(log, identity, recon, directory, transport, demo, demoMode), recon, directory
}

func Test_SendText_OptimisticInsertAndEmit(t *testing.T) {
	req := require.New(t)
	transport := &fakeTransport{state: domain.StateConnected}
	d, recon, directory := newTestDispatcher(t, transport, false)

	d.SendText(domain.SendTextCommand{Body: "  hello  "})

	// The optimistic entry is visible before any confirmation
	req.Equal(1, recon.Len())
	entry := recon.Messages()[0]
	req.True(entry.IsOwn)
	req.True(domain.IsLocalID(entry.ID))
	req.Equal("hello", entry.Body)

	// The outbound event carries the optimistic identity as token
	sent := transport.sentEvents()
	req.Len(sent, 1)
	out := sent[0].(event.MessageOutbound)
	req.Equal(entry.ID, out.CorrelationToken)
	req.Equal("c1", out.ConversationID)

	// Successful emission moves the conversation to the directory front
	req.Equal("c1", directory.List()[0].ID)
}

func Test_SendText_WhileDisconnected(t *testing.T) {
	req := require.New(t)
	transport := &fakeTransport{state: domain.StateDisconnected, sendErr: cerrors.ErrNotConnected}
	d, recon, directory := newTestDispatcher(t, transport, false)

	d.SendText(domain.SendTextCommand{Body: "hello"})

	// The optimistic entry remains, marked own and unconfirmed, plus a
	// terminal system notice; nothing is queued for retry
	entries := recon.Messages()
	req.Len(entries, 2)
	req.True(entries[0].IsOwn)
	req.True(domain.IsLocalID(entries[0].ID))
	req.True(entries[1].IsSystem)

	// Directory order untouched on failure
	req.Equal("c2", directory.List()[0].ID)
}

func Test_SendText_EmptyBodyIsNoOp(t *testing.T) {
	req := require.New(t)
	transport := &fakeTransport{state: domain.StateConnected}
	d, recon, _ := newTestDispatcher(t, transport, false)

	d.SendText(domain.SendTextCommand{Body: "   "})

	req.Equal(0, recon.Len())
	req.Empty(transport.sentEvents())
}

func Test_SendText_DemoModeAlwaysAccepts(t *testing.T) {
	req := require.New(t)
	transport := &fakeTransport{sendErr: cerrors.ErrNotConnected}
	d, recon, _ := newTestDispatcher(t, transport, true)

	d.SendText(domain.SendTextCommand{Body: ""})

	// Demo mode accepts the empty body and never reports disconnection
	req.Equal(1, recon.Len())
	req.False(recon.Messages()[0].IsSystem)
}

func Test_SendMedia_DefaultCaption(t *testing.T) {
	req := require.New(t)
	transport := &fakeTransport{state: domain.StateConnected}
	d, recon, _ := newTestDispatcher(t, transport, false)

	d.SendMedia(domain.SendMediaCommand{Upload: domain.Upload{
		Kind:  domain.KindImage,
		Media: domain.Media{URL: "https://cdn/cat.jpg", FileName: "cat.jpg"},
	}})

	entry := recon.Messages()[0]
	req.Equal("[IMAGE] cat.jpg", entry.Body)
	req.Equal(domain.KindImage, entry.Kind)
	req.NotNil(entry.Media)
}

func Test_SendMedia_CaptionOverride(t *testing.T) {
	req := require.New(t)
	transport := &fakeTransport{state: domain.StateConnected}
	d, recon, _ := newTestDispatcher(t, transport, false)

	d.SendMedia(domain.SendMediaCommand{
		Upload:  domain.Upload{Kind: domain.KindFile, Media: domain.Media{FileName: "report.pdf"}},
		Caption: "quarterly report",
	})

	req.Equal("quarterly report", recon.Messages()[0].Body)
}

func Test_React_TogglesAndEmits(t *testing.T) {
	req := require.New(t)
	transport := &fakeTransport{state: domain.StateConnected}
	d, recon, _ := newTestDispatcher(t, transport, false)
	recon.Apply(remoteMessage("srv1", "Bob", "hey"), "")

	d.React(domain.ReactCommand{MessageID: "srv1", Symbol: "👍"})
	entry, _ := recon.Find("srv1")
	req.True(entry.HasReactor("👍", "Alice"))

	// Toggling again returns the mapping to its original state
	d.React(domain.ReactCommand{MessageID: "srv1", Symbol: "👍"})
	entry, _ = recon.Find("srv1")
	_, exists := entry.Reactions["👍"]
	req.False(exists)

	req.Len(transport.sentEvents(), 2)
}

func Test_React_UnknownMessage(t *testing.T) {
	req := require.New(t)
	transport := &fakeTransport{state: domain.StateConnected}
	d, _, _ := newTestDispatcher(t, transport, false)

	d.React(domain.ReactCommand{MessageID: "missing", Symbol: "👍"})

	// No emission for a message we do not hold
	req.Empty(transport.sentEvents())
}

func Test_Forward_CopiesWithoutTouchingSource(t *testing.T) {
	req := require.New(t)
	transport := &fakeTransport{state: domain.StateConnected}
	d, recon, _ := newTestDispatcher(t, transport, false)
	recon.Apply(remoteMessage("srv1", "Bob", "check this out"), "")

	d.Forward(domain.ForwardCommand{MessageID: "srv1", TargetConversationID: "c2"})

	// The source log is untouched; the copy targets the other conversation
	req.Equal(1, recon.Len())
	sent := transport.sentEvents()
	req.Len(sent, 1)
	out := sent[0].(event.MessageOutbound)
	req.Equal("c2", out.ConversationID)
	req.True(out.IsForwarded)
	req.Equal("Bob", out.ForwardedFrom)
	req.Equal("Alice", out.Sender)
}

func Test_Edit_LocalRewritePlusEmission(t *testing.T) {
	req := require.New(t)
	transport := &fakeTransport{state: domain.StateConnected}
	d, recon, _ := newTestDispatcher(t, transport, false)
	recon.AppendLocal(domain.Message{ID: "srv9", ConversationID: "c1", Sender: "Alice", Body: "typo", IsOwn: true})

	d.Edit(domain.EditCommand{MessageID: "srv9", Body: "fixed"})

	entry, _ := recon.Find("srv9")
	req.Equal("fixed", entry.Body)
	req.NotNil(entry.EditedAt)
	req.Len(transport.sentEvents(), 1)
}

func Test_Delete_RemovesAndEmits(t *testing.T) {
	req := require.New(t)
	transport := &fakeTransport{state: domain.StateConnected}
	d, recon, _ := newTestDispatcher(t, transport, false)
	recon.Apply(remoteMessage("srv1", "Bob", "hey"), "")

	d.Delete(domain.DeleteCommand{MessageID: "srv1"})

	req.Equal(0, recon.Len())
	req.Len(transport.sentEvents(), 1)
}

func Test_CreateConversation_NoOptimisticDirectoryEntry(t *testing.T) {
	req := require.New(t)
	transport := &fakeTransport{state: domain.StateConnected}
	d, _, directory := newTestDispatcher(t, transport, false)
	before := directory.Len()

	d.CreateConversation(domain.CreateConversationCommand{Name: "new room"})

	// The entry only appears when the creation event is echoed back
	req.Equal(before, directory.Len())
	req.Len(transport.sentEvents(), 1)
}

func Test_DemoPeer_RepliesThroughTheQueue(t *testing.T) {
	req := require.New(t)
	sink := newFakeSink()
	demo := NewDemoPeer(slogt.New(t), sink, "Sam", time.Millisecond, 2*time.Millisecond)

	demo.Reply("c1", "hello")

	select {
	case evt := <-sink.events:
		received := evt.(event.MessageReceived)
		req.Equal("c1", received.Message.ConversationID)
		req.Equal("Sam", received.Message.Sender)
		req.False(domain.IsLocalID(received.Message.ID))
	case <-time.After(time.Second):
		t.Fatal("demo reply never arrived")
	}
}
