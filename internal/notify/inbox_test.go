package notify

import (
	"context"
	"testing"
	"time"

	"github.com/DanielDev87/app-empleos/internal/model"
	"github.com/DanielDev87/app-empleos/internal/store"
)

func newTestInbox() *Inbox {
	inbox := NewInbox(store.NewMemoryKV())
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	inbox.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return inbox
}

func TestInbox_AddAssignsIdentityAndOrder(t *testing.T) {
	inbox := newTestInbox()
	ctx := context.Background()

	first, err := inbox.Add(ctx, "u1", model.Notification{Title: "first", JobID: "j1"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	second, err := inbox.Add(ctx, "u1", model.Notification{Title: "second", JobID: "j2"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if first.ID == "" || second.ID == "" || first.ID == second.ID {
		t.Errorf("notification ids not unique: %q, %q", first.ID, second.ID)
	}
	if first.Read || second.Read {
		t.Error("new notifications must start unread")
	}

	list, err := inbox.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("inbox has %d entries, want 2", len(list))
	}
	if list[0].Title != "second" || list[1].Title != "first" {
		t.Error("inbox not ordered newest first")
	}
}

func TestInbox_MarkAsRead(t *testing.T) {
	inbox := newTestInbox()
	ctx := context.Background()

	a, _ := inbox.Add(ctx, "u1", model.Notification{Title: "a"})
	inbox.Add(ctx, "u1", model.Notification{Title: "b"})

	if err := inbox.MarkAsRead(ctx, "u1", a.ID); err != nil {
		t.Fatalf("MarkAsRead failed: %v", err)
	}

	unread, err := inbox.UnreadCount(ctx, "u1")
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if unread != 1 {
		t.Errorf("unread = %d, want 1", unread)
	}

	// Unknown id is a no-op.
	if err := inbox.MarkAsRead(ctx, "u1", "does-not-exist"); err != nil {
		t.Errorf("MarkAsRead(unknown) returned error: %v", err)
	}
}

func TestInbox_MarkAllAsRead(t *testing.T) {
	inbox := newTestInbox()
	ctx := context.Background()

	inbox.Add(ctx, "u1", model.Notification{Title: "a"})
	inbox.Add(ctx, "u1", model.Notification{Title: "b"})
	inbox.Add(ctx, "u1", model.Notification{Title: "c"})

	if err := inbox.MarkAllAsRead(ctx, "u1"); err != nil {
		t.Fatalf("MarkAllAsRead failed: %v", err)
	}
	unread, _ := inbox.UnreadCount(ctx, "u1")
	if unread != 0 {
		t.Errorf("unread = %d, want 0", unread)
	}
}

func TestInbox_Clear(t *testing.T) {
	inbox := newTestInbox()
	ctx := context.Background()

	inbox.Add(ctx, "u1", model.Notification{Title: "a"})
	if err := inbox.Clear(ctx, "u1"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	list, err := inbox.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("inbox has %d entries after clear, want 0", len(list))
	}
}

func TestInbox_UsersAreIsolated(t *testing.T) {
	inbox := newTestInbox()
	ctx := context.Background()

	inbox.Add(ctx, "alice", model.Notification{Title: "for alice"})

	list, err := inbox.List(ctx, "bob")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("bob sees %d of alice's notifications", len(list))
	}
}
