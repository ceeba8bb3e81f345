package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DanielDev87/app-empleos/internal/model"
	"github.com/DanielDev87/app-empleos/internal/store"
)

const inboxKeyPrefix = "notifications:"

// Inbox is the persisted per-user list of received notifications, newest
// first, each with a read/unread flag.
type Inbox struct {
	kv  store.KV
	now func() time.Time
}

// NewInbox returns an Inbox persisting in kv.
func NewInbox(kv store.KV) *Inbox {
	return &Inbox{kv: kv, now: time.Now}
}

func inboxKey(userID string) string {
	return inboxKeyPrefix + userID
}

func (i *Inbox) load(ctx context.Context, userID string) ([]model.Notification, error) {
	raw, err := i.kv.Get(ctx, inboxKey(userID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []model.Notification
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decode inbox: %w", err)
	}
	return list, nil
}

func (i *Inbox) save(ctx context.Context, userID string, list []model.Notification) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode inbox: %w", err)
	}
	return i.kv.Set(ctx, inboxKey(userID), string(raw))
}

// Add prepends a notification, assigning its ID and timestamp and marking
// it unread.
func (i *Inbox) Add(ctx context.Context, userID string, n model.Notification) (model.Notification, error) {
	list, err := i.load(ctx, userID)
	if err != nil {
		return model.Notification{}, err
	}

	n.ID = uuid.NewString()
	n.Timestamp = i.now().UTC()
	n.Read = false

	list = append([]model.Notification{n}, list...)
	if err := i.save(ctx, userID, list); err != nil {
		return model.Notification{}, err
	}
	return n, nil
}

// List returns the user's notifications, newest first.
func (i *Inbox) List(ctx context.Context, userID string) ([]model.Notification, error) {
	return i.load(ctx, userID)
}

// MarkAsRead marks one notification read. Unknown IDs are ignored.
func (i *Inbox) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	list, err := i.load(ctx, userID)
	if err != nil {
		return err
	}
	for idx := range list {
		if list[idx].ID == notificationID {
			list[idx].Read = true
		}
	}
	return i.save(ctx, userID, list)
}

// MarkAllAsRead marks every notification read.
func (i *Inbox) MarkAllAsRead(ctx context.Context, userID string) error {
	list, err := i.load(ctx, userID)
	if err != nil {
		return err
	}
	for idx := range list {
		list[idx].Read = true
	}
	return i.save(ctx, userID, list)
}

// Clear removes all notifications for the user.
func (i *Inbox) Clear(ctx context.Context, userID string) error {
	return i.kv.Delete(ctx, inboxKey(userID))
}

// UnreadCount returns how many notifications are unread.
func (i *Inbox) UnreadCount(ctx context.Context, userID string) (int, error) {
	list, err := i.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range list {
		if !n.Read {
			count++
		}
	}
	return count, nil
}
