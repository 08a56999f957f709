package runtime

import "sync"

type set map[string]struct{}

// Typing tracks, per recipient, which senders are currently typing to them.
// Derived, ephemeral state: never persisted, rebuilt from events alone.
type Typing struct {
	mu          sync.Mutex
	byRecipient map[string]set
}

func NewTyping() *Typing {
	return &Typing{byRecipient: make(map[string]set)}
}

// Set adds a sender to a recipient's typing set. Idempotent.
func (t *Typing) Set(senderID, recipientID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byRecipient[recipientID]; !ok {
		t.byRecipient[recipientID] = make(set)
	}
	t.byRecipient[recipientID][senderID] = struct{}{}
}

// Clear removes a sender from a recipient's typing set. Removing a
// non-member is a no-op. Empty sets are deleted, never left dangling.
func (t *Typing) Clear(senderID, recipientID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearLocked(senderID, recipientID)
}

// ClearAllForSender drops the sender from every recipient's set and returns
// the recipients that were affected, so the caller can notify them. Required
// on disconnect: a client that vanishes mid-type must not leave recipients
// believing it types forever.
func (t *Typing) ClearAllForSender(senderID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var affected []string
	for recipientID, senders := range t.byRecipient {
		if _, ok := senders[senderID]; ok {
			affected = append(affected, recipientID)
			t.clearLocked(senderID, recipientID)
		}
	}
	return affected
}

// IsTyping reports whether a sender is currently marked typing to a
// recipient.
func (t *Typing) IsTyping(senderID, recipientID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.byRecipient[recipientID][senderID]
	return ok
}

func (t *Typing) clearLocked(senderID, recipientID string) {
	senders, ok := t.byRecipient[recipientID]
	if !ok {
		return
	}
	delete(senders, senderID)
	if len(senders) == 0 {
		delete(t.byRecipient, recipientID)
	}
}
