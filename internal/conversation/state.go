package conversation

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// State holds the two continuity identifiers of a conversation. Both are set
// together or both are empty, except in between Prepare and the first reply
// where only the provisional conversation id is known.
type State struct {
	mu             sync.Mutex
	conversationID string
	threadingID    string
}

func (s *State) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

func (s *State) ThreadingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadingID
}

// Reset forgets the conversation, the next turn starts a new one.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversationID = ""
	s.threadingID = ""
}

// Prepare returns the conversation id to attach to the next outgoing message.
// A provisional id is generated if there is none or newConversation is set. The
// provisional id is overwritten by whatever the service answers with.
func (s *State) Prepare(newConversation bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if newConversation || s.conversationID == "" {
		s.conversationID = uuid.NewString()
		s.threadingID = ""
	}
	return s.conversationID
}

// Observe updates the state from a composite '<conversationId>_<threadingId>'
// id. Ids without separator are ignored.
func (s *State) Observe(compositeID string) bool {
	conv, thread, ok := SplitComposite(compositeID)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversationID = conv
	s.threadingID = thread
	return true
}

// SplitComposite splits on the first underscore. Both parts must be non-empty.
func SplitComposite(id string) (string, string, bool) {
	conv, thread, found := strings.Cut(id, "_")
	if !found || conv == "" || thread == "" {
		return "", "", false
	}
	return conv, thread, true
}
