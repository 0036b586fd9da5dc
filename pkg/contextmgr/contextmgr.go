// Package contextmgr manages a coaching conversation transcript: message
// accumulation, token counting, and compaction when the history outgrows the
// model's context window.
package contextmgr

import (
	"fmt"
	"strings"

	"discoverycoach/pkg/coach"
	"discoverycoach/pkg/utils"
)

// DefaultMaxTokens is the compaction threshold used when the caller does not
// set one.
const DefaultMaxTokens = 10000

// ContextManager owns one conversation history. It is not safe for
// concurrent use; each session gets its own manager.
type ContextManager struct {
	counter   *utils.TokenCounter
	messages  []coach.Message
	maxTokens int
}

// New creates an empty context manager with the default token budget.
func New() *ContextManager {
	return NewWithBudget(DefaultMaxTokens)
}

// NewWithBudget creates an empty context manager that compacts when the
// transcript exceeds maxTokens.
func NewWithBudget(maxTokens int) *ContextManager {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	counter, err := utils.NewTokenCounter("gpt-4")
	if err != nil {
		// Zero-value counter falls back to character-based estimation.
		counter = &utils.TokenCounter{}
	}
	return &ContextManager{
		counter:   counter,
		messages:  make([]coach.Message, 0),
		maxTokens: maxTokens,
	}
}

// AddUser appends a user message.
func (cm *ContextManager) AddUser(content string) {
	cm.add(coach.RoleUser, content)
}

// AddAssistant appends an assistant message.
func (cm *ContextManager) AddAssistant(content string) {
	cm.add(coach.RoleAssistant, content)
}

func (cm *ContextManager) add(role, content string) {
	cm.messages = append(cm.messages, coach.Message{Role: role, Content: content})
}

// Messages returns a copy of the transcript, oldest first.
func (cm *ContextManager) Messages() []coach.Message {
	out := make([]coach.Message, len(cm.messages))
	copy(out, cm.messages)
	return out
}

// Tail returns a copy of the most recent n messages, or the whole transcript
// when it is shorter than n.
func (cm *ContextManager) Tail(n int) []coach.Message {
	if n <= 0 {
		return nil
	}
	if n > len(cm.messages) {
		n = len(cm.messages)
	}
	out := make([]coach.Message, n)
	copy(out, cm.messages[len(cm.messages)-n:])
	return out
}

// Len returns the number of messages in the transcript.
func (cm *ContextManager) Len() int {
	return len(cm.messages)
}

// Clear removes all messages.
func (cm *ContextManager) Clear() {
	cm.messages = cm.messages[:0]
}

// Restore replaces the transcript, e.g. when resuming a saved session.
func (cm *ContextManager) Restore(messages []coach.Message) {
	cm.messages = make([]coach.Message, len(messages))
	copy(cm.messages, messages)
}

// CountTokens returns the token count of the full transcript.
func (cm *ContextManager) CountTokens() int {
	total := 0
	for _, m := range cm.messages {
		total += cm.counter.CountTokens(m.Content)
	}
	return total
}

// ShouldCompact reports whether the transcript exceeds the token budget.
func (cm *ContextManager) ShouldCompact() bool {
	return cm.CountTokens() > cm.maxTokens
}

// CompactIfNeeded drops the oldest messages until the transcript fits half
// the token budget, leaving headroom for further turns. The most recent
// message is always kept.
func (cm *ContextManager) CompactIfNeeded() {
	if !cm.ShouldCompact() {
		return
	}
	target := cm.maxTokens / 2
	for cm.CountTokens() > target && len(cm.messages) > 1 {
		cm.messages = cm.messages[1:]
	}
}

// Summary returns a one-line description of the context state.
func (cm *ContextManager) Summary() string {
	if len(cm.messages) == 0 {
		return "empty context"
	}

	counts := make(map[string]int)
	for _, m := range cm.messages {
		counts[m.Role]++
	}
	var parts []string
	for _, role := range []string{coach.RoleUser, coach.RoleAssistant} {
		if counts[role] > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", role, counts[role]))
		}
	}
	return fmt.Sprintf("%d messages (%d tokens) - %s",
		len(cm.messages), cm.CountTokens(), strings.Join(parts, ", "))
}
