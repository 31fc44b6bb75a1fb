package session

import (
	"context"
	"time"
)

// StateWaitingForIncome marks a session where the bot has asked the user for
// their expected yearly income and is waiting for a number.
const StateWaitingForIncome = "waiting-for-income"

// Store keeps per-session conversation state. The state is a small string
// token; an empty string means no pending state.
type Store interface {
	// Get returns the pending state for the session, or "" if none.
	Get(ctx context.Context, sessionID string) (string, error)
	// Set records the pending state for the session. It expires after the
	// store's TTL.
	Set(ctx context.Context, sessionID, state string) error
	// Clear removes any pending state for the session.
	Clear(ctx context.Context, sessionID string) error
}

// DefaultTTL bounds how long a pending clarification survives without an
// answer.
const DefaultTTL = 10 * time.Minute
