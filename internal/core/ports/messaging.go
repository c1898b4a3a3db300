package ports

import (
	"context"
	"time"
)

// ReplyHandler is a one-shot callback invoked when the reply matching a
// published request arrives. The channel hands the handler its own
// correlation id so the handler needs no shared state with the publish path.
// Replies are delivered at-least-once, so handlers must tolerate
// re-application of the same payload.
type ReplyHandler func(ctx context.Context, correlationID, command string, data []byte)

// ExpiryHandler is invoked when a pending request outlives its TTL without a
// reply. It runs at most once per correlation id and never after the reply
// handler.
type ExpiryHandler func(ctx context.Context, correlationID string)

// AliasChannel is the correlation-id-keyed request/reply channel to the
// external alias registry.
type AliasChannel interface {
	// Publish serializes {command, data}, sends it with a fresh correlation id
	// and a replyTo designation, and registers onReply before the send.
	// The returned bool reports whether the transport accepted the message for
	// delivery, not whether the registry processed it. On rejection the
	// registration is withdrawn and onExpire will not fire.
	Publish(ctx context.Context, command string, data any, onReply ReplyHandler, onExpire ExpiryHandler) (correlationID string, accepted bool)
}

// PendingAliasStore mirrors in-flight correlation ids so stuck batches remain
// inspectable across the fleet. TTL matches the channel's pending TTL.
type PendingAliasStore interface {
	Set(ctx context.Context, correlationID string, merchantIDs []int64, ttl time.Duration) error
	Get(ctx context.Context, correlationID string) ([]int64, error)
	Delete(ctx context.Context, correlationID string) error
}
