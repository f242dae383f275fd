// Package dto defines the wire shapes of the inbound protocol surface:
// {context, message} requests and {context, message}|{context, error}
// replies.
package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tripsetu/backend/internal/domain/protocol"
)

// Protocol error codes surfaced to callers
const (
	// ErrCodeBadRequest marks a malformed request: missing context or
	// message. No downstream call is made.
	ErrCodeBadRequest = "20001"
	// ErrCodeInternal marks an internal or provider error
	ErrCodeInternal = "20000"
)

// errorTypeCore is the error taxonomy all surfaced errors belong to
const errorTypeCore = "CORE-ERROR"

// ActionRequest is the inbound envelope for every protocol endpoint
type ActionRequest struct {
	Context *protocol.Context `json:"context" binding:"required"`
	Message json.RawMessage   `json:"message" binding:"required"`
}

// Reply builds a success envelope echoing the journey identity with the
// callback action and a fresh message id
func Reply(pctx protocol.Context, action protocol.Action, message any) (protocol.Envelope, error) {
	payload, err := json.Marshal(message)
	if err != nil {
		return protocol.Envelope{}, err
	}
	ctx := replyContext(pctx, action)
	return protocol.Envelope{Context: &ctx, Message: payload}, nil
}

// ErrorReply builds an error envelope
func ErrorReply(pctx protocol.Context, action protocol.Action, code, message string) protocol.Envelope {
	ctx := replyContext(pctx, action)
	return protocol.Envelope{
		Context: &ctx,
		Error: &protocol.Error{
			Type:    errorTypeCore,
			Code:    code,
			Message: message,
		},
	}
}

// replyContext reshapes the request context for the response: callback
// action, fresh message id, fresh timestamp
func replyContext(pctx protocol.Context, action protocol.Action) protocol.Context {
	pctx.Action = action.CallbackAction()
	pctx.MessageID = uuid.NewString()
	pctx.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return pctx
}
