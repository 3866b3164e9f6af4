package domain

import (
	"context"
	"errors"
)

// Service records audit trail entries. Writers treat failures as
// non-fatal: an audit miss must never roll back a financial operation.
type Service interface {
	AuditLog(ctx context.Context, actorType ActorType, actorID *string, action, targetType string, targetID *string, metadata map[string]any) error
}

var (
	ErrInvalidAction     = errors.New("invalid_action")
	ErrInvalidTargetType = errors.New("invalid_target_type")
)
