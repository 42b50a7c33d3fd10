package bootstrap

import "context"

type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

// AuditLogger records operational events that must survive outside the
// regular application log stream.
type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
