package ports

import (
	"context"

	"gatezero/internal/gatelog"
)

// AuditPort hands a finished verification to the gate log. It is
// fire-and-forget: implementations must not block on persistence or report
// write failures to the caller.
type AuditPort interface {
	Record(ctx context.Context, record gatelog.Record)
}
