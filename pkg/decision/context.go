// Package decision orchestrates a single access-decision request: parsing
// its operation, path, and attribute context, walking the loaded hierarchy,
// and recording metrics and structured logs around the outcome.
package decision

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// RequestContext captures metadata used throughout a single decision
// evaluation. It provides thread-safe access to logging fields that can be
// accumulated while the decision is being evaluated.
type RequestContext struct {
	// ReceivedAt records when the request was first processed.
	ReceivedAt time.Time
	// Operation is the requested action, as given on the wire.
	Operation string
	// Path is the raw, unnormalized resource path requested.
	Path string

	mu        sync.RWMutex
	logFields []zap.Field
}

// NewRequestContext constructs a RequestContext for one decision evaluation.
func NewRequestContext(operation, path string) *RequestContext {
	return &RequestContext{
		ReceivedAt: time.Now(),
		Operation:  operation,
		Path:       path,
		logFields: []zap.Field{
			zap.String("operation", operation),
			zap.String("path", path),
		},
	}
}

// AddLogFields attaches structured fields that should accompany request
// logging. The "operation" and "path" fields set at construction are never
// overridden by a later call.
func (r *RequestContext) AddLogFields(fields ...zap.Field) {
	if r == nil {
		return
	}
	filtered := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if f.Key == "operation" || f.Key == "path" {
			continue
		}
		filtered = append(filtered, f)
	}

	r.mu.Lock()
	r.logFields = append(r.logFields, filtered...)
	r.mu.Unlock()
}

// LogFields returns a snapshot of the accumulated log fields.
func (r *RequestContext) LogFields() []zap.Field {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]zap.Field, len(r.logFields))
	copy(out, r.logFields)
	return out
}
