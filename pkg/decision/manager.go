package decision

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gtriggiano/hierauthz/pkg/hierarchy"
	"github.com/gtriggiano/hierauthz/pkg/metrics"
	"github.com/gtriggiano/hierauthz/pkg/permission"
	"github.com/gtriggiano/hierauthz/pkg/reqcontext"
)

// Manager evaluates access decisions against a loaded hierarchy,
// instrumenting and logging each evaluation.
type Manager struct {
	hierarchy       *hierarchy.Hierarchy
	instrumentation *metrics.Instrumentation
	logger          *zap.Logger
}

// NewManager builds a decision Manager over an already-built hierarchy.
func NewManager(h *hierarchy.Hierarchy, instrumentation *metrics.Instrumentation, logger *zap.Logger) *Manager {
	instrumentation.SetHierarchyNodes(h.NodeCount())
	return &Manager{hierarchy: h, instrumentation: instrumentation, logger: logger}
}

// Check decides whether rawOperation is permitted on rawPath given
// rawAttrs, a flat "k:v,k:v,..." attribute string. An unknown operation is
// rejected with an error before any metric or log is recorded; for every
// other request it records metrics and logs the outcome, whether the
// decision allows, denies, or fails.
func (m *Manager) Check(rawOperation, rawPath, rawAttrs string) (bool, error) {
	op, ok := permission.ParseOperation(rawOperation)
	if !ok {
		return false, fmt.Errorf("decision: unknown operation %q", rawOperation)
	}

	reqCtx := NewRequestContext(rawOperation, rawPath)
	start := time.Now()

	m.instrumentation.InFlight(rawOperation, 1)
	defer m.instrumentation.InFlight(rawOperation, -1)

	ctx := reqcontext.Parse(rawAttrs)
	allowed, err := m.hierarchy.IsAllowed(op, rawPath, ctx)
	duration := time.Since(start)

	if err != nil {
		reqCtx.AddLogFields(zap.Error(err))
		m.instrumentation.ObserveDecision(rawOperation, metrics.ResultError, duration)
		m.logger.Warn("decision evaluation failed", reqCtx.LogFields()...)
		return false, err
	}

	result := metrics.ResultDeny
	if allowed {
		result = metrics.ResultAllow
	}
	m.instrumentation.ObserveDecision(rawOperation, result, duration)

	reqCtx.AddLogFields(zap.Bool("allowed", allowed), zap.Duration("duration", duration))
	m.logger.Debug("decision evaluated", reqCtx.LogFields()...)

	return allowed, nil
}
