// Package audit wraps the append-only AuditLog store with the two read
// facilities a working deployment needs beyond raw listing: a CSV export
// and a per-agent decision-class summary, both pure reads.
package audit

import (
	"context"
	"time"

	"github.com/agentwallet/agentwallet/internal/pkg/idgen"
	"github.com/agentwallet/agentwallet/internal/store"
)

// Recorder appends AuditLog entries on behalf of every other component.
type Recorder struct {
	store store.Store
}

// New constructs a Recorder over s.
func New(s store.Store) *Recorder {
	return &Recorder{store: s}
}

// Record appends one entry. Every state-changing operation calls this
// exactly once per outcome.
func (r *Recorder) Record(ctx context.Context, agentID, action, resource, resourceID string, decision store.AuditDecision, reasoning string, now time.Time) error {
	entry := &store.AuditLog{
		ID:         idgen.NewPrefixed("audit"),
		AgentID:    agentID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Decision:   decision,
		Reasoning:  reasoning,
		Timestamp:  now,
	}
	return r.store.AppendAudit(ctx, entry)
}

// Summary is a per-agent rolled-up count of decisions within a window.
type Summary struct {
	AgentID   string
	Since     time.Time
	Total     int
	Allowed   int
	Blocked   int
	Escalated int
	System    int
}

// Summarize counts decisions for agentID since the given time, reading up
// to limit most-recent entries (0 means no bound).
func (r *Recorder) Summarize(ctx context.Context, agentID string, since time.Time, limit int) (Summary, error) {
	entries, err := r.store.ListAuditByAgent(ctx, agentID, limit)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{AgentID: agentID, Since: since}
	for _, e := range entries {
		if e.Timestamp.Before(since) {
			continue
		}
		s.Total++
		switch e.Decision {
		case store.DecisionAllowed:
			s.Allowed++
		case store.DecisionBlocked:
			s.Blocked++
		case store.DecisionEscalated:
			s.Escalated++
		case store.DecisionSystem:
			s.System++
		}
	}
	return s, nil
}

// ExportCSV renders up to limit of an agent's most recent audit entries
// (or the whole log if agentID is empty) as CSV rows, header included.
func (r *Recorder) ExportCSV(ctx context.Context, agentID string, limit int) ([][]string, error) {
	var entries []*store.AuditLog
	var err error
	if agentID == "" {
		entries, err = r.store.ListAuditAll(ctx, limit)
	} else {
		entries, err = r.store.ListAuditByAgent(ctx, agentID, limit)
	}
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, []string{"id", "agent_id", "action", "resource", "resource_id", "decision", "reasoning", "timestamp"})
	for _, e := range entries {
		rows = append(rows, []string{
			e.ID, e.AgentID, e.Action, e.Resource, e.ResourceID,
			string(e.Decision), e.Reasoning, e.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return rows, nil
}
