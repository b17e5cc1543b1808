// Package narrative models the orchestration core that keeps a multi-week
// league engaging: dramatic phases, a 0-100 tension score, story beats linked
// into a DAG and grouped into arcs, stall detection, and curator actions.
//
// Aggregates reference each other by identifier only. The package performs
// in-memory state transitions with validation; persistence, scheduling, and
// notification live in collaborators under internal/director.
package narrative
