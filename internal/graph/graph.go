// Package graph builds lesson task graphs and answers scheduling questions about them.
package graph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/logging"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found in the task graph.
var ErrCycleDetected = errors.New("circular dependency detected")

// DependencyGraph represents a directed acyclic graph of task dependencies.
// Tasks are nodes, and edges represent "blocked by" relationships.
// Readiness is derived from the task statuses, so the graph never caches progress.
type DependencyGraph struct {
	mu sync.RWMutex
	// order keeps node IDs in insertion order for deterministic answers.
	order []string
	// nodes maps task ID to the task itself.
	nodes map[string]*models.Task
	// edges maps task ID to IDs of tasks it depends on.
	edges map[string][]string
}

// New creates a new empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*models.Task),
		edges: make(map[string][]string),
	}
}

// Build constructs the dependency graph from a slice of tasks.
// Returns an error if a cycle is detected or dependencies reference unknown tasks.
func (g *DependencyGraph) Build(tasks []*models.Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	logging.Debugf("[graph] building graph from %d tasks", len(tasks))

	for _, task := range tasks {
		if _, dup := g.nodes[task.ID]; dup {
			return fmt.Errorf("duplicate task id %s", task.ID)
		}
		g.order = append(g.order, task.ID)
		g.nodes[task.ID] = task
		g.edges[task.ID] = nil
	}

	for _, task := range tasks {
		for _, depID := range task.DependsOn {
			if _, exists := g.nodes[depID]; !exists {
				return fmt.Errorf("task %s depends on unknown task %s", task.ID, depID)
			}
			g.edges[task.ID] = append(g.edges[task.ID], depID)
		}
	}

	if g.hasCycleLocked() {
		return ErrCycleDetected
	}
	return nil
}

// HasCycle returns true if the graph contains a circular dependency.
func (g *DependencyGraph) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hasCycleLocked()
}

// hasCycleLocked runs a three-colour DFS looking for back edges. Caller holds the lock.
func (g *DependencyGraph) hasCycleLocked() bool {
	const (
		white = iota
		grey
		black
	)
	colors := make(map[string]int, len(g.nodes))

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = grey
		for _, depID := range g.edges[id] {
			switch colors[depID] {
			case grey:
				return true
			case white:
				if visit(depID) {
					return true
				}
			}
		}
		colors[id] = black
		return false
	}

	for _, id := range g.order {
		if colors[id] == white && visit(id) {
			return true
		}
	}
	return false
}

// TopologicalSort returns task IDs so that every dependency precedes its dependents.
// Ties keep insertion order.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.hasCycleLocked() {
		return nil, ErrCycleDetected
	}

	visited := make(map[string]bool, len(g.nodes))
	result := make([]string, 0, len(g.nodes))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, depID := range g.edges[id] {
			visit(depID)
		}
		result = append(result, id)
	}

	for _, id := range g.order {
		visit(id)
	}
	return result, nil
}

// GetReady returns pending task IDs whose dependencies are all completed, in insertion order.
func (g *DependencyGraph) GetReady() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ready := g.pendingLocked(func(id string) bool { return g.depsDoneLocked(id, false) })
	logging.Debugf("[graph] %d ready tasks: %v", len(ready), ready)
	return ready
}

// GetSettled returns pending task IDs whose dependencies are all completed or skipped,
// in insertion order.
func (g *DependencyGraph) GetSettled() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pendingLocked(func(id string) bool { return g.depsDoneLocked(id, true) })
}

// GetBlocked returns pending task IDs with at least one failed or skipped dependency.
// Such tasks can never become ready and should be skipped.
func (g *DependencyGraph) GetBlocked() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pendingLocked(func(id string) bool { return g.blockingDepLocked(id, true) != "" })
}

// GetFailedBlocked returns pending task IDs with at least one failed dependency.
func (g *DependencyGraph) GetFailedBlocked() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pendingLocked(func(id string) bool { return g.blockingDepLocked(id, false) != "" })
}

// BlockingDependency returns the first dependency of taskID that failed or was skipped,
// or "" when none did.
func (g *DependencyGraph) BlockingDependency(taskID string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.blockingDepLocked(taskID, true)
}

// FailedDependency returns the first dependency of taskID that failed, or "".
func (g *DependencyGraph) FailedDependency(taskID string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.blockingDepLocked(taskID, false)
}

// DependenciesCompleted reports whether every dependency of taskID is completed.
func (g *DependencyGraph) DependenciesCompleted(taskID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.depsDoneLocked(taskID, false)
}

func (g *DependencyGraph) pendingLocked(match func(id string) bool) []string {
	var ids []string
	for _, id := range g.order {
		if g.nodes[id].Status == models.TaskStatusPending && match(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (g *DependencyGraph) depsDoneLocked(id string, allowSkipped bool) bool {
	for _, depID := range g.edges[id] {
		switch g.nodes[depID].Status {
		case models.TaskStatusCompleted:
		case models.TaskStatusSkipped:
			if !allowSkipped {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (g *DependencyGraph) blockingDepLocked(id string, skippedBlocks bool) string {
	for _, depID := range g.edges[id] {
		switch g.nodes[depID].Status {
		case models.TaskStatusFailed:
			return depID
		case models.TaskStatusSkipped:
			if skippedBlocks {
				return depID
			}
		}
	}
	return ""
}

// GetTask returns the task for a given ID, or nil if not found.
func (g *DependencyGraph) GetTask(taskID string) *models.Task {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[taskID]
}

// Size returns the number of tasks in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// GetDependencies returns the IDs of tasks that the given task depends on.
func (g *DependencyGraph) GetDependencies(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.edges[taskID]...)
}

// GetDependents returns the IDs of tasks that depend on the given task, in insertion order.
func (g *DependencyGraph) GetDependents(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var dependents []string
	for _, id := range g.order {
		for _, depID := range g.edges[id] {
			if depID == taskID {
				dependents = append(dependents, id)
				break
			}
		}
	}
	return dependents
}
