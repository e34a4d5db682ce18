// Package graph builds and levels the step dependency graph for a task.
package graph

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskweave/taskweave/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found in the step set.
var ErrCycleDetected = errors.New("circular dependency detected")

// CycleError reports a circular dependency, naming the step IDs on the
// cycle. It unwraps to ErrCycleDetected.
type CycleError struct {
	// Path is the cycle, first step repeated at the end.
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return ErrCycleDetected.Error()
	}
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}

// DependencyGraph is the resolved, leveled dependency graph of one
// task's steps. It is built once by Resolve and immutable afterward.
type DependencyGraph struct {
	// nodes maps step ID to the step itself.
	nodes map[string]*models.Step
	// edges maps step ID to the IDs of steps it depends on.
	edges map[string][]string
	// order holds step IDs in input order, for deterministic iteration.
	order []string
	// levels partitions the steps so that every dependency of a step
	// in level k sits in some level < k.
	levels [][]*models.Step
}

// Resolve builds a dependency graph from a step list, validates that
// it is acyclic, and computes topological levels. Steps must have
// unique IDs and dependencies must reference steps in the same list.
// On a cycle the returned error is a *CycleError and no partial graph
// is produced.
func Resolve(steps []*models.Step) (*DependencyGraph, error) {
	g := &DependencyGraph{
		nodes: make(map[string]*models.Step, len(steps)),
		edges: make(map[string][]string, len(steps)),
		order: make([]string, 0, len(steps)),
	}

	for _, step := range steps {
		if _, exists := g.nodes[step.ID]; exists {
			return nil, fmt.Errorf("duplicate step id %q", step.ID)
		}
		g.nodes[step.ID] = step
		g.edges[step.ID] = nil
		g.order = append(g.order, step.ID)
	}

	for _, step := range steps {
		for _, depID := range step.Dependencies {
			if _, exists := g.nodes[depID]; !exists {
				return nil, fmt.Errorf("step %s depends on unknown step %s", step.ID, depID)
			}
			g.edges[step.ID] = append(g.edges[step.ID], depID)
		}
	}

	if err := g.checkCycles(); err != nil {
		return nil, err
	}

	levels, err := g.computeLevels()
	if err != nil {
		return nil, err
	}
	g.levels = levels

	return g, nil
}

// checkCycles runs an iterative depth-first search over the whole
// graph, tracking the recursion stack to catch back edges. It visits
// every node before returning so a cyclic subgraph anywhere
// invalidates the resolve.
func (g *DependencyGraph) checkCycles() error {
	// Color states: 0 = unvisited, 1 = on stack, 2 = done.
	colors := make(map[string]int, len(g.nodes))

	// frame tracks how far into a node's dependency list the walk has
	// advanced, so the search can use an explicit stack instead of
	// recursion.
	type frame struct {
		id   string
		next int
	}

	for _, start := range g.order {
		if colors[start] != 0 {
			continue
		}

		stack := []frame{{id: start}}
		colors[start] = 1

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.edges[top.id]

			if top.next < len(deps) {
				depID := deps[top.next]
				top.next++

				switch colors[depID] {
				case 1:
					// Back edge: reconstruct the cycle from the stack.
					var path []string
					for i := range stack {
						if stack[i].id == depID {
							for _, f := range stack[i:] {
								path = append(path, f.id)
							}
							break
						}
					}
					path = append(path, depID)
					return &CycleError{Path: path}
				case 0:
					colors[depID] = 1
					stack = append(stack, frame{id: depID})
				}
				continue
			}

			colors[top.id] = 2
			stack = stack[:len(stack)-1]
		}
	}

	return nil
}

// computeLevels runs a Kahn-style leveling pass: repeatedly collect
// every step whose remaining dependencies are all processed into the
// next level. Input order is preserved among steps that become ready
// in the same round, keeping the output reproducible for identical
// input.
func (g *DependencyGraph) computeLevels() ([][]*models.Step, error) {
	remaining := make(map[string]int, len(g.nodes))
	for id, deps := range g.edges {
		remaining[id] = len(deps)
	}

	// dependents is the reverse adjacency: id -> steps waiting on it.
	dependents := make(map[string][]string, len(g.nodes))
	for _, id := range g.order {
		for _, depID := range g.edges[id] {
			dependents[depID] = append(dependents[depID], id)
		}
	}

	processed := make(map[string]bool, len(g.nodes))
	levels := make([][]*models.Step, 0)

	for len(processed) < len(g.nodes) {
		var level []*models.Step
		for _, id := range g.order {
			if !processed[id] && remaining[id] == 0 {
				level = append(level, g.nodes[id])
			}
		}

		if len(level) == 0 {
			// Unreachable if checkCycles passed; kept as a guard so a
			// leveling bug cannot loop forever.
			var stuck []string
			for _, id := range g.order {
				if !processed[id] {
					stuck = append(stuck, id)
				}
			}
			return nil, &CycleError{Path: stuck}
		}

		for _, step := range level {
			processed[step.ID] = true
			for _, depID := range dependents[step.ID] {
				remaining[depID]--
			}
		}
		levels = append(levels, level)
	}

	return levels, nil
}

// Levels returns the topological levels computed by Resolve.
func (g *DependencyGraph) Levels() [][]*models.Step {
	return g.levels
}

// Size returns the number of steps in the graph.
func (g *DependencyGraph) Size() int {
	return len(g.nodes)
}

// Step returns the step for a given ID, or nil if not found.
func (g *DependencyGraph) Step(id string) *models.Step {
	return g.nodes[id]
}

// Dependencies returns the IDs of steps the given step depends on.
func (g *DependencyGraph) Dependencies(id string) []string {
	return g.edges[id]
}

// Dependents returns the IDs of steps that depend on the given step.
func (g *DependencyGraph) Dependents(id string) []string {
	var dependents []string
	for _, other := range g.order {
		for _, depID := range g.edges[other] {
			if depID == id {
				dependents = append(dependents, other)
				break
			}
		}
	}
	return dependents
}

// ParallelGroups maps each level to a StepGroup. A group is marked
// parallelizable when it holds more than one step.
func ParallelGroups(g *DependencyGraph) []models.StepGroup {
	groups := make([]models.StepGroup, 0, len(g.levels))
	for i, level := range g.levels {
		groups = append(groups, models.StepGroup{
			Level:          i,
			Steps:          level,
			CanParallelize: len(level) > 1,
		})
	}
	return groups
}

// EstimateDuration totals the per-group wall-clock cost across groups
// in level order. A parallelizable group costs as much as its slowest
// member; a singleton group costs its one step's timeout. Levels are
// strict barriers, so group costs add up.
func EstimateDuration(groups []models.StepGroup) time.Duration {
	var total time.Duration
	for _, group := range groups {
		if group.CanParallelize {
			var slowest time.Duration
			for _, step := range group.Steps {
				if t := step.EffectiveTimeout(); t > slowest {
					slowest = t
				}
			}
			total += slowest
			continue
		}
		for _, step := range group.Steps {
			total += step.EffectiveTimeout()
		}
	}
	return total
}
