// Package planner turns a resolved dependency graph into an execution plan.
package planner

import (
	"github.com/taskweave/taskweave/internal/graph"
	"github.com/taskweave/taskweave/pkg/models"
)

// BuildPlan composes the graph's parallel groups and duration estimate
// into an ExecutionPlan. It holds no state of its own; it exists so
// plan construction can be tested and replaced independently of graph
// construction.
func BuildPlan(g *graph.DependencyGraph) models.ExecutionPlan {
	groups := graph.ParallelGroups(g)
	return models.ExecutionPlan{
		Groups:            groups,
		TotalSteps:        g.Size(),
		EstimatedDuration: graph.EstimateDuration(groups),
	}
}
