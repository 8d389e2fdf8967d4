// Package graph builds the job dependency graph and validates its shape
// before anything runs.
//
// Jobs live in an arena addressed by index; edges hold indices rather than
// pointers, so the structure itself cannot form pointer cycles even when
// the configuration does.
package graph

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/servinagrero/monaco/internal/config"
)

// Node pairs a job with its per-run execution state.
type Node struct {
	// Job is the underlying configuration, shared with config.Config.
	Job *config.Job

	// deps holds explicit `depends` edges, run before the job body. refs
	// holds job-reference steps, run inside the body. Both count for cycle
	// detection.
	deps []int
	refs []int

	// mu serializes the whole job body when independent jobs run in
	// parallel. The completion flag is only touched while holding it.
	mu        sync.Mutex
	completed bool
}

// Deps returns the indices of the explicit dependencies in declaration order.
func (n *Node) Deps() []int { return n.deps }

// Lock takes the node's body lock.
func (n *Node) Lock() { n.mu.Lock() }

// Unlock releases the node's body lock.
func (n *Node) Unlock() { n.mu.Unlock() }

// Completed reports the completion flag. Callers hold the node lock.
func (n *Node) Completed() bool { return n.completed }

// MarkCompleted latches the completion flag; it never transitions back
// within a run. Callers hold the node lock.
func (n *Node) MarkCompleted() { n.completed = true }

// Graph is the arena of job nodes for one run.
type Graph struct {
	nodes []*Node
	index map[string]int
}

// New builds the graph from a configuration. Job names must be unique and
// every referenced job must exist. Cycles are checked separately, see
// DetectCycles.
func New(cfg *config.Config) (*Graph, error) {
	g := &Graph{index: make(map[string]int, len(cfg.Jobs))}
	for i, job := range cfg.Jobs {
		if _, ok := g.index[job.Name]; ok {
			return nil, fmt.Errorf("duplicated job name '%s'", job.Name)
		}
		g.index[job.Name] = i
		g.nodes = append(g.nodes, &Node{Job: job})
	}

	for i, job := range cfg.Jobs {
		n := g.nodes[i]
		for _, dep := range job.Depends {
			j, ok := g.index[dep]
			if !ok {
				return nil, fmt.Errorf("job '%s' depends on unknown job '%s'", job.Name, dep)
			}
			n.deps = append(n.deps, j)
		}
		for _, step := range job.Steps {
			if step.Kind != config.StepJobRef {
				continue
			}
			j, ok := g.index[step.Job]
			if !ok {
				return nil, fmt.Errorf("job '%s' references unknown job '%s'", job.Name, step.Job)
			}
			n.refs = append(n.refs, j)
		}
	}
	return g, nil
}

// Len returns the number of jobs in the arena.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node at index i.
func (g *Graph) Node(i int) *Node { return g.nodes[i] }

// Index resolves a job name to its arena index.
func (g *Graph) Index(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

// Names returns all job names in declaration order.
func (g *Graph) Names() []string {
	names := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		names[i] = n.Job.Name
	}
	return names
}

// edges returns every outgoing edge of node i: explicit dependencies first,
// then job-reference steps.
func (g *Graph) edges(i int) []int {
	n := g.nodes[i]
	out := make([]int, 0, len(n.deps)+len(n.refs))
	out = append(out, n.deps...)
	return append(out, n.refs...)
}

// DetectCycles checks both edge kinds for cycles. It uses classic
// depth-first search with three node colors: permanent nodes are fully
// visited and known safe, temporary nodes sit on the current recursion
// stack, everything else is unvisited. Any back-edge into a temporary node
// closes a cycle; the returned error names it.
func (g *Graph) DetectCycles() error {
	permanent := make([]bool, len(g.nodes))
	temporary := make([]bool, len(g.nodes))
	var stack []string

	var visit func(i int) error
	visit = func(i int) error {
		if permanent[i] {
			return nil
		}
		name := g.nodes[i].Job.Name
		if temporary[i] {
			at := slices.Index(stack, name)
			return fmt.Errorf("dependency cycle detected: %s -> %s", strings.Join(stack[at:], " -> "), name)
		}

		temporary[i] = true
		stack = append(stack, name)

		for _, j := range g.edges(i) {
			if err := visit(j); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		temporary[i] = false
		permanent[i] = true
		return nil
	}

	for i := range g.nodes {
		if !permanent[i] {
			if err := visit(i); err != nil {
				return err
			}
		}
	}
	return nil
}
