package galaxy

import (
	"context"
	"fmt"
	"math"
)

const (
	// routeVisitCap bounds BFS cost on large galaxies.
	routeVisitCap = 100
	// routeCheckEvery controls how often traversals check for
	// cancellation.
	routeCheckEvery = 8
)

// Distance is the euclidean distance between two locations.
func Distance(a, b *Location) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Graph is an in-memory snapshot of the active corridor adjacency.
type Graph struct {
	Neighbors map[int64][]int64
	ByOrigin  map[int64][]*Corridor
}

// LoadActiveGraph snapshots the active corridor graph.
func (r *Repository) LoadActiveGraph(ctx context.Context) (*Graph, error) {
	corridors, err := r.ListCorridors(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load active corridors: %w", err)
	}

	g := &Graph{
		Neighbors: make(map[int64][]int64),
		ByOrigin:  make(map[int64][]*Corridor),
	}
	for _, c := range corridors {
		g.Neighbors[c.Origin] = append(g.Neighbors[c.Origin], c.Destination)
		g.ByOrigin[c.Origin] = append(g.ByOrigin[c.Origin], c)
	}
	return g, nil
}

// HasRoute reports whether destination is reachable from origin within
// maxJumps hops. The search caps its visited set and checks for
// cancellation periodically.
func (g *Graph) HasRoute(ctx context.Context, origin, destination int64, maxJumps int) (bool, error) {
	if origin == destination {
		return true, nil
	}

	type node struct {
		id    int64
		depth int
	}

	visited := map[int64]bool{origin: true}
	queue := []node{{origin, 0}}
	steps := 0

	for len(queue) > 0 {
		steps++
		if steps%routeCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return false, err
			}
		}

		current := queue[0]
		queue = queue[1:]

		if current.depth >= maxJumps {
			continue
		}

		for _, next := range g.Neighbors[current.id] {
			if next == destination {
				return true, nil
			}
			if visited[next] || len(visited) >= routeVisitCap {
				continue
			}
			visited[next] = true
			queue = append(queue, node{next, current.depth + 1})
		}
	}

	return false, nil
}

// HopDistances returns BFS hop counts from origin to every reachable
// node.
func (g *Graph) HopDistances(origin int64) map[int64]int {
	distances := map[int64]int{origin: 0}
	queue := []int64{origin}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range g.Neighbors[current] {
			if _, seen := distances[next]; seen {
				continue
			}
			distances[next] = distances[current] + 1
			queue = append(queue, next)
		}
	}
	return distances
}

// Components partitions the given location ids into connected
// components of the active graph. Locations with no active corridor
// form singleton components.
func (g *Graph) Components(locationIDs []int64) [][]int64 {
	seen := make(map[int64]bool, len(locationIDs))
	var components [][]int64

	for _, start := range locationIDs {
		if seen[start] {
			continue
		}

		component := []int64{start}
		seen[start] = true
		queue := []int64{start}

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			for _, next := range g.Neighbors[current] {
				if seen[next] {
					continue
				}
				seen[next] = true
				component = append(component, next)
				queue = append(queue, next)
			}
		}

		components = append(components, component)
	}
	return components
}
