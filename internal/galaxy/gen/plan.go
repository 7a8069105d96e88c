package gen

import (
	"math"
	"math/rand/v2"
	"sort"

	"corridors-server/internal/galaxy"
)

// Route importance classes, used for gate probability.
const (
	importanceTrunk     = "trunk"
	importanceHub       = "hub"
	importanceBridge    = "bridge"
	importanceRedundant = "redundant"
)

var gateBaseChance = map[string]float64{
	importanceTrunk:     0.35,
	importanceHub:       0.25,
	importanceBridge:    0.30,
	importanceRedundant: 0.15,
}

// route is a planned logical link between two majors, by index.
type route struct {
	a, b       int
	importance string
}

// routePlan accumulates the logical route graph before corridors are
// materialized.
type routePlan struct {
	majors []*galaxy.Location
	routes []route
	edges  map[[2]int]bool
	degree []int
}

func newRoutePlan(majors []*galaxy.Location) *routePlan {
	return &routePlan{
		majors: majors,
		edges:  make(map[[2]int]bool),
		degree: make([]int, len(majors)),
	}
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func (p *routePlan) hasRoute(a, b int) bool {
	return p.edges[edgeKey(a, b)]
}

func (p *routePlan) addRoute(a, b int, importance string) bool {
	if a == b || p.hasRoute(a, b) {
		return false
	}
	p.edges[edgeKey(a, b)] = true
	p.routes = append(p.routes, route{a: a, b: b, importance: importance})
	p.degree[a]++
	p.degree[b]++
	return true
}

func (p *routePlan) distance(a, b int) float64 {
	return galaxy.Distance(p.majors[a], p.majors[b])
}

// buildSpanningTree connects every major with a Prim-style minimum
// spanning tree so the galaxy starts out traversable.
func (p *routePlan) buildSpanningTree() {
	n := len(p.majors)
	if n < 2 {
		return
	}

	inTree := make([]bool, n)
	inTree[0] = true
	for added := 1; added < n; added++ {
		bestFrom, bestTo := -1, -1
		bestDist := math.MaxFloat64
		for from := 0; from < n; from++ {
			if !inTree[from] {
				continue
			}
			for to := 0; to < n; to++ {
				if inTree[to] {
					continue
				}
				if d := p.distance(from, to); d < bestDist {
					bestDist = d
					bestFrom, bestTo = from, to
				}
			}
		}
		inTree[bestTo] = true
		p.addRoute(bestFrom, bestTo, importanceTrunk)
	}
}

// addHubConnections links each station to nearby wealthy colonies so
// trade hubs feel central.
func (p *routePlan) addHubConnections(rng *rand.Rand, tuning *Tuning) {
	for i, loc := range p.majors {
		if loc.Type != galaxy.LocationTypeStation {
			continue
		}

		type candidate struct {
			index int
			dist  float64
		}
		var candidates []candidate
		for j, other := range p.majors {
			if j == i || other.Type != galaxy.LocationTypeColony || other.Wealth < 6 {
				continue
			}
			if d := p.distance(i, j); d <= tuning.HubLinkRange {
				candidates = append(candidates, candidate{j, d})
			}
		}
		sort.Slice(candidates, func(a, b int) bool { return candidates[a].dist < candidates[b].dist })

		want := tuning.HubLinksMin + rng.IntN(tuning.HubLinksMax-tuning.HubLinksMin+1)
		linked := 0
		for _, c := range candidates {
			if linked >= want {
				break
			}
			if p.addRoute(i, c.index, importanceHub) {
				linked++
			}
		}
	}
}

// addRegionalBridges clusters the majors into regions and links
// neighboring regions so traffic does not funnel through the trunk.
func (p *routePlan) addRegionalBridges(rng *rand.Rand, tuning *Tuning) {
	n := len(p.majors)
	regionCount := (n + tuning.RegionSize - 1) / tuning.RegionSize
	if regionCount < 2 {
		return
	}

	centers := p.pickRegionCenters(regionCount)
	assignment := make([]int, n)
	for i := range p.majors {
		best, bestDist := 0, math.MaxFloat64
		for r, center := range centers {
			if d := p.distance(i, center); d < bestDist {
				bestDist = d
				best = r
			}
		}
		assignment[i] = best
	}

	for ra := 0; ra < regionCount; ra++ {
		for rb := ra + 1; rb < regionCount; rb++ {
			type candidate struct {
				a, b int
				dist float64
			}
			var candidates []candidate
			for i := 0; i < n; i++ {
				if assignment[i] != ra {
					continue
				}
				for j := 0; j < n; j++ {
					if assignment[j] != rb {
						continue
					}
					candidates = append(candidates, candidate{i, j, p.distance(i, j)})
				}
			}
			if len(candidates) == 0 {
				continue
			}
			sort.Slice(candidates, func(a, b int) bool { return candidates[a].dist < candidates[b].dist })

			links := 1 + rng.IntN(2)
			added := 0
			for _, c := range candidates {
				if added >= links {
					break
				}
				if p.addRoute(c.a, c.b, importanceBridge) {
					added++
				}
			}
		}
	}
}

// pickRegionCenters greedily selects spread-out centers, preferring
// stations and wealth.
func (p *routePlan) pickRegionCenters(count int) []int {
	n := len(p.majors)
	score := func(i int) float64 {
		s := float64(p.majors[i].Wealth)
		if p.majors[i].Type == galaxy.LocationTypeStation {
			s += 5
		}
		return s
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return score(order[a]) > score(order[b]) })

	var centers []int
	minSpread := 20.0
	for _, i := range order {
		if len(centers) >= count {
			break
		}
		tooClose := false
		for _, c := range centers {
			if p.distance(i, c) < minSpread {
				tooClose = true
				break
			}
		}
		if !tooClose {
			centers = append(centers, i)
		}
	}
	// Relax the spread requirement when the galaxy is too dense.
	for _, i := range order {
		if len(centers) >= count {
			break
		}
		already := false
		for _, c := range centers {
			if c == i {
				already = true
				break
			}
		}
		if !already {
			centers = append(centers, i)
		}
	}
	return centers
}

// addRedundancy gives thinly connected nodes one more nearby link.
func (p *routePlan) addRedundancy(tuning *Tuning) {
	for i := range p.majors {
		if p.degree[i] > tuning.MinConnectivity {
			continue
		}
		best, bestDist := -1, math.MaxFloat64
		for j := range p.majors {
			if j == i || p.hasRoute(i, j) {
				continue
			}
			if d := p.distance(i, j); d < bestDist {
				bestDist = d
				best = j
			}
		}
		if best >= 0 {
			p.addRoute(i, best, importanceRedundant)
		}
	}
}

// components returns the connected components of the planned graph.
func (p *routePlan) components() [][]int {
	n := len(p.majors)
	adjacency := make([][]int, n)
	for key := range p.edges {
		adjacency[key[0]] = append(adjacency[key[0]], key[1])
		adjacency[key[1]] = append(adjacency[key[1]], key[0])
	}

	seen := make([]bool, n)
	var components [][]int
	for start := 0; start < n; start++ {
		if seen[start] {
			continue
		}
		var component []int
		queue := []int{start}
		seen[start] = true
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			component = append(component, node)
			for _, next := range adjacency[node] {
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
		}
		components = append(components, component)
	}
	return components
}

// bridgeComponents joins any disconnected fragments with their
// shortest inter-component link.
func (p *routePlan) bridgeComponents() {
	for {
		components := p.components()
		if len(components) <= 1 {
			return
		}

		bestA, bestB := -1, -1
		bestDist := math.MaxFloat64
		for _, a := range components[0] {
			for _, component := range components[1:] {
				for _, b := range component {
					if d := p.distance(a, b); d < bestDist {
						bestDist = d
						bestA, bestB = a, b
					}
				}
			}
		}
		p.addRoute(bestA, bestB, importanceBridge)
	}
}

// gateChance computes the probability a route gets gates on both ends.
func (p *routePlan) gateChance(r route, tuning *Tuning) float64 {
	chance := gateBaseChance[r.importance]
	chance += tuning.GateWealthFactor * float64(p.majors[r.a].Wealth+p.majors[r.b].Wealth)

	// Long hauls are where gate infrastructure pays off.
	switch d := p.distance(r.a, r.b); {
	case d > 60:
		chance += 0.15
	case d > 40:
		chance += 0.05
	}

	if chance > tuning.GateMaxChance {
		chance = tuning.GateMaxChance
	}
	return chance
}
