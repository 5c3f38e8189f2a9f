package engine

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/vincesynth/vince/module"
)

// Resolve converts the validated graph into a deterministic per-tick
// evaluation order.
//
// Cycles are located with a strongly-connected-component decomposition.
// Every edge inside a non-trivial component whose source module is
// state-delaying is classified as delayed: its destination reads the
// previous tick's value, which breaks the same-tick dependency. A cycle
// that no delayed edge breaks is an unbreakable-cycle configuration error,
// since it would demand infinite regress within a single tick.
//
// The returned order is a topological sort over the remaining (non-delayed)
// edges with a fixed tie-break of ascending module id, so identical racks
// always produce identical plans. Held (cross-domain) edges never constrain
// order; the two domains tick independently.
func Resolve(g *Graph) ([]int, error) {
	comp := tarjan(g)

	inComp := make(map[int]int, len(g.order))
	for ci, members := range comp {
		for _, id := range members {
			inComp[id] = ci
		}
	}
	compSize := make([]int, len(comp))
	for ci, members := range comp {
		compSize[ci] = len(members)
	}

	for _, e := range g.edges {
		e.delayed = false
		if e.held {
			continue
		}
		src, dst := e.src.Module, e.dst.Module
		cyclic := inComp[src] == inComp[dst] && (compSize[inComp[src]] > 1 || src == dst)
		if !cyclic {
			continue
		}
		if d, ok := g.nodes[src].mod.(module.Delayer); ok && d.DelaysSignal() {
			e.delayed = true
		}
	}

	return kahn(g)
}

// kahn orders the modules over non-delayed, non-held edges, smallest ready
// id first. Leftover modules mean a cycle survived delayed-edge
// classification.
func kahn(g *Graph) ([]int, error) {
	indeg := make(map[int]int, len(g.order))
	succ := make(map[int][]int, len(g.order))

	for _, id := range g.order {
		indeg[id] = 0
	}
	for _, e := range g.edges {
		if e.delayed || e.held {
			continue
		}
		succ[e.src.Module] = append(succ[e.src.Module], e.dst.Module)
		indeg[e.dst.Module]++
	}

	var ready []int
	for _, id := range g.order {
		if indeg[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Ints(ready)

	order := make([]int, 0, len(g.order))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, nxt := range succ[id] {
			indeg[nxt]--
			if indeg[nxt] == 0 {
				ready = insertSorted(ready, nxt)
			}
		}
	}

	if len(order) != len(g.order) {
		var stuck []int
		for _, id := range g.order {
			if indeg[id] > 0 {
				stuck = append(stuck, id)
			}
		}
		return nil, errors.Wrapf(ErrUnbreakableCycle, "modules %v", stuck)
	}

	return order, nil
}

func insertSorted(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// tarjan runs an iterative Tarjan SCC decomposition over the non-held
// module graph. Iterative because racks are user input and a pathological
// chain must not blow the goroutine stack.
func tarjan(g *Graph) [][]int {
	succ := make(map[int][]int, len(g.order))
	for _, e := range g.edges {
		if e.held {
			continue
		}
		succ[e.src.Module] = append(succ[e.src.Module], e.dst.Module)
	}
	for id := range succ {
		sort.Ints(succ[id])
	}

	const unvisited = -1

	index := make(map[int]int, len(g.order))
	low := make(map[int]int, len(g.order))
	onStack := make(map[int]bool, len(g.order))
	for _, id := range g.order {
		index[id] = unvisited
	}

	var (
		comps   [][]int
		stack   []int
		counter int
	)

	type frame struct {
		id   int
		next int // next successor to visit
	}

	for _, root := range g.order {
		if index[root] != unvisited {
			continue
		}

		work := []frame{{id: root}}
		for len(work) > 0 {
			f := &work[len(work)-1]

			if f.next == 0 {
				index[f.id] = counter
				low[f.id] = counter
				counter++
				stack = append(stack, f.id)
				onStack[f.id] = true
			}

			advanced := false
			for f.next < len(succ[f.id]) {
				w := succ[f.id][f.next]
				f.next++
				if index[w] == unvisited {
					work = append(work, frame{id: w})
					advanced = true
					break
				}
				if onStack[w] && index[w] < low[f.id] {
					low[f.id] = index[w]
				}
			}
			if advanced {
				continue
			}

			if low[f.id] == index[f.id] {
				var members []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					members = append(members, w)
					if w == f.id {
						break
					}
				}
				comps = append(comps, members)
			}

			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := &work[len(work)-1]
				if low[f.id] < low[parent.id] {
					low[parent.id] = low[f.id]
				}
			}
		}
	}

	return comps
}
