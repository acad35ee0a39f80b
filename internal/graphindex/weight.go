package graphindex

import "github.com/proprietary/wikidice/internal/types"

// computeWeight is a direct translation of spec §4.10's bounded BFS with
// visited set: it counts distinct article pages reachable from start
// within maxDepth, where the depth counter advances once per dequeue that
// is actually processed (not once per dequeue attempt — a revisit or a
// missing record is skipped without advancing depth). Implementers must
// preserve this per-dequeue-not-per-level convention; the reader's
// derivation logic and the stored weight vectors both assume it.
//
// Used directly by the reader's pick_at_depth fallback for a category
// whose weights were never materialized (§4.11). The writer's second
// pass uses computeWeightTrace instead, an equivalent single-pass
// optimization — see its doc comment for why the two always agree.
func (s *store) computeWeight(start string, maxDepth uint8) (uint64, error) {
	var weight uint64
	visited := map[string]struct{}{}
	queue := []string{start}
	var depth uint8
	for len(queue) > 0 && depth <= maxDepth {
		top := queue[0]
		queue = queue[1:]
		if _, seen := visited[top]; seen {
			continue
		}
		visited[top] = struct{}{}
		rec, ok, err := s.get(top)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		weight += uint64(len(rec.Pages))
		for _, subID := range rec.Subcategories {
			subName, ok, err := s.resolveName(subID)
			if err != nil {
				return 0, err
			}
			if ok {
				queue = append(queue, subName)
			}
		}
		depth++
	}
	return weight, nil
}

// computeWeightTrace runs the same visited-set BFS exactly once, recording
// the cumulative weight after each successful (depth-advancing) step, up
// to capSteps steps. Because the BFS's dequeue order and visited set never
// depend on the depth bound — maxDepth only controls how many successful
// steps the loop is allowed to take before returning — trace[d] is, by
// construction, equal to what computeWeight(start, uint8(d)) would have
// returned, and values beyond the traversal's natural end (the queue
// draining) are what every larger maxDepth also saturates to. This lets
// the writer's second pass build a category's whole weight vector with
// one BFS instead of one per depth.
func (s *store) computeWeightTrace(start string, capSteps int) ([]uint64, error) {
	var weight uint64
	var trace []uint64
	visited := map[string]struct{}{}
	queue := []string{start}
	for len(queue) > 0 && len(trace) < capSteps {
		top := queue[0]
		queue = queue[1:]
		if _, seen := visited[top]; seen {
			continue
		}
		visited[top] = struct{}{}
		rec, ok, err := s.get(top)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		weight += uint64(len(rec.Pages))
		for _, subID := range rec.Subcategories {
			subName, ok, err := s.resolveName(subID)
			if err != nil {
				return nil, err
			}
			if ok {
				queue = append(queue, subName)
			}
		}
		trace = append(trace, weight)
	}
	return trace, nil
}

// buildWeights constructs the strictly-sorted, depth-bounded weight
// vector stored per category: one entry per depth from 0 up to
// types.MaxDepth, stopping early once five consecutive depths produce an
// identical weight (§4.10's "the tree has been fully enumerated"
// termination rule).
func (s *store) buildWeights(name string) ([]types.CategoryWeight, error) {
	trace, err := s.computeWeightTrace(name, int(types.MaxDepth)+1)
	if err != nil {
		return nil, err
	}

	var weights []types.CategoryWeight
	var last uint64
	consecutive := 0
	for d := 0; d <= int(types.MaxDepth); d++ {
		var w uint64
		switch {
		case d < len(trace):
			w = trace[d]
		case len(trace) > 0:
			w = trace[len(trace)-1]
		default:
			w = 0
		}
		if d > 0 && w == last {
			consecutive++
		} else {
			consecutive = 1
		}
		weights = append(weights, types.CategoryWeight{Depth: uint8(d), Weight: w})
		last = w
		if consecutive >= 5 {
			break
		}
	}
	return weights, nil
}
