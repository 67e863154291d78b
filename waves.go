package borg

import (
	"sort"
)

// wavePlan is the output of one grouping pass: execution waves plus the
// flat post-order (dependencies first) the waves were carved from.
type wavePlan struct {
	waves [][]Key
	order []Key
}

// plan computes the deterministic wave grouping for the registered units.
// The whole pass runs under groupMu; the marking sets are local to one
// pass and carry no state across calls.
func (o *Orchestrator) plan() (wavePlan, error) {
	o.groupMu.Lock()
	defer o.groupMu.Unlock()

	const (
		stateNew uint8 = iota
		stateVisiting
		stateOrdered
	)

	// Ties are broken by ascending dependency count, then by key, so the
	// grouping is stable for a fixed unit set regardless of input order.
	keys := make([]Key, 0, len(o.units))
	for key := range o.units {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := o.units[keys[i]], o.units[keys[j]]
		if len(a.deps) != len(b.deps) {
			return len(a.deps) < len(b.deps)
		}
		return keys[i] < keys[j]
	})

	state := make(map[Key]uint8, len(keys))
	stack := make([]Key, 0, len(keys))
	stackPos := make(map[Key]int, len(keys))
	order := make([]Key, 0, len(keys))

	waves := make([][]Key, 0, len(keys))
	open := make([]Key, 0, len(keys))
	openSet := make(map[Key]struct{}, len(keys))

	closeWave := func() {
		if len(open) == 0 {
			return
		}
		waves = append(waves, open)
		open = make([]Key, 0, len(keys)-len(order))
		openSet = make(map[Key]struct{}, len(keys))
	}

	var dfs func(key Key) error
	dfs = func(key Key) error {
		switch state[key] {
		case stateOrdered:
			return nil
		case stateVisiting:
			// This branch is usually caught in dependency traversal below; keep as a safety net.
			pos := stackPos[key]
			cycle := append([]Key(nil), stack[pos:]...)
			cycle = append(cycle, key)
			return CycleDetectedError{Path: cycle}
		}

		state[key] = stateVisiting
		stackPos[key] = len(stack)
		stack = append(stack, key)

		for _, dep := range o.units[key].deps {
			if state[dep] == stateVisiting {
				pos := stackPos[dep]
				cycle := append([]Key(nil), stack[pos:]...)
				cycle = append(cycle, dep)
				return CycleDetectedError{Path: cycle}
			}
			if err := dfs(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		delete(stackPos, key)
		state[key] = stateOrdered
		order = append(order, key)

		// A unit whose direct dependency still sits in the open wave cannot
		// share it; close the wave and start the next one.
		for _, dep := range o.units[key].deps {
			if _, ok := openSet[dep]; ok {
				closeWave()
				break
			}
		}
		open = append(open, key)
		openSet[key] = struct{}{}
		return nil
	}

	for _, key := range keys {
		if state[key] == stateOrdered {
			continue
		}
		if err := dfs(key); err != nil {
			return wavePlan{}, err
		}
	}
	closeWave()

	return wavePlan{waves: waves, order: order}, nil
}
