package main

import (
	"github.com/wricardo/mcp-training/fallingblocks/game/engine"
)

type placement struct {
	rotation int
	anchor   engine.Position
}

type step struct {
	action engine.Action
	apply  func(*engine.Field) bool
}

var steps = []step{
	{engine.ActionLeft, (*engine.Field).MoveLeft},
	{engine.ActionRight, (*engine.Field).MoveRight},
	{engine.ActionDown, (*engine.Field).MoveDown},
	{engine.ActionCW, (*engine.Field).RotateCW},
	{engine.ActionCCW, (*engine.Field).RotateCCW},
}

// Plan is the result of a search from the current placement
type Plan struct {
	Actions  []engine.Action
	Rotation int
	Anchor   engine.Position
	Bottom   int
	Explored int
}

// Commands renders the plan as command strings
func (p *Plan) Commands() []string {
	out := make([]string, len(p.Actions))
	for i, a := range p.Actions {
		out[i] = string(a)
	}
	return out
}

// PlanDeepest searches every placement reachable by the active piece and
// returns the shortest action list to the one whose lowest cell is deepest.
// Among equally deep placements the one found first, so nearest, wins.
// It returns nil when the field has no active piece.
func PlanDeepest(field *engine.Field) *Plan {
	if field.Piece() == nil {
		return nil
	}

	type visit struct {
		from   placement
		action engine.Action
		root   bool
	}

	start := field.Clone()
	startKey := placement{start.Rotation(), start.Anchor()}
	parents := map[placement]visit{startKey: {root: true}}
	queue := []*engine.Field{start}

	best := startKey
	bestBottom := bottomRow(start)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		key := placement{current.Rotation(), current.Anchor()}

		if b := bottomRow(current); b > bestBottom {
			best, bestBottom = key, b
		}

		for _, s := range steps {
			next := current.Clone()
			if !s.apply(next) {
				continue
			}
			nextKey := placement{next.Rotation(), next.Anchor()}
			if _, seen := parents[nextKey]; seen {
				continue
			}
			parents[nextKey] = visit{from: key, action: s.action}
			queue = append(queue, next)
		}
	}

	var actions []engine.Action
	for at := best; !parents[at].root; at = parents[at].from {
		actions = append(actions, parents[at].action)
	}
	for i, j := 0, len(actions)-1; i < j; i, j = i+1, j-1 {
		actions[i], actions[j] = actions[j], actions[i]
	}

	return &Plan{
		Actions:  actions,
		Rotation: best.rotation,
		Anchor:   best.anchor,
		Bottom:   bestBottom,
		Explored: len(parents),
	}
}

// bottomRow is the lowest field row covered by the active piece
func bottomRow(f *engine.Field) int {
	state := f.Piece().StateAt(f.Rotation())
	for r := len(state) - 1; r >= 0; r-- {
		for _, occupied := range state[r] {
			if occupied {
				return f.Anchor().Row + r
			}
		}
	}
	return f.Anchor().Row
}
