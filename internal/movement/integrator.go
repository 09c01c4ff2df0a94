package movement

import "github.com/dorfsim/server/internal/geom"

// Path is an ordered stack of waypoints from goal back to start. The next
// waypoint to travel to is the last element.
type Path struct {
	Steps []geom.Vec2
}

func NewPath(steps []geom.Vec2) *Path {
	return &Path{Steps: steps}
}

func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Steps)
}

func (p *Path) Empty() bool { return p.Len() == 0 }

// Next returns the upcoming waypoint.
func (p *Path) Next() (geom.Vec2, bool) {
	if p.Empty() {
		return geom.Vec2{}, false
	}
	return p.Steps[len(p.Steps)-1], true
}

// Pop removes and returns the upcoming waypoint.
func (p *Path) Pop() (geom.Vec2, bool) {
	next, ok := p.Next()
	if ok {
		p.Steps = p.Steps[:len(p.Steps)-1]
	}
	return next, ok
}

// Goal returns the final waypoint.
func (p *Path) Goal() (geom.Vec2, bool) {
	if p.Empty() {
		return geom.Vec2{}, false
	}
	return p.Steps[0], true
}

// Outcome describes how a call to Advance ended.
type Outcome int

const (
	OutcomeMoving    Outcome = iota // budget spent, waypoints remain
	OutcomeExhausted                // path empty; a new goal is needed
	OutcomeRejected                 // next position failed validation; a new goal is needed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMoving:
		return "moving"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Validator reports whether a body may occupy the given position. A nil
// Validator accepts everything.
type Validator func(geom.Vec2) bool

// Result is what one tick of travel did.
type Result struct {
	Outcome  Outcome
	Popped   int     // waypoints reached this tick
	Traveled float64 // distance covered this tick
}

// Advance moves *pos along path, spending at most budget distance.
//
// Waypoints within reach are snapped onto exactly and popped, so several can
// be consumed in one call. The remainder of the budget moves pos in a straight
// line toward the next waypoint. Each new position is checked with validate
// before it is committed; a refused position leaves *pos where it was and
// ends the call with OutcomeRejected.
func Advance(pos *geom.Vec2, path *Path, budget float64, validate Validator) Result {
	var res Result
	for {
		next, ok := path.Next()
		if !ok {
			res.Outcome = OutcomeExhausted
			return res
		}
		dist := pos.Distance(next)
		if dist <= budget {
			if validate != nil && !validate(next) {
				res.Outcome = OutcomeRejected
				return res
			}
			budget -= dist
			res.Traveled += dist
			res.Popped++
			path.Pop()
			*pos = next
			continue
		}

		dir := next.Sub(*pos).Normalize()
		step := pos.Add(dir.Scale(budget))
		if validate != nil && !validate(step) {
			res.Outcome = OutcomeRejected
			return res
		}
		res.Traveled += budget
		*pos = step
		res.Outcome = OutcomeMoving
		return res
	}
}
