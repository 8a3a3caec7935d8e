package ai

// Status is the result of a behavior tree node tick.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusRunning
)

// Node is a single node in a behavior tree.
type Node interface {
	Tick(ctx *AIContext) Status
}

// Selector returns the first child result that is not a failure.
type Selector struct {
	Children []Node
}

func (s *Selector) Tick(ctx *AIContext) Status {
	for _, c := range s.Children {
		if st := c.Tick(ctx); st != StatusFailure {
			return st
		}
	}
	return StatusFailure
}

// Sequence stops at the first child that does not succeed.
type Sequence struct {
	Children []Node
}

func (s *Sequence) Tick(ctx *AIContext) Status {
	for _, c := range s.Children {
		if st := c.Tick(ctx); st != StatusSuccess {
			return st
		}
	}
	return StatusSuccess
}

// Condition succeeds when Fn holds.
type Condition func(*AIContext) bool

func (fn Condition) Tick(ctx *AIContext) Status {
	if fn(ctx) {
		return StatusSuccess
	}
	return StatusFailure
}

// Action runs Fn and reports its status.
type Action func(*AIContext) Status

func (fn Action) Tick(ctx *AIContext) Status { return fn(ctx) }

// Succeeder runs its child and always succeeds.
type Succeeder struct {
	Child Node
}

func (s *Succeeder) Tick(ctx *AIContext) Status {
	s.Child.Tick(ctx)
	return StatusSuccess
}

// BehaviorTree wraps the root node.
type BehaviorTree struct {
	Root Node
}

// Tick runs one frame of the tree.
func (bt *BehaviorTree) Tick(ctx *AIContext) Status {
	if bt.Root == nil {
		return StatusFailure
	}
	return bt.Root.Tick(ctx)
}
