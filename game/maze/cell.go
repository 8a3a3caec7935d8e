package maze

// Side names one of the four boundaries of a cell.
type Side int

const (
	North Side = iota
	South
	East
	West
)

func (s Side) String() string {
	switch s {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	}
	return "unknown"
}

// Opposite returns the side a neighbour sees across s.
func (s Side) Opposite() Side {
	switch s {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	default:
		return East
	}
}

// delta returns the grid offset of the neighbour across s. North is -y.
func (s Side) delta() (dx, dy int) {
	switch s {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	default:
		return -1, 0
	}
}

var sides = [4]Side{North, South, East, West}

// Walls holds the four boundary flags of a cell. true means the wall stands.
type Walls struct {
	North bool `json:"n"`
	South bool `json:"s"`
	East  bool `json:"e"`
	West  bool `json:"w"`
}

func (w *Walls) get(s Side) bool {
	switch s {
	case North:
		return w.North
	case South:
		return w.South
	case East:
		return w.East
	default:
		return w.West
	}
}

func (w *Walls) set(s Side, v bool) {
	switch s {
	case North:
		w.North = v
	case South:
		w.South = v
	case East:
		w.East = v
	default:
		w.West = v
	}
}

// Cell is one grid square.
type Cell struct {
	Visited bool  `json:"-"`
	Walls   Walls `json:"walls"`
}

// Has reports whether the wall on side s stands.
func (c Cell) Has(s Side) bool { return c.Walls.get(s) }
