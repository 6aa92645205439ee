package domain

// Direction is one of the 8 compass directions on the grid, counted
// counter-clockwise from East in 45 degree steps. North is toward y-1.
type Direction int

const (
    East Direction = iota
    NorthEast
    North
    NorthWest
    West
    SouthWest
    South
    SouthEast
)

// NumDirections is the size of a square's neighbor table.
const NumDirections = 8

var (
    // Directions lists all eight directions.
    Directions = [NumDirections]Direction{East, NorthEast, North, NorthWest, West, SouthWest, South, SouthEast}
    // Axes holds one direction per undirected line through a square. Each
    // axis is walked via the direction and its Opposite.
    Axes = [4]Direction{East, NorthEast, North, NorthWest}
)

// Opposite returns the direction rotated by 180 degrees.
func (d Direction) Opposite() Direction {
    return (d + 4) % NumDirections
}

// ShiftX returns the x delta of one step in d.
func (d Direction) ShiftX() int {
    switch d {
    case SouthEast, East, NorthEast:
        return 1
    case NorthWest, West, SouthWest:
        return -1
    default:
        return 0
    }
}

// ShiftY returns the y delta of one step in d.
func (d Direction) ShiftY() int {
    switch d {
    case NorthEast, North, NorthWest:
        return -1
    case SouthWest, South, SouthEast:
        return 1
    default:
        return 0
    }
}

func (d Direction) String() string {
    switch d {
    case East:
        return "East"
    case NorthEast:
        return "Northeast"
    case North:
        return "North"
    case NorthWest:
        return "Northwest"
    case West:
        return "West"
    case SouthWest:
        return "Southwest"
    case South:
        return "South"
    case SouthEast:
        return "Southeast"
    default:
        return ""
    }
}
