package engine

// Lookahead is how many squares the scanner walks from a stone in each
// direction of an axis. Four steps each way covers every five-square window
// that contains the stone.
const Lookahead = 4

// WinLength is the number of consecutive stones that wins the game.
const WinLength = 5

// significant reports whether a run of count stones with the given span
// could still grow into five in a row and is worth reporting.
func significant(count, span int) bool {
    return (count < 3 && span > 5) ||
        (count == 3 && span > 4) ||
        (count > 3 && span >= 1)
}

// Weights are the hand-tuned scores for each kind of sequence. They were
// tuned together; changing one shifts how the search trades attack against
// defence.
type Weights struct {
    // Single is added for each one-stone sequence.
    Single int
    // Pair and SplitPair score two stones with and without a gap.
    Pair      int
    SplitPair int
    // OpenThree scores a three with both ends free. ThreeToMove is added
    // when its owner is the side to move.
    OpenThree   int
    ThreeToMove int
    // Four scores any four. FourToMove is added when its owner is to move,
    // otherwise OpenFour is added for an unbroken four with both ends free.
    Four       int
    FourToMove int
    OpenFour   int
    // Five scores a completed five in a row.
    Five int
    // DoubleThreat is added when a player holds two or more threats (open
    // threes or fours) and the running total is below DoubleThreatCeiling.
    DoubleThreat        int
    DoubleThreatCeiling int
}

// DefaultWeights returns the standard scoring table.
func DefaultWeights() Weights {
    return Weights{
        Single:              1,
        Pair:                5,
        SplitPair:           3,
        OpenThree:           5,
        ThreeToMove:         500,
        Four:                10,
        FourToMove:          1500,
        OpenFour:            750,
        Five:                5000,
        DoubleThreat:        500,
        DoubleThreatCeiling: 1000,
    }
}
