package coord

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coord identifies one map chunk. Group partitions independent chunk grids
// (separate instances) so coordinates never collide across them.
type Coord struct {
	X     int32
	Y     int32
	Group uint64
}

// Key returns the canonical "x_y_group" form used for cache keys and file names.
func (c Coord) Key() string {
	return fmt.Sprintf("%d_%d_%d", c.X, c.Y, c.Group)
}

func (c Coord) String() string { return c.Key() }

type Direction int

const (
	North Direction = iota
	South
	East
	West
	NorthEast
	NorthWest
	SouthEast
	SouthWest
)

var dirNames = map[Direction]string{
	North:     "north",
	South:     "south",
	East:      "east",
	West:      "west",
	NorthEast: "northeast",
	NorthWest: "northwest",
	SouthEast: "southeast",
	SouthWest: "southwest",
}

func (d Direction) String() string {
	if s, ok := dirNames[d]; ok {
		return s
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// ParseDirection maps a wire-format direction name to a Direction.
func ParseDirection(s string) (Direction, bool) {
	for d, name := range dirNames {
		if name == s {
			return d, true
		}
	}
	return 0, false
}

// Delta returns the one-chunk step for a direction. North is +Y.
func (d Direction) Delta() (dx, dy int32) {
	switch d {
	case North:
		return 0, 1
	case South:
		return 0, -1
	case East:
		return 1, 0
	case West:
		return -1, 0
	case NorthEast:
		return 1, 1
	case NorthWest:
		return -1, 1
	case SouthEast:
		return 1, -1
	case SouthWest:
		return -1, -1
	}
	return 0, 0
}

// ErrOutOfRange reports a neighbor step that would leave the int32 coordinate
// space. Callers treat it as "cannot navigate further" rather than wrapping.
var ErrOutOfRange = errors.New("coord: neighbor offset out of range")

// Offset returns the coordinate one chunk away in the given direction.
func (c Coord) Offset(d Direction) (Coord, error) {
	dx, dy := d.Delta()
	x, okX := addChecked(c.X, dx)
	y, okY := addChecked(c.Y, dy)
	if !okX || !okY {
		return Coord{}, fmt.Errorf("%w: %s from %s", ErrOutOfRange, d, c)
	}
	return Coord{X: x, Y: y, Group: c.Group}, nil
}

// ParseKey recovers a coordinate from its canonical "x_y_group" key.
func ParseKey(key string) (Coord, error) {
	parts := strings.Split(key, "_")
	if len(parts) != 3 {
		return Coord{}, fmt.Errorf("malformed chunk key %q", key)
	}
	x, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil {
		return Coord{}, fmt.Errorf("malformed chunk key %q: %w", key, err)
	}
	y, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return Coord{}, fmt.Errorf("malformed chunk key %q: %w", key, err)
	}
	g, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return Coord{}, fmt.Errorf("malformed chunk key %q: %w", key, err)
	}
	return Coord{X: int32(x), Y: int32(y), Group: g}, nil
}

func addChecked(a, b int32) (int32, bool) {
	s := int64(a) + int64(b)
	if s < math.MinInt32 || s > math.MaxInt32 {
		return 0, false
	}
	return int32(s), true
}
