package model

import (
	"fmt"
	"time"
)

type LandType int

const (
	LAND_REGULAR LandType = iota
	LAND_COPPER
	LAND_GOLD
)

var landNames = [...]string{"regular", "copper", "gold"}

// Value is the number of points a claimed cell of this type is worth.
func (l LandType) Value() int {
	return int(l) + 1
}

func (l LandType) String() string {
	if l < LAND_REGULAR || l > LAND_GOLD {
		return fmt.Sprintf("n/a:%d", int(l))
	}
	return landNames[l]
}

func (l LandType) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *LandType) UnmarshalText(b []byte) error {
	for i, name := range landNames {
		if name == string(b) {
			*l = LandType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown land type %q", b)
}

// Orientation indexes Cell.Fences. The opposite side is always (o+2)%4.
type Orientation int

const (
	NORTH Orientation = iota
	EAST
	SOUTH
	WEST
)

var orientationNames = [...]string{"north", "east", "south", "west"}

// col/row offsets per orientation
var offsets = [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

func ParseOrientation(s string) (Orientation, error) {
	for i, name := range orientationNames {
		if name == s {
			return Orientation(i), nil
		}
	}
	return 0, ErrInvalidOrientation
}

func (o Orientation) Valid() bool {
	return o >= NORTH && o <= WEST
}

func (o Orientation) Opposite() Orientation {
	return (o + 2) % 4
}

func (o Orientation) String() string {
	if !o.Valid() {
		return fmt.Sprintf("n/a:%d", int(o))
	}
	return orientationNames[o]
}

func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Orientation) UnmarshalText(b []byte) error {
	parsed, err := ParseOrientation(string(b))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

type Cell struct {
	X, Y   int
	Fences [4]bool
	Owner  string
	Land   LandType
}

func (c *Cell) Fenced() bool {
	return c.Fences[NORTH] && c.Fences[EAST] && c.Fences[SOUTH] && c.Fences[WEST]
}

// Grid is a Size x Size arena of cells addressed by y*Size+x.
type Grid struct {
	Size  int
	Cells []Cell
}

type Player struct {
	Id       string `json:"id"`
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

type Move struct {
	PlayerId    string      `json:"player_id"`
	PlayerName  string      `json:"player_name"`
	Position    Position    `json:"position"`
	Orientation Orientation `json:"orientation"`
	LandClaimed bool        `json:"land_claimed"`
	Claimed     int         `json:"claimed"`
	Timestamp   time.Time   `json:"timestamp"`
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}
