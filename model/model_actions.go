package model

import "math/rand"

const (
	MIN_GRID_SIZE = 2
	MAX_GRID_SIZE = 10
)

// NewGrid builds an unfenced, unowned grid. Land is drawn per cell:
// regular 70%, copper 20%, gold 10%.
func NewGrid(size int, rnd *rand.Rand) *Grid {
	cells := make([]Cell, 0, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			cells = append(cells, Cell{X: x, Y: y, Land: drawLand(rnd)})
		}
	}
	return &Grid{Size: size, Cells: cells}
}

func drawLand(rnd *rand.Rand) LandType {
	switch f := rnd.Float64(); {
	case f < 0.7:
		return LAND_REGULAR
	case f < 0.9:
		return LAND_COPPER
	default:
		return LAND_GOLD
	}
}

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Size && y >= 0 && y < g.Size
}

// Cell returns nil when (x,y) is outside the grid.
func (g *Grid) Cell(x, y int) *Cell {
	if !g.InBounds(x, y) {
		return nil
	}
	return &g.Cells[y*g.Size+x]
}

// Neighbor returns the coordinates of the cell sharing the o side of (x,y).
func (g *Grid) Neighbor(x, y int, o Orientation) (int, int, bool) {
	if !o.Valid() {
		return 0, 0, false
	}
	nx, ny := x+offsets[o][0], y+offsets[o][1]
	if !g.InBounds(nx, ny) {
		return 0, 0, false
	}
	return nx, ny, true
}

// PlaceFence sets the o fence of (x,y) and the mirrored fence of its
// neighbour, if there is one. Ownership is left untouched.
func (g *Grid) PlaceFence(x, y int, o Orientation) error {
	cell := g.Cell(x, y)
	if cell == nil {
		return ErrOutOfBounds
	}
	if !o.Valid() {
		return ErrInvalidOrientation
	}
	if cell.Fences[o] {
		return ErrFenceExists
	}
	cell.Fences[o] = true
	if nx, ny, ok := g.Neighbor(x, y, o); ok {
		g.Cell(nx, ny).Fences[o.Opposite()] = true
	}
	return nil
}

func (g *Grid) IsEnclosed(x, y int) bool {
	cell := g.Cell(x, y)
	return cell != nil && cell.Fenced() && cell.Owner == ""
}

// Claim gives an enclosed cell to owner and returns its value, 0 when the
// cell is not claimable.
func (g *Grid) Claim(x, y int, owner string) int {
	if !g.IsEnclosed(x, y) {
		return 0
	}
	cell := g.Cell(x, y)
	cell.Owner = owner
	return cell.Land.Value()
}

func (g *Grid) IsComplete() bool {
	for i := range g.Cells {
		if !g.Cells[i].Fenced() {
			return false
		}
	}
	return true
}

// OwnedValue sums the value of every owned cell per owner.
func (g *Grid) OwnedValue() map[string]int {
	values := make(map[string]int)
	for _, c := range g.Cells {
		if c.Owner != "" {
			values[c.Owner] += c.Land.Value()
		}
	}
	return values
}

func (g *Grid) Clone() *Grid {
	cells := make([]Cell, len(g.Cells))
	copy(cells, g.Cells)
	return &Grid{Size: g.Size, Cells: cells}
}

// Rows lays the grid out row by row for the wire.
func (g *Grid) Rows() [][]CellState {
	rows := make([][]CellState, 0, g.Size)
	for y := 0; y < g.Size; y++ {
		row := make([]CellState, 0, g.Size)
		for x := 0; x < g.Size; x++ {
			c := g.Cell(x, y)
			row = append(row, CellState{
				North: c.Fences[NORTH],
				East:  c.Fences[EAST],
				South: c.Fences[SOUTH],
				West:  c.Fences[WEST],
				Owner: c.Owner,
				Type:  c.Land,
				Value: c.Land.Value(),
			})
		}
		rows = append(rows, row)
	}
	return rows
}
