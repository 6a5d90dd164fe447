package chunk

// RGBA is an 8-bit-per-channel tile tint.
type RGBA struct {
	R, G, B, A uint8
}

// White is the neutral tint applied to tiles loaded from chunk data.
var White = RGBA{R: 255, G: 255, B: 255, A: 255}

// Cell is one renderable tile. TextureID 0 means empty; the other fields are
// meaningless for empty cells.
type Cell struct {
	TextureID    uint32
	TextureLayer uint32
	Color        RGBA
}

// Grid is one render slot: a full chunk worth of cells per layer. It is a
// projection for the rendering collaborator, not authoritative storage.
type Grid struct {
	Cells [Layers][CellsPerLayer]Cell
}

func (g *Grid) Cell(x, y, layer int) Cell {
	if layer < 0 || layer >= Layers || !InBounds(x, y) {
		return Cell{}
	}
	return g.Cells[layer][Index(x, y)]
}

func (g *Grid) SetCell(x, y, layer int, c Cell) {
	if layer < 0 || layer >= Layers || !InBounds(x, y) {
		return
	}
	g.Cells[layer][Index(x, y)] = c
}

// Clear empties every cell.
func (g *Grid) Clear() {
	for l := range g.Cells {
		for i := range g.Cells[l] {
			g.Cells[l][i] = Cell{}
		}
	}
}

// LoadData fills the grid from chunk data, skipping empty ids.
func (g *Grid) LoadData(d *Data) {
	g.Clear()
	for l := 0; l < Layers && l < len(d.Tile); l++ {
		for i, id := range d.Tile[l].ID {
			if id != 0 {
				g.Cells[l][i] = Cell{TextureID: id, Color: White}
			}
		}
	}
}
