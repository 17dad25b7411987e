package layout

import (
	"gridcast/internal/core/domain"
)

// SpacingUnit is the gutter in pixels between cells and around the grid edge.
const SpacingUnit = 8.0

// aspectCeiling caps cell height at a 4:3-ish ratio of cell width.
const aspectCeiling = 0.75

// focusScale is the height multiplier for the position-0 cell in focus mode.
const focusScale = 1.5

// Cell is the on-screen rectangle assigned to the stream at Index (its
// position in the session order).
type Cell struct {
	Index   int
	X       float64
	Y       float64
	Width   float64
	Height  float64
	Focused bool
}

// Grid is the computed geometry for one layout pass.
type Grid struct {
	Columns    int
	Rows       int
	CellWidth  float64
	CellHeight float64
	Cells      []Cell
}

// Compute maps a layout mode, viewport and stream count to per-cell geometry.
// It is total and side-effect-free: identical inputs always produce identical
// output. focusFirst scales up the position-0 cell and only applies to the
// custom mode.
func Compute(mode domain.LayoutMode, custom domain.CustomLayout, streamCount int, viewportWidth, viewportHeight, reservedChromeHeight float64, focusFirst bool) Grid {
	cols, rows := dimensions(mode, custom)

	cellW := (viewportWidth - SpacingUnit*float64(cols+1)) / float64(cols)
	availH := (viewportHeight - reservedChromeHeight - SpacingUnit*float64(rows+1)) / float64(rows)
	cellH := cellW * aspectCeiling
	if availH < cellH {
		cellH = availH
	}

	g := Grid{
		Columns:    cols,
		Rows:       rows,
		CellWidth:  cellW,
		CellHeight: cellH,
	}
	if streamCount <= 0 {
		return g
	}

	g.Cells = make([]Cell, 0, streamCount)
	focus := focusFirst && mode == domain.LayoutCustom

	y := SpacingUnit
	index := 0
	if focus {
		g.Cells = append(g.Cells, Cell{
			Index:   0,
			X:       SpacingUnit,
			Y:       y,
			Width:   viewportWidth - 2*SpacingUnit,
			Height:  cellH * focusScale,
			Focused: true,
		})
		y += cellH*focusScale + SpacingUnit
		index = 1
	}

	col := 0
	for ; index < streamCount; index++ {
		g.Cells = append(g.Cells, Cell{
			Index:  index,
			X:      SpacingUnit + float64(col)*(cellW+SpacingUnit),
			Y:      y,
			Width:  cellW,
			Height: cellH,
		})
		col++
		if col == cols {
			col = 0
			y += cellH + SpacingUnit
		}
	}
	return g
}

func dimensions(mode domain.LayoutMode, custom domain.CustomLayout) (cols, rows int) {
	switch mode {
	case domain.Layout1x1:
		return 1, 1
	case domain.Layout2x2:
		return 2, 2
	case domain.Layout3x3:
		return 3, 3
	case domain.LayoutCustom:
		cols, rows = custom.Cols, custom.Rows
		if cols < 1 {
			cols = 1
		}
		if rows < 1 {
			rows = 1
		}
		return cols, rows
	}
	return 2, 2
}
