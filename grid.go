/*
Copyright © 2025 the heatload authors.
This file is part of heatload.

heatload is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

heatload is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with heatload.  If not, see <http://www.gnu.org/licenses/>.
*/

package heatload

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
)

// NoData is the value used in output rasters for cells without data.
// In memory, no-data cells are NaN.
const NoData = -9999.

// Grid is a regular single-band raster: a dense array of cell values
// plus the georeferencing needed to map cell indices to projected
// coordinates. Row 0 is the northern edge and column 0 the western
// edge, matching the GeoTIFF convention. No-data cells hold NaN.
type Grid struct {
	// Data holds the cell values with shape [Ny, Nx].
	Data *sparse.DenseArray

	Nx, Ny int // number of columns and rows

	Xmin, Ymax float64 // western and northern edges [grid projection units]
	Dx, Dy     float64 // cell edge lengths [grid projection units]

	// Proj4 is the grid's spatial reference in Proj4 format.
	Proj4 string

	sr *proj.SR
}

// NewGrid creates a grid of the given shape and georeferencing with all
// cells initialized to no-data.
func NewGrid(nx, ny int, xmin, ymax, dx, dy float64, proj4 string) (*Grid, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("heatload: invalid grid shape %d×%d", nx, ny)
	}
	if dx <= 0 || dy <= 0 {
		return nil, fmt.Errorf("heatload: invalid grid cell size %g×%g", dx, dy)
	}
	g := &Grid{
		Data:  sparse.ZerosDense(ny, nx),
		Nx:    nx,
		Ny:    ny,
		Xmin:  xmin,
		Ymax:  ymax,
		Dx:    dx,
		Dy:    dy,
		Proj4: proj4,
	}
	for i := range g.Data.Elements {
		g.Data.Elements[i] = math.NaN()
	}
	return g, nil
}

// newLike creates an all-no-data grid with the same shape, georeferencing,
// and spatial reference as g.
func newLike(g *Grid) *Grid {
	o, err := NewGrid(g.Nx, g.Ny, g.Xmin, g.Ymax, g.Dx, g.Dy, g.Proj4)
	if err != nil {
		panic(err) // g was already a valid grid.
	}
	return o
}

// SR returns the grid's parsed spatial reference.
func (g *Grid) SR() (*proj.SR, error) {
	if g.sr != nil {
		return g.sr, nil
	}
	sr, err := proj.Parse(g.Proj4)
	if err != nil {
		return nil, fmt.Errorf("heatload: parsing grid projection %q: %v", g.Proj4, err)
	}
	g.sr = sr
	return sr, nil
}

// Get returns the value of cell (row, col).
func (g *Grid) Get(row, col int) float64 { return g.Data.Get(row, col) }

// Set sets the value of cell (row, col).
func (g *Grid) Set(v float64, row, col int) { g.Data.Set(v, row, col) }

// IsNoData reports whether cell (row, col) has no data.
func (g *Grid) IsNoData(row, col int) bool { return math.IsNaN(g.Data.Get(row, col)) }

// CellCenter returns the projected coordinates of the center of
// cell (row, col).
func (g *Grid) CellCenter(row, col int) geom.Point {
	return geom.Point{
		X: g.Xmin + (float64(col)+0.5)*g.Dx,
		Y: g.Ymax - (float64(row)+0.5)*g.Dy,
	}
}

// CellPolygon returns the outline of cell (row, col).
func (g *Grid) CellPolygon(row, col int) geom.Polygon {
	x0 := g.Xmin + float64(col)*g.Dx
	y1 := g.Ymax - float64(row)*g.Dy
	x1 := x0 + g.Dx
	y0 := y1 - g.Dy
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x1, Y: y0},
		{X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0},
	}}
}

// Bounds returns the extent of the grid.
func (g *Grid) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: g.Xmin, Y: g.Ymax - float64(g.Ny)*g.Dy},
		Max: geom.Point{X: g.Xmin + float64(g.Nx)*g.Dx, Y: g.Ymax},
	}
}

// CellIndex returns the row and column of the cell containing point p,
// and whether p is within the grid.
func (g *Grid) CellIndex(p geom.Point) (row, col int, within bool) {
	col = int(math.Floor((p.X - g.Xmin) / g.Dx))
	row = int(math.Floor((g.Ymax - p.Y) / g.Dy))
	within = col >= 0 && col < g.Nx && row >= 0 && row < g.Ny
	return
}

// Crop returns the subset of g that covers b plus at least buffer distance
// of margin on each side, clipped to the extent of g. It is an error for
// the requested region to lie entirely outside the grid.
// A derivative computation that marks boundary cells as no-data should be
// given a crop buffered by at least one cell size beyond the region where
// accurate values are needed.
func (g *Grid) Crop(b *geom.Bounds, buffer float64) (*Grid, error) {
	if buffer < 0 {
		return nil, fmt.Errorf("heatload: negative crop buffer %g", buffer)
	}
	col0 := int(math.Floor((b.Min.X - buffer - g.Xmin) / g.Dx))
	col1 := int(math.Ceil((b.Max.X + buffer - g.Xmin) / g.Dx))
	row0 := int(math.Floor((g.Ymax - (b.Max.Y + buffer)) / g.Dy))
	row1 := int(math.Ceil((g.Ymax - (b.Min.Y - buffer)) / g.Dy))
	if col0 < 0 {
		col0 = 0
	}
	if row0 < 0 {
		row0 = 0
	}
	if col1 > g.Nx {
		col1 = g.Nx
	}
	if row1 > g.Ny {
		row1 = g.Ny
	}
	if col0 >= col1 || row0 >= row1 {
		return nil, fmt.Errorf("heatload: crop region %+v does not overlap grid extent %+v", b, g.Bounds())
	}
	o, err := NewGrid(col1-col0, row1-row0, g.Xmin+float64(col0)*g.Dx,
		g.Ymax-float64(row0)*g.Dy, g.Dx, g.Dy, g.Proj4)
	if err != nil {
		return nil, err
	}
	for r := row0; r < row1; r++ {
		for c := col0; c < col1; c++ {
			o.Set(g.Get(r, c), r-row0, c-col0)
		}
	}
	return o, nil
}

// alignedWith reports whether o shares g's shape and georeferencing, so
// that the two can be combined cell-by-cell.
func (g *Grid) alignedWith(o *Grid) bool {
	const tol = 1.e-9
	return g.Nx == o.Nx && g.Ny == o.Ny &&
		math.Abs(g.Xmin-o.Xmin) < tol && math.Abs(g.Ymax-o.Ymax) < tol &&
		math.Abs(g.Dx-o.Dx) < tol && math.Abs(g.Dy-o.Dy) < tol
}

// definedValues returns the values of all cells that are not no-data.
func (g *Grid) definedValues() []float64 {
	vals := make([]float64, 0, len(g.Data.Elements))
	for _, v := range g.Data.Elements {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	return vals
}
