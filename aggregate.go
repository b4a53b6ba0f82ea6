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
)

// Aggregate downsamples g to the given coarser cell size by block mean:
// each coarse cell is the arithmetic mean of the fine cells it covers,
// ignoring no-data fine cells. A block whose fine cells are all no-data
// is no-data. The target cell size must be an integer multiple of g's
// cell size; blocks are anchored at the grid's northwestern corner, so
// trailing blocks at the southern and eastern edges may be partial.
func Aggregate(g *Grid, cellSize float64) (*Grid, error) {
	if g.Dx != g.Dy {
		return nil, fmt.Errorf("heatload: block aggregation requires square cells, have %g×%g", g.Dx, g.Dy)
	}
	ratio := cellSize / g.Dx
	factor := int(math.Round(ratio))
	if factor < 1 || math.Abs(ratio-float64(factor)) > 1.e-6 {
		return nil, fmt.Errorf("heatload: aggregation cell size %g is not a positive integer multiple of grid cell size %g", cellSize, g.Dx)
	}
	if factor == 1 {
		o := newLike(g)
		copy(o.Data.Elements, g.Data.Elements)
		return o, nil
	}
	nx := (g.Nx + factor - 1) / factor
	ny := (g.Ny + factor - 1) / factor
	o, err := NewGrid(nx, ny, g.Xmin, g.Ymax, g.Dx*float64(factor), g.Dy*float64(factor), g.Proj4)
	if err != nil {
		return nil, err
	}
	for R := 0; R < ny; R++ {
		for C := 0; C < nx; C++ {
			var sum float64
			var n int
			for r := R * factor; r < (R+1)*factor && r < g.Ny; r++ {
				for c := C * factor; c < (C+1)*factor && c < g.Nx; c++ {
					v := g.Get(r, c)
					if math.IsNaN(v) {
						continue
					}
					sum += v
					n++
				}
			}
			if n > 0 {
				o.Set(sum/float64(n), R, C)
			}
		}
	}
	return o, nil
}
