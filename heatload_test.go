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
	"math"
	"testing"
)

// testProj is a projected spatial reference whose origin lies at
// 40°N, 97°W, so grids built near the origin have latitudes close
// to 40.
const testProj = "+proj=lcc +lat_1=33.000000 +lat_2=45.000000 +lat_0=40.000000 +lon_0=-97.000000 +x_0=0 +y_0=0 +a=6370997.000000 +b=6370997.000000 +to_meter=1"

// testGrid creates an nx×ny grid with dx-meter cells centered on the
// test projection's origin.
func testGrid(t *testing.T, nx, ny int, dx float64) *Grid {
	t.Helper()
	g, err := NewGrid(nx, ny, -float64(nx)/2*dx, float64(ny)/2*dx, dx, dx, testProj)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

// southSlopeElevation creates an elevation grid that dips south at the
// given angle: a uniform plane with aspect 180° everywhere.
func southSlopeElevation(t *testing.T, nx, ny int, dx, angleDeg float64) *Grid {
	t.Helper()
	g := testGrid(t, nx, ny, dx)
	k := math.Tan(angleDeg * math.Pi / 180)
	for r := 0; r < ny; r++ {
		for c := 0; c < nx; c++ {
			g.Set(1000+k*g.CellCenter(r, c).Y, r, c)
		}
	}
	return g
}

// constantGrid creates a grid with every cell set to v.
func constantGrid(t *testing.T, nx, ny int, dx, v float64) *Grid {
	t.Helper()
	g := testGrid(t, nx, ny, dx)
	for i := range g.Data.Elements {
		g.Data.Elements[i] = v
	}
	return g
}

// absDifferent reports whether a and b differ by more than tol, with
// NaN equal to NaN.
func absDifferent(a, b, tol float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) != math.IsNaN(b)
	}
	return math.Abs(a-b) > tol
}
