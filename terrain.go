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

// SlopeAspect computes slope and aspect grids from an elevation grid
// using the Horn (1981) 3×3 finite-difference kernel.
//
// Slope is the angle of the local elevation gradient from horizontal
// [degrees, ≥0]. Aspect is the compass direction of the steepest
// downhill gradient [degrees east of north, [0,360)]; it is no-data for
// flat cells, which have no facing direction.
//
// Edge policy: cells on the grid boundary, and cells with any no-data
// neighbor in their 3×3 neighborhood, are no-data in both outputs.
// Callers needing accurate values up to a boundary of interest should
// load elevation with a buffer margin beyond that boundary.
func SlopeAspect(elev *Grid) (slope, aspect *Grid, err error) {
	if elev == nil || elev.Nx < 3 || elev.Ny < 3 {
		return nil, nil, fmt.Errorf("heatload: elevation grid must be at least 3×3 to compute terrain derivatives")
	}
	slope = newLike(elev)
	aspect = newLike(elev)
	for r := 1; r < elev.Ny-1; r++ {
		for c := 1; c < elev.Nx-1; c++ {
			// Neighborhood, with row 0 at the northern edge:
			//   a b c      nw n ne
			//   d e f  ==  w  .  e
			//   g h i      sw s se
			a := elev.Get(r-1, c-1)
			b := elev.Get(r-1, c)
			cc := elev.Get(r-1, c+1)
			d := elev.Get(r, c-1)
			f := elev.Get(r, c+1)
			gg := elev.Get(r+1, c-1)
			h := elev.Get(r+1, c)
			i := elev.Get(r+1, c+1)
			e := elev.Get(r, c)
			if anyNaN(a, b, cc, d, e, f, gg, h, i) {
				continue
			}
			gx := ((cc + 2*f + i) - (a + 2*d + gg)) / (8 * elev.Dx)
			gy := ((a + 2*b + cc) - (gg + 2*h + i)) / (8 * elev.Dy)
			slope.Set(math.Atan(math.Hypot(gx, gy))*180/math.Pi, r, c)
			if gx == 0 && gy == 0 {
				continue // flat cell: slope 0, aspect undefined
			}
			// Compass angle of the downhill direction (-gx, -gy),
			// measured clockwise from north.
			az := math.Atan2(-gx, -gy) * 180 / math.Pi
			if az < 0 {
				az += 360
			}
			aspect.Set(az, r, c)
		}
	}
	return slope, aspect, nil
}

// FoldAspect reflects an aspect angle [degrees east of north] about the
// north-south axis, returning a value in [0,180]: northeast becomes
// equivalent to northwest, and east to west. NaN inputs stay NaN.
func FoldAspect(aspect float64) float64 {
	return 180 - math.Abs(aspect-180)
}

// FoldedAspect applies FoldAspect to every cell of an aspect grid.
func FoldedAspect(aspect *Grid) *Grid {
	o := newLike(aspect)
	for i, v := range aspect.Data.Elements {
		if !math.IsNaN(v) {
			o.Data.Elements[i] = FoldAspect(v)
		}
	}
	return o
}

func anyNaN(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// TerrainSet holds the per-cell terrain derivatives of one elevation
// grid. All grids share the elevation grid's shape and georeferencing.
// A TerrainSet is derived once and not mutated afterward.
type TerrainSet struct {
	Elevation    *Grid // [m]
	Slope        *Grid // [degrees from horizontal]
	Aspect       *Grid // [degrees east of north, no-data when flat]
	FoldedAspect *Grid // [degrees, [0,180]]
	Latitude     *Grid // [degrees north, from cell centers in geographic coordinates]
	HLI          *Grid // heat load index, [0,1]
}

// DeriveTerrain computes the full terrain derivative set from an
// elevation grid: slope, aspect, folded aspect, per-cell latitude, and
// the heat load index.
func DeriveTerrain(elev *Grid) (*TerrainSet, error) {
	slope, aspect, err := SlopeAspect(elev)
	if err != nil {
		return nil, err
	}
	folded := FoldedAspect(aspect)
	lat, err := LatitudeGrid(elev)
	if err != nil {
		return nil, err
	}
	hli, err := HLIGrid(slope, aspect, lat)
	if err != nil {
		return nil, err
	}
	return &TerrainSet{
		Elevation:    elev,
		Slope:        slope,
		Aspect:       aspect,
		FoldedAspect: folded,
		Latitude:     lat,
		HLI:          hli,
	}, nil
}
