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
)

// GeographicProj4 is the geographic spatial reference used for
// extracting latitudes from projected coordinates.
const GeographicProj4 = "+proj=longlat +datum=WGS84 +no_defs"

// Empirical coefficients of the heat load index regression
// (McCune & Keon 2002, eq. 2). Not configurable.
const (
	hliIntercept    = -1.236
	hliCosLatSlope  = 1.350
	hliFoldSinSinW  = -1.376
	hliSinLatSlope  = -0.331
	hliFoldSinSlope = 0.375
)

const degToRad = math.Pi / 180

// HLICell evaluates the heat load index for a single cell from its
// slope [degrees], aspect [degrees east of north], and latitude
// [degrees north]. The result is clamped to [0,1]; the regression can
// overshoot that interval for extreme slope and latitude combinations,
// and clamping is the intended behavior, not an error.
//
// A flat cell has no aspect, but its index is still defined: every term
// involving the aspect also carries sin(slope)=0, so the aspect drops
// out. An undefined slope or latitude makes the result no-data.
func HLICell(slopeDeg, aspectDeg, latDeg float64) float64 {
	if math.IsNaN(slopeDeg) || math.IsNaN(latDeg) {
		return math.NaN()
	}
	folded := FoldAspect(aspectDeg)
	if math.IsNaN(folded) {
		if slopeDeg != 0 {
			return math.NaN()
		}
		folded = 0 // flat cell: aspect terms vanish
	}
	return hliFolded(slopeDeg, folded, latDeg)
}

// hliFolded evaluates the regression from an already-folded aspect.
func hliFolded(slopeDeg, foldedDeg, latDeg float64) float64 {
	slope := slopeDeg * degToRad
	folded := foldedDeg * degToRad
	lat := latDeg * degToRad
	raw := math.Exp(hliIntercept +
		hliCosLatSlope*math.Cos(lat)*math.Cos(slope) +
		hliFoldSinSinW*math.Cos(folded)*math.Sin(slope)*math.Sin(lat) +
		hliSinLatSlope*math.Sin(lat)*math.Sin(slope) +
		hliFoldSinSlope*math.Sin(folded)*math.Sin(slope))
	return math.Min(math.Max(raw, 0), 1)
}

// LatitudeGrid returns a grid whose cell values are the latitudes
// [degrees north] of g's cell centers, obtained by transforming each
// center to geographic coordinates.
func LatitudeGrid(g *Grid) (*Grid, error) {
	sr, err := g.SR()
	if err != nil {
		return nil, err
	}
	geoSR, err := proj.Parse(GeographicProj4)
	if err != nil {
		return nil, fmt.Errorf("heatload: parsing geographic projection: %v", err)
	}
	ct, err := sr.NewTransform(geoSR)
	if err != nil {
		return nil, fmt.Errorf("heatload: creating transform to geographic coordinates from %q: %v", g.Proj4, err)
	}
	o := newLike(g)
	for r := 0; r < g.Ny; r++ {
		for c := 0; c < g.Nx; c++ {
			p, err := g.CellCenter(r, c).Transform(ct)
			if err != nil {
				return nil, fmt.Errorf("heatload: transforming cell (%d,%d) center to geographic coordinates: %v", r, c, err)
			}
			o.Set(p.(geom.Point).Y, r, c)
		}
	}
	return o, nil
}

// HLIGrid evaluates the heat load index for every cell of aligned
// slope, aspect, and latitude grids. The result is in [0,1] everywhere
// it is defined; cells that are no-data in slope or latitude stay
// no-data.
func HLIGrid(slope, aspect, lat *Grid) (*Grid, error) {
	if !slope.alignedWith(aspect) || !slope.alignedWith(lat) {
		return nil, fmt.Errorf("heatload: slope, aspect, and latitude grids are not aligned")
	}
	o := newLike(slope)
	for i := range slope.Data.Elements {
		o.Data.Elements[i] = HLICell(slope.Data.Elements[i],
			aspect.Data.Elements[i], lat.Data.Elements[i])
	}
	return o, nil
}
