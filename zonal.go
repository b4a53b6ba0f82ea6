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
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
)

// ManagementUnit is one vector polygon over which terrain statistics
// are summarized.
type ManagementUnit struct {
	geom.Polygonal
	Name string
}

// ZonalSummary holds the zonal statistics of one management unit:
// the median of each full-resolution terrain derivative over the cells
// whose centers fall within the unit, plus the latitude of the unit's
// centroid in geographic coordinates. The median is used rather than
// the mean to resist outlier cells at unit edges.
//
// A unit that covers no defined cells has CellCount 0 and NaN
// statistics; that is a valid partial record, not a failure.
type ZonalSummary struct {
	Unit      string
	CellCount int

	SlopeMed        float64 // [degrees]
	AspectMed       float64 // [degrees east of north]
	FoldedAspectMed float64 // [degrees]
	HLIMed          float64 // [0,1]

	CentroidLat float64 // [degrees north]

	// HLICentroid is the heat load index recomputed at the unit level
	// from the median slope, median folded aspect, and centroid
	// latitude.
	HLICentroid float64
}

// zonalCell is a grid-cell center carried in the spatial index during a
// zonal pass.
type zonalCell struct {
	geom.Point
	row, col int
}

// Summarize produces one ZonalSummary per management unit from the
// full-resolution terrain derivative set. Units are processed
// independently: a unit whose centroid cannot be transformed to
// geographic coordinates, or that overlaps no cells, yields a partial
// record without aborting the pass over the other units.
func Summarize(ts *TerrainSet, units []*ManagementUnit) ([]*ZonalSummary, error) {
	if len(units) == 0 {
		return nil, nil
	}
	sr, err := ts.Elevation.SR()
	if err != nil {
		return nil, err
	}
	geoSR, err := proj.Parse(GeographicProj4)
	if err != nil {
		return nil, fmt.Errorf("heatload: parsing geographic projection: %v", err)
	}
	ct, err := sr.NewTransform(geoSR)
	if err != nil {
		return nil, fmt.Errorf("heatload: creating transform to geographic coordinates: %v", err)
	}

	index := rtree.NewTree(25, 50)
	unitIndices := make(map[*ManagementUnit]int, len(units))
	for i, u := range units {
		index.Insert(u)
		unitIndices[u] = i
	}

	type accum struct {
		slope, aspect, folded, hli []float64
	}
	accums := make([]accum, len(units))

	g := ts.HLI
	for r := 0; r < g.Ny; r++ {
		for c := 0; c < g.Nx; c++ {
			if g.IsNoData(r, c) {
				continue
			}
			p := g.CellCenter(r, c)
			for _, uI := range index.SearchIntersect(p.Bounds()) {
				u := uI.(*ManagementUnit)
				if p.Within(u.Polygonal) == geom.Outside {
					continue
				}
				a := &accums[unitIndices[u]]
				a.hli = append(a.hli, g.Get(r, c))
				if v := ts.Slope.Get(r, c); !math.IsNaN(v) {
					a.slope = append(a.slope, v)
				}
				if v := ts.Aspect.Get(r, c); !math.IsNaN(v) {
					a.aspect = append(a.aspect, v)
				}
				if v := ts.FoldedAspect.Get(r, c); !math.IsNaN(v) {
					a.folded = append(a.folded, v)
				}
			}
		}
	}

	sums := make([]*ZonalSummary, len(units))
	for i, u := range units {
		a := accums[i]
		s := &ZonalSummary{
			Unit:            u.Name,
			CellCount:       len(a.hli),
			SlopeMed:        median(a.slope),
			AspectMed:       median(a.aspect),
			FoldedAspectMed: median(a.folded),
			HLIMed:          median(a.hli),
			CentroidLat:     math.NaN(),
			HLICentroid:     math.NaN(),
		}
		cent, err := u.Centroid().Transform(ct)
		if err == nil {
			s.CentroidLat = cent.(geom.Point).Y
			if !math.IsNaN(s.SlopeMed) && !math.IsNaN(s.FoldedAspectMed) {
				s.HLICentroid = hliFolded(s.SlopeMed, s.FoldedAspectMed, s.CentroidLat)
			}
		}
		sums[i] = s
	}
	return sums, nil
}

// median returns the median of vals, or NaN if vals is empty. For an
// even count it averages the two middle values.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
