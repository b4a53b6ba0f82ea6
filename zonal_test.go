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

	"github.com/ctessum/geom"
)

// zonalTestSet builds a 2×2 terrain set in geographic coordinates near
// 40°N, 97°W with known values:
//
//	HLI    {0.1 0.2; 0.3 0.4}
//	slope  5 everywhere
//	aspect {90 180; 270 no-data}
func zonalTestSet(t *testing.T) *TerrainSet {
	t.Helper()
	mk := func() *Grid {
		g, err := NewGrid(2, 2, -97.02, 40.02, 0.01, 0.01, GeographicProj4)
		if err != nil {
			t.Fatal(err)
		}
		return g
	}
	elev := mk()
	slope := mk()
	aspect := mk()
	hli := mk()
	lat := mk()
	vals := [][]float64{{0.1, 0.2}, {0.3, 0.4}}
	aspects := [][]float64{{90, 180}, {270, math.NaN()}}
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			elev.Set(1000, r, c)
			slope.Set(5, r, c)
			hli.Set(vals[r][c], r, c)
			lat.Set(hli.CellCenter(r, c).Y, r, c)
			if !math.IsNaN(aspects[r][c]) {
				aspect.Set(aspects[r][c], r, c)
			}
		}
	}
	return &TerrainSet{
		Elevation:    elev,
		Slope:        slope,
		Aspect:       aspect,
		FoldedAspect: FoldedAspect(aspect),
		Latitude:     lat,
		HLI:          hli,
	}
}

func square(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x1, Y: y0},
		{X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0},
	}}
}

func TestSummarizeMedians(t *testing.T) {
	const tol = 1.e-9
	ts := zonalTestSet(t)
	units := []*ManagementUnit{{
		Polygonal: square(-97.03, 39.99, -96.99, 40.03),
		Name:      "unit A",
	}}
	sums, err := Summarize(ts, units)
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 1 {
		t.Fatalf("got %d summaries, want 1", len(sums))
	}
	s := sums[0]
	if s.Unit != "unit A" {
		t.Errorf("unit name: got %q", s.Unit)
	}
	if s.CellCount != 4 {
		t.Errorf("cell count: got %d, want 4", s.CellCount)
	}
	// Median of {0.1,0.2,0.3,0.4} is the mean of the middle pair.
	if absDifferent(s.HLIMed, 0.25, tol) {
		t.Errorf("HLI median: got %g, want 0.25", s.HLIMed)
	}
	if absDifferent(s.SlopeMed, 5, tol) {
		t.Errorf("slope median: got %g, want 5", s.SlopeMed)
	}
	// Flat cell excluded: median of {90,180,270} is 180.
	if absDifferent(s.AspectMed, 180, tol) {
		t.Errorf("aspect median: got %g, want 180", s.AspectMed)
	}
	// Folded aspects {90,180,90} have median 90.
	if absDifferent(s.FoldedAspectMed, 90, tol) {
		t.Errorf("folded aspect median: got %g, want 90", s.FoldedAspectMed)
	}
	if absDifferent(s.CentroidLat, 40.01, 1.e-6) {
		t.Errorf("centroid latitude: got %g, want 40.01", s.CentroidLat)
	}
	if math.IsNaN(s.HLICentroid) || s.HLICentroid < 0 || s.HLICentroid > 1 {
		t.Errorf("unit-level HLI %g is outside [0,1]", s.HLICentroid)
	}
}

func TestSummarizeEmptyUnitIsPartialRecord(t *testing.T) {
	ts := zonalTestSet(t)
	units := []*ManagementUnit{
		{Polygonal: square(-96.5, 40.5, -96.4, 40.6), Name: "empty"},
		{Polygonal: square(-97.03, 39.99, -96.99, 40.03), Name: "covered"},
	}
	sums, err := Summarize(ts, units)
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 2 {
		t.Fatalf("got %d summaries, want 2", len(sums))
	}
	empty := sums[0]
	if empty.CellCount != 0 {
		t.Errorf("empty unit covers %d cells, want 0", empty.CellCount)
	}
	if !math.IsNaN(empty.HLIMed) || !math.IsNaN(empty.SlopeMed) {
		t.Error("empty unit should have undefined statistics")
	}
	// The empty unit must not prevent the covered unit from being
	// summarized.
	if sums[1].CellCount != 4 {
		t.Errorf("covered unit: got %d cells, want 4", sums[1].CellCount)
	}
}

func TestSummarizeNoUnits(t *testing.T) {
	ts := zonalTestSet(t)
	sums, err := Summarize(ts, nil)
	if err != nil {
		t.Fatal(err)
	}
	if sums != nil {
		t.Errorf("got %v, want nil", sums)
	}
}

func TestMedian(t *testing.T) {
	cases := []struct {
		vals []float64
		want float64
	}{
		{[]float64{0.1, 0.2, 0.3, 0.4}, 0.25},
		{[]float64{3, 1, 2}, 2},
		{[]float64{7}, 7},
		{nil, math.NaN()},
	}
	for _, c := range cases {
		if have := median(c.vals); absDifferent(have, c.want, 1.e-12) {
			t.Errorf("median(%v): got %g, want %g", c.vals, have, c.want)
		}
	}
	// The input must not be reordered.
	vals := []float64{3, 1, 2}
	median(vals)
	if vals[0] != 3 || vals[1] != 1 || vals[2] != 2 {
		t.Errorf("median reordered its input: %v", vals)
	}
}
