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

	"gonum.org/v1/gonum/stat"
)

// ClassLabels are the names of the four heat load classes in
// increasing-index order.
var ClassLabels = [4]string{"Coolest", "Med. Cool", "Med. Warm", "Warmest"}

// QuartileCuts holds the quantile cut points of one grid's value
// distribution. Cut points are specific to the grid they were computed
// from; different aggregation resolutions have different distributions,
// so cuts must never be reused across resolutions.
type QuartileCuts struct {
	P25, P50, P75 float64
}

// Quartiles computes the 25th, 50th, and 75th percentile values over
// all defined cells of g. It is an error for g to have no defined
// cells.
func Quartiles(g *Grid) (QuartileCuts, error) {
	vals := g.definedValues()
	if len(vals) == 0 {
		return QuartileCuts{}, fmt.Errorf("heatload: cannot compute quartiles of a grid with no defined cells")
	}
	sort.Float64s(vals)
	return QuartileCuts{
		P25: stat.Quantile(0.25, stat.Empirical, vals, nil),
		P50: stat.Quantile(0.5, stat.Empirical, vals, nil),
		P75: stat.Quantile(0.75, stat.Empirical, vals, nil),
	}, nil
}

// Class assigns a value to one of the four ordinal classes 1–4 given
// the cut points: class 1 is (-∞, P25], class 2 (P25, P50], class 3
// (P50, P75], and class 4 (P75, ∞). NaN maps to 0 (no class).
func (q QuartileCuts) Class(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v <= q.P25:
		return 1
	case v <= q.P50:
		return 2
	case v <= q.P75:
		return 3
	default:
		return 4
	}
}

// Classify partitions the cells of g into the four classes defined by
// cuts, returning a grid of class numbers 1–4. No-data cells stay
// no-data. Classification with fixed cuts is idempotent over the source
// values: reapplying the same cuts to the same values always yields the
// same classes.
func Classify(g *Grid, cuts QuartileCuts) *Grid {
	o := newLike(g)
	for i, v := range g.Data.Elements {
		if cl := cuts.Class(v); cl != 0 {
			o.Data.Elements[i] = float64(cl)
		}
	}
	return o
}
