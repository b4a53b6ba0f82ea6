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

// Package heatload computes terrain-derived solar heating indices over
// a forest management site. It derives slope and aspect from a digital
// elevation model, evaluates the McCune & Keon (2002) heat load index
// per cell, aggregates the index to multiple coarser resolutions with
// quartile classification, and summarizes the terrain derivatives onto
// management-unit polygons using median zonal statistics.
package heatload

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/geom"
)

// Version gives the version number.
const Version = "1.1.0"

// feetPerMeter converts elevations recorded in feet to meters.
const feetPerMeter = 3.2808

// ElevationUnits identifies the vertical units of an input elevation
// raster. Silent unit confusion is a correctness bug in this domain, so
// the caller must state the units explicitly and the loader reports
// whether a conversion took place.
type ElevationUnits string

// Accepted elevation units.
const (
	Meters ElevationUnits = "m"
	Feet   ElevationUnits = "ft"
)

// ParseElevationUnits converts a configuration string to an
// ElevationUnits value.
func ParseElevationUnits(s string) (ElevationUnits, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "meters", "metres":
		return Meters, nil
	case "ft", "feet":
		return Feet, nil
	}
	return "", fmt.Errorf("heatload: invalid elevation units %q; options are m and ft", s)
}

// LoadElevation reads a single-band elevation raster into a Grid of
// elevations in meters. The raster must already be in the spatial
// reference given by proj4; cross-reference reprojection of rasters is
// an external responsibility. GeoTIFFs (and anything else GDAL opens)
// are read through GDAL; files ending in .asc or .asc.gz are read as
// Esri ASCII grids.
//
// If units is Feet the elevations are converted to meters and
// convertedFromFeet is true.
//
// If boundary is non-nil, the grid is cropped to the boundary's extent
// plus at least buffer distance of margin on each side. The terrain
// derivative kernel marks cells at the grid edge as no-data, so the
// buffer must be wide enough that those edge artifacts fall outside the
// area of interest; anything less than one cell size is rounded up to
// one cell size.
func LoadElevation(path string, units ElevationUnits, proj4 string, boundary geom.Polygonal, buffer float64) (g *Grid, convertedFromFeet bool, err error) {
	switch units {
	case Meters, Feet:
	default:
		return nil, false, fmt.Errorf("heatload: invalid elevation units %q", units)
	}
	if strings.HasSuffix(path, ".asc") || strings.HasSuffix(path, ".asc.gz") {
		g, err = readEsriASCIIFile(path, proj4)
	} else {
		g, err = ReadGeoTIFF(path, proj4)
	}
	if err != nil {
		return nil, false, err
	}
	if units == Feet {
		for i, v := range g.Data.Elements {
			if !math.IsNaN(v) {
				g.Data.Elements[i] = v / feetPerMeter
			}
		}
		convertedFromFeet = true
	}
	if boundary != nil {
		margin := buffer
		if min := math.Max(g.Dx, g.Dy); margin < min {
			margin = min
		}
		g, err = g.Crop(boundary.Bounds(), margin)
		if err != nil {
			return nil, convertedFromFeet, err
		}
	}
	return g, convertedFromFeet, nil
}
