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
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"
)

var registerGDAL sync.Once

// ReadGeoTIFF reads band 1 of a GeoTIFF (or any other raster format the
// installed GDAL drivers can open) into a Grid. proj4 specifies the
// raster's spatial reference; reprojection is not performed here, so
// the file must already be in that reference. Cells equal to the file's
// no-data value become no-data.
func ReadGeoTIFF(path, proj4 string) (*Grid, error) {
	registerGDAL.Do(godal.RegisterAll)
	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("heatload: opening raster %s: %v", path, err)
	}
	defer ds.Close()

	st := ds.Structure()
	if st.NBands < 1 {
		return nil, fmt.Errorf("heatload: raster %s has no bands", path)
	}
	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("heatload: reading geotransform of %s: %v", path, err)
	}
	if gt[2] != 0 || gt[4] != 0 {
		return nil, fmt.Errorf("heatload: raster %s has a rotated geotransform, which is not supported", path)
	}
	if gt[5] >= 0 {
		return nil, fmt.Errorf("heatload: raster %s is not north-up", path)
	}
	g, err := NewGrid(st.SizeX, st.SizeY, gt[0], gt[3], gt[1], -gt[5], proj4)
	if err != nil {
		return nil, fmt.Errorf("heatload: raster %s: %v", path, err)
	}

	band := ds.Bands()[0]
	if err := band.Read(0, 0, g.Data.Elements, st.SizeX, st.SizeY); err != nil {
		return nil, fmt.Errorf("heatload: reading band 1 of %s: %v", path, err)
	}
	if nodata, ok := band.NoData(); ok {
		for i, v := range g.Data.Elements {
			if v == nodata {
				g.Data.Elements[i] = math.NaN()
			}
		}
	}
	return g, nil
}

// WriteGeoTIFF writes g to path as a single-band float64 GeoTIFF.
// No-data cells are written as the NoData constant, which is recorded
// as the band's no-data value.
func WriteGeoTIFF(g *Grid, path string) error {
	registerGDAL.Do(godal.RegisterAll)
	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float64, g.Nx, g.Ny)
	if err != nil {
		return fmt.Errorf("heatload: creating raster %s: %v", path, err)
	}
	if err := ds.SetGeoTransform([6]float64{g.Xmin, g.Dx, 0, g.Ymax, 0, -g.Dy}); err != nil {
		ds.Close()
		return fmt.Errorf("heatload: setting geotransform of %s: %v", path, err)
	}
	sr, err := godal.NewSpatialRefFromProj4(g.Proj4)
	if err != nil {
		ds.Close()
		return fmt.Errorf("heatload: parsing projection %q for %s: %v", g.Proj4, path, err)
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		ds.Close()
		return fmt.Errorf("heatload: setting projection of %s: %v", path, err)
	}

	band := ds.Bands()[0]
	if err := band.SetNoData(NoData); err != nil {
		ds.Close()
		return fmt.Errorf("heatload: setting no-data value of %s: %v", path, err)
	}
	data := make([]float64, len(g.Data.Elements))
	for i, v := range g.Data.Elements {
		if math.IsNaN(v) {
			data[i] = NoData
		} else {
			data[i] = v
		}
	}
	if err := band.Write(0, 0, data, g.Nx, g.Ny); err != nil {
		ds.Close()
		return fmt.Errorf("heatload: writing band 1 of %s: %v", path, err)
	}
	if err := ds.Close(); err != nil {
		return fmt.Errorf("heatload: closing raster %s: %v", path, err)
	}
	return nil
}

// ReadEsriASCII reads an Esri ASCII grid into a Grid with the given
// spatial reference. The format carries no projection information of
// its own, so proj4 must be supplied by the caller.
func ReadEsriASCII(r io.Reader, proj4 string) (*Grid, error) {
	var (
		ncols, nrows                   int
		xll, yll, cellsize, nodata     float64
		haveNodata, haveCols, haveRows bool
		haveX, haveY, haveCell         bool
		xIsCenter, yIsCenter           bool
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var g *Grid
	row := 0
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if g == nil {
			key := strings.ToUpper(fields[0])
			switch key {
			case "NCOLS", "NROWS", "XLLCORNER", "XLLCENTER", "YLLCORNER", "YLLCENTER", "CELLSIZE", "NODATA_VALUE":
				if len(fields) != 2 {
					return nil, fmt.Errorf("heatload: malformed Esri ASCII header line %q", scanner.Text())
				}
				v, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return nil, fmt.Errorf("heatload: parsing Esri ASCII header %s: %v", key, err)
				}
				switch key {
				case "NCOLS":
					ncols, haveCols = int(v), true
				case "NROWS":
					nrows, haveRows = int(v), true
				case "XLLCORNER", "XLLCENTER":
					xll, haveX, xIsCenter = v, true, key == "XLLCENTER"
				case "YLLCORNER", "YLLCENTER":
					yll, haveY, yIsCenter = v, true, key == "YLLCENTER"
				case "CELLSIZE":
					cellsize, haveCell = v, true
				case "NODATA_VALUE":
					nodata, haveNodata = v, true
				}
				continue
			}
			// First data line.
			if !(haveCols && haveRows && haveX && haveY && haveCell) {
				return nil, fmt.Errorf("heatload: Esri ASCII grid is missing mandatory headers")
			}
			if xIsCenter {
				xll -= cellsize / 2
			}
			if yIsCenter {
				yll -= cellsize / 2
			}
			var err error
			g, err = NewGrid(ncols, nrows, xll, yll+float64(nrows)*cellsize, cellsize, cellsize, proj4)
			if err != nil {
				return nil, err
			}
		}
		if row >= nrows {
			break
		}
		if len(fields) != ncols {
			return nil, fmt.Errorf("heatload: Esri ASCII row %d has %d values, want %d", row, len(fields), ncols)
		}
		for c, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("heatload: parsing Esri ASCII value at row %d col %d: %v", row, c, err)
			}
			if haveNodata && v == nodata {
				continue // stays NaN
			}
			g.Set(v, row, c)
		}
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("heatload: reading Esri ASCII grid: %v", err)
	}
	if g == nil || row < nrows {
		return nil, fmt.Errorf("heatload: Esri ASCII grid is truncated")
	}
	return g, nil
}

// readEsriASCIIFile reads a plain or gzip-compressed Esri ASCII grid
// file.
func readEsriASCIIFile(path, proj4 string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("heatload: opening raster %s: %v", path, err)
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("heatload: opening raster %s: %v", path, err)
		}
		defer gz.Close()
		r = gz
	}
	return ReadEsriASCII(r, proj4)
}
