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
	"os"
	"path/filepath"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/spatialforest/heatload/internal/hash"
)

// Config holds the settings for one pipeline run.
type Config struct {
	// DEM is the path to the single-band elevation raster.
	DEM string

	// DEMUnits gives the vertical units of the elevation raster,
	// "m" or "ft".
	DEMUnits string

	// Boundary is the path to the management unit polygon shapefile.
	// If empty, no cropping or zonal summarization is performed.
	Boundary string

	// UnitField is the attribute column in the boundary shapefile
	// holding each unit's name.
	UnitField string

	// Proj is the working spatial reference in Proj4 format. Inputs
	// must already be in this reference (vector boundaries are
	// reprojected to it; rasters are not).
	Proj string

	// Buffer is the margin [projection units] kept around the boundary
	// extent when cropping the elevation grid, so that edge artifacts
	// in the terrain derivatives fall outside the area of interest.
	Buffer float64

	// Resolutions lists the cell sizes [projection units] the heat
	// load index is aggregated to. Each must be an integer multiple of
	// the elevation grid's cell size.
	Resolutions []float64

	// OutputDir receives the per-resolution raster outputs and the
	// zonal summary shapefile.
	OutputDir string

	// CacheFile, if nonempty, is where the terrain derivative set is
	// cached between runs. The cache is keyed by presence on disk;
	// Overwrite forces recomputation. A stamp recorded alongside the
	// cache detects, but does not enforce, input changes.
	CacheFile string
	Overwrite bool

	// OutputVariables maps additional zonal output attribute names to
	// expressions over the built-in statistics.
	OutputVariables map[string]string
}

// Valid checks the configuration for errors that would make the run
// impossible.
func (c *Config) Valid() error {
	if c.DEM == "" {
		return fmt.Errorf("heatload: no elevation raster specified")
	}
	if c.Proj == "" {
		return fmt.Errorf("heatload: no working projection specified")
	}
	if _, err := ParseElevationUnits(c.DEMUnits); err != nil {
		return err
	}
	if c.Buffer < 0 {
		return fmt.Errorf("heatload: negative buffer distance %g", c.Buffer)
	}
	for _, res := range c.Resolutions {
		if res <= 0 {
			return fmt.Errorf("heatload: non-positive aggregation resolution %g", res)
		}
	}
	return nil
}

// ResolutionVariant pairs an aggregation cell size with the aggregated
// heat load grid, its quartile cut points, and the classified grid.
// Variants are computed independently; a failed variant records its
// error without affecting the others.
type ResolutionVariant struct {
	CellSize float64
	HLI      *Grid
	Cuts     QuartileCuts
	Classes  *Grid
	Err      error
}

// Pipeline runs the heat load analysis: elevation loading, terrain
// derivatives, multi-resolution aggregation with quartile
// classification, and zonal summarization onto management units.
type Pipeline struct {
	Config Config

	// ConvertedFromFeet reports whether the elevation values were
	// converted from feet during loading.
	ConvertedFromFeet bool

	Terrain   *TerrainSet
	Units     []*ManagementUnit
	Variants  []*ResolutionVariant
	Summaries []*ZonalSummary
}

// NewPipeline prepares a pipeline for the given configuration.
func NewPipeline(c Config) (*Pipeline, error) {
	if err := c.Valid(); err != nil {
		return nil, err
	}
	return &Pipeline{Config: c}, nil
}

// inputStamp identifies the inputs the terrain derivative set depends
// on, for cache staleness detection.
func (p *Pipeline) inputStamp() string {
	return hash.Hash(struct {
		DEM, DEMUnits, Proj string
		Buffer              float64
	}{p.Config.DEM, p.Config.DEMUnits, p.Config.Proj, p.Config.Buffer})
}

// unitExtent returns the combined geometry of the management units, or
// nil if none are loaded.
func (p *Pipeline) unitExtent() geom.Polygonal {
	if len(p.Units) == 0 {
		return nil
	}
	var mp geom.MultiPolygon
	for _, u := range p.Units {
		mp = append(mp, u.Polygons()...)
	}
	return mp
}

// LoadInputs reads the management unit boundaries (if configured) and
// the elevation raster, cropping the raster to the buffered boundary
// extent.
func (p *Pipeline) LoadInputs() error {
	c := &p.Config
	if c.Boundary != "" {
		units, err := ReadManagementUnits(c.Boundary, c.UnitField, c.Proj)
		if err != nil {
			return err
		}
		p.Units = units
		logrus.WithFields(logrus.Fields{
			"file":  c.Boundary,
			"units": len(units),
		}).Info("loaded management units")
	}
	return nil
}

// ComputeTerrain produces the terrain derivative set, either from the
// cache file or by deriving it from the elevation raster. Cache use is
// governed solely by file presence and the Overwrite switch; a stale
// stamp only logs a warning.
func (p *Pipeline) ComputeTerrain() error {
	c := &p.Config
	if c.CacheFile != "" && !c.Overwrite {
		if _, err := os.Stat(c.CacheFile); err == nil {
			ts, fresh, err := LoadTerrainSetFile(c.CacheFile, p.inputStamp())
			if err == nil {
				if !fresh {
					logrus.WithField("cache", c.CacheFile).Warn(
						"terrain cache stamp does not match current inputs; using it anyway (set Overwrite to recompute)")
				}
				logrus.WithField("cache", c.CacheFile).Info("loaded cached terrain derivatives")
				p.Terrain = ts
				return nil
			}
			logrus.WithError(err).Warn("terrain cache is unreadable; recomputing")
		}
	}

	units, _ := ParseElevationUnits(c.DEMUnits) // Valid() already checked.
	elev, converted, err := LoadElevation(c.DEM, units, c.Proj, p.unitExtent(), c.Buffer)
	if err != nil {
		return err
	}
	p.ConvertedFromFeet = converted
	logrus.WithFields(logrus.Fields{
		"file":           c.DEM,
		"nx":             elev.Nx,
		"ny":             elev.Ny,
		"converted_feet": converted,
	}).Info("loaded elevation")

	ts, err := DeriveTerrain(elev)
	if err != nil {
		return err
	}
	p.Terrain = ts
	logrus.Info("derived slope, aspect, and heat load index")

	if c.CacheFile != "" {
		if err := ts.SaveFile(c.CacheFile, p.inputStamp()); err != nil {
			return err
		}
		logrus.WithField("cache", c.CacheFile).Info("saved terrain derivatives")
	}
	return nil
}

// ComputeVariants aggregates the heat load grid to each configured
// resolution and classifies it into quartiles. Quartile cut points are
// recomputed for every resolution. Failures are recorded per variant.
func (p *Pipeline) ComputeVariants() {
	p.Variants = make([]*ResolutionVariant, len(p.Config.Resolutions))
	for i, res := range p.Config.Resolutions {
		v := &ResolutionVariant{CellSize: res}
		p.Variants[i] = v
		v.HLI, v.Err = Aggregate(p.Terrain.HLI, res)
		if v.Err == nil {
			v.Cuts, v.Err = Quartiles(v.HLI)
		}
		if v.Err == nil {
			v.Classes = Classify(v.HLI, v.Cuts)
			logrus.WithFields(logrus.Fields{
				"resolution": res,
				"p25":        v.Cuts.P25,
				"p50":        v.Cuts.P50,
				"p75":        v.Cuts.P75,
			}).Info("aggregated and classified heat load")
			continue
		}
		logrus.WithError(v.Err).WithField("resolution", res).
			Error("skipping resolution")
	}
}

// ComputeZonal summarizes the full-resolution terrain derivatives onto
// the management units.
func (p *Pipeline) ComputeZonal() error {
	if len(p.Units) == 0 {
		return nil
	}
	sums, err := Summarize(p.Terrain, p.Units)
	if err != nil {
		return err
	}
	p.Summaries = sums
	for _, s := range sums {
		if s.CellCount == 0 {
			logrus.WithField("unit", s.Unit).Warn("management unit covers no defined cells")
		}
	}
	logrus.WithField("units", len(sums)).Info("computed zonal summaries")
	return nil
}

// WriteOutputs writes the per-resolution continuous and classified
// rasters (hli_<res>.tif and hli_qrtl_<res>.tif) and the zonal summary
// shapefile to the output directory. Raster writes for different
// resolutions are independent and run concurrently; the first write
// error is returned after all writes have been attempted.
func (p *Pipeline) WriteOutputs() error {
	dir := p.Config.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("heatload: creating output directory %s: %v", dir, err)
	}
	var eg errgroup.Group
	for _, v := range p.Variants {
		if v.Err != nil {
			continue
		}
		v := v
		eg.Go(func() error {
			return WriteGeoTIFF(v.HLI, filepath.Join(dir, fmt.Sprintf("hli_%v.tif", v.CellSize)))
		})
		eg.Go(func() error {
			return WriteGeoTIFF(v.Classes, filepath.Join(dir, fmt.Sprintf("hli_qrtl_%v.tif", v.CellSize)))
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	if len(p.Summaries) > 0 {
		out := filepath.Join(dir, "zonal_summary.shp")
		if err := WriteZonalShapefile(out, p.Units, p.Summaries, p.Config.Proj, p.Config.OutputVariables); err != nil {
			return err
		}
		logrus.WithField("file", out).Info("wrote zonal summaries")
	}
	return nil
}

// Run executes the full pipeline.
func (p *Pipeline) Run() error {
	if err := p.LoadInputs(); err != nil {
		return err
	}
	if err := p.ComputeTerrain(); err != nil {
		return err
	}
	p.ComputeVariants()
	if err := p.ComputeZonal(); err != nil {
		return err
	}
	return p.WriteOutputs()
}
