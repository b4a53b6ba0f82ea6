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

// Package heatloadutil wires the heatload pipeline to its command-line
// interface and configuration handling.
package heatloadutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spatialforest/heatload"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to heatload.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "DEM",
			usage: `
              DEM is the path to the single-band elevation raster
              (GeoTIFF, or an Esri ASCII grid ending in .asc or
              .asc.gz). It must already be in the working projection.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), terrainCmd.Flags(), zonalCmd.Flags()},
		},
		{
			name: "DEMUnits",
			usage: `
              DEMUnits gives the vertical units of the elevation
              raster: m or ft. Elevations in feet are converted to
              meters during loading.`,
			defaultVal: "m",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), terrainCmd.Flags(), zonalCmd.Flags()},
		},
		{
			name: "Boundary",
			usage: `
              Boundary is the path to the management unit polygon
              shapefile. If empty, the elevation grid is not cropped
              and no zonal summaries are produced.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), terrainCmd.Flags(), zonalCmd.Flags()},
		},
		{
			name: "UnitField",
			usage: `
              UnitField is the attribute column in the boundary
              shapefile holding each management unit's name.`,
			defaultVal: "unit",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), zonalCmd.Flags()},
		},
		{
			name: "Proj",
			usage: `
              Proj is the working spatial reference in Proj4 format.
              Raster inputs must already be in this reference; vector
              boundaries are reprojected to it.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), terrainCmd.Flags(), zonalCmd.Flags()},
		},
		{
			name: "Buffer",
			usage: `
              Buffer is the margin, in projection units, kept around
              the boundary extent when cropping the elevation grid so
              that terrain derivative edge artifacts fall outside the
              area of interest.`,
			defaultVal: 100.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), terrainCmd.Flags(), zonalCmd.Flags()},
		},
		{
			name: "Resolutions",
			usage: `
              Resolutions lists the cell sizes, in projection units,
              that the heat load index is aggregated to. Each must be
              an integer multiple of the elevation cell size.`,
			defaultVal: []string{"10", "25", "50", "100"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir receives the per-resolution rasters
              (hli_<res>.tif and hli_qrtl_<res>.tif) and the zonal
              summary shapefile.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), zonalCmd.Flags()},
		},
		{
			name: "CacheFile",
			usage: `
              CacheFile is where the terrain derivative set is cached
              between runs. The cache is keyed by file presence only;
              an advisory stamp detects input changes but does not
              invalidate the cache.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), terrainCmd.Flags(), zonalCmd.Flags()},
		},
		{
			name: "overwrite",
			usage: `
              overwrite forces recomputation of the terrain derivative
              set even when a cache file exists.`,
			shorthand:  "f",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), terrainCmd.Flags(), zonalCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables maps additional zonal output attribute
              names to expressions over the built-in statistics, for
              example {"hli_pct": "hli_med * 100"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), zonalCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("HEATLOAD")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(terrainCmd)
	Root.AddCommand(zonalCmd)
	Root.AddCommand(configCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("heatload: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "heatload",
	Short: "A terrain heat load mapping pipeline.",
	Long: `heatload derives slope, aspect, and the McCune & Keon (2002) heat load
index from a digital elevation model, aggregates the index to multiple
resolutions with quartile classification, and summarizes the terrain
derivatives onto management-unit polygons.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'HEATLOAD_var' where 'var'
is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of heatload.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("heatload v%s\n", heatload.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline.",
	Long: `run loads the elevation raster and management units, derives the
terrain derivative set, aggregates and classifies the heat load index at every
configured resolution, computes zonal summaries, and writes all outputs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(Cfg)
		if err != nil {
			return err
		}
		return p.Run()
	},
	DisableAutoGenTag: true,
}

var terrainCmd = &cobra.Command{
	Use:   "terrain",
	Short: "Derive terrain derivatives and cache them.",
	Long: `terrain loads the elevation raster, derives slope, aspect, folded
aspect, latitude, and the heat load index, and writes the terrain cache file
without producing aggregated or zonal outputs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(Cfg)
		if err != nil {
			return err
		}
		if p.Config.CacheFile == "" {
			return fmt.Errorf("heatload: the terrain command requires a CacheFile to write to")
		}
		if err := p.LoadInputs(); err != nil {
			return err
		}
		return p.ComputeTerrain()
	},
	DisableAutoGenTag: true,
}

var zonalCmd = &cobra.Command{
	Use:   "zonal",
	Short: "Compute zonal summaries only.",
	Long: `zonal loads (or computes) the terrain derivative set, summarizes it
onto the management unit polygons, and writes the zonal summary shapefile.
Aggregated rasters are not produced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(Cfg)
		if err != nil {
			return err
		}
		if p.Config.Boundary == "" {
			return fmt.Errorf("heatload: the zonal command requires a Boundary shapefile")
		}
		if err := p.LoadInputs(); err != nil {
			return err
		}
		if err := p.ComputeTerrain(); err != nil {
			return err
		}
		if err := p.ComputeZonal(); err != nil {
			return err
		}
		return p.WriteOutputs()
	},
	DisableAutoGenTag: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write the current configuration as TOML.",
	Long: `config resolves the configuration from defaults, flags, environment
variables, and any configuration file, and writes the result to standard
output as a TOML document suitable for use with --config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := NewConfig(Cfg)
		if err != nil {
			return err
		}
		return toml.NewEncoder(os.Stdout).Encode(cfg)
	},
	DisableAutoGenTag: true,
}
