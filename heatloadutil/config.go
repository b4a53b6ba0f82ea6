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

package heatloadutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/lnashier/viper"
	"github.com/spf13/cast"

	"github.com/spatialforest/heatload"
)

// NewConfig builds a pipeline configuration from a viper configuration,
// expanding environment variables in path values.
func NewConfig(cfg *viper.Viper) (heatload.Config, error) {
	resolutions, err := getFloatSlice("Resolutions", cfg)
	if err != nil {
		return heatload.Config{}, err
	}
	c := heatload.Config{
		DEM:             os.ExpandEnv(cfg.GetString("DEM")),
		DEMUnits:        cfg.GetString("DEMUnits"),
		Boundary:        os.ExpandEnv(cfg.GetString("Boundary")),
		UnitField:       cfg.GetString("UnitField"),
		Proj:            cfg.GetString("Proj"),
		Buffer:          cfg.GetFloat64("Buffer"),
		Resolutions:     resolutions,
		OutputDir:       os.ExpandEnv(cfg.GetString("OutputDir")),
		CacheFile:       os.ExpandEnv(cfg.GetString("CacheFile")),
		Overwrite:       cfg.GetBool("overwrite"),
		OutputVariables: GetStringMapString("OutputVariables", cfg),
	}
	return c, c.Valid()
}

// newPipeline builds a pipeline from a viper configuration.
func newPipeline(cfg *viper.Viper) (*heatload.Pipeline, error) {
	c, err := NewConfig(cfg)
	if err != nil {
		return nil, err
	}
	return heatload.NewPipeline(c)
}

// getFloatSlice returns a []float64 from a viper configuration,
// accounting for the fact that the values may be numbers in a
// configuration file or strings from a command-line flag.
func getFloatSlice(varName string, cfg *viper.Viper) ([]float64, error) {
	i := cfg.Get(varName)
	if i == nil {
		return nil, nil
	}
	switch v := i.(type) {
	case []float64:
		return v, nil
	case []interface{}:
		o := make([]float64, len(v))
		for j, val := range v {
			f, err := cast.ToFloat64E(val)
			if err != nil {
				return nil, fmt.Errorf("heatload: invalid value in %s: %v", varName, err)
			}
			o[j] = f
		}
		return o, nil
	default:
		ss, err := cast.ToStringSliceE(i)
		if err != nil {
			return nil, fmt.Errorf("heatload: invalid type for %s: %#v", varName, i)
		}
		o := make([]float64, len(ss))
		for j, s := range ss {
			o[j], err = strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("heatload: parsing %s value %q: %v", varName, s, err)
			}
		}
		return o, nil
	}
}

// GetStringMapString returns a map[string]string from a viper
// configuration, accounting for the fact that it might be a json object
// if it was set from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	i := cfg.Get(varName)
	switch i.(type) {
	case nil:
		return nil
	case map[string]string:
		return i.(map[string]string)
	case map[string]interface{}:
		return cast.ToStringMapString(i)
	case string:
		b := bytes.NewBuffer(([]byte)(i.(string)))
		d := json.NewDecoder(b)
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			panic(err)
		}
		return o
	default:
		panic(fmt.Errorf("invalid type for GetStringMapString variable %s: %#v", varName, i))
	}
}
