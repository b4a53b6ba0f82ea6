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
	"reflect"
	"strings"
	"testing"

	"github.com/lnashier/viper"

	"github.com/spatialforest/heatload"
)

const testProj = "+proj=lcc +lat_1=33.000000 +lat_2=45.000000 +lat_0=40.000000 +lon_0=-97.000000 +x_0=0 +y_0=0 +a=6370997.000000 +b=6370997.000000 +to_meter=1"

func TestNewConfig(t *testing.T) {
	t.Setenv("HEATLOAD_TEST_DATA", "/data/site")
	cfg := viper.New()
	cfg.Set("DEM", "${HEATLOAD_TEST_DATA}/dem.asc")
	cfg.Set("DEMUnits", "ft")
	cfg.Set("Boundary", "${HEATLOAD_TEST_DATA}/units.shp")
	cfg.Set("UnitField", "stand")
	cfg.Set("Proj", testProj)
	cfg.Set("Buffer", 250.0)
	cfg.Set("Resolutions", []interface{}{10, 25.0})
	cfg.Set("OutputDir", "out")
	cfg.Set("OutputVariables", `{"hli_pct": "hli_med * 100"}`)

	c, err := NewConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if c.DEM != "/data/site/dem.asc" {
		t.Errorf("DEM: got %q; environment variable was not expanded", c.DEM)
	}
	if c.Boundary != "/data/site/units.shp" {
		t.Errorf("Boundary: got %q", c.Boundary)
	}
	if c.DEMUnits != "ft" || c.UnitField != "stand" || c.Buffer != 250 {
		t.Errorf("unexpected configuration: %+v", c)
	}
	if !reflect.DeepEqual(c.Resolutions, []float64{10, 25}) {
		t.Errorf("Resolutions: got %v, want [10 25]", c.Resolutions)
	}
	if !reflect.DeepEqual(c.OutputVariables, map[string]string{"hli_pct": "hli_med * 100"}) {
		t.Errorf("OutputVariables: got %v", c.OutputVariables)
	}
}

func TestNewConfigInvalid(t *testing.T) {
	cfg := viper.New()
	cfg.Set("DEMUnits", "m")
	cfg.Set("Proj", testProj)
	if _, err := NewConfig(cfg); err == nil {
		t.Error("expected an error for a configuration without a DEM")
	}
}

func TestGetFloatSlice(t *testing.T) {
	cases := []struct {
		name string
		val  interface{}
		want []float64
	}{
		{"floats", []float64{1, 2.5}, []float64{1, 2.5}},
		{"mixed", []interface{}{1, "2.5"}, []float64{1, 2.5}},
		{"strings", []string{"10", "50"}, []float64{10, 50}},
		{"unset", nil, nil},
	}
	for _, c := range cases {
		cfg := viper.New()
		if c.val != nil {
			cfg.Set("Resolutions", c.val)
		}
		have, err := getFloatSlice("Resolutions", cfg)
		if err != nil {
			t.Errorf("%s: %v", c.name, err)
			continue
		}
		if !reflect.DeepEqual(have, c.want) {
			t.Errorf("%s: got %v, want %v", c.name, have, c.want)
		}
	}

	cfg := viper.New()
	cfg.Set("Resolutions", []string{"10", "fifty"})
	if _, err := getFloatSlice("Resolutions", cfg); err == nil {
		t.Error("expected an error for a non-numeric value")
	}
}

func TestGetStringMapString(t *testing.T) {
	want := map[string]string{"a": "1", "b": "2"}
	cases := []struct {
		name string
		val  interface{}
	}{
		{"map", map[string]string{"a": "1", "b": "2"}},
		{"interface map", map[string]interface{}{"a": "1", "b": "2"}},
		{"json", `{"a": "1", "b": "2"}`},
	}
	for _, c := range cases {
		cfg := viper.New()
		cfg.Set("OutputVariables", c.val)
		if have := GetStringMapString("OutputVariables", cfg); !reflect.DeepEqual(have, want) {
			t.Errorf("%s: got %v, want %v", c.name, have, want)
		}
	}
	if have := GetStringMapString("OutputVariables", viper.New()); have != nil {
		t.Errorf("unset variable: got %v, want nil", have)
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	Root.SetOut(&buf)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), heatload.Version) {
		t.Errorf("version output %q does not contain %q", buf.String(), heatload.Version)
	}
}
