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
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	goshp "github.com/jonas-p/go-shp"
)

// ReadManagementUnits reads polygon boundaries from a shapefile and
// reprojects them to the spatial reference given by proj4. nameField is
// the attribute column holding each unit's identifier.
func ReadManagementUnits(path, nameField, proj4 string) ([]*ManagementUnit, error) {
	fname := strings.TrimSuffix(path, filepath.Ext(path))
	d, err := shp.NewDecoder(fname + ".shp")
	if err != nil {
		return nil, fmt.Errorf("heatload: opening management unit shapefile %s: %v", path, err)
	}
	defer d.Close()
	unitSR, err := d.SR()
	if err != nil {
		return nil, fmt.Errorf("heatload: reading projection of management unit shapefile %s: %v", path, err)
	}
	gridSR, err := proj.Parse(proj4)
	if err != nil {
		return nil, fmt.Errorf("heatload: parsing grid projection %q: %v", proj4, err)
	}
	trans, err := unitSR.NewTransform(gridSR)
	if err != nil {
		return nil, fmt.Errorf("heatload: creating reprojector for management unit shapefile %s: %v", path, err)
	}
	var units []*ManagementUnit
	for {
		g, fields, more := d.DecodeRowFields(nameField)
		if !more {
			break
		}
		name, ok := fields[nameField]
		if !ok {
			return nil, fmt.Errorf("heatload: management unit shapefile %s is missing attribute column %s", path, nameField)
		}
		gg, err := g.Transform(trans)
		if err != nil {
			return nil, fmt.Errorf("heatload: reprojecting management unit %v in %s: %v", name, path, err)
		}
		poly, ok := gg.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("heatload: management unit %v in %s is not a polygon", name, path)
		}
		units = append(units, &ManagementUnit{
			Polygonal: poly,
			Name:      strings.TrimSpace(fmt.Sprintf("%v", name)),
		})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("heatload: reading management unit shapefile %s: %v", path, err)
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("heatload: management unit shapefile %s contains no polygons", path)
	}
	return units, nil
}

// Built-in zonal summary attribute names, usable as variables in
// user-defined output expressions.
var zonalFieldNames = []string{"slope_med", "aspect_med", "fold_med", "hli_med", "cent_lat", "hli_cent"}

func (s *ZonalSummary) fieldValues() map[string]float64 {
	return map[string]float64{
		"slope_med":  s.SlopeMed,
		"aspect_med": s.AspectMed,
		"fold_med":   s.FoldedAspectMed,
		"hli_med":    s.HLIMed,
		"cent_lat":   s.CentroidLat,
		"hli_cent":   s.HLICentroid,
	}
}

// outputFunctions are the functions available in user-defined output
// expressions.
var outputFunctions = map[string]govaluate.ExpressionFunction{
	"exp": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("heatload: got %d arguments for function 'exp', but need 1", len(arg))
		}
		return math.Exp(arg[0].(float64)), nil
	},
	"clamp01": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("heatload: got %d arguments for function 'clamp01', but need 1", len(arg))
		}
		return math.Min(math.Max(arg[0].(float64), 0), 1), nil
	},
}

// checkFieldNames checks that user-defined output field names fit DBF
// attribute naming rules: at most 10 characters, starting with a
// letter, containing only letters, digits, and underscores.
func checkFieldNames(o map[string]string) error {
	for key := range o {
		long := len(key) > 10
		okChars, err := regexp.MatchString(`^[A-Za-z]\w*$`, key)
		if err != nil {
			panic(err)
		}
		if long && !okChars {
			return fieldNameError(key, "exceeds 10 characters and includes unsupported character(s)")
		} else if long {
			return fieldNameError(key, "exceeds 10 characters")
		} else if !okChars {
			return fieldNameError(key, "includes unsupported characters")
		}
	}
	return nil
}

func fieldNameError(key, msg string) error {
	return fmt.Errorf("heatload: output field name '%s' %s", key, msg)
}

// WriteZonalShapefile writes one record per management unit carrying
// the unit geometry, its name, and its zonal summary statistics.
// extra maps additional attribute names to expressions over the
// built-in statistics (for example "hli_pct": "hli_med * 100"); each is
// evaluated per record and appended as a float attribute. Missing
// statistics are written as the NoData constant.
func WriteZonalShapefile(path string, units []*ManagementUnit, sums []*ZonalSummary, proj4 string, extra map[string]string) error {
	if len(units) != len(sums) {
		return fmt.Errorf("heatload: have %d management units but %d zonal summaries", len(units), len(sums))
	}
	if err := checkFieldNames(extra); err != nil {
		return err
	}
	extraNames := make([]string, 0, len(extra))
	for name := range extra {
		extraNames = append(extraNames, name)
	}
	sort.Strings(extraNames)
	extraExprs := make([]*govaluate.EvaluableExpression, len(extraNames))
	for i, name := range extraNames {
		expr, err := govaluate.NewEvaluableExpressionWithFunctions(extra[name], outputFunctions)
		if err != nil {
			return fmt.Errorf("heatload: parsing output expression for field %s: %v", name, err)
		}
		extraExprs[i] = expr
	}

	fields := []goshp.Field{
		goshp.StringField("unit", 32),
		goshp.NumberField("ncells", 10),
	}
	for _, name := range zonalFieldNames {
		fields = append(fields, goshp.FloatField(name, 14, 6))
	}
	for _, name := range extraNames {
		fields = append(fields, goshp.FloatField(name, 14, 6))
	}

	fileBase := strings.TrimSuffix(path, filepath.Ext(path))
	e, err := shp.NewEncoderFromFields(fileBase+".shp", goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("heatload: creating zonal summary shapefile %s: %v", path, err)
	}
	for i, u := range units {
		s := sums[i]
		vals := s.fieldValues()
		row := make([]interface{}, 0, len(fields))
		row = append(row, s.Unit, s.CellCount)
		for _, name := range zonalFieldNames {
			row = append(row, noDataIfNaN(vals[name]))
		}
		if len(extraExprs) > 0 {
			params := make(map[string]interface{}, len(vals)+1)
			for k, v := range vals {
				params[k] = v
			}
			params["ncells"] = float64(s.CellCount)
			for j, expr := range extraExprs {
				result, err := expr.Evaluate(params)
				if err != nil {
					return fmt.Errorf("heatload: evaluating output expression for field %s on unit %s: %v", extraNames[j], s.Unit, err)
				}
				v, ok := result.(float64)
				if !ok {
					return fmt.Errorf("heatload: output expression for field %s does not evaluate to a number", extraNames[j])
				}
				row = append(row, noDataIfNaN(v))
			}
		}
		if err := e.EncodeFields(u.Polygonal, row...); err != nil {
			return fmt.Errorf("heatload: writing zonal summary record for unit %s: %v", s.Unit, err)
		}
	}
	e.Close()

	f, err := os.Create(fileBase + ".prj")
	if err != nil {
		return fmt.Errorf("heatload: creating projection file for %s: %v", path, err)
	}
	fmt.Fprint(f, proj4)
	return f.Close()
}

func noDataIfNaN(v float64) float64 {
	if math.IsNaN(v) {
		return NoData
	}
	return v
}
