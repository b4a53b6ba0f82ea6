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
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// Save writes the terrain derivative set to w in gob format so a later
// run can skip recomputation.
func (ts *TerrainSet) Save(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(ts); err != nil {
		return fmt.Errorf("heatload: TerrainSet.Save: %v", err)
	}
	return nil
}

// LoadTerrainSet reads a terrain derivative set previously written by
// Save.
func LoadTerrainSet(r io.Reader) (*TerrainSet, error) {
	ts := new(TerrainSet)
	if err := gob.NewDecoder(r).Decode(ts); err != nil {
		return nil, fmt.Errorf("heatload: LoadTerrainSet: %v", err)
	}
	for _, g := range []*Grid{ts.Elevation, ts.Slope, ts.Aspect, ts.FoldedAspect, ts.Latitude, ts.HLI} {
		if g == nil || g.Data == nil {
			return nil, fmt.Errorf("heatload: LoadTerrainSet: cached terrain set is incomplete")
		}
		// Gob only carries exported fields; rebuild the array's
		// internal bookkeeping.
		g.Data.Fix()
	}
	return ts, nil
}

// SaveFile writes the terrain derivative set to a file, and a stamp
// identifying the inputs it was computed from to path+".stamp".
func (ts *TerrainSet) SaveFile(path, stamp string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("heatload: creating terrain cache %s: %v", path, err)
	}
	if err := ts.Save(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("heatload: closing terrain cache %s: %v", path, err)
	}
	if err := os.WriteFile(path+".stamp", []byte(stamp), 0644); err != nil {
		return fmt.Errorf("heatload: writing terrain cache stamp: %v", err)
	}
	return nil
}

// LoadTerrainSetFile reads a terrain derivative set from a cache file.
// stampMatches reports whether the stamp recorded alongside the cache
// equals stamp; a mismatch (or a missing stamp file) means the cache
// was computed from different inputs. The caller decides whether to
// trust a mismatched cache: presence on disk, not content, is the cache
// key, and the stamp is advisory.
func LoadTerrainSetFile(path, stamp string) (ts *TerrainSet, stampMatches bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("heatload: opening terrain cache %s: %v", path, err)
	}
	defer f.Close()
	ts, err = LoadTerrainSet(f)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(path + ".stamp")
	if err != nil {
		return ts, false, nil
	}
	return ts, string(b) == stamp, nil
}
