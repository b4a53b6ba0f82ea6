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
	"bytes"
	"math"
	"path/filepath"
	"testing"
)

func TestTerrainSetSaveLoad(t *testing.T) {
	ts := zonalTestSet(t)
	var buf bytes.Buffer
	if err := ts.Save(&buf); err != nil {
		t.Fatal(err)
	}
	ts2, err := LoadTerrainSet(&buf)
	if err != nil {
		t.Fatal(err)
	}
	for r := 0; r < ts.HLI.Ny; r++ {
		for c := 0; c < ts.HLI.Nx; c++ {
			if absDifferent(ts2.HLI.Get(r, c), ts.HLI.Get(r, c), 0) {
				t.Errorf("HLI cell (%d,%d) changed across save/load: %g != %g",
					r, c, ts2.HLI.Get(r, c), ts.HLI.Get(r, c))
			}
			if absDifferent(ts2.Aspect.Get(r, c), ts.Aspect.Get(r, c), 0) {
				t.Errorf("aspect cell (%d,%d) changed across save/load", r, c)
			}
		}
	}
	if ts2.Elevation.Xmin != ts.Elevation.Xmin || ts2.Elevation.Dy != ts.Elevation.Dy {
		t.Error("grid georeferencing changed across save/load")
	}
	// The decoded array must be usable for writes, which requires its
	// unexported bookkeeping to have been rebuilt.
	ts2.HLI.Set(0.5, 0, 0)
	if ts2.HLI.Get(0, 0) != 0.5 {
		t.Error("decoded grid is not writable")
	}
}

func TestLoadTerrainSetIncomplete(t *testing.T) {
	ts := zonalTestSet(t)
	ts.Latitude = nil
	var buf bytes.Buffer
	if err := ts.Save(&buf); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTerrainSet(&buf); err == nil {
		t.Error("expected an error for an incomplete cached set")
	}
}

func TestTerrainSetFileStamp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "terrain.gob")
	ts := zonalTestSet(t)
	if err := ts.SaveFile(path, "stamp-a"); err != nil {
		t.Fatal(err)
	}

	ts2, ok, err := LoadTerrainSetFile(path, "stamp-a")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("matching stamp reported as mismatched")
	}
	if math.IsNaN(ts2.HLI.Get(0, 0)) {
		t.Error("cached HLI cell (0,0) should be defined")
	}

	if _, ok, err = LoadTerrainSetFile(path, "stamp-b"); err != nil {
		t.Fatal(err)
	} else if ok {
		t.Error("mismatched stamp reported as matching")
	}

	if _, _, err := LoadTerrainSetFile(filepath.Join(dir, "missing.gob"), "stamp-a"); err == nil {
		t.Error("expected an error for a missing cache file")
	}
}
