// Copyright © 2018 DigitalGlobe
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package raster

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestDriverFromPath(t *testing.T) {
	cases := []struct {
		path   string
		driver string
	}{
		{"mosaic.tif", "GTiff"},
		{"MOSAIC.TIF", "GTiff"},
		{"preview.jpg", "JPEG"},
		{"preview.JPEG", "JPEG"},
		{"preview.png", "PNG"},
		{"dir.with.dots/raster.tif", "GTiff"},
	}
	for _, c := range cases {
		driver, err := DriverFromPath(c.path)
		if err != nil {
			t.Fatalf("failed resolving %s, err: %+v", c.path, err)
		}
		if driver != c.driver {
			t.Fatalf("resolved %s to %s, expected %s", c.path, driver, c.driver)
		}
	}

	if _, err := DriverFromPath("noextension"); err == nil {
		t.Fatal("expected an error resolving a path with no extension")
	}
}

// recordingStore captures what the library hands a storage backend.
type recordingStore struct {
	path   string
	driver string
	ds     *Dataset
	band   ByteBand
	opts   map[string]string

	err error
}

func (s *recordingStore) Load(path string) (*Dataset, error) {
	s.path = path
	return s.ds, s.err
}

func (s *recordingStore) Save(path, driver string, ds *Dataset, opts map[string]string) error {
	s.path, s.driver, s.ds, s.opts = path, driver, ds, opts
	return s.err
}

func (s *recordingStore) Export8U(path, driver string, ds *Dataset, band ByteBand, opts map[string]string) error {
	s.path, s.driver, s.ds, s.band, s.opts = path, driver, ds, band, opts
	return s.err
}

func TestExport8U(t *testing.T) {
	ds := New(2, 2, 1)
	ds.SetTransform(0, 0, 1, -1)
	ds.SetBandName(0, "red")
	ds.SetBandName(1, "nir")
	ds.Bands[1][0], ds.Bands[1][1] = 0, 10

	st := &recordingStore{}
	if err := Export8U(st, ResolverFunc(DriverFromPath), ds, 1, "preview.png", nil); err != nil {
		t.Fatalf("failed exporting, err: %+v", err)
	}

	if st.path != "preview.png" || st.driver != "PNG" {
		t.Fatalf("store got path %s driver %s", st.path, st.driver)
	}
	if !bytes.Equal(st.band.Pix, []byte{0, 255}) {
		t.Fatalf("store got pixels %v, expected [0 255]", st.band.Pix)
	}
	if st.band.Meta[NameKey] != "nir" {
		t.Fatal("exported band lost its name")
	}
	if st.band.Meta[InitialMinKey] != "0" || st.band.Meta[InitialMaxKey] != "10" {
		t.Fatalf("provenance keys hold (%q, %q), expected (\"0\", \"10\")",
			st.band.Meta[InitialMinKey], st.band.Meta[InitialMaxKey])
	}

	// The source band's metadata is copied, not aliased.
	if _, ok := ds.BandMeta[1][InitialMinKey]; ok {
		t.Fatal("export wrote provenance onto the source dataset")
	}
}

func TestExport8UBadBand(t *testing.T) {
	ds := New(1, 1, 1)
	st := &recordingStore{}
	if err := Export8U(st, ResolverFunc(DriverFromPath), ds, 3, "preview.png", nil); err == nil {
		t.Fatal("expected an error exporting a band the dataset does not hold")
	}
}

func TestExport8UResolverFailure(t *testing.T) {
	ds := New(1, 1, 1)
	st := &recordingStore{}
	if err := Export8U(st, ResolverFunc(DriverFromPath), ds, 0, "noextension", nil); err == nil {
		t.Fatal("expected the resolver failure to surface")
	}
}

func TestLoadWrapsStoreErrors(t *testing.T) {
	st := &recordingStore{err: errors.New("disk on fire")}
	_, err := Load(st, "gone.tif")
	if err == nil {
		t.Fatal("expected the store failure to surface")
	}
	if !strings.Contains(err.Error(), "gone.tif") || !strings.Contains(err.Error(), "disk on fire") {
		t.Fatalf("error %q should carry both the path and the cause", err)
	}
	if errors.Cause(err).Error() != "disk on fire" {
		t.Fatalf("cause %q lost the original failure", errors.Cause(err))
	}
}

func TestSavePinsGeoTIFF(t *testing.T) {
	ds := New(1, 1, 1)
	st := &recordingStore{}
	if err := Save(st, ds, "out.tif", DefaultCreationOptions()); err != nil {
		t.Fatalf("failed saving, err: %+v", err)
	}
	if st.driver != "GTiff" {
		t.Fatalf("save used driver %s, expected GTiff", st.driver)
	}
	if st.opts["COMPRESS"] != "DEFLATE" || st.opts["PREDICTOR"] != "1" || st.opts["ZLEVEL"] != "1" {
		t.Fatalf("save options %v missing the deflate bundle", st.opts)
	}
}
