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
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Store is what this package needs from a storage backend to move
// datasets in and out of files.  Implementations own driver discovery,
// spatial reference construction, and any temporary files; their
// errors surface unchanged aside from added context.
type Store interface {
	// Load reads the raster at path into a Dataset.
	Load(path string) (*Dataset, error)

	// Save writes ds to path with the named driver.  opts are driver
	// creation options; DefaultCreationOptions gives the usual deflate
	// bundle.
	Save(path, driver string, ds *Dataset, opts map[string]string) error

	// Export8U writes a single byte band to path with the named driver,
	// carrying ds's georeferencing and dataset metadata.
	Export8U(path, driver string, ds *Dataset, band ByteBand, opts map[string]string) error
}

// FormatResolver picks the storage driver for a path.
type FormatResolver interface {
	Resolve(path string) (string, error)
}

// ResolverFunc adapts a function to the FormatResolver interface.
type ResolverFunc func(path string) (string, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(path string) (string, error) { return f(path) }

// DriverFromPath resolves a driver from path's extension: the
// uppercased extension, with JPG mapped to JPEG and TIF to GTiff.
func DriverFromPath(path string) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", errors.Errorf("no extension on %q to resolve a driver from", path)
	}
	switch driver := strings.ToUpper(ext); driver {
	case "JPG":
		return "JPEG", nil
	case "TIF":
		return "GTiff", nil
	default:
		return driver, nil
	}
}

// DefaultCreationOptions returns the creation options handed to stores
// when the caller has no opinion: deflate compression, no predictor,
// fastest zlib setting.
func DefaultCreationOptions() map[string]string {
	return map[string]string{
		"COMPRESS":  "DEFLATE",
		"PREDICTOR": "1",
		"ZLEVEL":    "1",
	}
}

// ByteBand is an 8 bit rendering of a float band along with the
// metadata describing where it came from.
type ByteBand struct {
	Pix  []byte
	Meta Metadata
}

// Load reads the raster at path via st.
func Load(st Store, path string) (*Dataset, error) {
	ds, err := st.Load(path)
	return ds, errors.Wrapf(err, "failed loading raster at %s", path)
}

// Save writes ds to path as a Float32 GeoTIFF via st.
func Save(st Store, ds *Dataset, path string, opts map[string]string) error {
	return errors.Wrapf(st.Save(path, "GTiff", ds, opts), "failed saving raster to %s", path)
}

// Export8U quantizes band i of ds onto [0, 255] and writes it to path
// via st, with the driver picked by res from the path.  The byte band
// keeps the source band's metadata and records the quantized range
// under INITIAL_MIN and INITIAL_MAX so a consumer can roughly invert
// the mapping.
func Export8U(st Store, res FormatResolver, ds *Dataset, i int, path string, opts map[string]string) error {
	if i < 0 || i >= len(ds.Bands) {
		return errors.Errorf("band %d outside dataset holding %d bands", i, len(ds.Bands))
	}

	driver, err := res.Resolve(path)
	if err != nil {
		return err
	}

	src := ds.Bands[i]
	min, max := MinMax(src)
	band := ByteBand{
		Pix:  Quantize(src),
		Meta: ds.BandMeta[i].Copy(),
	}
	band.Meta[InitialMinKey] = strconv.FormatFloat(float64(min), 'f', -1, 32)
	band.Meta[InitialMaxKey] = strconv.FormatFloat(float64(max), 'f', -1, 32)

	return errors.Wrapf(st.Export8U(path, driver, ds, band, opts), "failed exporting band %d to %s", i, path)
}
