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

// Package raster holds in memory georeferenced multi band rasters and
// the operations this repo is built around: coordinate conversions
// between pixel, UTM, and custom origin frames, tile merging into
// seamless mosaics, and float to byte quantization for previews.
// Reading and writing actual files happens behind the Store and
// FormatResolver interfaces, implemented elsewhere.
package raster

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Metadata keys this package maintains on datasets and bands.
const (
	// CustomXOriginKey, CustomYOriginKey, and CustomZOriginKey persist
	// the custom frame origin in dataset metadata as decimal strings.
	CustomXOriginKey = "CUSTOM_X_ORIGIN"
	CustomYOriginKey = "CUSTOM_Y_ORIGIN"
	CustomZOriginKey = "CUSTOM_Z_ORIGIN"

	// NameKey carries a band's name in its band metadata.
	NameKey = "NAME"

	// InitialMinKey and InitialMaxKey record, on an exported byte band,
	// the float range it was quantized from.
	InitialMinKey = "INITIAL_MIN"
	InitialMaxKey = "INITIAL_MAX"
)

// Metadata is string keyed metadata attached to a dataset or a band.
type Metadata map[string]string

// Get returns the value stored under key, or def when the key is absent.
func (m Metadata) Get(key, def string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

// Copy returns a copy of m sharing no storage with it.
func (m Metadata) Copy() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Dataset is an in memory georeferenced raster: row major float32
// bands of identical dimensions sharing one geo transform, a UTM
// identity, dataset and per band metadata, and a custom origin
// locating a caller chosen local frame in projected space.
//
// The zero value is an empty dataset; size it with Resize or New and
// describe it with the setters before use.  A Dataset carries no
// internal locking, so keep each instance confined to one goroutine.
type Dataset struct {
	// Bands holds the pixel buffers, one per band, each of length
	// Width()*Height(), row major with the origin at the upper left.
	Bands [][]float32

	// BandMeta holds one metadata map per band, parallel to Bands.
	// Band names live under NameKey.
	BandMeta []Metadata

	// Meta holds dataset wide metadata.  The custom origin keys are
	// managed by SetCustomOrigin; edit them through it, not here.
	Meta Metadata

	transform GeoTransform
	width     int
	height    int

	utmZone  int
	utmNorth bool

	customX, customY, customZ float64
}

// New returns a Dataset with nbands zeroed bands of width by height
// pixels and a unit north up transform at the origin.
func New(nbands, width, height int) *Dataset {
	ds := &Dataset{transform: NewGeoTransform(0, 0, 1, 1)}
	ds.Resize(nbands, width, height, 0)
	return ds
}

// Width returns the raster width in pixels.
func (ds *Dataset) Width() int { return ds.width }

// Height returns the raster height in pixels.
func (ds *Dataset) Height() int { return ds.height }

// Transform returns the dataset's geo transform.
func (ds *Dataset) Transform() GeoTransform { return ds.transform }

// UTM returns the UTM zone and hemisphere of the dataset.  Zone 0
// means no projection has been set.
func (ds *Dataset) UTM() (zone int, north bool) { return ds.utmZone, ds.utmNorth }

// CustomOrigin returns the origin of the dataset's custom frame in
// projected coordinates.
func (ds *Dataset) CustomOrigin() (x, y, z float64) { return ds.customX, ds.customY, ds.customZ }

// SetTransform overwrites the geo transform with a north up transform
// of origin (x0, y0) and pixel scales (scaleX, scaleY); scaleY is
// negative for the usual north up raster.
func (ds *Dataset) SetTransform(x0, y0, scaleX, scaleY float64) {
	ds.transform = NewGeoTransform(x0, y0, scaleX, scaleY)
}

// SetGeoTransform overwrites the geo transform wholesale, shear terms
// included, for stores restoring a transform read from a file.
func (ds *Dataset) SetGeoTransform(gt GeoTransform) {
	ds.transform = gt
}

// SetUTM sets the UTM zone and hemisphere.  The zone is not range
// checked; zone 0 marks the dataset as unprojected.
func (ds *Dataset) SetUTM(zone int, north bool) {
	ds.utmZone, ds.utmNorth = zone, north
}

// SetCustomOrigin sets the custom frame origin and mirrors it into the
// dataset metadata under the CUSTOM_*_ORIGIN keys, which is how the
// origin survives a round trip through storage.  Callers that want the
// metadata kept consistent must use this rather than writing the keys
// themselves.
func (ds *Dataset) SetCustomOrigin(x, y, z float64) {
	ds.customX, ds.customY, ds.customZ = x, y, z
	if ds.Meta == nil {
		ds.Meta = Metadata{}
	}
	ds.Meta[CustomXOriginKey] = strconv.FormatFloat(x, 'f', -1, 64)
	ds.Meta[CustomYOriginKey] = strconv.FormatFloat(y, 'f', -1, 64)
	ds.Meta[CustomZOriginKey] = strconv.FormatFloat(z, 'f', -1, 64)
}

// RestoreCustomOrigin sets the custom origin from the CUSTOM_*_ORIGIN
// keys in ds.Meta, defaulting absent keys to zero.  Stores call this
// after populating Meta from a file.
func (ds *Dataset) RestoreCustomOrigin() error {
	var vals [3]float64
	for i, key := range []string{CustomXOriginKey, CustomYOriginKey, CustomZOriginKey} {
		v, err := strconv.ParseFloat(ds.Meta.Get(key, "0"), 64)
		if err != nil {
			return errors.Wrapf(err, "bad %s in dataset metadata", key)
		}
		vals[i] = v
	}
	ds.SetCustomOrigin(vals[0], vals[1], vals[2])
	return nil
}

// Resize reallocates ds to hold nbands bands of width by height pixels
// with every element set to fill, and nbands empty band metadata maps.
// Prior band contents are destroyed; georeferencing, origins, and
// dataset metadata are kept.
func (ds *Dataset) Resize(nbands, width, height int, fill float32) {
	ds.width, ds.height = width, height
	ds.Bands = make([][]float32, nbands)
	ds.BandMeta = make([]Metadata, nbands)
	for i := range ds.Bands {
		b := make([]float32, width*height)
		if fill != 0 {
			for j := range b {
				b[j] = fill
			}
		}
		ds.Bands[i] = b
		ds.BandMeta[i] = Metadata{}
	}
	if ds.Meta == nil {
		ds.Meta = Metadata{}
	}
}

// Copy returns a deep copy of ds, buffers included.
func (ds *Dataset) Copy() *Dataset {
	out := &Dataset{
		Bands:     make([][]float32, len(ds.Bands)),
		BandMeta:  make([]Metadata, len(ds.BandMeta)),
		Meta:      ds.Meta.Copy(),
		transform: ds.transform,
		width:     ds.width,
		height:    ds.height,
		utmZone:   ds.utmZone,
		utmNorth:  ds.utmNorth,
		customX:   ds.customX,
		customY:   ds.customY,
		customZ:   ds.customZ,
	}
	for i, b := range ds.Bands {
		out.Bands[i] = append([]float32(nil), b...)
	}
	for i, m := range ds.BandMeta {
		out.BandMeta[i] = m.Copy()
	}
	return out
}

// CopyMetaOnly copies the georeferencing, UTM identity, custom origin,
// and dataset metadata of src into ds, leaving bands and band metadata
// untouched.
func (ds *Dataset) CopyMetaOnly(src *Dataset) {
	ds.transform = src.transform
	ds.utmZone, ds.utmNorth = src.utmZone, src.utmNorth
	ds.customX, ds.customY, ds.customZ = src.customX, src.customY, src.customZ
	ds.Meta = src.Meta.Copy()
}

// CopyMeta is CopyMetaOnly plus band metadata, resizing ds to the
// shape of src with zeroed bands.
func (ds *Dataset) CopyMeta(src *Dataset) {
	ds.CopyMetaSize(src, src.width, src.height)
}

// CopyMetaSize is CopyMeta with explicit output dimensions, for
// derived rasters keeping src's bands and georeferencing over a
// different extent.
func (ds *Dataset) CopyMetaSize(src *Dataset, width, height int) {
	ds.CopyMetaOnly(src)
	ds.Resize(len(src.Bands), width, height, 0)
	for i, m := range src.BandMeta {
		ds.BandMeta[i] = m.Copy()
	}
}

// CopyMetaBands is CopyMeta with an explicit band count and without
// band metadata, for derived rasters whose bands mean something new.
func (ds *Dataset) CopyMetaBands(src *Dataset, nbands int) {
	ds.CopyMetaOnly(src)
	ds.Resize(nbands, src.width, src.height, 0)
}

// BandID returns the index of the first band named name.
func (ds *Dataset) BandID(name string) (int, error) {
	for i, m := range ds.BandMeta {
		if m[NameKey] == name {
			return i, nil
		}
	}
	return 0, &NotFoundError{Name: name}
}

// Band returns the pixel buffer of the first band named name.
func (ds *Dataset) Band(name string) ([]float32, error) {
	i, err := ds.BandID(name)
	if err != nil {
		return nil, err
	}
	return ds.Bands[i], nil
}

// SetBandName names band i.
func (ds *Dataset) SetBandName(i int, name string) {
	ds.BandMeta[i][NameKey] = name
}

// PixToUTM maps the pixel coordinate (x, y) to UTM coordinates.
func (ds *Dataset) PixToUTM(x, y float64) (float64, float64) {
	return ds.transform.Apply(x, y)
}

// UTMToPix maps the UTM coordinate (x, y) to pixel coordinates,
// failing when the transform cannot be inverted.
func (ds *Dataset) UTMToPix(x, y float64) (float64, float64, error) {
	inv, err := ds.transform.Invert()
	if err != nil {
		return 0, 0, err
	}
	xPix, yPix := inv.Apply(x, y)
	return xPix, yPix, nil
}

// CustomToUTM maps a coordinate relative to the custom origin to UTM
// coordinates; a pure offset independent of pixel scale.
func (ds *Dataset) CustomToUTM(x, y float64) (float64, float64) {
	return x + ds.customX, y + ds.customY
}

// UTMToCustom maps a UTM coordinate to the custom frame.
func (ds *Dataset) UTMToCustom(x, y float64) (float64, float64) {
	return x - ds.customX, y - ds.customY
}

// PixToCustom maps the pixel coordinate (x, y) to the custom frame.
func (ds *Dataset) PixToCustom(x, y float64) (float64, float64) {
	return ds.UTMToCustom(ds.PixToUTM(x, y))
}

// CustomToPix maps a custom frame coordinate to pixel coordinates,
// failing when the transform cannot be inverted.
func (ds *Dataset) CustomToPix(x, y float64) (float64, float64, error) {
	xUTM, yUTM := ds.CustomToUTM(x, y)
	return ds.UTMToPix(xUTM, yUTM)
}

// Index returns the linear buffer offset of the pixel at the floating
// pixel coordinate (x, y), rounding half away from zero.  Coordinates
// that round outside the raster fail with an OutOfRangeError rather
// than a sentinel offset.
func (ds *Dataset) Index(x, y float64) (int, error) {
	col, row := int(math.Round(x)), int(math.Round(y))
	if col < 0 || row < 0 || col >= ds.width || row >= ds.height {
		return 0, &OutOfRangeError{What: "pixel", X: x, Y: y, Width: ds.width, Height: ds.height}
	}
	return col + row*ds.width, nil
}

// IndexUTM is Index for a coordinate in UTM space.
func (ds *Dataset) IndexUTM(x, y float64) (int, error) {
	xPix, yPix, err := ds.UTMToPix(x, y)
	if err != nil {
		return 0, err
	}
	return ds.Index(xPix, yPix)
}

// IndexCustom is Index for a coordinate relative to the custom origin.
func (ds *Dataset) IndexCustom(x, y float64) (int, error) {
	xPix, yPix, err := ds.CustomToPix(x, y)
	if err != nil {
		return 0, err
	}
	return ds.Index(xPix, yPix)
}

// Equal reports whether ds and other hold the same shape,
// georeferencing, origins, metadata, and pixels.
func (ds *Dataset) Equal(other *Dataset) bool {
	if ds.width != other.width || ds.height != other.height {
		return false
	}
	if ds.transform != other.transform {
		return false
	}
	if ds.utmZone != other.utmZone || ds.utmNorth != other.utmNorth {
		return false
	}
	if ds.customX != other.customX || ds.customY != other.customY || ds.customZ != other.customZ {
		return false
	}
	if len(ds.Bands) != len(other.Bands) || len(ds.BandMeta) != len(other.BandMeta) {
		return false
	}
	if !metaEqual(ds.Meta, other.Meta) {
		return false
	}
	for i := range ds.BandMeta {
		if !metaEqual(ds.BandMeta[i], other.BandMeta[i]) {
			return false
		}
	}
	for i := range ds.Bands {
		if len(ds.Bands[i]) != len(other.Bands[i]) {
			return false
		}
		for j := range ds.Bands[i] {
			if ds.Bands[i][j] != other.Bands[i][j] {
				return false
			}
		}
	}
	return true
}

func metaEqual(a, b Metadata) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
