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

// Package gdalstore implements raster.Store on top of GDAL via godal.
// It is the only package in this repo that touches pixel formats on
// disk; everything else works on raster.Dataset values.
package gdalstore

import (
	"log"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/pkg/errors"

	"github.com/DigitalGlobe/rastertools/pkg/raster"
)

// jpegQuality is handed to the JPEG driver when the caller doesn't ask
// for a particular quality.
const jpegQuality = "95"

var registerOnce sync.Once

// Register loads the GDAL drivers.  Store methods call it themselves,
// so calling it up front is only useful to pay the startup cost early.
func Register() {
	registerOnce.Do(godal.RegisterAll)
}

// Store reads and writes raster.Datasets with GDAL.  The zero value is
// ready to use.
type Store struct{}

// Load reads the raster at path.  Files without a geo transform load
// with the unit transform, and band data is converted to float32
// whatever the file holds; both get a logged warning rather than an
// error so sloppy inputs can still be worked with.
func (Store) Load(path string) (*raster.Dataset, error) {
	Register()

	gds, err := godal.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening %s", path)
	}
	defer gds.Close()

	st := gds.Structure()
	out := raster.New(st.NBands, st.SizeX, st.SizeY)

	if gt, err := gds.GeoTransform(); err != nil {
		log.Printf("no geo transform in %s, keeping pixel coordinates", path)
	} else {
		out.SetGeoTransform(raster.GeoTransformFromCoefficients(gt))
	}
	if st.DataType != godal.Float32 {
		log.Printf("%s holds %v band data, loading as float32", path, st.DataType)
	}

	// Files carrying only WKT get their authority info filled in by
	// AutoIdentifyEPSG; when that fails we keep zone 0.
	if proj := gds.Projection(); proj != "" {
		sr := gds.SpatialRef()
		defer sr.Close()
		_ = sr.AutoIdentifyEPSG()
		code := sr.AuthorityCode("PROJCS")
		if code == "" {
			code = sr.AuthorityCode("")
		}
		if epsg, err := strconv.Atoi(code); err == nil {
			if zone, north, ok := utmFromEPSG(epsg); ok {
				out.SetUTM(zone, north)
			}
		}
	}

	for k, v := range gds.Metadatas() {
		out.Meta[k] = v
	}
	if err := out.RestoreCustomOrigin(); err != nil {
		return nil, errors.Wrapf(err, "bad custom origin in %s", path)
	}

	for i, b := range gds.Bands() {
		if err := b.Read(0, 0, out.Bands[i], st.SizeX, st.SizeY); err != nil {
			return nil, errors.Wrapf(err, "failed reading band %d of %s", i, path)
		}
		for k, v := range b.Metadatas() {
			out.BandMeta[i][k] = v
		}
	}
	return out, nil
}

// Save writes ds to path with the named driver as Float32 bands.  The
// driver must support direct creation, which GTiff does; formats that
// only support copying from an existing raster go through Export8U.
func (Store) Save(path, driver string, ds *raster.Dataset, opts map[string]string) (err error) {
	Register()

	createOpts := []godal.DatasetCreateOption{}
	if len(opts) > 0 {
		createOpts = append(createOpts, godal.CreationOption(optionList(opts)...))
	}
	out, err := godal.Create(godal.DriverName(driver), path, len(ds.Bands), godal.Float32, ds.Width(), ds.Height(), createOpts...)
	if err != nil {
		return errors.Wrapf(err, "failed creating %s raster at %s", driver, path)
	}
	defer func() {
		cerr := out.Close()
		if err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "failed closing raster at %s", path)
		}
	}()

	if err := georeference(out, ds); err != nil {
		return err
	}
	if err := writeMetadata(out, ds.Meta); err != nil {
		return errors.Wrapf(err, "failed writing metadata to %s", path)
	}
	for i, b := range out.Bands() {
		if err := writeMetadata(b, ds.BandMeta[i]); err != nil {
			return errors.Wrapf(err, "failed writing metadata to band %d of %s", i, path)
		}
		if err := b.Write(0, 0, ds.Bands[i], ds.Width(), ds.Height()); err != nil {
			return errors.Wrapf(err, "failed writing band %d of %s", i, path)
		}
	}
	return nil
}

// Export8U writes band to path with the named driver.  Formats like
// JPEG and PNG can't be created pixel by pixel, so the band first goes
// into a scratch GeoTIFF that GDAL then translates to the target
// format next to path, which is renamed into place once complete.
func (Store) Export8U(path, driver string, ds *raster.Dataset, band raster.ByteBand, opts map[string]string) error {
	Register()

	scratch := path + ".raw.tif"
	if err := writeByteRaster(scratch, ds, band); err != nil {
		return err
	}
	defer os.Remove(scratch)

	part := path + ".part"
	if err := translate(part, scratch, driver, opts); err != nil {
		os.Remove(part)
		return err
	}
	if err := os.Rename(part, path); err != nil {
		os.Remove(part)
		return errors.Wrapf(err, "failed moving export into place at %s", path)
	}

	// Drivers that can't carry georeferencing themselves leave it in a
	// sidecar; move that alongside the output, or drop a stale one.
	if _, err := os.Stat(part + ".aux.xml"); err == nil {
		if err := os.Rename(part+".aux.xml", path+".aux.xml"); err != nil {
			return errors.Wrapf(err, "failed moving sidecar into place for %s", path)
		}
	} else {
		os.Remove(path + ".aux.xml")
	}
	return nil
}

// writeByteRaster writes a single byte band GeoTIFF holding band's
// pixels and metadata plus ds's georeferencing and dataset metadata.
func writeByteRaster(path string, ds *raster.Dataset, band raster.ByteBand) (err error) {
	out, err := godal.Create(godal.GTiff, path, 1, godal.Byte, ds.Width(), ds.Height())
	if err != nil {
		return errors.Wrapf(err, "failed creating scratch raster at %s", path)
	}
	defer func() {
		cerr := out.Close()
		if err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "failed closing scratch raster at %s", path)
		}
	}()

	if err := georeference(out, ds); err != nil {
		return err
	}
	if err := writeMetadata(out, ds.Meta); err != nil {
		return errors.Wrapf(err, "failed writing metadata to %s", path)
	}
	b := out.Bands()[0]
	if err := writeMetadata(b, band.Meta); err != nil {
		return errors.Wrapf(err, "failed writing band metadata to %s", path)
	}
	if err := b.Write(0, 0, band.Pix, ds.Width(), ds.Height()); err != nil {
		return errors.Wrapf(err, "failed writing pixels to %s", path)
	}
	return nil
}

// translate runs src through gdal_translate style driver conversion.
func translate(dst, src, driver string, opts map[string]string) error {
	in, err := godal.Open(src)
	if err != nil {
		return errors.Wrapf(err, "failed reopening scratch raster at %s", src)
	}
	defer in.Close()

	out, err := in.Translate(dst, translateSwitches(driver, opts))
	if err != nil {
		return errors.Wrapf(err, "failed translating %s to %s", src, driver)
	}
	return errors.Wrapf(out.Close(), "failed closing %s", dst)
}

// georeference copies ds's geo transform and, when a zone is set, its
// UTM spatial reference onto gds.
func georeference(gds *godal.Dataset, ds *raster.Dataset) error {
	if err := gds.SetGeoTransform(ds.Transform().Coefficients()); err != nil {
		return errors.Wrap(err, "failed setting geo transform")
	}
	zone, north := ds.UTM()
	if zone == 0 {
		return nil
	}
	sr, err := godal.NewSpatialRefFromEPSG(epsgForUTM(zone, north))
	if err != nil {
		return errors.Wrapf(err, "failed building a spatial reference for UTM zone %d", zone)
	}
	defer sr.Close()
	return errors.Wrap(gds.SetSpatialRef(sr), "failed setting spatial reference")
}

// epsgForUTM returns the EPSG code of the WGS84 UTM projection for the
// given zone and hemisphere.
func epsgForUTM(zone int, north bool) int {
	if north {
		return 32600 + zone
	}
	return 32700 + zone
}

// utmFromEPSG inverts epsgForUTM; ok is false for codes outside the
// WGS84 UTM ranges.
func utmFromEPSG(epsg int) (zone int, north, ok bool) {
	switch {
	case epsg > 32600 && epsg <= 32660:
		return epsg - 32600, true, true
	case epsg > 32700 && epsg <= 32760:
		return epsg - 32700, false, true
	}
	return 0, false, false
}

type metadataSetter interface {
	SetMetadata(key, value string, opts ...godal.MetadataOption) error
}

func writeMetadata(obj metadataSetter, meta raster.Metadata) error {
	for _, k := range sortedKeys(meta) {
		if err := obj.SetMetadata(k, meta[k]); err != nil {
			return errors.Wrapf(err, "failed setting metadata key %s", k)
		}
	}
	return nil
}

// translateSwitches builds gdal_translate switches for the driver and
// creation options, defaulting JPEG quality when the caller has none.
func translateSwitches(driver string, opts map[string]string) []string {
	if _, ok := opts["QUALITY"]; driver == "JPEG" && !ok {
		merged := make(map[string]string, len(opts)+1)
		for k, v := range opts {
			merged[k] = v
		}
		merged["QUALITY"] = jpegQuality
		opts = merged
	}
	switches := []string{"-of", driver}
	for _, kv := range optionList(opts) {
		switches = append(switches, "-co", kv)
	}
	return switches
}

func optionList(opts map[string]string) []string {
	list := make([]string, 0, len(opts))
	for _, k := range sortedKeys(opts) {
		list = append(list, k+"="+opts[k])
	}
	return list
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
