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
	"fmt"
	"math"
)

// machineEpsilon is the gap between 1.0 and the next float64.
const machineEpsilon = 0x1p-52

// sameScale reports whether two pixel scales are equal to within
// machine epsilon.  Tiles cut from one source raster compare this way
// after their transforms ride through file metadata and pick up
// floating rounding.
func sameScale(a, b float64) bool {
	return math.Abs(a-b) < machineEpsilon
}

// Merge stitches tiles cut from one gridded source into a single
// mosaic.  Every tile must share the first tile's width, height, band
// count, and pixel scale; any disagreement fails the whole merge.
// Pixels carry over row by row, and where footprints overlap the later
// tile in the slice wins.  Cells no tile covers hold noData.
//
// The mosaic corners assume north up rows: tiles spanning more than
// one row of the grid need a negative Y scale, and placements the
// canvas cannot hold fail with an OutOfRangeError.
//
// The mosaic keeps the dataset metadata, band metadata, UTM identity,
// and custom origin of the first tile, with the transform moved to the
// mosaic's upper left corner.
func Merge(tiles []*Dataset, noData float32) (*Dataset, error) {
	if len(tiles) == 0 {
		return nil, &PreconditionError{Reason: "no tiles to merge"}
	}

	first := tiles[0]
	scaleX, scaleY := first.transform.ScaleX, first.transform.ScaleY
	if scaleX == 0 || scaleY == 0 {
		return nil, &PreconditionError{Reason: fmt.Sprintf("tile pixel scale (%g, %g) is degenerate", scaleX, scaleY)}
	}

	for _, tile := range tiles[1:] {
		tr := tile.transform
		if math.Signbit(tr.ScaleX) != math.Signbit(scaleX) || math.Signbit(tr.ScaleY) != math.Signbit(scaleY) {
			return nil, &PreconditionError{
				Reason: fmt.Sprintf("tile pixel scales (%g, %g) and (%g, %g) disagree in sign", tr.ScaleX, tr.ScaleY, scaleX, scaleY),
			}
		}
		if !sameScale(tr.ScaleX, scaleX) || !sameScale(tr.ScaleY, scaleY) {
			return nil, &ShapeMismatchError{
				Field: "pixel scale",
				Want:  fmt.Sprintf("(%g, %g)", scaleX, scaleY),
				Got:   fmt.Sprintf("(%g, %g)", tr.ScaleX, tr.ScaleY),
			}
		}
		if tile.width != first.width || tile.height != first.height {
			return nil, &ShapeMismatchError{
				Field: "dimensions",
				Want:  fmt.Sprintf("%dx%d", first.width, first.height),
				Got:   fmt.Sprintf("%dx%d", tile.width, tile.height),
			}
		}
		if len(tile.Bands) != len(first.Bands) {
			return nil, &ShapeMismatchError{
				Field: "band count",
				Want:  fmt.Sprint(len(first.Bands)),
				Got:   fmt.Sprint(len(tile.Bands)),
			}
		}
	}

	// Bound the tile origins.  All tiles share one extent, so origin
	// bounds plus a single tile's footprint bound the mosaic.
	minX, maxX := first.transform.TranslateX, first.transform.TranslateX
	minY, maxY := first.transform.TranslateY, first.transform.TranslateY
	for _, tile := range tiles[1:] {
		if tile.transform.TranslateX < minX {
			minX = tile.transform.TranslateX
		}
		if tile.transform.TranslateX > maxX {
			maxX = tile.transform.TranslateX
		}
		if tile.transform.TranslateY < minY {
			minY = tile.transform.TranslateY
		}
		if tile.transform.TranslateY > maxY {
			maxY = tile.transform.TranslateY
		}
	}

	ulx, uly := minX, maxY
	lrx := maxX + scaleX*float64(first.width)
	lry := minY + scaleY*float64(first.height)

	// Half up rounding absorbs floating error in the corner arithmetic.
	sx := int(math.Floor((lrx-ulx)/scaleX + 0.5))
	sy := int(math.Floor((lry-uly)/scaleY + 0.5))

	mosaic := &Dataset{}
	mosaic.CopyMetaOnly(first)
	mosaic.SetTransform(ulx, uly, scaleX, scaleY)
	mosaic.Resize(len(first.Bands), sx, sy, noData)
	for i, m := range first.BandMeta {
		mosaic.BandMeta[i] = m.Copy()
	}

	for _, tile := range tiles {
		// The +0.1 bias rounds offsets that are exact scale multiples up
		// through floating noise; keep it as is, mosaic layouts depend
		// on it.
		xoff := int(math.Floor((tile.transform.TranslateX-ulx)/scaleX + 0.1))
		yoff := int(math.Floor((tile.transform.TranslateY-uly)/scaleY + 0.1))
		if xoff < 0 || yoff < 0 || xoff+tile.width > sx || yoff+tile.height > sy {
			return nil, &OutOfRangeError{What: "tile offset", X: float64(xoff), Y: float64(yoff), Width: sx, Height: sy}
		}

		for b, src := range tile.Bands {
			dst := mosaic.Bands[b]
			for r := 0; r < tile.height; r++ {
				copy(dst[xoff+(yoff+r)*sx:], src[r*tile.width:(r+1)*tile.width])
			}
		}
	}

	return mosaic, nil
}
