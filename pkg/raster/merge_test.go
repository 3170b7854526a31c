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
	"testing"

	"github.com/google/go-cmp/cmp"
)

// tile returns a single band width x height tile at origin (x0, y0)
// with every pixel set to v.
func tile(x0, y0 float64, width, height int, v float32) *Dataset {
	ds := New(1, width, height)
	ds.SetTransform(x0, y0, 1.0, 1.0)
	for i := range ds.Bands[0] {
		ds.Bands[0][i] = v
	}
	return ds
}

func TestMergeTwoTiles(t *testing.T) {
	a := tile(0, 0, 2, 2, 1)
	a.SetUTM(32, true)
	a.SetCustomOrigin(0, 0, 3)
	a.SetBandName(0, "gray")
	b := tile(2, 0, 2, 2, 2)

	mosaic, err := Merge([]*Dataset{a, b}, 0)
	if err != nil {
		t.Fatalf("failed merging, err: %+v", err)
	}

	if mosaic.Width() != 4 || mosaic.Height() != 2 {
		t.Fatalf("mosaic is %dx%d, expected 4x2", mosaic.Width(), mosaic.Height())
	}
	want := []float32{
		1, 1, 2, 2,
		1, 1, 2, 2,
	}
	if diff := cmp.Diff(mosaic.Bands[0], want); diff != "" {
		t.Fatalf("mosaic pixels differ: %s", diff)
	}

	tr := mosaic.Transform()
	if tr.TranslateX != 0 || tr.TranslateY != 0 || tr.ScaleX != 1 || tr.ScaleY != 1 {
		t.Fatalf("mosaic transform %+v", tr)
	}
	if zone, north := mosaic.UTM(); zone != 32 || !north {
		t.Fatal("mosaic dropped the first tile's UTM identity")
	}
	if _, _, z := mosaic.CustomOrigin(); z != 3 {
		t.Fatal("mosaic dropped the first tile's custom origin")
	}
	if mosaic.BandMeta[0][NameKey] != "gray" {
		t.Fatal("mosaic dropped the first tile's band names")
	}
}

func TestMergeOverlapLastWins(t *testing.T) {
	a := tile(0, 0, 2, 2, 1)
	b := tile(1, 0, 2, 2, 2)

	mosaic, err := Merge([]*Dataset{a, b}, 0)
	if err != nil {
		t.Fatalf("failed merging, err: %+v", err)
	}
	want := []float32{
		1, 2, 2,
		1, 2, 2,
	}
	if diff := cmp.Diff(mosaic.Bands[0], want); diff != "" {
		t.Fatalf("overlap not last write wins: %s", diff)
	}
}

func TestMergeGapHoldsNoData(t *testing.T) {
	a := tile(0, 0, 2, 2, 1)
	b := tile(4, 0, 2, 2, 2)

	mosaic, err := Merge([]*Dataset{a, b}, -1)
	if err != nil {
		t.Fatalf("failed merging, err: %+v", err)
	}
	want := []float32{
		1, 1, -1, -1, 2, 2,
		1, 1, -1, -1, 2, 2,
	}
	if diff := cmp.Diff(mosaic.Bands[0], want); diff != "" {
		t.Fatalf("gap cells should hold the no data fill: %s", diff)
	}
}

func TestMergeNearGridOrigins(t *testing.T) {
	// Origins a hair off exact scale multiples still land on the same
	// mosaic cells as exact ones.
	a := tile(0, 0, 2, 2, 1)
	b := tile(2.000000001, 0, 2, 2, 2)

	mosaic, err := Merge([]*Dataset{a, b}, 0)
	if err != nil {
		t.Fatalf("failed merging, err: %+v", err)
	}
	if mosaic.Width() != 4 || mosaic.Height() != 2 {
		t.Fatalf("mosaic is %dx%d, expected 4x2", mosaic.Width(), mosaic.Height())
	}
	want := []float32{
		1, 1, 2, 2,
		1, 1, 2, 2,
	}
	if diff := cmp.Diff(mosaic.Bands[0], want); diff != "" {
		t.Fatalf("near grid origins placed differently than exact ones: %s", diff)
	}
}

func TestMergeNorthUpGrid(t *testing.T) {
	// A 2x2 grid of north up tiles, Y decreasing down the rows.
	nu := func(x0, y0 float64, v float32) *Dataset {
		ds := New(1, 2, 2)
		ds.SetTransform(x0, y0, 1.0, -1.0)
		for i := range ds.Bands[0] {
			ds.Bands[0][i] = v
		}
		return ds
	}
	tiles := []*Dataset{nu(0, 0, 1), nu(2, 0, 2), nu(0, -2, 3), nu(2, -2, 4)}

	mosaic, err := Merge(tiles, 0)
	if err != nil {
		t.Fatalf("failed merging, err: %+v", err)
	}
	if mosaic.Width() != 4 || mosaic.Height() != 4 {
		t.Fatalf("mosaic is %dx%d, expected 4x4", mosaic.Width(), mosaic.Height())
	}
	want := []float32{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}
	if diff := cmp.Diff(mosaic.Bands[0], want); diff != "" {
		t.Fatalf("grid pixels differ: %s", diff)
	}

	tr := mosaic.Transform()
	if tr.TranslateX != 0 || tr.TranslateY != 0 || tr.ScaleY != -1 {
		t.Fatalf("mosaic transform %+v", tr)
	}
}

func TestMergeEmpty(t *testing.T) {
	if _, err := Merge(nil, 0); !IsPrecondition(err) {
		t.Fatalf("expected a precondition failure on no tiles, got %v", err)
	}
}

func TestMergeBandCountMismatch(t *testing.T) {
	a := tile(0, 0, 2, 2, 1)
	b := New(2, 2, 2)
	b.SetTransform(2, 0, 1.0, 1.0)

	if _, err := Merge([]*Dataset{a, b}, 0); !IsShapeMismatch(err) {
		t.Fatalf("expected a shape mismatch on band count, got %v", err)
	}
}

func TestMergeDimensionMismatch(t *testing.T) {
	a := tile(0, 0, 2, 2, 1)
	b := tile(2, 0, 3, 2, 2)

	if _, err := Merge([]*Dataset{a, b}, 0); !IsShapeMismatch(err) {
		t.Fatalf("expected a shape mismatch on dimensions, got %v", err)
	}
}

func TestMergeScaleMismatch(t *testing.T) {
	a := tile(0, 0, 2, 2, 1)
	b := tile(2, 0, 2, 2, 2)
	b.SetTransform(2, 0, 0.5, 1.0)

	if _, err := Merge([]*Dataset{a, b}, 0); !IsShapeMismatch(err) {
		t.Fatalf("expected a shape mismatch on pixel scale, got %v", err)
	}
}

func TestMergeScaleSignMismatch(t *testing.T) {
	a := tile(0, 0, 2, 2, 1)
	b := tile(2, 0, 2, 2, 2)
	b.SetTransform(2, 0, 1.0, -1.0)

	if _, err := Merge([]*Dataset{a, b}, 0); !IsPrecondition(err) {
		t.Fatalf("expected a precondition failure on scale sign, got %v", err)
	}
}

func TestMergeOffCanvasPlacement(t *testing.T) {
	// The mosaic corners put the maximum Y origin at the top, so tiles
	// stacked along Y with a positive Y scale compute offsets the
	// canvas cannot hold.
	a := tile(0, 0, 2, 2, 1)
	b := tile(0, 2, 2, 2, 2)

	if _, err := Merge([]*Dataset{a, b}, 0); !IsOutOfRange(err) {
		t.Fatalf("expected an out of range failure placing stacked tiles, got %v", err)
	}
}

func TestMergeDegenerateScale(t *testing.T) {
	a := tile(0, 0, 2, 2, 1)
	a.SetTransform(0, 0, 0, 1.0)

	if _, err := Merge([]*Dataset{a}, 0); !IsPrecondition(err) {
		t.Fatalf("expected a precondition failure on zero scale, got %v", err)
	}
}

func TestMergeSingleTile(t *testing.T) {
	a := tile(10, 20, 3, 2, 5)
	mosaic, err := Merge([]*Dataset{a}, 0)
	if err != nil {
		t.Fatalf("failed merging a single tile, err: %+v", err)
	}
	if mosaic.Width() != 3 || mosaic.Height() != 2 {
		t.Fatalf("mosaic is %dx%d, expected 3x2", mosaic.Width(), mosaic.Height())
	}
	if diff := cmp.Diff(mosaic.Bands[0], a.Bands[0]); diff != "" {
		t.Fatalf("single tile mosaic differs from the tile: %s", diff)
	}
}

func TestMergeMultiBand(t *testing.T) {
	a := New(2, 2, 2)
	a.SetTransform(0, 0, 1.0, 1.0)
	b := New(2, 2, 2)
	b.SetTransform(2, 0, 1.0, 1.0)
	for i := range a.Bands[0] {
		a.Bands[0][i], a.Bands[1][i] = 1, 10
		b.Bands[0][i], b.Bands[1][i] = 2, 20
	}

	mosaic, err := Merge([]*Dataset{a, b}, 0)
	if err != nil {
		t.Fatalf("failed merging, err: %+v", err)
	}
	if diff := cmp.Diff(mosaic.Bands[1], []float32{10, 10, 20, 20, 10, 10, 20, 20}); diff != "" {
		t.Fatalf("second band placed wrong: %s", diff)
	}
}
