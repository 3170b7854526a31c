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

import "math"

// MinMax returns the smallest and largest values in band in a single
// pass, or (0, 0) for an empty band.  Input is expected finite.
func MinMax(band []float32) (min, max float32) {
	if len(band) == 0 {
		return 0, 0
	}
	min, max = band[0], band[0]
	for _, v := range band[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Quantize maps band linearly onto the full byte range, the band's
// minimum landing on 0 and its maximum on 255.  A constant band
// quantizes to all zeros; that is a defined output, not an error.
func Quantize(band []float32) []byte {
	out := make([]byte, len(band))
	min, max := MinMax(band)
	if max == min {
		return out
	}
	scale := 255 / (max - min)
	for i, v := range band {
		out[i] = byte(math.Floor(float64(scale * (v - min))))
	}
	return out
}

// Normalize rescales band in place onto [0, 1].  A constant band is
// left untouched.
func Normalize(band []float32) {
	min, max := MinMax(band)
	if max == min {
		return
	}
	scale := 1 / (max - min)
	for i, v := range band {
		band[i] = scale * (v - min)
	}
}
