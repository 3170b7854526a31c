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

package cmd

import (
	"fmt"
	"strconv"
	"strings"
)

// originFlag holds a custom origin given on the command line; set
// records whether the flag appeared at all, so an unset flag can leave
// a raster's origin alone.
type originFlag struct {
	x, y, z float64
	set     bool
}

func (o *originFlag) String() string {
	return ""
}

func (o *originFlag) Set(value string) error {
	vals := strings.SplitN(value, ",", 3)
	if len(vals) < 2 {
		return fmt.Errorf("expected 2 or 3 values, but got %d", len(vals))
	}
	var err error
	if o.x, err = strconv.ParseFloat(vals[0], 64); err != nil {
		return fmt.Errorf("failed setting x = %s, err := %+v", vals[0], err)
	}
	if o.y, err = strconv.ParseFloat(vals[1], 64); err != nil {
		return fmt.Errorf("failed setting y = %s, err := %+v", vals[1], err)
	}
	if len(vals) == 3 {
		if o.z, err = strconv.ParseFloat(vals[2], 64); err != nil {
			return fmt.Errorf("failed setting z = %s, err := %+v", vals[2], err)
		}
	}
	o.set = true
	return nil
}

func (o *originFlag) Type() string {
	return "float,float[,float]"
}
