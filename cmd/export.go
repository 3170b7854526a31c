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
	"github.com/spf13/cobra"

	"github.com/DigitalGlobe/rastertools/pkg/gdalstore"
	"github.com/DigitalGlobe/rastertools/pkg/raster"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <in-raster> <band-name> <out-image>",
	Short: "Export a named band as an 8 bit preview image",
	Long: `Export quantizes the named float band onto [0, 255] and writes it
with the driver matching the output extension, e.g. .png or .jpg.  The
band's float range lands in the output metadata under INITIAL_MIN and
INITIAL_MAX so the mapping can be roughly inverted later.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		inPath, bandName, outPath := args[0], args[1], args[2]

		config, err := newConfig()
		if err != nil {
			return err
		}

		store := gdalstore.Store{}
		ds, err := raster.Load(store, inPath)
		if err != nil {
			return err
		}

		band, err := ds.BandID(bandName)
		if err != nil {
			return err
		}

		var opts map[string]string
		if driver, err := raster.DriverFromPath(outPath); err == nil && driver == "JPEG" {
			opts = config.jpegOptions()
		}
		return raster.Export8U(store, raster.ResolverFunc(raster.DriverFromPath), ds, band, outPath, opts)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
