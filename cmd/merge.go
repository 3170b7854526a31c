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
	"time"

	"github.com/cheggaaa/pb"
	"github.com/spf13/cobra"

	"github.com/DigitalGlobe/rastertools/pkg/gdalstore"
	"github.com/DigitalGlobe/rastertools/pkg/raster"
)

var mergeFlags struct {
	noData       float32
	uncompressed bool
	origin       originFlag
}

// mergeCmd represents the merge command
var mergeCmd = &cobra.Command{
	Use:   "merge <out-tif> <in-raster> [<in-raster>...]",
	Short: "Merge co-registered raster tiles into one seamless mosaic",
	Long: `Merge stitches raster tiles sharing a pixel grid into a single
GeoTIFF covering their combined extent.  Tiles must agree on pixel
scale, dimensions, and band count; where tiles overlap, later ones on
the command line win, and pixels no tile covers hold the --nodata
value.  Georeferencing, metadata, and band names are carried over from
the first tile.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath, inPaths := args[0], args[1:]

		config, err := newConfig()
		if err != nil {
			return err
		}

		store := gdalstore.Store{}
		bar := pb.StartNew(len(inPaths))
		tStart := time.Now()
		tiles := make([]*raster.Dataset, 0, len(inPaths))
		for _, inPath := range inPaths {
			tile, err := raster.Load(store, inPath)
			if err != nil {
				return err
			}
			tiles = append(tiles, tile)
			bar.Increment()
		}
		bar.FinishPrint(fmt.Sprintf("Loading tiles took %s", time.Since(tStart)))

		mosaic, err := raster.Merge(tiles, mergeFlags.noData)
		if err != nil {
			return err
		}
		if mergeFlags.origin.set {
			mosaic.SetCustomOrigin(mergeFlags.origin.x, mergeFlags.origin.y, mergeFlags.origin.z)
		}

		opts := config.creationOptions()
		if mergeFlags.uncompressed {
			opts = nil
		}
		return raster.Save(store, mosaic, outPath, opts)
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().Float32Var(&mergeFlags.noData, "nodata", 0, "value filling mosaic pixels no input tile covers")
	mergeCmd.Flags().BoolVar(&mergeFlags.uncompressed, "uncompressed", false, "write the mosaic without compression")
	mergeCmd.Flags().Var(&mergeFlags.origin, "origin", "custom origin to stamp on the mosaic, specified via comma seperated floats x,y[,z]")
}
