package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DigitalGlobe/rastertools/pkg/gdalstore"
	"github.com/DigitalGlobe/rastertools/pkg/raster"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <raster> [<raster>...]",
	Short: "Print how a raster is put together",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := gdalstore.Store{}
		for _, inPath := range args {
			ds, err := raster.Load(store, inPath)
			if err != nil {
				return err
			}
			printInfo(inPath, ds)
		}
		return nil
	},
}

func printInfo(path string, ds *raster.Dataset) {
	fmt.Printf("%s:\n", path)
	fmt.Printf("  size:          %d x %d pixels, %d band(s)\n", ds.Width(), ds.Height(), len(ds.Bands))

	gt := ds.Transform()
	fmt.Printf("  origin:        (%g, %g)\n", gt.TranslateX, gt.TranslateY)
	fmt.Printf("  pixel size:    (%g, %g)\n", gt.ScaleX, gt.ScaleY)

	if zone, north := ds.UTM(); zone == 0 {
		fmt.Printf("  projection:    none\n")
	} else if north {
		fmt.Printf("  projection:    UTM zone %d north\n", zone)
	} else {
		fmt.Printf("  projection:    UTM zone %d south\n", zone)
	}

	x, y, z := ds.CustomOrigin()
	fmt.Printf("  custom origin: (%g, %g, %g)\n", x, y, z)

	names := make([]string, len(ds.BandMeta))
	for i, m := range ds.BandMeta {
		names[i] = m.Get(raster.NameKey, "(unnamed)")
	}
	fmt.Printf("  bands:         %s\n", strings.Join(names, ", "))

	if len(ds.Meta) > 0 {
		keys := make([]string, 0, len(ds.Meta))
		for k := range ds.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Printf("  metadata:\n")
		for _, k := range keys {
			fmt.Printf("    %s = %s\n", k, ds.Meta[k])
		}
	}
}

func init() {
	rootCmd.AddCommand(infoCmd)

	// Here you will define your flags and configuration settings.

	// Cobra supports local flags which will only run when this command
	// is called directly, e.g.:
	// infoCmd.Flags().BoolP("toggle", "t", false, "Help message for toggle")
}
