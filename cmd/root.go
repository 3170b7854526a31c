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
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configName = "config"

// these are populated by goreleaser when you build a release with that tool.
var (
	version = "head"
	commit  = "head"
	date    = "none"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "rastertools",
	Long: `A CLI for working with georeferenced rasters.

rastertools merges co-registered raster tiles into seamless mosaics,
exports float bands as 8 bit preview images, prints how a raster is
put together, and fetches tiles over HTTP or from S3 so they can be
worked on locally.

Output encoding defaults can be stored with 'rastertools configure'
and are kept in ~/.rastertools.  Configuration supports "profiles" if
you need more than one set of defaults; "default" is used if you don't
specify a particular profile via the --profile flag.
`,
	Version: fmt.Sprintf("%v, commit %v, built at %v", version, commit, date),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("profile", "default", "rastertools profile to use")
	viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))

	cobra.OnInitialize(initConfig)
}

// initConfig reads in the config file if set.
func initConfig() {
	// We map a user defined profile from the cli to the active profile.
	viper.RegisterAlias("ActiveConfig", viper.GetString("profile"))

	// rastertools home directory where the config file would be located.
	rtPath, err := rastertoolsDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed getting path of rastertools directory, err: %+v\n", err)
		os.Exit(1)
	}

	// Where to find the configuration file, if it exists.
	viper.SetConfigName(configName)
	viper.AddConfigPath(rtPath)
	viper.ReadInConfig()
}
