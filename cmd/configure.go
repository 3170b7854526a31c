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
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/BurntSushi/toml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DigitalGlobe/rastertools/pkg/raster"
)

// Config holds the output encoding and AWS defaults the commands use.
type Config struct {
	Compress    string `mapstructure:"compress" toml:"compress,omitempty"`
	Predictor   string `mapstructure:"predictor" toml:"predictor,omitempty"`
	ZLevel      string `mapstructure:"zlevel" toml:"zlevel,omitempty"`
	JPEGQuality string `mapstructure:"jpeg_quality" toml:"jpeg_quality,omitempty"`
	Region      string `mapstructure:"region" toml:"region,omitempty"`
}

// creationOptions returns the GeoTIFF creation options this config
// describes, starting from the usual deflate bundle.
func (c *Config) creationOptions() map[string]string {
	opts := raster.DefaultCreationOptions()
	if c.Compress != "" {
		opts["COMPRESS"] = c.Compress
	}
	if c.Predictor != "" {
		opts["PREDICTOR"] = c.Predictor
	}
	if c.ZLevel != "" {
		opts["ZLEVEL"] = c.ZLevel
	}
	return opts
}

// jpegOptions returns the JPEG creation options this config describes,
// or nil to let the store pick its own quality.
func (c *Config) jpegOptions() map[string]string {
	if c.JPEGQuality == "" {
		return nil
	}
	return map[string]string{"QUALITY": c.JPEGQuality}
}

// awsRegion returns the region to reach S3 in.
func (c *Config) awsRegion() string {
	if c.Region == "" {
		return "us-east-1"
	}
	return c.Region
}

// configureCmd represents the configure command
var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure rastertools defaults, e.g. store output encoding settings in ~/.rastertools.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load the existing config, if there is one.
		config, err := newConfig()
		if err != nil {
			return err
		}

		// Get the configuration overrides from the user via the command line.
		var configVars = []struct {
			prompt string
			val    *string
		}{
			{"GeoTIFF compression (COMPRESS)", &config.Compress},
			{"GeoTIFF predictor (PREDICTOR)", &config.Predictor},
			{"GeoTIFF deflate level (ZLEVEL)", &config.ZLevel},
			{"JPEG export quality", &config.JPEGQuality},
			{"AWS region for S3 fetches", &config.Region},
		}
		for _, configVar := range configVars {
			// Pretty print the prompt for this variable.
			fmt.Printf(configVar.prompt)
			if val := *configVar.val; len(val) > 0 {
				fmt.Printf(" [%s]", val)
			}
			fmt.Printf(": ")

			// Get user input for this value.
			if err := readValue(os.Stdin, configVar.val); err != nil {
				return err
			}
		}
		return writeConfig(&config)
	},
}

// readValue reads one input line from in, leaving val alone when the
// line is empty.  A line holding more than one token is rejected, with
// the leftovers consumed so the next read starts on a fresh line.
func readValue(in io.Reader, val *string) error {
	var s string
	if n, err := fmt.Fscanln(in, &s); err != nil && n > 0 {
		// Gobble up remaining tokens if any.
		for n, err := fmt.Fscanln(in, &s); err != nil && n > 0; n, err = fmt.Fscanln(in, &s) {
		}
		return fmt.Errorf("your input is bogus: %v", err)
	}
	if len(s) > 0 {
		*val = s
	}
	return nil
}

// newConfig returns a Config for the active profile as stored in viper.
func newConfig() (Config, error) {
	var config Config
	if err := viper.UnmarshalKey(viper.GetString("profile"), &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// writeConfig updates an existing configuration file with the provided
// one.  Note that we only update the profile as stored in viper.
func writeConfig(config *Config) error {
	// Need the rastertools dir around to write the config to.
	rtDir, err := ensureRastertoolsDir()
	if err != nil {
		return err
	}

	// Read in configuration file if it exists.  Note this may contain multiple profiles.
	profilesOut := make(map[string]Config)
	confFile := viper.ConfigFileUsed()
	if confFile == "" {
		confFile = filepath.Join(rtDir, configName+".toml")
	}

	_, err = toml.DecodeFile(confFile, &profilesOut)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to parse the configurtion file: %v", err)
	}

	// Update this profile and write it to the config file.
	profilesOut[viper.GetString("profile")] = *config
	file, err := os.Create(confFile)
	if err != nil {
		return fmt.Errorf("failed to write updated configuration to disk: %v", err)
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(profilesOut)
}

// rastertoolsDir returns the location of the rastertools configuration directory.
func rastertoolsDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return path.Join(home, ".rastertools"), nil
}

// ensureRastertoolsDir will create the rastertools directory if it doesn't already exist.
func ensureRastertoolsDir() (string, error) {
	rtPath, err := rastertoolsDir()
	if err != nil {
		return "", err
	}
	return rtPath, os.MkdirAll(rtPath, 0700)
}

func init() {
	rootCmd.AddCommand(configureCmd)
}
