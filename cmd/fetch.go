package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cheggaaa/pb"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/DigitalGlobe/rastertools/pkg/bucket"
	"github.com/DigitalGlobe/rastertools/pkg/raster"
)

var fetchFlags struct {
	maxconcurr uint64
}

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <out-dir> <url-or-s3-location> [<url>...]",
	Short: "Fetch raster tiles over HTTP or from S3 into a local directory",
	Long: `Fetch downloads raster tiles so they can be merged locally.  Tiles
can be given as HTTP urls, each saved under the base name of its url
path, or as a single s3://bucket/prefix location whose objects are
mirrored below the output directory.  Tiles already on disk are left
alone, so an interrupted fetch picks up where it stopped.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, sources := args[0], args[1:]

		config, err := newConfig()
		if err != nil {
			return err
		}

		// Setup our context to handle cancellation and listen for signals.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() {
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			select {
			case s := <-sigs:
				log.Printf("received a shutdown signal %s, winding down", s)
				cancel()
			case <-ctx.Done():
			}
		}()

		if strings.HasPrefix(sources[0], "s3://") {
			if len(sources) > 1 {
				return errors.New("one s3 location per fetch; urls cannot be mixed in")
			}
			return fetchS3(ctx, &config, sources[0], outDir)
		}
		return fetchHTTP(ctx, sources, outDir)
	},
}

func fetchHTTP(ctx context.Context, urls []string, outDir string) error {
	// Configure http retrying.
	client := retryablehttp.NewClient()
	client.Logger = nil

	fetcher := raster.Fetcher{
		Client:      client,
		NumParallel: int(fetchFlags.maxconcurr),
	}

	bar := pb.StartNew(len(urls))
	tStart := time.Now()
	tiles, err := fetcher.Fetch(ctx, urls, outDir, bar.Increment)
	if err != nil {
		return err
	}
	bar.FinishPrint(fmt.Sprintf("Fetched %d tile(s) in %s", len(tiles), time.Since(tStart)))
	return nil
}

func fetchS3(ctx context.Context, config *Config, location, outDir string) error {
	loc, err := bucket.ParseLocation(location)
	if err != nil {
		return err
	}

	// The accessor needs its progress func before we know how many
	// objects there are, so the bar shows up via closure once we do.
	var bar *pb.ProgressBar
	accessor, err := bucket.NewAccessor(config.awsRegion(), bucket.WithProgressFunc(func() int {
		if bar == nil {
			return 0
		}
		return bar.Increment()
	}))
	if err != nil {
		return err
	}

	n, download, err := accessor.Download(ctx, loc, outDir)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Printf("Everything below %s is already in %s\n", loc, outDir)
		return nil
	}

	bar = pb.StartNew(n)
	tStart := time.Now()
	if err := download(); err != nil {
		return err
	}
	bar.FinishPrint(fmt.Sprintf("Fetched %d tile(s) in %s", n, time.Since(tStart)))
	return nil
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().Uint64Var(&fetchFlags.maxconcurr, "maxconcurrency", 0, "set how many concurrent requests to allow; by default, 4 * num CPUs is used")
}
