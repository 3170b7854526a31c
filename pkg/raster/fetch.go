package raster

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// Client performs HTTP requests to retrieve remote rasters.
type Client interface {
	Get(url string) (*http.Response, error)
}

// Fetcher downloads remote raster tiles to local storage so they can
// be loaded and merged.
type Fetcher struct {
	Client Client

	// NumParallel caps concurrent downloads; 4 per CPU when not positive.
	NumParallel int
}

// Fetch downloads every URL into outDir, each keeping the base name of
// its URL path.  Tiles already on disk are not downloaded again.
// outDir is created if not present.  onFinished is called as each tile
// completes, nil can be provided for this argument.
//
// Fetch returns the local paths of the tiles present when it returns;
// canceling ctx winds the workers down early, so the result can cover
// fewer tiles than requested.  Individual download failures are logged
// and skipped rather than failing the batch.
func (f *Fetcher) Fetch(ctx context.Context, urls []string, outDir string, onFinished func() int) ([]string, error) {
	jobs := make([]fetchJob, 0, len(urls))
	for _, rawurl := range urls {
		u, err := url.Parse(rawurl)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot parse tile url %s", rawurl)
		}
		name := path.Base(u.Path)
		if name == "." || name == "/" {
			return nil, errors.Errorf("cannot derive a file name from tile url %s", rawurl)
		}
		jobs = append(jobs, fetchJob{url: rawurl, filePath: filepath.Join(outDir, name)})
	}

	if err := os.MkdirAll(outDir, 0777); err != nil {
		return nil, err
	}

	if onFinished == nil {
		onFinished = func() int { return 0 }
	}

	wg := sync.WaitGroup{}

	jobsIn := make(chan fetchJob)
	jobsOut := make(chan fetchJob)

	// Spin up some workers. Note these workers will only shut
	// down once jobsIn is closed and jobsOut is drained.
	np := f.NumParallel
	if np < 1 {
		np = 4 * runtime.NumCPU()
	}
	for i := 0; i < np; i++ {
		wg.Add(1)
		go func(jobsIn <-chan fetchJob, jobsOut chan<- fetchJob) {
			defer wg.Done()
			for job := range jobsIn {
				if err := f.processJob(job, jobsOut, onFinished); err != nil {
					log.Printf("%+v\n", err)
				}
			}
		}(jobsIn, jobsOut)
	}

	// Launch tile requests. Note here is where we watch ctx for
	// signals and if we get one, we close jobsIn.  This in turn
	// will let the workers finish and shut down gracefully.
	wg.Add(1)
	go func(jobsIn chan<- fetchJob) {
		defer close(jobsIn)
		defer wg.Done()

		for _, job := range jobs {
			select {
			case jobsIn <- job:
			case <-ctx.Done():
				return
			}
		}
	}(jobsIn)

	// Close jobsOut once workers are finished.  This lets our main
	// routine drain the output channel and return all successfully
	// downloaded tiles.
	go func() {
		defer close(jobsOut)
		wg.Wait()
	}()

	fetched := []string{}
	for job := range jobsOut {
		fetched = append(fetched, job.filePath)
	}
	return fetched, nil
}

// processJob does the actual download of a tile and writing of it to
// disk.  This should be safe to run concurrently.
func (f *Fetcher) processJob(job fetchJob, jobsOut chan<- fetchJob, onFinished func() int) error {
	defer onFinished()
	// If the tile is already present, don't download it again.
	if _, err := os.Stat(job.filePath); !os.IsNotExist(err) {
		jobsOut <- job
		return nil
	}

	res, err := f.Client.Get(job.url)
	if err != nil {
		return errors.Wrapf(err, "failed requesting tile at %s", job.url)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return errors.Errorf("failed requesting tile at %s, status: %d %s", job.url, res.StatusCode, res.Status)
	}

	fd, err := os.Create(job.filePath)
	if err != nil {
		return errors.Wrapf(err, "failed creating file for tile at %s", job.url)
	}
	if _, err := io.Copy(fd, res.Body); err != nil {
		err = errors.Wrapf(err, "failed copying tile at %s to disk", job.url)
		if nerr := fd.Close(); nerr != nil {
			err = errors.WithMessagef(err, "failed closing partially downloaded tile at %s, err: %v", job.filePath, nerr)
		}
		if nerr := os.Remove(job.filePath); nerr != nil {
			err = errors.WithMessagef(err, "failed removing file for partially downloaded tile at %s, err: %v", job.filePath, nerr)
		}
		return err
	}
	if err := fd.Close(); err != nil {
		err = errors.Wrapf(err, "failed closing file %s for downloaded tile", job.filePath)
		if nerr := os.Remove(job.filePath); nerr != nil {
			err = errors.WithMessagef(err, "failed removing file for downloaded tile at %s, err: %v", job.filePath, nerr)
		}
		return err
	}
	jobsOut <- job
	return nil
}

type fetchJob struct {
	url      string
	filePath string
}
