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

// Package bucket downloads raster tiles held in S3 so they can be
// loaded and merged locally.
package bucket

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/pkg/errors"
)

// Location holds the AWS bucket and prefix of where your rasters are stored.
type Location struct {
	Bucket string
	Prefix string
}

// ParseLocation parses an s3://bucket/prefix style string into a Location.
func ParseLocation(s string) (Location, error) {
	rest := strings.TrimPrefix(s, "s3://")
	if rest == s || rest == "" {
		return Location{}, errors.Errorf("%q is not an s3://bucket/prefix location", s)
	}
	parts := strings.SplitN(rest, "/", 2)
	loc := Location{Bucket: parts[0]}
	if loc.Bucket == "" {
		return Location{}, errors.Errorf("%q holds no bucket name", s)
	}
	if len(parts) == 2 {
		loc.Prefix = strings.Trim(parts[1], "/")
	}
	return loc, nil
}

func (l Location) String() string {
	if (l == Location{}) {
		return ""
	}
	return fmt.Sprintf("s3://%s/%s", l.Bucket, l.Prefix)
}

// Accessor handles access to raster tiles held in S3 locations.
type Accessor struct {
	svc          s3iface.S3API
	downloader   s3manageriface.DownloaderAPI
	progressFunc func() int
}

// NewAccessor returns an Accessor for the given AWS region, picking up
// credentials from the usual AWS environment.
func NewAccessor(region string, options ...AccessorOption) (*Accessor, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, errors.Wrap(err, "failed constructing AWS session for accessing rasters in S3")
	}
	a := &Accessor{
		svc:          s3.New(sess),
		downloader:   s3manager.NewDownloader(sess),
		progressFunc: func() int { return 0 },
	}
	for _, opt := range options {
		opt(a)
	}
	return a, nil
}

// AccessorOption is a type to use for setting options on an Accessor.
type AccessorOption func(*Accessor)

// WithProgressFunc sets a progress function to be called whenever a raster finishes downloading from S3.
func WithProgressFunc(progressFunc func() int) AccessorOption {
	return func(a *Accessor) {
		a.progressFunc = progressFunc
	}
}

// ListRasters returns the keys below loc, relative to loc's prefix.
func (a *Accessor) ListRasters(ctx context.Context, loc Location) ([]string, error) {
	objects, err := a.listObjects(ctx, loc)
	if err != nil {
		return nil, err
	}
	keys := []string{}
	for _, obj := range objects {
		keys = append(keys, relativeKey(loc, aws.StringValue(obj.Key)))
	}
	return keys, nil
}

// Download returns the count of rasters below loc that will be
// downloaded and a function to run that initiates the download into
// outDir.  Rasters already in outDir (taking the same name as in S3,
// relative to loc's prefix) will not be downloaded and won't be
// counted in the returned count.
//
// We return in this style so that the user can instantiate a progress
// bar if they like; you can provide a function via WithProgressFunc,
// and it will be invoked on every successful download.
func (a *Accessor) Download(ctx context.Context, loc Location, outDir string) (int, func() error, error) {
	if err := os.MkdirAll(outDir, 0775); err != nil {
		return 0, nil, err
	}

	possibleDL, err := a.listObjects(ctx, loc)
	if err != nil {
		return 0, nil, err
	}

	// Filter out any we've already downloaded.
	toDL := []downloadLocation{}
	for _, obj := range possibleDL {
		basePath := relativeKey(loc, aws.StringValue(obj.Key))

		// Form the file path, trying to handle Window's paths while we do it.
		file := filepath.Join(outDir, filepath.Join(strings.Split(basePath, "/")...))
		if _, err := os.Stat(file); !os.IsNotExist(err) {
			continue
		}
		toDL = append(toDL, downloadLocation{file: file, object: obj})
	}

	return len(toDL), func() error { return a.downloadRasters(ctx, toDL) }, nil
}

func (a *Accessor) listObjects(ctx context.Context, loc Location) ([]*s3.GetObjectInput, error) {
	objects := []*s3.GetObjectInput{}
	if err := a.svc.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(loc.Bucket),
		Prefix: aws.String(loc.Prefix),
	}, func(p *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, o := range p.Contents {
			objects = append(objects, &s3.GetObjectInput{Bucket: aws.String(loc.Bucket), Key: o.Key})
		}
		return true
	}); err != nil {
		return nil, errors.Wrapf(err, "failed listing rasters below %s", loc)
	}
	return objects, nil
}

// relativeKey strips loc's prefix off key, falling back to the key's
// base name when nothing is left.
func relativeKey(loc Location, key string) string {
	rel := strings.TrimPrefix(strings.TrimPrefix(key, loc.Prefix), "/")
	if rel == "" {
		rel = path.Base(key)
	}
	return rel
}

type downloadLocation struct {
	file   string
	object *s3.GetObjectInput
}

func (a *Accessor) downloadRasters(ctx context.Context, dlLoc []downloadLocation) error {
	for _, dl := range dlLoc {
		if err := a.downloadRaster(ctx, dl.file, dl.object); err != nil {
			return err
		}
		a.progressFunc()
	}
	return nil
}

func (a *Accessor) downloadRaster(ctx context.Context, file string, obj *s3.GetObjectInput) (err error) {
	baseDir, _ := filepath.Split(file)
	if err := os.MkdirAll(baseDir, 0775); err != nil {
		return errors.Wrap(err, "couldn't create directories to write downloaded raster to")
	}

	fd, err := os.Create(file)
	if err != nil {
		return errors.Wrapf(err, "failed creating file to hold raster from s3")
	}

	// Delete the file we've created if we didn't download it successfully.
	defer func() {
		if err != nil {
			if nerr := os.Remove(file); nerr != nil {
				err = errors.WithMessagef(err, "failed removing partially downloaded file %s, err: %v", file, nerr)
			}
		}
	}()
	defer fd.Close()

	if _, err = a.downloader.DownloadWithContext(ctx, fd, obj); err != nil {
		return errors.Wrapf(err, "failure downloading s3://%s/%s", aws.StringValue(obj.Bucket), aws.StringValue(obj.Key))
	}
	return nil
}
