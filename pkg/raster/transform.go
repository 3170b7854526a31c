package raster

import (
	"fmt"
	"math"
)

// GeoTransform is an affine transform mapping pixel coordinates to
// projected coordinates, laid out the way GDAL lays out its six
// geo transform coefficients:
//
//	X = TranslateX + ScaleX*col + ShearX*row
//	Y = TranslateY + ShearY*col + ScaleY*row
//
// Rasters produced by this package are axis aligned ("north up"), so
// the shear terms are carried structurally but always written as zero.
type GeoTransform struct {
	TranslateX float64
	ScaleX     float64
	ShearX     float64

	TranslateY float64
	ShearY     float64
	ScaleY     float64
}

// NewGeoTransform returns a north up GeoTransform with origin (x0, y0)
// and pixel scales (scaleX, scaleY).
func NewGeoTransform(x0, y0, scaleX, scaleY float64) GeoTransform {
	return GeoTransform{TranslateX: x0, ScaleX: scaleX, TranslateY: y0, ScaleY: scaleY}
}

// GeoTransformFromCoefficients returns the GeoTransform described by
// coefficients in GDAL order, e.g. as read back from a file.
func GeoTransformFromCoefficients(c [6]float64) GeoTransform {
	return GeoTransform{
		TranslateX: c[0],
		ScaleX:     c[1],
		ShearX:     c[2],
		TranslateY: c[3],
		ShearY:     c[4],
		ScaleY:     c[5],
	}
}

// Coefficients returns gt in GDAL order, suitable for handing to a storage backend.
func (gt *GeoTransform) Coefficients() [6]float64 {
	return [6]float64{gt.TranslateX, gt.ScaleX, gt.ShearX, gt.TranslateY, gt.ShearY, gt.ScaleY}
}

// Apply maps the pixel coordinate (xPix, yPix) to projected coordinates.
func (gt *GeoTransform) Apply(xPix, yPix float64) (xGeo, yGeo float64) {
	return gt.TranslateX + gt.ScaleX*xPix + gt.ShearX*yPix, gt.TranslateY + gt.ShearY*xPix + gt.ScaleY*yPix
}

// Invert returns a GeoTransform mapping projected coordinates back to
// pixel coordinates.  A transform with a zero pixel scale cannot be
// inverted and fails with a PreconditionError.
func (gt *GeoTransform) Invert() (GeoTransform, error) {
	// Doing it how its done in GDALInvGeoTransform.
	if gt.ShearX == 0.0 && gt.ShearY == 0.0 && gt.ScaleX != 0.0 && gt.ScaleY != 0.0 {
		return gt.easyInvert()
	}
	return gt.hardInvert()
}

func (gt *GeoTransform) easyInvert() (GeoTransform, error) {
	// Simplified computation when there is no shear/rotation (which is typical).
	return GeoTransform{
		TranslateX: -gt.TranslateX / gt.ScaleX,
		ScaleX:     1.0 / gt.ScaleX,
		TranslateY: -gt.TranslateY / gt.ScaleY,
		ScaleY:     1.0 / gt.ScaleY,
	}, nil
}

func (gt *GeoTransform) hardInvert() (GeoTransform, error) {
	// The more general case; we assume the third row of the affine matrix is [0 0 1].
	det := gt.ScaleX*gt.ScaleY - gt.ShearX*gt.ShearY
	if math.Abs(det) < 0.000000000000001 {
		return GeoTransform{}, &PreconditionError{Reason: fmt.Sprintf("non invertable geo transform = %+v", gt)}
	}
	invDet := 1.0 / det

	return GeoTransform{
		ScaleX: gt.ScaleY * invDet,
		ShearY: -gt.ShearY * invDet,

		ShearX: -gt.ShearX * invDet,
		ScaleY: gt.ScaleX * invDet,

		TranslateX: (gt.ShearX*gt.TranslateY - gt.TranslateX*gt.ScaleY) * invDet,
		TranslateY: (-gt.ScaleX*gt.TranslateY + gt.TranslateX*gt.ShearY) * invDet,
	}, nil
}
