// Package geom models the detector geometry consumed by the background
// estimation pipeline: an incident beam and a flat detector panel. The
// numeric components depend only on the Beam and Panel interfaces so any
// geometry implementation can be substituted.
package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Beam exposes the incident beam.
type Beam interface {
	// S0 returns the incident wavevector (direction of propagation with
	// magnitude 1/wavelength).
	S0() r3.Vec
}

// Panel exposes the detector panel operations required by the gap fillers
// and the polar remapper. Pixel coordinates are (x = fast axis, y = slow
// axis) in pixel units; the lab frame origin is the sample position.
type Panel interface {
	// ImageSize returns the panel size in pixels (width = fast, height = slow).
	ImageSize() (w, h int)
	// PixelLabCoord returns the lab-frame position of the given pixel
	// coordinate.
	PixelLabCoord(x, y float64) r3.Vec
	// ResolutionAtPixel returns the crystallographic resolution (d-spacing)
	// of the given pixel for the incident wavevector s0.
	ResolutionAtPixel(s0 r3.Vec, x, y float64) float64
	// RayIntersection intersects a lab-frame direction from the sample with
	// the panel plane and returns the pixel coordinate.
	RayIntersection(dir r3.Vec) (x, y float64, err error)
}

// MonoBeam is a monochromatic beam with a fixed direction and wavelength.
type MonoBeam struct {
	direction  r3.Vec // unit vector along propagation
	wavelength float64
}

// NewMonoBeam builds a beam from a propagation direction (need not be
// normalised) and a wavelength in the same length units as the panel
// geometry.
func NewMonoBeam(direction r3.Vec, wavelength float64) (*MonoBeam, error) {
	if r3.Norm(direction) == 0 {
		return nil, fmt.Errorf("beam direction must be non-zero")
	}
	if wavelength <= 0 {
		return nil, fmt.Errorf("beam wavelength must be positive, got %g", wavelength)
	}
	return &MonoBeam{direction: r3.Unit(direction), wavelength: wavelength}, nil
}

// S0 returns the incident wavevector.
func (b *MonoBeam) S0() r3.Vec {
	return r3.Scale(1.0/b.wavelength, b.direction)
}

// Wavelength returns the beam wavelength.
func (b *MonoBeam) Wavelength() float64 { return b.wavelength }

// FlatPanel is a planar detector panel. The pixel grid spans origin +
// x*pixelSizeX*fast + y*pixelSizeY*slow for x in [0,W], y in [0,H], with the
// sample at the lab origin.
type FlatPanel struct {
	origin     r3.Vec // lab position of pixel (0,0) corner
	fast, slow r3.Vec // unit axes
	pixelX     float64
	pixelY     float64
	width      int
	height     int
	normal     r3.Vec
}

// NewFlatPanel constructs a panel from its corner origin, fast/slow axes and
// pixel pitch. The axes need not be normalised but must not be parallel.
func NewFlatPanel(origin, fast, slow r3.Vec, pixelX, pixelY float64, width, height int) (*FlatPanel, error) {
	if pixelX <= 0 || pixelY <= 0 {
		return nil, fmt.Errorf("pixel size (%g, %g) must be positive", pixelX, pixelY)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image size (%d, %d) must be positive", width, height)
	}
	f := r3.Unit(fast)
	s := r3.Unit(slow)
	n := r3.Cross(f, s)
	if r3.Norm(n) < 1e-12 {
		return nil, fmt.Errorf("fast and slow axes are parallel")
	}
	return &FlatPanel{
		origin: origin,
		fast:   f,
		slow:   s,
		pixelX: pixelX,
		pixelY: pixelY,
		width:  width,
		height: height,
		normal: r3.Unit(n),
	}, nil
}

// ImageSize returns the panel size in pixels.
func (p *FlatPanel) ImageSize() (w, h int) { return p.width, p.height }

// PixelLabCoord returns the lab position of pixel coordinate (x, y).
func (p *FlatPanel) PixelLabCoord(x, y float64) r3.Vec {
	return r3.Add(p.origin, r3.Add(
		r3.Scale(x*p.pixelX, p.fast),
		r3.Scale(y*p.pixelY, p.slow)))
}

// ResolutionAtPixel returns the Bragg d-spacing for the scattering angle of
// pixel (x, y): d = lambda / (2 sin(theta/2)). The value diverges toward
// +Inf at the beam centre.
func (p *FlatPanel) ResolutionAtPixel(s0 r3.Vec, x, y float64) float64 {
	wavelength := 1.0 / r3.Norm(s0)
	theta := Angle(s0, p.PixelLabCoord(x, y))
	sinHalf := math.Sin(theta / 2)
	if sinHalf == 0 {
		return math.Inf(1)
	}
	return wavelength / (2 * sinHalf)
}

// RayIntersection intersects a ray from the sample along dir with the panel
// plane. The returned coordinate is in pixel units and may fall outside the
// panel bounds; only rays that do not hit the plane produce an error.
func (p *FlatPanel) RayIntersection(dir r3.Vec) (x, y float64, err error) {
	denom := r3.Dot(dir, p.normal)
	if math.Abs(denom) < 1e-12 {
		return 0, 0, fmt.Errorf("ray is parallel to the panel plane")
	}
	t := r3.Dot(p.origin, p.normal) / denom
	if t <= 0 {
		return 0, 0, fmt.Errorf("ray points away from the panel plane")
	}
	rel := r3.Sub(r3.Scale(t, dir), p.origin)
	return r3.Dot(rel, p.fast) / p.pixelX, r3.Dot(rel, p.slow) / p.pixelY, nil
}

// Angle returns the angle between two vectors in radians, robust to
// near-parallel inputs.
func Angle(a, b r3.Vec) float64 {
	return math.Atan2(r3.Norm(r3.Cross(a, b)), r3.Dot(a, b))
}
