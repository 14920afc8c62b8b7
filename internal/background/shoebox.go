package background

// Shoebox is a bounded 3D (frame × row × column) sub-volume of image data
// associated with a localised feature. It carries its own data, mask and
// background buffers, all indexed by (frame k, row j, column i). The caller
// owns the buffers; the fitter writes only into Background.
type Shoebox struct {
	// BBox is the bounding box as (x0, x1, y0, y1, z0, z1) in pixel/frame
	// units, half-open on the upper bounds.
	BBox [6]int

	Data       []float64
	Mask       []bool
	Background []float64
}

// NewShoebox allocates a shoebox with zeroed buffers for the given bounding
// box.
func NewShoebox(x0, x1, y0, y1, z0, z1 int) *Shoebox {
	s := &Shoebox{BBox: [6]int{x0, x1, y0, y1, z0, z1}}
	n := s.XSize() * s.YSize() * s.ZSize()
	if n > 0 {
		s.Data = make([]float64, n)
		s.Mask = make([]bool, n)
		s.Background = make([]float64, n)
	}
	return s
}

// XSize returns the column extent of the bounding box.
func (s *Shoebox) XSize() int { return s.BBox[1] - s.BBox[0] }

// YSize returns the row extent of the bounding box.
func (s *Shoebox) YSize() int { return s.BBox[3] - s.BBox[2] }

// ZSize returns the frame extent of the bounding box.
func (s *Shoebox) ZSize() int { return s.BBox[5] - s.BBox[4] }

// Index returns the flat buffer index for (frame k, row j, column i)
// relative to the bounding box origin.
func (s *Shoebox) Index(k, j, i int) int {
	return (k*s.YSize()+j)*s.XSize() + i
}

// IsConsistent reports whether the bounding box is well-formed and all three
// buffers match its volume.
func (s *Shoebox) IsConsistent() bool {
	if s.BBox[1] < s.BBox[0] || s.BBox[3] < s.BBox[2] || s.BBox[5] < s.BBox[4] {
		return false
	}
	n := s.XSize() * s.YSize() * s.ZSize()
	return len(s.Data) == n && len(s.Mask) == n && len(s.Background) == n
}
