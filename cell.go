package mdrun

import "math"

// Cell holds triclinic cell parameters: three lengths in Å and three angles
// in degrees.
type Cell struct {
	A     float64 `json:"a" yaml:"a"`
	B     float64 `json:"b" yaml:"b"`
	C     float64 `json:"c" yaml:"c"`
	Alpha float64 `json:"alpha" yaml:"alpha"`
	Beta  float64 `json:"beta" yaml:"beta"`
	Gamma float64 `json:"gamma" yaml:"gamma"`
}

// Box is the engine's representation of the same cell: edge lengths plus
// three tilt factors.
type Box struct {
	Lx float64
	Ly float64
	Lz float64
	Xy float64
	Xz float64
	Yz float64
}

// Orthogonal reports whether all three tilt factors are zero.
func (b Box) Orthogonal() bool {
	return b.Xy == 0 && b.Xz == 0 && b.Yz == 0
}

// Box converts cell parameters to the engine's box form.
func (c Cell) Box() Box {
	if c.Alpha == 90 && c.Beta == 90 && c.Gamma == 90 {
		return Box{Lx: c.A, Ly: c.B, Lz: c.C}
	}
	xy := c.B * math.Cos(radians(c.Gamma))
	xz := c.C * math.Cos(radians(c.Beta))
	ly := math.Sqrt(c.B*c.B - xy*xy)
	yz := (c.B*c.C*math.Cos(radians(c.Alpha)) - xy*xz) / ly
	lz := math.Sqrt(c.C*c.C - xz*xz - yz*yz)
	return Box{Lx: c.A, Ly: ly, Lz: lz, Xy: xy, Xz: xz, Yz: yz}
}

// Cell converts the box form back to cell parameters. An orthogonal box maps
// to 90 degree angles.
func (b Box) Cell() Cell {
	if b.Orthogonal() {
		return Cell{A: b.Lx, B: b.Ly, C: b.Lz, Alpha: 90, Beta: 90, Gamma: 90}
	}
	a := b.Lx
	bb := math.Sqrt(b.Ly*b.Ly + b.Xy*b.Xy)
	cc := math.Sqrt(b.Lz*b.Lz + b.Xz*b.Xz + b.Yz*b.Yz)
	alpha := degrees(math.Acos((b.Xy*b.Xz + b.Ly*b.Yz) / (bb * cc)))
	beta := degrees(math.Acos(b.Xz / cc))
	gamma := degrees(math.Acos(b.Xy / bb))
	return Cell{A: a, B: bb, C: cc, Alpha: alpha, Beta: beta, Gamma: gamma}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
