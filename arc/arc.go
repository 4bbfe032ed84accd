// Package arc decomposes G2/G3 circular (and helical) moves into a
// sequence of short straight-line segments, chord-tolerance limited
// (spec.md §4.2). It does no queueing of its own: callers drive the
// Generator one segment at a time via Next, each yielded target meant
// to be submitted exactly like an ordinary line move.
package arc

import (
	"math"

	"gopper/axis"

	"github.com/pkg/errors"
)

// Plane names which two canonical axes the arc lies in, and which third
// axis is the helical one.
type Plane int

const (
	PlaneXY Plane = iota
	PlaneXZ
	PlaneYZ
)

func (p Plane) axes() (u, v, helical axis.Index) {
	switch p {
	case PlaneXZ:
		return axis.X, axis.Z, axis.Y
	case PlaneYZ:
		return axis.Y, axis.Z, axis.X
	default:
		return axis.X, axis.Y, axis.Z
	}
}

// Params is everything the generator needs to resolve and segment one
// arc move (spec.md §4.2).
type Params struct {
	Plane        Plane
	Clockwise    bool
	Start        axis.Vector
	End          axis.Vector
	HasIJK       bool
	IJK          [3]float64 // offsets from Start, in plane-letter order (I,J,K)
	HasRadius    bool
	Radius       float64
	FeedRate     float64
	ChordalTol   float64 // mm
	MinSegLen    float64 // mm
	MaxSegLen    float64 // mm, 0 = unbounded
}

// ErrArcSpecification is returned when the arc's total travel is shorter
// than one segment, so no whole segment fits (spec.md §4.2 "Failure"). The
// segment length is never below MinSegLen, since MinSegLen is its floor.
var ErrArcSpecification = errors.New("arc specification error: arc shorter than one segment")

// Generator yields the straight-line segments approximating one arc. It
// is an iterator object, not a queue: the CM owns one per in-progress
// arc and calls Next until done is true, re-entering its normal motion
// dispatch for each yielded target (spec.md §9).
type Generator struct {
	p Plane

	centre  axis.Vector // in u,v plane coordinates (absolute canonical)
	u, v, h axis.Index

	radius      float64
	startAngle  float64
	angularSpan float64 // signed: positive = CCW

	linearStart float64
	linearSpan  float64

	segments   int
	emitted    int
	start      axis.Vector
	feedRate   float64
}

// NewGenerator resolves the arc centre and total travel, then partitions
// it into a whole number of equal segments (spec.md §4.2 steps 1-4).
func NewGenerator(p Params) (*Generator, error) {
	u, v, h := p.Plane.axes()

	var centreU, centreV, radius float64
	var startAngle, endAngle float64

	if p.HasRadius {
		centreU, centreV, radius = centerFromRadius(p.Start[u], p.Start[v], p.End[u], p.End[v], p.Radius, p.Clockwise)
	} else if p.HasIJK {
		// I/J/K map onto u/v in plane order; the third component is unused
		// in-plane (helical height comes from Start/End on h directly).
		centreU = p.Start[u] + ijkFor(p.Plane, p.IJK, 0)
		centreV = p.Start[v] + ijkFor(p.Plane, p.IJK, 1)
		radius = math.Hypot(p.Start[u]-centreU, p.Start[v]-centreV)
	} else {
		return nil, errors.New("arc: neither IJK nor R specified")
	}

	startAngle = math.Atan2(p.Start[v]-centreV, p.Start[u]-centreU)
	endAngle = math.Atan2(p.End[v]-centreV, p.End[u]-centreU)

	span := endAngle - startAngle
	if p.Clockwise {
		for span >= 0 {
			span -= 2 * math.Pi
		}
	} else {
		for span <= 0 {
			span += 2 * math.Pi
		}
	}

	arcLen := math.Abs(span*radius) + math.Abs(p.End[h]-p.Start[h])

	segLen := chordLengthFor(p.ChordalTol, radius)
	if p.MinSegLen > segLen {
		segLen = p.MinSegLen
	}
	if p.MaxSegLen > 0 && segLen > p.MaxSegLen {
		segLen = p.MaxSegLen
	}
	if segLen <= 0 || arcLen/segLen < 1 {
		return nil, ErrArcSpecification
	}

	n := int(math.Ceil(arcLen / segLen))
	if n < 1 {
		return nil, ErrArcSpecification
	}

	g := &Generator{
		p:           p.Plane,
		u:           u,
		v:           v,
		h:           h,
		radius:      radius,
		startAngle:  startAngle,
		angularSpan: span,
		linearStart: p.Start[h],
		linearSpan:  p.End[h] - p.Start[h],
		segments:    n,
		start:       p.Start,
		feedRate:    p.FeedRate,
	}
	g.centre = p.Start
	g.centre[u], g.centre[v] = centreU, centreV
	return g, nil
}

// chordLengthFor returns the maximum segment chord length that keeps the
// sagitta within tol for the given radius (spec.md §4.2 step 4).
func chordLengthFor(tol, radius float64) float64 {
	if radius <= 0 {
		return tol
	}
	if tol >= radius {
		return 2 * radius
	}
	return 2 * math.Sqrt(2*radius*tol-tol*tol)
}

func centerFromRadius(sx, sy, ex, ey, r float64, clockwise bool) (cx, cy, radius float64) {
	dx, dy := ex-sx, ey-sy
	d := math.Hypot(dx, dy)
	radius = math.Abs(r)
	if d == 0 || d > 2*radius {
		return (sx + ex) / 2, (sy + ey) / 2, radius
	}
	h := math.Sqrt(radius*radius - (d/2)*(d/2))
	mx, my := (sx+ex)/2, (sy+ey)/2
	ux, uy := -dy/d, dx/d // perpendicular unit vector

	// Negative R means the arc sweeps more than 180 degrees: flip which
	// side the centre falls on (spec.md §4.2 step 2).
	sign := -1.0
	if (r < 0) == clockwise {
		sign = 1.0
	}
	return mx + sign*h*ux, my + sign*h*uy, radius
}

func ijkFor(p Plane, ijk [3]float64, slot int) float64 {
	switch p {
	case PlaneXZ:
		if slot == 0 {
			return ijk[0]
		}
		return ijk[2]
	case PlaneYZ:
		if slot == 0 {
			return ijk[1]
		}
		return ijk[2]
	default:
		return ijk[slot]
	}
}

// Done reports whether every segment has been emitted.
func (g *Generator) Done() bool { return g.emitted >= g.segments }

// Next returns the absolute canonical target of the next segment
// endpoint (spec.md §4.2 step 5). Callers must not call Next once Done
// reports true.
func (g *Generator) Next() axis.Vector {
	g.emitted++
	frac := float64(g.emitted) / float64(g.segments)
	angle := g.startAngle + g.angularSpan*frac

	target := g.start
	target[g.u] = g.centre[g.u] + g.radius*math.Cos(angle)
	target[g.v] = g.centre[g.v] + g.radius*math.Sin(angle)
	target[g.h] = g.linearStart + g.linearSpan*frac
	return target
}

// FeedRate returns the feed rate every emitted segment inherits.
func (g *Generator) FeedRate() float64 { return g.feedRate }
