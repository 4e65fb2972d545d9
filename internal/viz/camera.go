package viz

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is an orthographic view onto the x/y plane after rotating the
// ensemble about the x and y axes. Scale is metres per sub-pixel.
type Camera struct {
	RotX, RotY float64
	Scale      float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Scale: 1, Zoom: 1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(1e3, c.Zoom*1.25) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(1e-3, c.Zoom/1.25) }

// Rotate applies the camera rotation to p.
func (c *Camera) Rotate(p r3.Vec) r3.Vec {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	return p
}

// Fit sets Scale so every finite position, measured from centre, lands on a
// canvas of w x h sub-pixels at zoom 1.
func (c *Camera) Fit(positions []r3.Vec, centre r3.Vec, w, h int) {
	extent := 0.0
	for _, p := range positions {
		if d := r3.Norm(r3.Sub(p, centre)); !math.IsInf(d, 0) && !math.IsNaN(d) {
			extent = math.Max(extent, d)
		}
	}
	half := float64(min(w, h)) / 2
	if extent == 0 || half <= 1 {
		c.Scale = 1
		return
	}
	c.Scale = extent / (half - 1)
}

// Project maps p, measured from centre, to sub-pixel coordinates on a
// w x h canvas. The y axis points up.
func (c *Camera) Project(p, centre r3.Vec, w, h int) (int, int, bool) {
	q := c.Rotate(r3.Sub(p, centre))
	k := c.Zoom / c.Scale
	fx := q.X*k + float64(w)/2
	fy := -q.Y*k + float64(h)/2
	if math.IsNaN(fx) || math.IsNaN(fy) {
		return 0, 0, false
	}
	x, y := int(math.Floor(fx)), int(math.Floor(fy))
	return x, y, x >= 0 && x < w && y >= 0 && y < h
}
