// Package systems provides the simulation core: depth conversion, population
// limits, the ecosystem regime controller, spawning, fish AI, and schooling.
package systems

// DepthConverter maps between water depth in feet and vertical screen
// pixels. The water surface sits at y=0; a reserve strip at the bottom of
// the canvas is land, not water. Out-of-range inputs are clamped, never
// rejected.
type DepthConverter struct {
	canvasHeight    float64
	maxDepthFeet    float64
	bottomReservePx float64
	depthScale      float64 // pixels per foot
}

// NewDepthConverter creates a converter for the given canvas and depth.
func NewDepthConverter(canvasHeight, maxDepthFeet, bottomReservePx float64) *DepthConverter {
	d := &DepthConverter{bottomReservePx: bottomReservePx}
	d.Resize(canvasHeight, maxDepthFeet)
	return d
}

// Resize recomputes the depth scale for a new canvas height and/or max depth.
// Pass maxDepthFeet <= 0 to keep the current max depth.
func (d *DepthConverter) Resize(canvasHeight, maxDepthFeet float64) {
	d.canvasHeight = canvasHeight
	if maxDepthFeet > 0 {
		d.maxDepthFeet = maxDepthFeet
	}
	usable := d.canvasHeight - d.bottomReservePx
	if usable < 1 {
		usable = 1
	}
	d.depthScale = usable / d.maxDepthFeet
}

// MaxDepthFeet returns the current maximum depth.
func (d *DepthConverter) MaxDepthFeet() float64 { return d.maxDepthFeet }

// WaterFloorY returns the pixel row of the lake bottom.
func (d *DepthConverter) WaterFloorY() float64 {
	return d.canvasHeight - d.bottomReservePx
}

// DepthToY converts depth in feet to a pixel row, clamping to the water column.
func (d *DepthConverter) DepthToY(depthFeet float64) float64 {
	if depthFeet < 0 {
		depthFeet = 0
	}
	if depthFeet > d.maxDepthFeet {
		depthFeet = d.maxDepthFeet
	}
	return depthFeet * d.depthScale
}

// YToDepth converts a pixel row to depth in feet, clamping to [0, maxDepth].
func (d *DepthConverter) YToDepth(y float64) float64 {
	y = d.ClampToWater(y)
	return y / d.depthScale
}

// IsInWater reports whether a pixel row lies within the water column.
func (d *DepthConverter) IsInWater(y float64) bool {
	return y >= 0 && y <= d.WaterFloorY()
}

// ClampToWater clamps a pixel row into the water column.
func (d *DepthConverter) ClampToWater(y float64) float64 {
	if y < 0 {
		return 0
	}
	if floor := d.WaterFloorY(); y > floor {
		return floor
	}
	return y
}
