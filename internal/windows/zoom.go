package windows

import "math"

const DefaultZoom = 1.0

// Zoom factors are rounded so repeated steps of 0.1 land on exact values
// and the floor comparison is stable.
func roundZoom(z float64) float64 {
	return math.Round(z*1e6) / 1e6
}

func zoomIn(current, step float64) float64 {
	return roundZoom(current + step)
}

func zoomOut(current, step, min float64) float64 {
	return math.Max(min, roundZoom(current-step))
}
