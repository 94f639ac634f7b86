package math

import (
	stdmath "math"
)

// FastAbs, FastMin, FastMax and FastClamp are the hot-path helpers used by
// the BVH's AABB slab test and the geometry package's bounce math;
// FastMin, FastMax and FastClamp stay branch-only (no stdmath call).
// FastAbs, FastSin, FastCos and FastAcos wrap stdmath directly — Go's
// math package has no faster approximation worth duplicating.

func FastSin(x float64) float64 {
	return stdmath.Sin(x)
}

func FastCos(x float64) float64 {
	return stdmath.Cos(x)
}

func FastAbs(x float64) float64 {
	return stdmath.Abs(x)
}

func FastMin(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func FastMax(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func FastClamp(x, min, max float64) float64 {
	return FastMax(min, FastMin(x, max))
}

func FastAcos(x float64) float64 {
	return stdmath.Acos(x)
}
