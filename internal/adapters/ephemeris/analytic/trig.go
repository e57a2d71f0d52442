package analytic

import "math"

const rad = math.Pi / 180

func sind(x float64) float64 { return math.Sin(x * rad) }
func cosd(x float64) float64 { return math.Cos(x * rad) }
func tand(x float64) float64 { return math.Tan(x * rad) }

func asind(x float64) float64     { return math.Asin(x) / rad }
func atan2d(y, x float64) float64 { return math.Atan2(y, x) / rad }

// vec3 is a Cartesian vector; the frame depends on the caller.
type vec3 struct{ x, y, z float64 }

func (a vec3) sub(b vec3) vec3 { return vec3{a.x - b.x, a.y - b.y, a.z - b.z} }

func (a vec3) scale(k float64) vec3 { return vec3{a.x * k, a.y * k, a.z * k} }

func (a vec3) add(b vec3) vec3 { return vec3{a.x + b.x, a.y + b.y, a.z + b.z} }

func (a vec3) dot(b vec3) float64 { return a.x*b.x + a.y*b.y + a.z*b.z }

func (a vec3) cross(b vec3) vec3 {
	return vec3{a.y*b.z - a.z*b.y, a.z*b.x - a.x*b.z, a.x*b.y - a.y*b.x}
}

func (a vec3) norm() float64 { return math.Sqrt(a.dot(a)) }

// spherical returns longitude in [0, 360), latitude and radius.
func (a vec3) spherical() (lon, lat, r float64) {
	r = a.norm()
	lon = atan2d(a.y, a.x)
	if lon < 0 {
		lon += 360
	}
	lat = atan2d(a.z, math.Hypot(a.x, a.y))
	return lon, lat, r
}
