package geom

import "math"

// Box is an axis-aligned box given by its center and half extents.
type Box struct {
	Center Vec3
	Half   Vec3
}

// BoxFromSize builds a box from its center and full size.
func BoxFromSize(center, size Vec3) Box {
	return Box{Center: center, Half: size.Scale(0.5)}
}

func (b Box) Min() Vec3 { return b.Center.Sub(b.Half) }

func (b Box) Max() Vec3 { return b.Center.Add(b.Half) }

// Expand grows the box by d on every axis.
func (b Box) Expand(d float64) Box {
	return Box{Center: b.Center, Half: b.Half.Add(Vec3{d, d, d})}
}

// Contains reports whether p lies inside the box, boundary included.
func (b Box) Contains(p Vec3) bool {
	lo, hi := b.Min(), b.Max()
	return p.X >= lo.X && p.X <= hi.X &&
		p.Y >= lo.Y && p.Y <= hi.Y &&
		p.Z >= lo.Z && p.Z <= hi.Z
}

// Intersects reports whether the two boxes overlap with positive volume.
func (b Box) Intersects(o Box) bool {
	return math.Abs(b.Center.X-o.Center.X) < b.Half.X+o.Half.X &&
		math.Abs(b.Center.Y-o.Center.Y) < b.Half.Y+o.Half.Y &&
		math.Abs(b.Center.Z-o.Center.Z) < b.Half.Z+o.Half.Z
}

// HorizontalHalf is the larger of the X and Z half extents.
func (b Box) HorizontalHalf() float64 { return math.Max(b.Half.X, b.Half.Z) }

// RayDistance intersects the ray origin + t*dir (dir normalized) with the box
// using the slab method. It returns the entry distance and true on a hit in
// front of the origin. A ray starting inside the box hits at distance 0.
func (b Box) RayDistance(origin, dir Vec3) (float64, bool) {
	lo, hi := b.Min(), b.Max()
	tmin, tmax := math.Inf(-1), math.Inf(1)

	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	mn := [3]float64{lo.X, lo.Y, lo.Z}
	mx := [3]float64{hi.X, hi.Y, hi.Z}

	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < 1e-12 {
			if o[i] < mn[i] || o[i] > mx[i] {
				return 0, false
			}
			continue
		}
		t1 := (mn[i] - o[i]) / d[i]
		t2 := (mx[i] - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return 0, true
	}
	return tmin, true
}
