package geospatial

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Sequence orders items into a tour using greedy nearest-neighbour: starting
// at start, it repeatedly visits the closest unvisited item. The result is a
// permutation of items; exact distance ties go to the earlier item in input
// order. The tour is not guaranteed to be the shortest one.
func Sequence[T any](items []T, start Point, coordsOf func(T) Point) []T {
	remaining := make([]T, len(items))
	copy(remaining, items)
	ordered := make([]T, 0, len(items))

	current := start
	for len(remaining) > 0 {
		best := 0
		bestDist := distance(current, coordsOf(remaining[0]))
		for i := 1; i < len(remaining); i++ {
			if d := distance(current, coordsOf(remaining[i])); d < bestDist {
				best, bestDist = i, d
			}
		}

		next := remaining[best]
		ordered = append(ordered, next)
		remaining = append(remaining[:best], remaining[best+1:]...)
		current = coordsOf(next)
	}
	return ordered
}

// TourLength sums the leg distances in km of visiting points in order from start.
func TourLength(start Point, points []Point) float64 {
	total := 0.0
	current := start
	for _, p := range points {
		total += distance(current, p)
		current = p
	}
	return total
}

func distance(a, b Point) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}
