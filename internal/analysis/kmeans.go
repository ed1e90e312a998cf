package analysis

import (
	"math"
	"math/rand"
)

// Deterministic clustering budget. The fixed seed plus a fixed number of
// restarts and iterations makes repeated runs over identical input produce
// identical partitions.
const (
	kmeansSeed        = 42
	kmeansRestarts    = 10
	kmeansMaxIter     = 100
	kmeansConvergeEps = 1e-6
)

// kmeans partitions vectors into k groups and returns one label per vector.
// All vectors must share the same dimensionality; the caller validates that.
func kmeans(vectors [][]float64, k int) []int {
	rng := rand.New(rand.NewSource(kmeansSeed))

	bestLabels := make([]int, len(vectors))
	bestInertia := math.Inf(1)

	for restart := 0; restart < kmeansRestarts; restart++ {
		labels, inertia := kmeansOnce(vectors, k, rng)
		if inertia < bestInertia {
			bestInertia = inertia
			copy(bestLabels, labels)
		}
	}

	return bestLabels
}

func kmeansOnce(vectors [][]float64, k int, rng *rand.Rand) ([]int, float64) {
	centroids := initCentroids(vectors, k, rng)
	labels := make([]int, len(vectors))

	var inertia float64

	for iter := 0; iter < kmeansMaxIter; iter++ {
		inertia = assignLabels(vectors, centroids, labels)

		next := recomputeCentroids(vectors, labels, k, len(vectors[0]))
		if centroidShift(centroids, next) < kmeansConvergeEps {
			centroids = next
			break
		}

		centroids = next
	}

	inertia = assignLabels(vectors, centroids, labels)

	return labels, inertia
}

// initCentroids seeds centroids k-means++ style: the first pick is uniform,
// later picks are weighted by squared distance to the nearest chosen
// centroid.
func initCentroids(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, cloneVector(vectors[rng.Intn(len(vectors))]))

	distances := make([]float64, len(vectors))

	for len(centroids) < k {
		var total float64

		for i, v := range vectors {
			d := squaredDistance(v, centroids[0])
			for _, c := range centroids[1:] {
				if dc := squaredDistance(v, c); dc < d {
					d = dc
				}
			}

			distances[i] = d
			total += d
		}

		idx := weightedPick(distances, total, rng)
		centroids = append(centroids, cloneVector(vectors[idx]))
	}

	return centroids
}

func weightedPick(distances []float64, total float64, rng *rand.Rand) int {
	if total <= 0 {
		return rng.Intn(len(distances))
	}

	target := rng.Float64() * total

	var cum float64

	for i, d := range distances {
		cum += d
		if cum >= target {
			return i
		}
	}

	return len(distances) - 1
}

func assignLabels(vectors, centroids [][]float64, labels []int) float64 {
	var inertia float64

	for i, v := range vectors {
		best := 0
		bestDist := squaredDistance(v, centroids[0])

		for c := 1; c < len(centroids); c++ {
			if d := squaredDistance(v, centroids[c]); d < bestDist {
				best = c
				bestDist = d
			}
		}

		labels[i] = best
		inertia += bestDist
	}

	return inertia
}

func recomputeCentroids(vectors [][]float64, labels []int, k, dim int) [][]float64 {
	centroids := make([][]float64, k)
	counts := make([]int, k)

	for c := range centroids {
		centroids[c] = make([]float64, dim)
	}

	for i, v := range vectors {
		c := labels[i]
		counts[c]++

		for d, x := range v {
			centroids[c][d] += x
		}
	}

	for c := range centroids {
		if counts[c] == 0 {
			// Empty cluster keeps its previous members' mean at zero; the
			// next assignment pass repopulates it or leaves it empty.
			continue
		}

		for d := range centroids[c] {
			centroids[c][d] /= float64(counts[c])
		}
	}

	return centroids
}

func centroidShift(prev, next [][]float64) float64 {
	var shift float64

	for c := range prev {
		shift += squaredDistance(prev[c], next[c])
	}

	return shift
}

func squaredDistance(a, b []float64) float64 {
	var sum float64

	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return sum
}

func cloneVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)

	return out
}
