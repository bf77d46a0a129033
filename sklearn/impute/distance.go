package impute

import "math"

// nanEuclidean はNaNを含む2行間のユークリッド距離を計算する
//
// 両方の行で値が存在する座標だけを使い、欠損分を補うために
// n_total / n_present で重み付けする:
//
//	d(x, y) = sqrt(n_total / n_present * Σ (x_i - y_i)^2)
//
// 共通して存在する座標がない場合は NaN（未定義）を返す。
func nanEuclidean(x, y []float64, missing func(float64) bool) float64 {
	var (
		sumSq   float64
		present int
	)
	for i := range x {
		if missing(x[i]) || missing(y[i]) {
			continue
		}
		d := x[i] - y[i]
		sumSq += d * d
		present++
	}
	if present == 0 {
		return math.NaN()
	}
	return math.Sqrt(float64(len(x)) / float64(present) * sumSq)
}

// neighbor is a candidate donor with its distance to the receiver.
type neighbor struct {
	row  int
	dist float64
}

// less orders by distance then by training row index. Undefined distances
// sort after every defined one.
func (a neighbor) less(b neighbor) bool {
	an, bn := math.IsNaN(a.dist), math.IsNaN(b.dist)
	switch {
	case an && bn:
		return a.row < b.row
	case an:
		return false
	case bn:
		return true
	case a.dist != b.dist:
		return a.dist < b.dist
	default:
		return a.row < b.row
	}
}

// donorWeights returns the weight of each selected neighbor.
//
// uniform: 1 for every defined distance. distance: 1/d, except that when any
// neighbor sits at distance 0 only the zero-distance neighbors count.
// Undefined distances always get weight 0.
func donorWeights(neighbors []neighbor, scheme string) []float64 {
	w := make([]float64, len(neighbors))
	if scheme == WeightsDistance {
		exact := false
		for _, n := range neighbors {
			if n.dist == 0 {
				exact = true
				break
			}
		}
		for i, n := range neighbors {
			switch {
			case math.IsNaN(n.dist):
			case exact:
				if n.dist == 0 {
					w[i] = 1
				}
			default:
				w[i] = 1 / n.dist
			}
		}
		return w
	}
	for i, n := range neighbors {
		if !math.IsNaN(n.dist) {
			w[i] = 1
		}
	}
	return w
}
