// Package impute は欠損値補完のための変換器を提供する。
package impute

import (
	"encoding/gob"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/netsecml/core/model"
	"github.com/YuminosukeSato/netsecml/pkg/errors"
	"github.com/YuminosukeSato/netsecml/pkg/log"
)

const (
	// WeightsUniform は近傍の値を単純平均する
	WeightsUniform = "uniform"
	// WeightsDistance は近傍の値を距離の逆数で重み付けする
	WeightsDistance = "distance"

	// DefaultNNeighbors is the number of neighbors used when none is given.
	DefaultNNeighbors = 5

	// emptyFeatureFill is written into columns that were entirely missing
	// during Fit.
	emptyFeatureFill = 0.0
)

func init() {
	gob.Register(&KNNImputer{})
}

var _ model.Transformer = (*KNNImputer)(nil)

// KNNImputer はk近傍法による欠損値補完器
//
// 各欠損セルは、その列の値を持つ学習データ行（ドナー）のうち
// nan-euclidean 距離で最も近い NNeighbors 行の値から補完される。
// 同距離の場合は学習データの行番号が小さい方が優先されるため、
// 出力は常に決定的になる。
//
// 学習時に全ての値が欠損していた列は削除せず、0で補完する。
type KNNImputer struct {
	// NNeighbors は補完に使う近傍の数
	NNeighbors int
	// Weights は "uniform" または "distance"
	Weights string
	// MissingValue は欠損を表す値（デフォルト: NaN）。NaNは常に欠損として扱う
	MissingValue float64

	// Train は学習データの行優先コピー
	Train []float64
	// Means は各列の観測値の平均（全ドナーとの距離が未定義のときに使う）
	Means []float64
	// Empty は学習時に観測値が1つもなかった列
	Empty []bool

	State *model.StateManager
}

// Option configures a KNNImputer.
type Option func(*KNNImputer)

// WithNNeighbors は近傍数を設定する
func WithNNeighbors(n int) Option {
	return func(k *KNNImputer) { k.NNeighbors = n }
}

// WithWeights は重み付け方式を設定する
func WithWeights(weights string) Option {
	return func(k *KNNImputer) { k.Weights = weights }
}

// WithMissingValue は欠損を表す値を設定する
func WithMissingValue(v float64) Option {
	return func(k *KNNImputer) { k.MissingValue = v }
}

// NewKNNImputer は新しいKNNImputerを作成する
//
// 使用例:
//
//	imp := impute.NewKNNImputer(impute.WithNNeighbors(3))
//	Xt, err := imp.FitTransform(X)
func NewKNNImputer(opts ...Option) *KNNImputer {
	k := &KNNImputer{
		NNeighbors:   DefaultNNeighbors,
		Weights:      WeightsUniform,
		MissingValue: math.NaN(),
		State:        model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Name returns the estimator name used in logs and errors.
func (k *KNNImputer) Name() string { return "KNNImputer" }

// Validate checks the hyperparameters.
func (k *KNNImputer) Validate() error {
	if k.NNeighbors < 1 {
		return errors.NewValidationError("n_neighbors", "must be at least 1", k.NNeighbors)
	}
	if k.Weights != WeightsUniform && k.Weights != WeightsDistance {
		return errors.NewValidationError("weights", "must be 'uniform' or 'distance'", k.Weights)
	}
	if math.IsInf(k.MissingValue, 0) {
		return errors.NewValidationError("missing_values", "must be NaN or a finite number", k.MissingValue)
	}
	return nil
}

func (k *KNNImputer) isMissing(v float64) bool {
	if math.IsNaN(v) {
		return true
	}
	return !math.IsNaN(k.MissingValue) && v == k.MissingValue
}

// checkFinite rejects infinite values, which cannot take part in distances.
func (k *KNNImputer) checkFinite(op string, X mat.Matrix) error {
	r, c := X.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsInf(X.At(i, j), 0) {
				return errors.NewValueError(op, fmt.Sprintf("input contains infinity at row %d, column %d", i, j))
			}
		}
	}
	return nil
}

// Fit は学習データを保持し、列ごとの平均と空列を記録する
func (k *KNNImputer) Fit(X mat.Matrix) (err error) {
	defer errors.Recover(&err, "KNNImputer.Fit")

	if err := k.Validate(); err != nil {
		return err
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("KNNImputer.Fit", "empty data", errors.ErrEmptyData)
	}
	if err := k.checkFinite("KNNImputer.Fit", X); err != nil {
		return err
	}
	if k.State == nil {
		k.State = model.NewStateManager()
	}

	train := make([]float64, r*c)
	means := make([]float64, c)
	empty := make([]bool, c)
	counts := make([]int, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			train[i*c+j] = v
			if !k.isMissing(v) {
				means[j] += v
				counts[j]++
			}
		}
	}

	logger := log.GetLoggerWithName("impute.knn")
	for j := 0; j < c; j++ {
		if counts[j] == 0 {
			empty[j] = true
			means[j] = emptyFeatureFill
			errors.Warn(errors.NewEmptyFeatureWarning(k.Name(), j, emptyFeatureFill))
			continue
		}
		means[j] /= float64(counts[j])
	}

	k.Train = train
	k.Means = means
	k.Empty = empty
	k.State.SetDimensions(c, r)
	k.State.SetFitted()

	logger.Debug("KNNImputer fitted",
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.HyperParamsKey, k.String(),
	)
	return nil
}

// Transform は欠損セルを学習データの近傍から補完した新しい行列を返す
//
// 学習済みの状態は変更しない。
func (k *KNNImputer) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "KNNImputer.Transform")

	if k.State == nil {
		return nil, errors.NewNotFittedError(k.Name(), "Transform")
	}
	if err := k.State.RequireFitted(k.Name(), "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := k.State.RequireFeatures("KNNImputer.Transform", c); err != nil {
		return nil, err
	}
	if r == 0 {
		return nil, errors.NewModelError("KNNImputer.Transform", "empty data", errors.ErrEmptyData)
	}
	if err := k.checkFinite("KNNImputer.Transform", X); err != nil {
		return nil, err
	}

	out := mat.DenseCopyOf(X)
	_, nTrain := k.State.GetDimensions()

	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)

		var missingCols []int
		for j, v := range row {
			if k.isMissing(v) {
				missingCols = append(missingCols, j)
			}
		}
		if len(missingCols) == 0 {
			continue
		}

		dists := make([]float64, nTrain)
		for t := 0; t < nTrain; t++ {
			dists[t] = nanEuclidean(row, k.Train[t*c:(t+1)*c], k.isMissing)
		}

		for _, j := range missingCols {
			out.Set(i, j, k.imputeCell(dists, j, c, nTrain))
		}
	}

	if err := errors.CheckMatrix("KNNImputer.Transform", out, r, c); err != nil {
		return nil, err
	}
	return out, nil
}

// imputeCell computes the value for column j of a receiver whose distances
// to every training row are dists.
func (k *KNNImputer) imputeCell(dists []float64, j, c, nTrain int) float64 {
	if k.Empty[j] {
		return emptyFeatureFill
	}

	donors := make([]neighbor, 0, nTrain)
	defined := false
	for t := 0; t < nTrain; t++ {
		if k.isMissing(k.Train[t*c+j]) {
			continue
		}
		donors = append(donors, neighbor{row: t, dist: dists[t]})
		if !math.IsNaN(dists[t]) {
			defined = true
		}
	}
	if !defined {
		return k.Means[j]
	}

	sort.Slice(donors, func(a, b int) bool { return donors[a].less(donors[b]) })
	n := k.NNeighbors
	if n > len(donors) {
		n = len(donors)
	}
	nearest := donors[:n]
	weights := donorWeights(nearest, k.Weights)

	var sum, wsum float64
	for idx, d := range nearest {
		sum += weights[idx] * k.Train[d.row*c+j]
		wsum += weights[idx]
	}
	return sum / wsum
}

// FitTransform は学習データで学習し、同じデータを補完する
func (k *KNNImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := k.Fit(X); err != nil {
		return nil, err
	}
	return k.Transform(X)
}

// GetParams returns the hyperparameters.
func (k *KNNImputer) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_neighbors":    k.NNeighbors,
		"weights":        k.Weights,
		"missing_values": k.MissingValue,
	}
}

// String returns a readable representation of the imputer.
func (k *KNNImputer) String() string {
	return fmt.Sprintf("KNNImputer(n_neighbors=%d, weights='%s', missing_values=%v)",
		k.NNeighbors, k.Weights, k.MissingValue)
}
