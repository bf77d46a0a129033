// Package metrics は二値分類の評価指標を提供します。
// ラベルは 0（正常）と 1（フィッシング）を前提とし、陽性クラスは 1 です。
package metrics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/netsecml/pkg/errors"
)

// logLossEps clips probabilities away from 0 and 1.
const logLossEps = 1e-15

// ClassificationMetric は F1・適合率・再現率・正解率の組です。
type ClassificationMetric struct {
	F1Score        float64 `json:"f1_score"`
	PrecisionScore float64 `json:"precision_score"`
	RecallScore    float64 `json:"recall_score"`
	Accuracy       float64 `json:"accuracy"`
}

// checkPair validates that both vectors are non-empty and of equal length.
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 || yPred.Len() == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// checkBinary reports the first label that is neither 0 nor 1.
func checkBinary(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		if v := y.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, fmt.Sprintf("label %g at row %d; expected 0 or 1", v, i))
		}
	}
	return nil
}

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率（1 - Accuracy）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// confusion counts true positives, false positives and false negatives.
func confusion(op string, yTrue, yPred *mat.VecDense) (tp, fp, fn int, err error) {
	n, err := checkPair(op, yTrue, yPred)
	if err != nil {
		return 0, 0, 0, err
	}
	if err := checkBinary(op, yTrue); err != nil {
		return 0, 0, 0, err
	}
	if err := checkBinary(op, yPred); err != nil {
		return 0, 0, 0, err
	}
	for i := 0; i < n; i++ {
		t, p := yTrue.AtVec(i) == 1, yPred.AtVec(i) == 1
		switch {
		case t && p:
			tp++
		case !t && p:
			fp++
		case t && !p:
			fn++
		}
	}
	return tp, fp, fn, nil
}

// Precision は tp / (tp + fp) を返す。陽性予測が無い場合は 0。
func Precision(yTrue, yPred *mat.VecDense) (float64, error) {
	tp, fp, _, err := confusion("Precision", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return ratio(tp, tp+fp), nil
}

// Recall は tp / (tp + fn) を返す。陽性ラベルが無い場合は 0。
func Recall(yTrue, yPred *mat.VecDense) (float64, error) {
	tp, _, fn, err := confusion("Recall", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return ratio(tp, tp+fn), nil
}

// F1 は適合率と再現率の調和平均 2tp / (2tp + fp + fn) を返す。
func F1(yTrue, yPred *mat.VecDense) (float64, error) {
	tp, fp, fn, err := confusion("F1", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return ratio(2*tp, 2*tp+fp+fn), nil
}

// ClassificationScore computes every metric of ClassificationMetric in one
// pass over the labels.
func ClassificationScore(yTrue, yPred *mat.VecDense) (ClassificationMetric, error) {
	tp, fp, fn, err := confusion("ClassificationScore", yTrue, yPred)
	if err != nil {
		return ClassificationMetric{}, err
	}
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return ClassificationMetric{}, err
	}
	return ClassificationMetric{
		F1Score:        ratio(2*tp, 2*tp+fp+fn),
		PrecisionScore: ratio(tp, tp+fp),
		RecallScore:    ratio(tp, tp+fn),
		Accuracy:       acc,
	}, nil
}

func ratio(num, den int) float64 {
	return errors.SafeDivide(float64(num), float64(den))
}

// AUC はROC曲線下面積を計算する。同順位のスコアは平均順位で扱う。
// 片方のクラスしか無い場合は 0.5 を返す。
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("AUC", yTrue); err != nil {
		return 0, err
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return yScore.AtVec(idx[a]) < yScore.AtVec(idx[b]) })

	// Mann-Whitney U with average ranks for ties.
	var rankSumPos float64
	nPos := 0
	for i := 0; i < n; {
		j := i
		for j < n && yScore.AtVec(idx[j]) == yScore.AtVec(idx[i]) {
			j++
		}
		avgRank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if yTrue.AtVec(idx[k]) == 1 {
				rankSumPos += avgRank
				nPos++
			}
		}
		i = j
	}
	nNeg := n - nPos
	if nPos == 0 || nNeg == 0 {
		return 0.5, nil
	}
	u := rankSumPos - float64(nPos*(nPos+1))/2
	return u / float64(nPos*nNeg), nil
}

// AUCMatrix は行列形式の入力の先頭列に対して AUC を計算する
func AUCMatrix(yTrue, yScore mat.Matrix) (float64, error) {
	if yTrue == nil || yScore == nil {
		return 0, errors.NewValueError("AUCMatrix", "nil matrix")
	}
	return AUC(firstColumn(yTrue), firstColumn(yScore))
}

// BinaryLogLoss は二値交差エントロピーを計算する。確率は [eps, 1-eps] にクリップされる。
func BinaryLogLoss(yTrue, yProb *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yProb)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		p := math.Min(math.Max(yProb.AtVec(i), logLossEps), 1-logLossEps)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// firstColumn copies column 0 of m; an empty matrix gives nil.
func firstColumn(m mat.Matrix) *mat.VecDense {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
