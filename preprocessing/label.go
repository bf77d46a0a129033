// Package preprocessing はターゲット列の前処理を提供する。
package preprocessing

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/netsecml/pkg/errors"
)

// BinaryLabelMapper はラベル {-1, 1} を {0, 1} に変換する
//
// 0 はそのまま 0 として受け付ける。それ以外の値（NaN を含む）は
// ValueError になる。出力は必ず {0, 1} に収まる。
type BinaryLabelMapper struct {
	// Negative は 0 に写される元のラベル（デフォルト: -1）
	Negative float64
}

// NewBinaryLabelMapper は -1 を 0 に写すマッパーを作成する
func NewBinaryLabelMapper() *BinaryLabelMapper {
	return &BinaryLabelMapper{Negative: -1}
}

// Map returns a new slice with every label remapped. y is not modified.
func (m *BinaryLabelMapper) Map(y []float64) ([]float64, error) {
	out := make([]float64, len(y))
	for i, v := range y {
		switch {
		case v == m.Negative, v == 0:
			out[i] = 0
		case v == 1:
			out[i] = 1
		case math.IsNaN(v):
			return nil, errors.NewValueError("BinaryLabelMapper.Map",
				fmt.Sprintf("missing label at row %d", i))
		default:
			return nil, errors.NewValueError("BinaryLabelMapper.Map",
				fmt.Sprintf("unexpected label %g at row %d; expected one of {%g, 0, 1}", v, i, m.Negative))
		}
	}
	return out, nil
}
