package metrics

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/netsecml/pkg/errors"
)

func vec(xs []float64) *mat.VecDense {
	if len(xs) == 0 {
		return nil
	}
	return mat.NewVecDense(len(xs), xs)
}

type scoreCase struct {
	name    string
	yTrue   []float64
	yPred   []float64
	want    float64
	wantErr bool
}

func runScoreCases(t *testing.T, fn func(a, b *mat.VecDense) (float64, error), tol float64, tests []scoreCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fn(vec(tt.yTrue), vec(tt.yPred))
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > tol {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAUC(t *testing.T) {
	runScoreCases(t, AUC, 1e-9, []scoreCase{
		{name: "perfect ranking", yTrue: []float64{0, 0, 0, 1, 1, 1}, yPred: []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9}, want: 1},
		{name: "inverted ranking", yTrue: []float64{0, 0, 0, 1, 1, 1}, yPred: []float64{0.9, 0.8, 0.7, 0.3, 0.2, 0.1}, want: 0},
		{name: "all tied", yTrue: []float64{0, 1, 0, 1}, yPred: []float64{0.5, 0.5, 0.5, 0.5}, want: 0.5},
		{name: "typical", yTrue: []float64{0, 0, 1, 1}, yPred: []float64{0.1, 0.4, 0.35, 0.8}, want: 0.75},
		{name: "only positives", yTrue: []float64{1, 1, 1}, yPred: []float64{0.1, 0.4, 0.8}, want: 0.5},
		{name: "non-binary labels", yTrue: []float64{0, 0.5, 1}, yPred: []float64{0.1, 0.5, 0.9}, wantErr: true},
		{name: "length mismatch", yTrue: []float64{0, 1}, yPred: []float64{0.5}, wantErr: true},
		{name: "empty", wantErr: true},
	})
}

func TestAUCMatrix(t *testing.T) {
	got, err := AUCMatrix(
		mat.NewDense(4, 2, []float64{0, 9, 0, 9, 1, 9, 1, 9}),
		mat.NewDense(4, 2, []float64{0.1, 9, 0.4, 9, 0.35, 9, 0.8, 9}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-0.75) > 1e-9 {
		t.Errorf("AUCMatrix() = %v, want 0.75 (first column only)", got)
	}
	if _, err := AUCMatrix(nil, mat.NewDense(1, 1, []float64{0.5})); err == nil {
		t.Error("expected an error for a nil matrix")
	}
	if _, err := AUCMatrix(&mat.Dense{}, &mat.Dense{}); err == nil {
		t.Error("expected an error for an empty matrix")
	}
}

func TestBinaryLogLoss(t *testing.T) {
	runScoreCases(t, BinaryLogLoss, 1e-4, []scoreCase{
		{name: "clipped perfect predictions", yTrue: []float64{0, 0, 1, 1}, yPred: []float64{0, 0, 1, 1}, want: 0},
		{name: "typical", yTrue: []float64{0, 0, 1, 1}, yPred: []float64{0.1, 0.2, 0.8, 0.9}, want: 0.164252},
		{name: "confidently wrong", yTrue: []float64{0, 0, 1, 1}, yPred: []float64{0.9, 0.9, 0.1, 0.1}, want: 2.302585},
		{name: "non-binary labels", yTrue: []float64{0, 0.5, 1}, yPred: []float64{0.1, 0.5, 0.9}, wantErr: true},
		{name: "empty", wantErr: true},
	})
}

func TestAccuracyAndError(t *testing.T) {
	cases := []scoreCase{
		{name: "perfect", yTrue: []float64{0, 1, 1, 0}, yPred: []float64{0, 1, 1, 0}, want: 1},
		{name: "one miss in five", yTrue: []float64{0, 1, 1, 1, 0}, yPred: []float64{0, 1, 0, 1, 0}, want: 0.8},
		{name: "all wrong", yTrue: []float64{0, 0, 0}, yPred: []float64{1, 1, 1}, want: 0},
		{name: "length mismatch", yTrue: []float64{0, 1}, yPred: []float64{0}, wantErr: true},
		{name: "empty", wantErr: true},
	}
	runScoreCases(t, Accuracy, 1e-12, cases)

	for i := range cases {
		cases[i].want = 1 - cases[i].want
	}
	runScoreCases(t, ClassificationError, 1e-12, cases)
}

func TestClassificationScore(t *testing.T) {
	tests := []struct {
		name  string
		yTrue []float64
		yPred []float64
		want  ClassificationMetric
	}{
		{
			// tp=2 fp=1 fn=1 tn=1
			name:  "mixed",
			yTrue: []float64{1, 1, 1, 0, 0},
			yPred: []float64{1, 1, 0, 1, 0},
			want:  ClassificationMetric{F1Score: 2.0 / 3, PrecisionScore: 2.0 / 3, RecallScore: 2.0 / 3, Accuracy: 0.6},
		},
		{
			name:  "no positive predictions",
			yTrue: []float64{1, 0, 0},
			yPred: []float64{0, 0, 0},
			want:  ClassificationMetric{F1Score: 0, PrecisionScore: 0, RecallScore: 0, Accuracy: 2.0 / 3},
		},
		{
			name:  "perfect",
			yTrue: []float64{1, 0, 1},
			yPred: []float64{1, 0, 1},
			want:  ClassificationMetric{F1Score: 1, PrecisionScore: 1, RecallScore: 1, Accuracy: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassificationScore(vec(tt.yTrue), vec(tt.yPred))
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("ClassificationScore mismatch (-want +got):\n%s", diff)
			}

			for name, fn := range map[string]func(a, b *mat.VecDense) (float64, error){
				"F1": F1, "Precision": Precision, "Recall": Recall,
			} {
				v, err := fn(vec(tt.yTrue), vec(tt.yPred))
				if err != nil {
					t.Fatal(err)
				}
				want := map[string]float64{"F1": tt.want.F1Score, "Precision": tt.want.PrecisionScore, "Recall": tt.want.RecallScore}[name]
				if math.Abs(v-want) > 1e-12 {
					t.Errorf("%s = %v, want %v", name, v, want)
				}
			}
		})
	}
}

func TestClassificationScore_RejectsUnmappedLabels(t *testing.T) {
	_, err := ClassificationScore(vec([]float64{-1, 1}), vec([]float64{0, 1}))
	var ve *errors.ValueError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValueError, got %v", err)
	}
}

func BenchmarkAUC(b *testing.B) {
	n := 1000
	yTrue := make([]float64, n)
	yScore := make([]float64, n)
	for i := 0; i < n; i++ {
		yTrue[i] = float64(i % 2)
		yScore[i] = float64(i%97) / 97
	}
	t, s := vec(yTrue), vec(yScore)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = AUC(t, s)
	}
}
