// Package inference bundles the fitted preprocessing object with a
// downstream classifier so raw feature rows can be scored in one call.
package inference

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/netsecml/core/model"
	"github.com/YuminosukeSato/netsecml/pkg/errors"
	"github.com/YuminosukeSato/netsecml/pkg/log"
	"github.com/YuminosukeSato/netsecml/sklearn/impute"
	"github.com/YuminosukeSato/netsecml/sklearn/linear_model"
	"github.com/YuminosukeSato/netsecml/sklearn/pipeline"
)

// StageName tags every error returned by this package.
const StageName = "inference"

// Default file names used by Save and LoadDir.
const (
	PreprocessorFileName = "preprocessor.gob"
	ModelFileName        = "model.gob"
)

// NetworkModel は前処理オブジェクトと分類器の組です。
// Predict は前処理を Transform するだけで、再学習は行いません。
type NetworkModel struct {
	Preprocessor model.Transformer
	Model        model.Predictor
}

// New は両方が揃っていることを確認して NetworkModel を作成します。
// nil ポインタを包んだインターフェースは、このパッケージが知っている
// 具象型 (*pipeline.Pipeline, *impute.KNNImputer, *linear_model.LogisticRegression)
// に限って検出します。
func New(preprocessor model.Transformer, predictor model.Predictor) (_ *NetworkModel, err error) {
	defer errors.Guard(&err, StageName, "new")

	if preprocessor == nil || isNilTransformer(preprocessor) {
		return nil, errors.NewValidationError("preprocessor", "must not be nil", nil)
	}
	if predictor == nil || isNilPredictor(predictor) {
		return nil, errors.NewValidationError("model", "must not be nil", nil)
	}
	return &NetworkModel{Preprocessor: preprocessor, Model: predictor}, nil
}

func isNilTransformer(t model.Transformer) bool {
	switch v := t.(type) {
	case *pipeline.Pipeline:
		return v == nil
	case *impute.KNNImputer:
		return v == nil
	}
	return false
}

func isNilPredictor(p model.Predictor) bool {
	switch v := p.(type) {
	case *linear_model.LogisticRegression:
		return v == nil
	}
	return false
}

// Predict transforms X with the fitted preprocessor and returns the model's
// predictions, one row per input row.
func (m *NetworkModel) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Guard(&err, StageName, "predict")

	if m.Preprocessor == nil || m.Model == nil {
		return nil, errors.NewModelError("NetworkModel.Predict", "incomplete model", nil)
	}

	start := time.Now()
	Xt, err := m.Preprocessor.Transform(X)
	if err != nil {
		return nil, errors.WrapStage(StageName, "transform", err)
	}
	yHat, err := m.Model.Predict(Xt)
	if err != nil {
		return nil, errors.WrapStage(StageName, "predict", err)
	}

	rows, cols := X.Dims()
	log.GetLoggerWithName("inference").Debug("prediction completed",
		log.OperationKey, log.OperationPredict,
		log.ModelNameKey, nameOf(m.Model),
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return yHat, nil
}

func nameOf(v interface{}) string {
	if n, ok := v.(model.Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", v)
}

// Save writes the preprocessor and the model into dir as preprocessor.gob
// and model.gob.
func (m *NetworkModel) Save(dir string) (err error) {
	defer errors.Guard(&err, StageName, "save")

	if m.Preprocessor == nil || m.Model == nil {
		return errors.NewModelError("NetworkModel.Save", "incomplete model", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}
	if err := model.SaveModel(m.Preprocessor, filepath.Join(dir, PreprocessorFileName)); err != nil {
		return err
	}
	return model.SaveModel(m.Model, filepath.Join(dir, ModelFileName))
}

// LoadNetworkModel は学習済みの前処理パイプライン（gob）とロジスティック回帰モデル（gob）を読み込みます。
//
//	m, err := inference.LoadNetworkModel("final_model/preprocessor.gob", "final_model/model.gob")
func LoadNetworkModel(preprocessorPath, modelPath string) (_ *NetworkModel, err error) {
	defer errors.Guard(&err, StageName, "load")

	var p pipeline.Pipeline
	if err := model.LoadModel(&p, preprocessorPath); err != nil {
		return nil, err
	}
	if p.State == nil || !p.State.IsFitted() {
		return nil, errors.NewNotFittedError(p.Name(), "Transform")
	}

	var lr linear_model.LogisticRegression
	if err := model.LoadModel(&lr, modelPath); err != nil {
		return nil, err
	}
	if lr.State == nil || !lr.State.IsFitted() {
		return nil, errors.NewNotFittedError(lr.Name(), "Predict")
	}

	log.GetLoggerWithName("inference").Info("network model loaded",
		log.PathKey, preprocessorPath,
		log.ArtifactKey, modelPath,
	)
	return &NetworkModel{Preprocessor: &p, Model: &lr}, nil
}

// LoadDir loads a NetworkModel previously written by Save.
func LoadDir(dir string) (*NetworkModel, error) {
	return LoadNetworkModel(filepath.Join(dir, PreprocessorFileName), filepath.Join(dir, ModelFileName))
}
