// Package model loads the persisted scaler, label encoder, and boosted-tree
// classifier exported by the training pipeline and ranks crops for a feature
// vector. All artifacts are read-only after load, so a Ranker is safe for
// concurrent use.
package model

import (
	"fmt"
)

// featureNames is the canonical model input order. The persisted scaler and
// classifier were fit on exactly this order and must receive it unchanged.
var featureNames = []string{"N", "P", "K", "temperature", "humidity", "ph", "rainfall"}

// FeatureVector is the fixed-order numeric input to the classifier.
type FeatureVector struct {
	N           float64
	P           float64
	K           float64
	Temperature float64
	Humidity    float64
	PH          float64
	Rainfall    float64
}

// values returns the vector in canonical feature order.
func (f FeatureVector) values() []float64 {
	return []float64{f.N, f.P, f.K, f.Temperature, f.Humidity, f.PH, f.Rainfall}
}

// Prediction is one ranked crop with its predicted probability.
type Prediction struct {
	Crop        string
	Probability float64
}

// topK is how many ranked crops a prediction returns at most.
const topK = 3

// Ranker holds the three loaded artifacts.
type Ranker struct {
	scaler   *Scaler
	encoder  *LabelEncoder
	ensemble *Ensemble
}

// Load reads and cross-validates the three artifact files. Any missing or
// incompatible artifact is a startup failure.
func Load(scalerPath, encoderPath, modelPath string) (*Ranker, error) {
	var scaler Scaler
	if err := loadJSON(scalerPath, &scaler); err != nil {
		return nil, fmt.Errorf("scaler: %w", err)
	}
	var encoder LabelEncoder
	if err := loadJSON(encoderPath, &encoder); err != nil {
		return nil, fmt.Errorf("label encoder: %w", err)
	}
	var ensemble Ensemble
	if err := loadJSON(modelPath, &ensemble); err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}

	if err := validate(&scaler, &encoder, &ensemble); err != nil {
		return nil, fmt.Errorf("incompatible model artifacts: %w", err)
	}
	return &Ranker{scaler: &scaler, encoder: &encoder, ensemble: &ensemble}, nil
}

// Classes returns the number of classes the classifier predicts.
func (r *Ranker) Classes() int {
	return len(r.encoder.Classes)
}

// Rank scales the raw feature vector, evaluates the classifier, and returns
// the top min(3, classes) crops by descending probability. Ties keep the
// classifier's native class order.
func (r *Ranker) Rank(f FeatureVector) []Prediction {
	probs := r.ensemble.probabilities(r.scaler.Transform(f.values()))

	k := topK
	if len(probs) < k {
		k = len(probs)
	}

	taken := make([]bool, len(probs))
	out := make([]Prediction, 0, k)
	for len(out) < k {
		best := -1
		for i, p := range probs {
			if taken[i] {
				continue
			}
			// strict > keeps the lowest class index on ties
			if best < 0 || p > probs[best] {
				best = i
			}
		}
		taken[best] = true
		out = append(out, Prediction{Crop: r.encoder.Classes[best], Probability: probs[best]})
	}
	return out
}
