package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Scaler is the persisted standardization transform fit during training.
// Features records the exact column order the scaler was fit on.
type Scaler struct {
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
}

// Transform standardizes a raw feature slice.
func (s *Scaler) Transform(raw []float64) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out
}

// LabelEncoder maps numeric class indices back to crop label strings.
// Classes is in the classifier's native class order.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// Tree is one boosted regression tree stored as flat node arrays. A node is
// a leaf when Feature[i] < 0; otherwise samples with x[Feature[i]] <
// Threshold[i] go to Left[i], the rest to Right[i].
type Tree struct {
	Feature   []int     `json:"feature"`
	Threshold []float64 `json:"threshold"`
	Left      []int     `json:"left"`
	Right     []int     `json:"right"`
	Value     []float64 `json:"value"`
}

func (t *Tree) score(x []float64) float64 {
	i := 0
	for t.Feature[i] >= 0 {
		if x[t.Feature[i]] < t.Threshold[i] {
			i = t.Left[i]
		} else {
			i = t.Right[i]
		}
	}
	return t.Value[i]
}

// Ensemble is the persisted multi-class gradient-boosted classifier.
// TreeClass[i] names the class tree i contributes its margin to.
type Ensemble struct {
	NumClass  int     `json:"num_class"`
	BaseScore float64 `json:"base_score"`
	Trees     []Tree  `json:"trees"`
	TreeClass []int   `json:"tree_class"`
}

// probabilities evaluates the ensemble on a scaled feature vector and
// returns the softmax class distribution.
func (e *Ensemble) probabilities(x []float64) []float64 {
	margins := make([]float64, e.NumClass)
	for i := range margins {
		margins[i] = e.BaseScore
	}
	for i := range e.Trees {
		margins[e.TreeClass[i]] += e.Trees[i].score(x)
	}

	max := margins[0]
	for _, m := range margins[1:] {
		if m > max {
			max = m
		}
	}

	var sum float64
	probs := make([]float64, e.NumClass)
	for i, m := range margins {
		probs[i] = math.Exp(m - max)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func loadJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}
	return nil
}

// validate checks the three artifacts are mutually consistent with the
// feature schema. Training regenerates all three together, so any mismatch
// means a stale or corrupted deployment and must abort startup.
func validate(scaler *Scaler, encoder *LabelEncoder, ensemble *Ensemble) error {
	if len(scaler.Features) != len(featureNames) {
		return fmt.Errorf("scaler has %d features, want %d", len(scaler.Features), len(featureNames))
	}
	for i, name := range featureNames {
		if scaler.Features[i] != name {
			return fmt.Errorf("scaler feature %d is %q, want %q", i, scaler.Features[i], name)
		}
	}
	if len(scaler.Mean) != len(featureNames) || len(scaler.Scale) != len(featureNames) {
		return fmt.Errorf("scaler mean/scale length mismatch: %d/%d", len(scaler.Mean), len(scaler.Scale))
	}
	for i, s := range scaler.Scale {
		if s == 0 {
			return fmt.Errorf("scaler scale[%d] is zero", i)
		}
	}

	if len(encoder.Classes) == 0 {
		return fmt.Errorf("label encoder has no classes")
	}
	if ensemble.NumClass != len(encoder.Classes) {
		return fmt.Errorf("ensemble has %d classes, label encoder has %d", ensemble.NumClass, len(encoder.Classes))
	}

	if len(ensemble.Trees) == 0 {
		return fmt.Errorf("ensemble has no trees")
	}
	if len(ensemble.TreeClass) != len(ensemble.Trees) {
		return fmt.Errorf("ensemble has %d trees but %d class assignments", len(ensemble.Trees), len(ensemble.TreeClass))
	}
	for i, cls := range ensemble.TreeClass {
		if cls < 0 || cls >= ensemble.NumClass {
			return fmt.Errorf("tree %d assigned to out-of-range class %d", i, cls)
		}
	}
	for ti := range ensemble.Trees {
		if err := validateTree(&ensemble.Trees[ti]); err != nil {
			return fmt.Errorf("tree %d: %w", ti, err)
		}
	}
	return nil
}

func validateTree(t *Tree) error {
	n := len(t.Feature)
	if n == 0 {
		return fmt.Errorf("empty tree")
	}
	if len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n || len(t.Value) != n {
		return fmt.Errorf("inconsistent node arrays")
	}
	for i := 0; i < n; i++ {
		if t.Feature[i] < 0 {
			continue
		}
		if t.Feature[i] >= len(featureNames) {
			return fmt.Errorf("node %d splits on unknown feature %d", i, t.Feature[i])
		}
		if t.Left[i] <= i || t.Left[i] >= n || t.Right[i] <= i || t.Right[i] >= n {
			return fmt.Errorf("node %d has invalid children %d/%d", i, t.Left[i], t.Right[i])
		}
	}
	return nil
}
