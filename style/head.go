package style

import (
	"context"
	"fmt"
	"image"
	"math"

	mat_ "github.com/peternara/geostyle/mat"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Layer is the dense output layer of one attribute. Weights has a row per category and a column
// per feature.
type Layer struct {
	Attribute Attribute
	Weights   *mat.Dense
	Bias      []float64
}

// NewLayer builds a layer from row major weights, one row per category of attr
func NewLayer(attr Attribute, weights [][]float64, bias []float64) (Layer, error) {
	if len(attr.Categories) == 0 {
		return Layer{}, fmt.Errorf("%s, %w", attr.Name, ErrNoCategories)
	}
	if len(weights) != len(attr.Categories) {
		return Layer{}, fmt.Errorf("%s has %d categories and %d weight rows, %w",
			attr.Name, len(attr.Categories), len(weights), ErrCategoryMismatch)
	}
	if len(weights) == 0 || len(weights[0]) == 0 {
		return Layer{}, fmt.Errorf("%s has no weights, %w", attr.Name, ErrFeatureLenMismatch)
	}
	w, err := mat_.NewDenseFromArray(weights)
	if err != nil {
		return Layer{}, fmt.Errorf("unable to build %s weights, %w", attr.Name, err)
	}
	l := Layer{Attribute: attr, Weights: w, Bias: bias}
	if err := l.validate(); err != nil {
		return Layer{}, err
	}
	return l, nil
}

func (l Layer) validate() error {
	nc := len(l.Attribute.Categories)
	if nc == 0 {
		return fmt.Errorf("%s, %w", l.Attribute.Name, ErrNoCategories)
	}
	if l.Weights == nil {
		return fmt.Errorf("%s has no weights, %w", l.Attribute.Name, ErrCategoryMismatch)
	}
	r, _ := l.Weights.Dims()
	if r != nc {
		return fmt.Errorf("%s has %d categories and %d weight rows, %w", l.Attribute.Name, nc, r, ErrCategoryMismatch)
	}
	if l.Bias != nil && len(l.Bias) != nc {
		return fmt.Errorf("%s has %d categories and %d biases, %w", l.Attribute.Name, nc, len(l.Bias), ErrBiasLenMismatch)
	}
	return nil
}

// Head classifies images with a softmax layer per attribute on top of a shared feature
// extractor
type Head struct {
	extractor FeatureExtractor
	layers    []Layer
	index     map[string]int
}

var _ Classifier = (*Head)(nil)

// NewHead validates every layer and returns a classifier over their attributes
func NewHead(extractor FeatureExtractor, layers ...Layer) (*Head, error) {
	if extractor == nil {
		return nil, ErrNoExtractor
	}
	if len(layers) == 0 {
		return nil, ErrNoLayers
	}

	index := make(map[string]int, len(layers))
	var nf int
	for i, l := range layers {
		if err := l.validate(); err != nil {
			return nil, fmt.Errorf("unable to validate layer %d, %w", i, err)
		}
		if _, exists := index[l.Attribute.Name]; exists {
			return nil, fmt.Errorf("%s, %w", l.Attribute.Name, ErrDuplicateAttribute)
		}
		_, c := l.Weights.Dims()
		if i == 0 {
			nf = c
		}
		if c != nf {
			return nil, fmt.Errorf("%s expects %d features and %s expects %d, %w",
				l.Attribute.Name, c, layers[0].Attribute.Name, nf, ErrFeatureLenMismatch)
		}
		index[l.Attribute.Name] = i
	}

	return &Head{
		extractor: extractor,
		layers:    layers,
		index:     index,
	}, nil
}

func (h *Head) Features(ctx context.Context, img image.Image) ([]float64, error) {
	feat, err := h.extractor.Features(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("unable to extract features, %w", err)
	}
	_, nf := h.layers[0].Weights.Dims()
	if len(feat) != nf {
		return nil, fmt.Errorf("got %d features, expected %d, %w", len(feat), nf, ErrFeatureLenMismatch)
	}
	return feat, nil
}

func (h *Head) Attributes() []Attribute {
	attrs := make([]Attribute, 0, len(h.layers))
	for _, l := range h.layers {
		attrs = append(attrs, l.Attribute)
	}
	return attrs
}

func (h *Head) ClassProbabilities(ctx context.Context, img image.Image, attribute string) ([]float64, error) {
	i, ok := h.index[attribute]
	if !ok {
		return nil, fmt.Errorf("%s, %w", attribute, ErrUnknownAttribute)
	}
	feat, err := h.Features(ctx, img)
	if err != nil {
		return nil, err
	}
	return h.layers[i].probs(feat), nil
}

func (h *Head) PredictedClass(ctx context.Context, img image.Image, attribute string) (int, error) {
	probs, err := h.ClassProbabilities(ctx, img, attribute)
	if err != nil {
		return -1, err
	}
	return floats.MaxIdx(probs), nil
}

// ClassProbs extracts the features once and evaluates every attribute layer on them
func (h *Head) ClassProbs(ctx context.Context, img image.Image) (map[string][]float64, error) {
	feat, err := h.Features(ctx, img)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]float64, len(h.layers))
	for _, l := range h.layers {
		out[l.Attribute.Name] = l.probs(feat)
	}
	return out, nil
}

func (h *Head) Classes(ctx context.Context, img image.Image) (map[string]int, error) {
	probs, err := h.ClassProbs(ctx, img)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(probs))
	for name, p := range probs {
		out[name] = floats.MaxIdx(p)
	}
	return out, nil
}

func (l Layer) probs(feat []float64) []float64 {
	nc := len(l.Attribute.Categories)
	logits := mat.NewVecDense(nc, nil)
	logits.MulVec(l.Weights, mat.NewVecDense(len(feat), feat))
	out := make([]float64, nc)
	copy(out, logits.RawVector().Data)
	if l.Bias != nil {
		floats.Add(out, l.Bias)
	}
	softmax(out)
	return out
}

// softmax normalizes logits in place into a probability distribution
func softmax(x []float64) {
	maxLogit := floats.Max(x)
	for i, v := range x {
		x[i] = math.Exp(v - maxLogit)
	}
	floats.Scale(1/floats.Sum(x), x)
}
