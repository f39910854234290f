// Package style composes an externally trained image feature extractor with per-attribute
// softmax classifiers and accumulates their outputs into trend panels for forecasting.
package style

import (
	"context"
	"errors"
	"image"
)

var (
	ErrNoExtractor        = errors.New("no feature extractor")
	ErrNoLayers           = errors.New("no attribute layers")
	ErrNoCategories       = errors.New("attribute has no categories")
	ErrDuplicateAttribute = errors.New("duplicate attribute")
	ErrUnknownAttribute   = errors.New("unknown attribute")
	ErrCategoryMismatch   = errors.New("number of categories does not match")
	ErrFeatureLenMismatch = errors.New("feature length does not match layer weights")
	ErrBiasLenMismatch    = errors.New("bias length does not match number of categories")
)

// Attribute is a clothing attribute and the categories it is classified into, e.g.
// "sleeve_length" into "sleeveless", "short" and "long"
type Attribute struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
}

// FeatureExtractor maps an image to a fixed length feature vector. Implementations wrap a
// pretrained network and must be safe for concurrent use.
type FeatureExtractor interface {
	Features(ctx context.Context, img image.Image) ([]float64, error)
}

// Classifier exposes the image features and per-attribute class distributions. The forecaster
// never calls a Classifier; callers classify images, accumulate the results into panels and
// forecast those.
type Classifier interface {
	FeatureExtractor

	// Attributes returns the attributes the classifier was built for
	Attributes() []Attribute

	// ClassProbabilities returns the probability of each category of attribute
	ClassProbabilities(ctx context.Context, img image.Image, attribute string) ([]float64, error)

	// PredictedClass returns the index of the most probable category of attribute
	PredictedClass(ctx context.Context, img image.Image, attribute string) (int, error)

	// ClassProbs returns the category distribution of every attribute keyed by name
	ClassProbs(ctx context.Context, img image.Image) (map[string][]float64, error)

	// Classes returns the most probable category index of every attribute keyed by name
	Classes(ctx context.Context, img image.Image) (map[string]int, error)
}
