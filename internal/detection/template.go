package detection

import (
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MatchMode selects how TemplateEvaluator compares a window to its templates.
type MatchMode string

const (
	// MatchCC scores a window by its best Pearson correlation with any
	// template, clamped to [0, 1].
	MatchCC MatchMode = "cc"

	// MatchSQD scores a window as 1 minus the smallest share of the total
	// mean squared difference taken by any single template.
	MatchSQD MatchMode = "sqd"
)

// TemplateEvaluator scores windows by matching them against positive example
// templates. All templates share one size, which is the evaluator's input size.
type TemplateEvaluator struct {
	mode      MatchMode
	threshold float64
	size      image.Point
	templates [][]float64
}

// NewTemplateEvaluator prepares templates for matching in mode. Windows scoring
// above threshold are accepted.
//
// It returns a *ConfigurationError when mode is unknown, templates is empty, or
// the templates differ in size.
func NewTemplateEvaluator(templates []*image.Gray, mode MatchMode, threshold float64) (*TemplateEvaluator, error) {
	if mode != MatchCC && mode != MatchSQD {
		return nil, &ConfigurationError{Field: "match mode", Value: mode, Reason: `want "cc" or "sqd"`}
	}
	if len(templates) == 0 {
		return nil, &ConfigurationError{Field: "templates", Value: 0, Reason: "at least one template is required"}
	}

	size := templates[0].Bounds().Size()
	vectors := make([][]float64, len(templates))
	for i, t := range templates {
		if t.Bounds().Size() != size {
			return nil, &ConfigurationError{
				Field:  "templates",
				Value:  t.Bounds().Size(),
				Reason: "all templates must be " + size.String(),
			}
		}
		vectors[i] = grayVector(t)
	}

	return &TemplateEvaluator{
		mode:      mode,
		threshold: threshold,
		size:      size,
		templates: vectors,
	}, nil
}

func (e *TemplateEvaluator) InputSize() image.Point { return e.size }

func (e *TemplateEvaluator) Mode() MatchMode { return e.mode }

func (e *TemplateEvaluator) Evaluate(window *image.Gray) (bool, float64) {
	score := e.Score(window)
	return score > e.threshold, score
}

// Score matches window against every template. Windows of another size are
// resized to the template size first.
func (e *TemplateEvaluator) Score(window *image.Gray) float64 {
	fitted, err := fitInput(window, e.size)
	if err != nil {
		return 0
	}
	x := grayVector(fitted)

	if e.mode == MatchSQD {
		return 1 - bestSquareDiff(x, e.templates)
	}
	return bestCorrelation(x, e.templates)
}

func bestCorrelation(x []float64, templates [][]float64) float64 {
	best := math.Inf(-1)
	for _, t := range templates {
		c := stat.Correlation(x, t, nil)
		if math.IsNaN(c) {
			// Flat window or template: no correlation is defined.
			c = 0
		}
		best = math.Max(best, c)
	}
	return math.Min(math.Max(best, 0), 1)
}

func bestSquareDiff(x []float64, templates [][]float64) float64 {
	diff := make([]float64, len(x))
	mse := make([]float64, len(templates))
	for i, t := range templates {
		floats.SubTo(diff, x, t)
		mse[i] = floats.Dot(diff, diff) / float64(len(x))
	}

	total := floats.Sum(mse)
	if total == 0 {
		return 0
	}
	floats.Scale(1/total, mse)
	return floats.Min(mse)
}

// grayVector flattens img row by row into float64 intensities.
func grayVector(img *image.Gray) []float64 {
	b := img.Bounds()
	out := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for _, p := range row {
			out = append(out, float64(p))
		}
	}
	return out
}

// TemplateClassifier assigns each window the class whose templates match it
// best.
type TemplateClassifier struct {
	labels     []string
	evaluators []*TemplateEvaluator
	threshold  float64
}

// NewTemplateClassifier builds one TemplateEvaluator per class. Every class
// must use templates of the same size.
func NewTemplateClassifier(classes map[string][]*image.Gray, mode MatchMode, threshold float64) (*TemplateClassifier, error) {
	if len(classes) == 0 {
		return nil, &ConfigurationError{Field: "classes", Value: 0, Reason: "at least one class is required"}
	}

	labels := make([]string, 0, len(classes))
	for label := range classes {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	c := &TemplateClassifier{labels: labels, threshold: threshold}
	for _, label := range labels {
		e, err := NewTemplateEvaluator(classes[label], mode, threshold)
		if err != nil {
			return nil, err
		}
		if len(c.evaluators) > 0 && e.InputSize() != c.evaluators[0].InputSize() {
			return nil, &ConfigurationError{Field: "class " + label, Value: e.InputSize(), Reason: "template size differs from other classes"}
		}
		c.evaluators = append(c.evaluators, e)
	}

	return c, nil
}

func (c *TemplateClassifier) InputSize() image.Point { return c.evaluators[0].InputSize() }

// EvaluateClass returns the best-scoring class. Ties go to the label that sorts
// first.
func (c *TemplateClassifier) EvaluateClass(window *image.Gray) (bool, float64, string) {
	bestScore, bestLabel := math.Inf(-1), ""
	for i, e := range c.evaluators {
		if s := e.Score(window); s > bestScore {
			bestScore, bestLabel = s, c.labels[i]
		}
	}
	return bestScore > c.threshold, bestScore, bestLabel
}
