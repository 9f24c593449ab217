// Package validate turns raw model output into a typed analysis or a list
// of schema violations.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ppiankov/strata/internal/model"
	"github.com/ppiankov/strata/internal/score"
)

// Result is the outcome of parsing one model response. It is a success
// when Violations is empty.
type Result struct {
	Analysis   model.Analysis
	Violations []string
}

// OK reports whether the response satisfied the schema
func (r Result) OK() bool {
	return len(r.Violations) == 0
}

// Pointer fields distinguish "missing" from zero values
type wireScores struct {
	Impact    *float64 `json:"impact" validate:"required,gte=0,lte=1"`
	Timing    *float64 `json:"timing" validate:"required,gte=0,lte=1"`
	Players   *float64 `json:"players" validate:"required,gte=0,lte=1"`
	Precedent *float64 `json:"precedent" validate:"required,gte=0,lte=1"`
}

type wireBreakdown struct {
	What         string   `json:"what" validate:"required"`
	WhyItMatters string   `json:"whyItMatters" validate:"required"`
	Timing       string   `json:"timing" validate:"required"`
	Implications *string  `json:"implications" validate:"required"`
	Connected    []string `json:"connected" validate:"required"` // [] is valid, absent or null is not
}

type wireAnalysis struct {
	Category  string         `json:"category" validate:"required"`
	Scores    *wireScores    `json:"scores" validate:"required"`
	Takeaway  string         `json:"takeaway" validate:"required"`
	Breakdown *wireBreakdown `json:"breakdown" validate:"required"`
}

var (
	validatorOnce sync.Once
	schema        *validator.Validate
)

func schemaValidator() *validator.Validate {
	validatorOnce.Do(func() {
		schema = validator.New(validator.WithRequiredStructEnabled())
		schema.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return schema
}

// ParseAnalysis decodes raw model output and checks it against the
// analysis schema. Any compositeScore in the output is ignored; the
// returned analysis carries the locally computed composite.
func ParseAnalysis(raw string) Result {
	var wire wireAnalysis
	if err := json.Unmarshal([]byte(CleanJSON(raw)), &wire); err != nil {
		return Result{Violations: []string{fmt.Sprintf("invalid JSON: %v", err)}}
	}
	wire.trim()

	if err := schemaValidator().Struct(wire); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Result{Violations: []string{err.Error()}}
		}
		violations := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			violations = append(violations, describe(fe))
		}
		return Result{Violations: violations}
	}

	scores := model.Scores{
		Impact:    *wire.Scores.Impact,
		Timing:    *wire.Scores.Timing,
		Players:   *wire.Scores.Players,
		Precedent: *wire.Scores.Precedent,
	}
	return Result{Analysis: model.Analysis{
		Category:       wire.Category,
		Scores:         scores,
		CompositeScore: score.Composite(scores),
		Takeaway:       wire.Takeaway,
		Breakdown: model.Breakdown{
			What:         wire.Breakdown.What,
			WhyItMatters: wire.Breakdown.WhyItMatters,
			Timing:       wire.Breakdown.Timing,
			Implications: *wire.Breakdown.Implications,
			Connected:    wire.Breakdown.Connected,
		},
	}}
}

func (w *wireAnalysis) trim() {
	w.Category = strings.TrimSpace(w.Category)
	w.Takeaway = strings.TrimSpace(w.Takeaway)
	if b := w.Breakdown; b != nil {
		b.What = strings.TrimSpace(b.What)
		b.WhyItMatters = strings.TrimSpace(b.WhyItMatters)
		b.Timing = strings.TrimSpace(b.Timing)
		if b.Implications != nil {
			s := strings.TrimSpace(*b.Implications)
			b.Implications = &s
		}
	}
}

// describe renders a violation as "path: problem" using JSON field names
func describe(fe validator.FieldError) string {
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return path + ": required"
	case "gte":
		return fmt.Sprintf("%s: must be >= %s, got %v", path, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s: must be <= %s, got %v", path, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s: failed %s", path, fe.Tag())
	}
}

// CleanJSON strips code fences and surrounding prose from a model reply
func CleanJSON(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
