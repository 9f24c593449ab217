package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/strata/internal/llm"
	"github.com/ppiankov/strata/internal/model"
)

// ExtractionError reports model output that does not fit the analysis
// schema. It is never retried beyond the configured schema retry.
type ExtractionError struct {
	Story      model.RawStory
	RawOutput  string
	Violations []string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("analysis of %q rejected: %s", e.Story.Title, strings.Join(e.Violations, "; "))
}

// IsRetryable reports whether err is a backend failure worth repeating.
// Content failures are never retryable.
func IsRetryable(err error) bool {
	var backendErr *llm.BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Retryable()
	}
	return false
}
