package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/levelsnap-backend/internal/scene"
)

// TransportError wraps a failed model call (network, auth, rate limit).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model call failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExtractionError means the response held no decodable JSON object.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract scene json: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

const (
	ClassCanceled   = "canceled"
	ClassTransport  = "transport"
	ClassExtraction = "extraction"
	ClassStructural = "structural"
	ClassCap        = "cap"
	ClassDuplicate  = "duplicate_id"
	ClassInternal   = "internal"
)

// Classify names the error class used in stage records and logs.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassCanceled
	}
	var te *TransportError
	if errors.As(err, &te) {
		return ClassTransport
	}
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ClassExtraction
	}
	var ve *scene.ValidationError
	if errors.As(err, &ve) {
		if len(ve.Structural) > 0 {
			return ClassStructural
		}
		for _, fe := range ve.Semantic {
			if fe.Rule == scene.RuleCap {
				return ClassCap
			}
		}
		return ClassDuplicate
	}
	return ClassInternal
}

// errorMessages flattens err into the itemized list fed back to the model.
func errorMessages(err error) []string {
	var ve *scene.ValidationError
	if errors.As(err, &ve) {
		return ve.Messages()
	}
	if err == nil {
		return nil
	}
	return []string{err.Error()}
}
