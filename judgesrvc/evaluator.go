package judgesrvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/codeclash/backend/matchsrvc"
)

// CodeEvaluator is the external sandboxed execution capability. The
// pipeline only orchestrates it: how the code is actually isolated and
// run is the evaluator's business.
//
// A returned error must be wrapped with Transient or Fatal so the worker
// knows whether to retry or to dead-letter immediately. Verdicts are
// results, not errors: a failing submission yields (VerdictFailed, nil).
type CodeEvaluator interface {
	Evaluate(ctx context.Context, code string, langID string) (matchsrvc.Verdict, matchsrvc.ExecStats, error)
}

// TransientError marks an evaluator failure worth retrying: the
// evaluator was unreachable, timed out, or shed load.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("evaluator temporarily unavailable: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError marks a submission the evaluator rejected as unjudgeable.
// Retrying cannot help; the job goes straight to the dead-letter queue.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("evaluator rejected submission: %v", e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func Transient(err error) error {
	return &TransientError{Err: err}
}

func Fatal(err error) error {
	return &FatalError{Err: err}
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
