package filter

import "fmt"

// CompilationError is returned by Compile for an expression that does not
// compile to a boolean program.
type CompilationError struct {
	Expression string
	Reason     string
	Err        error
}

func (e *CompilationError) Error() string {
	msg := fmt.Sprintf("filter %q: %s", e.Expression, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CompilationError) Unwrap() error { return e.Err }

// EvaluationError reports a runtime failure of a filter on one torrent.
type EvaluationError struct {
	Expression string
	Hash       string
	Name       string
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("filter %q on torrent %s (%s): %v", e.Expression, e.Hash, e.Name, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }
