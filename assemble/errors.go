package assemble

import "fmt"

// NumericalError reports a singular or ill-conditioned linear system, or a
// linear solver that failed to converge. It aborts the self-consistent loop;
// there is no automatic retry.
type NumericalError struct {
	Op  string // the operation that failed, e.g. "cholesky", "cg"
	Err error
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("numerical failure in %s: %v", e.Op, e.Err)
}

func (e *NumericalError) Unwrap() error { return e.Err }

// Numericalf builds a NumericalError with a formatted cause.
func Numericalf(op, format string, args ...interface{}) error {
	return &NumericalError{Op: op, Err: fmt.Errorf(format, args...)}
}
