package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// PanicError は学習器の panic を回収したエラーです。グリッド探索中の
// 一回の fit の panic は FitFailure として記録され、探索は続行します。
type PanicError struct {
	Operation  string      // 回収した場所 (例: "svmRadial.Fit")
	PanicValue interface{} // panic に渡された値
	StackTrace string      // panic 時点のスタック
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String includes the stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("%s\nStack trace:\n%s", e.Error(), e.StackTrace)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *PanicError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Str("panic_value", fmt.Sprint(e.PanicValue)).
		Str("stacktrace", e.StackTrace)
}

// NewPanicError captures the current stack.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		Operation:  operation,
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
	}
}

// Recover converts a panic into *err; use it deferred. An error the
// function already set is kept as a secondary error of the PanicError.
//
//	func (f Family) Fit(...) (clf model.Classifier, err error) {
//		defer errors.Recover(&err, "gbm.Fit")
//		...
//	}
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	panicErr := NewPanicError(operation, r)
	if *err != nil {
		*err = errors.WithSecondaryError(panicErr, *err)
		return
	}
	*err = panicErr
}

// SafeExecute runs fn and returns its error, or a PanicError if it panics.
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
