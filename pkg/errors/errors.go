// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// scikit-learn / caret の警告・例外システムにインスパイアされており、構造化されたエラー情報を提供します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("tuneflow-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
// これにより、ConvergenceWarningなどのカスタム警告の処理方法を制御できます。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nil を渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ConvergenceWarning は最適化アルゴリズムが収束しなかった場合に発生する警告です。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing the iteration cap or adjusting parameters.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// UndefinedMetricWarning は評価指標が計算できない場合に発生する警告です。
// 例えば、陽性的中率を計算する際に、陽性クラスの予測が一つもなかった場合など。
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64 // この条件で返される値
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning は新しいUndefinedMetricWarningを作成します。
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("tuneflow: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("tuneflow: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tuneflow: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("tuneflow: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError は機械学習モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tuneflow: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("tuneflow: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// NaN、Inf、オーバーフローなどを検出します。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "boosting_update", "platt_scaling"）
	Values    []float64 // 問題のある値
	Iteration int       // 発生したイテレーション番号
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("tuneflow: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	return errors.WithStack(&NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	})
}

// ===========================================================================
//
//	分割・チューニング・評価のエラー型
//
// ===========================================================================

// InvalidFractionError は分割比率が開区間 (0,1) の外にある場合のエラーです。
type InvalidFractionError struct {
	Fraction float64
}

func (e *InvalidFractionError) Error() string {
	return fmt.Sprintf("tuneflow: split fraction must be in (0, 1), got %g", e.Fraction)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidFractionError) MarshalZerologObject(event *zerolog.Event) {
	event.Float64("fraction", e.Fraction).Str("type", "InvalidFractionError")
}

// NewInvalidFractionError は新しいInvalidFractionErrorを作成します。
func NewInvalidFractionError(p float64) error {
	return errors.WithStack(&InvalidFractionError{Fraction: p})
}

// InsufficientDataError はクラスのレコード数が層化に足りない場合のエラーです。
type InsufficientDataError struct {
	Op       string
	Class    string
	Count    int
	Required int
}

func (e *InsufficientDataError) Error() string {
	if e.Class == "" {
		return fmt.Sprintf("tuneflow: %s: insufficient data: %d records, need at least %d", e.Op, e.Count, e.Required)
	}
	return fmt.Sprintf("tuneflow: %s: insufficient data for class %q: %d records, need at least %d", e.Op, e.Class, e.Count, e.Required)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InsufficientDataError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("class", e.Class).
		Int("count", e.Count).
		Int("required", e.Required).
		Str("type", "InsufficientDataError")
}

// NewInsufficientDataError は新しいInsufficientDataErrorを作成します。
func NewInsufficientDataError(op, class string, count, required int) error {
	return errors.WithStack(&InsufficientDataError{Op: op, Class: class, Count: count, Required: required})
}

// DegenerateLabelsError は真のラベルが一つのクラスしか含まない場合のエラーです。
// ROC曲線とAUCはこの場合定義されません。
type DegenerateLabelsError struct {
	Op    string
	Class string
}

func (e *DegenerateLabelsError) Error() string {
	return fmt.Sprintf("tuneflow: %s: true labels contain only one class (%s)", e.Op, e.Class)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DegenerateLabelsError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).Str("class", e.Class).Str("type", "DegenerateLabelsError")
}

// NewDegenerateLabelsError は新しいDegenerateLabelsErrorを作成します。
func NewDegenerateLabelsError(op, class string) error {
	return errors.WithStack(&DegenerateLabelsError{Op: op, Class: class})
}

// FitFailure は一つの設定・一つのフォールドでの学習失敗を記録します。
// Repeat と Fold が 0 の場合は訓練データ全体での再学習を表します。
type FitFailure struct {
	Model  string
	Config string
	Repeat int
	Fold   int
	Err    error
}

func (e *FitFailure) Error() string {
	if e.Repeat == 0 && e.Fold == 0 {
		return fmt.Sprintf("tuneflow: %s [%s]: final fit failed: %v", e.Model, e.Config, e.Err)
	}
	return fmt.Sprintf("tuneflow: %s [%s]: fit failed on Fold%d.Rep%d: %v", e.Model, e.Config, e.Fold, e.Repeat, e.Err)
}

func (e *FitFailure) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *FitFailure) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model", e.Model).
		Str("config", e.Config).
		Int("repeat", e.Repeat).
		Int("fold", e.Fold).
		AnErr("cause", e.Err).
		Str("type", "FitFailure")
}

// NewFitFailure は新しいFitFailureを作成します。
func NewFitFailure(model, config string, repeat, fold int, err error) error {
	return errors.WithStack(&FitFailure{Model: model, Config: config, Repeat: repeat, Fold: fold, Err: err})
}

// NoFeasibleConfigurationError はグリッドの全ての候補が学習に失敗した場合のエラーです。
type NoFeasibleConfigurationError struct {
	Model    string
	Failures []error
}

func (e *NoFeasibleConfigurationError) Error() string {
	msg := fmt.Sprintf("tuneflow: %s: no feasible configuration, all %d candidates failed", e.Model, len(e.Failures))
	if len(e.Failures) > 0 {
		msg += fmt.Sprintf(" (first: %v)", e.Failures[0])
	}
	return msg
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NoFeasibleConfigurationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model", e.Model).
		Int("failures", len(e.Failures)).
		Str("type", "NoFeasibleConfigurationError")
}

// NewNoFeasibleConfigurationError は新しいNoFeasibleConfigurationErrorを作成します。
func NewNoFeasibleConfigurationError(model string, failures []error) error {
	return errors.WithStack(&NoFeasibleConfigurationError{Model: model, Failures: failures})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は特異行列の場合のエラーです。
	ErrSingularMatrix = New("singular matrix")
)
