package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrParseFailure is returned when an uploaded file cannot yield rows at all.
	ErrParseFailure = errors.New("spreadsheet parse failure")
	// ErrEmptyQuestionSet is returned when no row produced a question; a quiz cannot start.
	ErrEmptyQuestionSet = errors.New("no valid questions found")
	// ErrInvalidLayout indicates a column layout that cannot be used to read rows.
	ErrInvalidLayout = errors.New("invalid column layout")

	// ErrInvalidTransition is the parent of every rejected session transition.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNoAnswerSelected is returned by Advance/Submit when the current question has no answer.
	ErrNoAnswerSelected = fmt.Errorf("%w: no answer selected", ErrInvalidTransition)
	// ErrLastQuestion is returned by Advance on the last question; callers must Submit instead.
	ErrLastQuestion = fmt.Errorf("%w: already at the last question", ErrInvalidTransition)
	// ErrNoPreviousQuestion is returned by Previous on the first question.
	ErrNoPreviousQuestion = fmt.Errorf("%w: already at the first question", ErrInvalidTransition)
	// ErrSessionCompleted is returned for any transition after the session completed.
	ErrSessionCompleted = fmt.Errorf("%w: session already completed", ErrInvalidTransition)

	// ErrSessionNotCompleted is returned when a score is requested before completion.
	ErrSessionNotCompleted = errors.New("quiz session not completed")
	// ErrSessionNotFound is returned when a quiz session has not been initialized.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrQuestionNotFound indicates a question index outside the set.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates an option index outside [0, OptionCount).
	ErrOptionNotFound = errors.New("option not found")
)

// RejectReason enumerates why a spreadsheet row did not become a question.
type RejectReason int

const (
	EmptyOrHeaderRow RejectReason = iota + 1
	MissingRequiredField
	UnrecognizedCorrectnessMarker
	MarkerOutOfRange
	DuplicateOptions
)

// RejectReasons lists every reason in declaration order.
var RejectReasons = []RejectReason{
	EmptyOrHeaderRow,
	MissingRequiredField,
	UnrecognizedCorrectnessMarker,
	MarkerOutOfRange,
	DuplicateOptions,
}

func (r RejectReason) String() string {
	switch r {
	case EmptyOrHeaderRow:
		return "empty_or_header_row"
	case MissingRequiredField:
		return "missing_required_field"
	case UnrecognizedCorrectnessMarker:
		return "unrecognized_correctness_marker"
	case MarkerOutOfRange:
		return "marker_out_of_range"
	case DuplicateOptions:
		return "duplicate_options"
	default:
		return fmt.Sprintf("reject_reason(%d)", int(r))
	}
}

// RowError reports a rejected row. Field names the offending column when known.
type RowError struct {
	Row    int
	Reason RejectReason
	Field  string
}

func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d rejected (%s): %s", e.Row+1, e.Reason, e.Field)
	}
	return fmt.Sprintf("row %d rejected (%s)", e.Row+1, e.Reason)
}

// ParseFailureKind classifies a fatal load failure.
type ParseFailureKind string

const (
	FailureUnreadable      ParseFailureKind = "unreadable"
	FailureNotSpreadsheet  ParseFailureKind = "not_spreadsheet"
	FailureNoSheets        ParseFailureKind = "no_sheets"
	FailureEmptySheet      ParseFailureKind = "empty_sheet"
	FailureTooLarge        ParseFailureKind = "too_large"
	FailureUnsupportedType ParseFailureKind = "unsupported_type"
)

// ParseFailure is a fatal, per-attempt load error. It matches ErrParseFailure with errors.Is.
type ParseFailure struct {
	Kind ParseFailureKind
	Err  error
}

// NewParseFailure creates a new ParseFailure.
func NewParseFailure(kind ParseFailureKind, err error) *ParseFailure {
	return &ParseFailure{Kind: kind, Err: err}
}

func (e *ParseFailure) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrParseFailure, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", ErrParseFailure, e.Kind, e.Err)
}

func (e *ParseFailure) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrParseFailure) match any ParseFailure.
func (e *ParseFailure) Is(target error) bool {
	return target == ErrParseFailure
}
