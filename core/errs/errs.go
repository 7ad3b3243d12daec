// Package errs defines the error kinds reported by unitwizard operations.
//
// Every failure is an *Error carrying one of the sentinel kinds below, a
// catalog code and the context needed to render a user-facing and a
// developer-facing message. Match kinds with errors.Is.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds.
var (
	ErrArgument             = errors.New("argument error")
	ErrLibraryNotFound      = errors.New("library not found")
	ErrNoParser             = errors.New("no parser")
	ErrLibraryWithoutParser = errors.New("library without parser")
	ErrNotImplementedParser = errors.New("parser not implemented")
	ErrNotImplementedForm   = errors.New("form not implemented")
	ErrNotImplementedMethod = errors.New("method not implemented")
	ErrNoStandards          = errors.New("no standards")
)

type entry struct {
	code  string
	title string
	user  string
	dev   string
}

// catalog holds the message templates per kind. Placeholders are
// {argument}, {value}, {library}, {form}, {parser} and {caller}.
var catalog = map[error]entry{
	ErrArgument: {
		"UW-ERR-ARG-001", "Argument error",
		"Error in argument '{argument}' with value '{value}'.",
		"Argument error in '{caller}' for '{argument}'.",
	},
	ErrLibraryNotFound: {
		"UW-ERR-DEP-001", "Library not found",
		"The required library '{library}' is not loaded.",
		"Missing form library '{library}' in '{caller}'.",
	},
	ErrNoParser: {
		"UW-ERR-PARSER-001", "No parser found",
		"No suitable parser was found for the input.",
		"No parser found in '{caller}'.",
	},
	ErrLibraryWithoutParser: {
		"UW-ERR-PARSER-002", "Library without parser",
		"Library '{library}' does not have an associated parser.",
		"Library '{library}' has no parser in '{caller}'.",
	},
	ErrNotImplementedForm: {
		"UW-ERR-FORM-001", "Form not implemented",
		"The form '{form}' is not implemented.",
		"Form '{form}' not implemented in '{caller}'.",
	},
	ErrNotImplementedMethod: {
		"UW-ERR-METHOD-001", "Method not implemented",
		"This method is not implemented yet.",
		"Method not implemented in '{caller}'.",
	},
	ErrNotImplementedParser: {
		"UW-ERR-PARSER-003", "Parser not implemented",
		"Parser for '{parser}' is not implemented.",
		"Parser '{parser}' not implemented in '{caller}'.",
	},
	ErrNoStandards: {
		"UW-ERR-STD-001", "No standards defined",
		"No standard units have been defined.",
		"No standards defined in '{caller}'.",
	},
}

// Error is a unitwizard failure.
type Error struct {
	Kind     error
	Code     string
	Caller   string
	Argument string
	Value    any
	Library  string
	Form     string
	Parser   string
	// Detail overrides the catalog user message when set.
	Detail string
	Err    error
}

func newError(kind error, caller string) *Error {
	return &Error{Kind: kind, Code: catalog[kind].code, Caller: caller}
}

func (e *Error) Error() string {
	msg := e.UserMessage()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return e.Code + ": " + msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	out := []error{e.Kind}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Title returns the short catalog title.
func (e *Error) Title() string { return catalog[e.Kind].title }

// UserMessage renders the message for end users.
func (e *Error) UserMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.render(catalog[e.Kind].user)
}

// DevMessage renders the message for developers.
func (e *Error) DevMessage() string {
	return e.render(catalog[e.Kind].dev)
}

func (e *Error) render(tmpl string) string {
	return strings.NewReplacer(
		"{argument}", e.Argument,
		"{value}", fmt.Sprint(e.Value),
		"{library}", e.Library,
		"{form}", e.Form,
		"{parser}", e.Parser,
		"{caller}", e.Caller,
	).Replace(tmpl)
}

// WithDetail sets a custom user message and returns e.
func (e *Error) WithDetail(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap sets the underlying cause and returns e.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// Argument reports an invalid argument value.
func Argument(caller, argument string, value any) *Error {
	e := newError(ErrArgument, caller)
	e.Argument = argument
	e.Value = value
	return e
}

// LibraryNotFound reports a form that is not loaded.
func LibraryNotFound(caller, library string) *Error {
	e := newError(ErrLibraryNotFound, caller)
	e.Library = library
	return e
}

// NoParser reports that no parser is configured.
func NoParser(caller string) *Error {
	return newError(ErrNoParser, caller)
}

// LibraryWithoutParser reports a parser form that cannot parse text.
func LibraryWithoutParser(caller, library string) *Error {
	e := newError(ErrLibraryWithoutParser, caller)
	e.Library = library
	return e
}

// NotImplementedParser reports a parser name that is not loaded.
func NotImplementedParser(caller, parser string) *Error {
	e := newError(ErrNotImplementedParser, caller)
	e.Parser = parser
	return e
}

// NotImplementedForm reports an unrecognized value or form name.
func NotImplementedForm(caller, form string) *Error {
	e := newError(ErrNotImplementedForm, caller)
	e.Form = form
	return e
}

// NotImplementedMethod reports an operation a form cannot perform.
func NotImplementedMethod(caller string) *Error {
	return newError(ErrNotImplementedMethod, caller)
}

// NoStandards reports that no standard units are configured.
func NoStandards(caller string) *Error {
	return newError(ErrNoStandards, caller)
}

// KindOf returns the sentinel kind of err, or nil if err is not an *Error.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}

// Kinds returns all sentinel kinds.
func Kinds() []error {
	return []error{
		ErrArgument, ErrLibraryNotFound, ErrNoParser, ErrLibraryWithoutParser,
		ErrNotImplementedParser, ErrNotImplementedForm, ErrNotImplementedMethod,
		ErrNoStandards,
	}
}

// Label returns a short snake_case label for a kind, used as a metric label.
func Label(kind error) string {
	switch kind {
	case ErrArgument:
		return "argument"
	case ErrLibraryNotFound:
		return "library_not_found"
	case ErrNoParser:
		return "no_parser"
	case ErrLibraryWithoutParser:
		return "library_without_parser"
	case ErrNotImplementedParser:
		return "not_implemented_parser"
	case ErrNotImplementedForm:
		return "not_implemented_form"
	case ErrNotImplementedMethod:
		return "not_implemented_method"
	case ErrNoStandards:
		return "no_standards"
	}
	return "other"
}
