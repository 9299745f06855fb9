package result

import "fmt"

// Error kinds from spec §7. Each is a distinct type so callers can use
// errors.As to recover the structured fields, matching the taxonomy the
// original schemachecker.fns.exceptions / schemachecker.stat.exceptions
// modules defined as exception subclasses.

// ContextError: a rule's context was not found in the document and the
// rule was not inside an optional xs:choice branch.
type ContextError struct {
	Context  string
	Filename string
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("context %s not found in file %s", e.Context, e.Filename)
}

// NodeAttributeError: a Schematron assertion referenced a required
// attribute that is missing from the document.
type NodeAttributeError struct {
	Context  string
	Node     string
	Filename string
}

func (e *NodeAttributeError) Error() string {
	return fmt.Sprintf("attribute %s/%s not found in file %s", e.Context, e.Node, e.Filename)
}

// TokenizerError: an expression failed to tokenize.
type TokenizerError struct {
	Expression string
	Filename   string
	Cause      error
}

func (e *TokenizerError) Error() string {
	return fmt.Sprintf("failed to tokenize expression %q in file %s: %v", e.Expression, e.Filename, e.Cause)
}

func (e *TokenizerError) Unwrap() error { return e.Cause }

// ParserError: the interpreter raised while evaluating an expression.
// Recovered locally during the main rule pass (spec §7). During
// error-template rendering, a placeholder whose evaluation fails is
// skipped and left as written in the message text; the error is not
// returned to the caller.
type ParserError struct {
	Expression string
	Filename   string
	Cause      error
}

func (e *ParserError) Error() string {
	return fmt.Sprintf("failed to evaluate expression %q in file %s: %v", e.Expression, e.Filename, e.Cause)
}

func (e *ParserError) Unwrap() error { return e.Cause }

// TypeConvError: numeric coercion of one or more operands failed.
type TypeConvError struct {
	Args  []string
	Cause error
}

func (e *TypeConvError) Error() string {
	return fmt.Sprintf("failed to convert arguments %v to a numeric type: %v", e.Args, e.Cause)
}

func (e *TypeConvError) Unwrap() error { return e.Cause }

// SchemeNotFound: no schema descriptor exists for the resolved key.
// Suggestion, when non-empty, names the latest declared version under
// the same KND, to help an operator spot a stale document version.
type SchemeNotFound struct {
	KND        string
	Version    string
	Suggestion string
}

func (e *SchemeNotFound) Error() string {
	if e.Suggestion == "" {
		return fmt.Sprintf("no checking scheme found for KND %s version %s", e.KND, e.Version)
	}
	return fmt.Sprintf("no checking scheme found for KND %s version %s (latest declared version is %s)", e.KND, e.Version, e.Suggestion)
}

// FileAttributeError: the file lacks the metadata needed to pick a
// schema (e.g. missing KND/version attributes).
type FileAttributeError struct{}

func (e *FileAttributeError) Error() string {
	return "file is missing the attributes needed to resolve a checking scheme"
}

// EmptyExtract: a DataFrame selection came back empty. Never surfaces
// past the STAT interpreter: a rule that raises it is treated as true,
// a condition that raises it is treated as false (spec §4.2/§4.3).
type EmptyExtract struct{}

func (e *EmptyExtract) Error() string { return "selection yielded no rows or columns" }

// CompendiumParseError: a compendium file failed to parse at load.
type CompendiumParseError struct {
	File  string
	Cause error
}

func (e *CompendiumParseError) Error() string {
	return fmt.Sprintf("failed to parse compendium file %s: %v", e.File, e.Cause)
}

func (e *CompendiumParseError) Unwrap() error { return e.Cause }

// XsdParseError: an XSD schema failed to parse/compile at load.
type XsdParseError struct {
	File  string
	Cause error
}

func (e *XsdParseError) Error() string {
	return fmt.Sprintf("failed to parse xsd scheme %s: %v", e.File, e.Cause)
}

func (e *XsdParseError) Unwrap() error { return e.Cause }

// InterpreterError: a fatal STAT interpreter escape, e.g. ill-typed
// context resolution (not an EmptyExtract) — fatal to the current
// document, per spec §7.
type InterpreterError struct {
	Expression string
	Cause      error
}

func (e *InterpreterError) Error() string {
	return fmt.Sprintf("failed to interpret expression %v: %v", e.Expression, e.Cause)
}

func (e *InterpreterError) Unwrap() error { return e.Cause }

// UnexpectedRowAttribute: a <row> element in a STAT section carried an
// attribute other than "code"/"s1"/"s2"/"s3" — spec §4.3 treats this as
// a schema error rather than silently dropping the attribute.
type UnexpectedRowAttribute struct {
	Section   string
	RowCode   int
	Attribute string
}

func (e *UnexpectedRowAttribute) Error() string {
	return fmt.Sprintf("section %s row %d: unexpected attribute %q (only code/s1/s2/s3 are recognized)", e.Section, e.RowCode, e.Attribute)
}

// InputError: the report filename could not be decomposed into the
// metadata a checker needs (STAT process_input).
type InputError struct {
	Filename string
	Reason   string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("failed to process file %s: %s", e.Filename, e.Reason)
}
