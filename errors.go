package goklab

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/goklab/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeIllegalDimension          = "illegal_dimension"
	CodeIllegalDimensionality     = "illegal_dimensionality"
	CodeUnsupportedDimensionality = "unsupported_dimensionality"
	CodeIllegalShape              = "illegal_shape"
	CodeIllegalParameter          = "illegal_parameter"
	CodeUnterminated              = "unterminated"
	CodeNoDimensions              = "no_dimensions"
	CodeUnencodable               = "unencodable"
	// Builder-level
	CodeInsufficientGrid = "insufficient_grid"
	CodeInvalidYears     = "invalid_years"
	// Wire values
	CodeInvalidEnum = "invalid_enum"
	CodeInvalidTime = "invalid_time"
)

// ErrIllegalArgument is matched by errors.Is for every Issues value produced
// by the codec and the builder.
var ErrIllegalArgument = errors.New("goklab: illegal argument")

// Issue represents a single codec failure.
type Issue struct {
	Path    string // Position in the child chain: "/", "/child", "/child/child", ...
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints.
	Cause   error  // Optional: underlying error.
	Offset  int64  // Rune offset in the geometry specification (-1 when unknown).
	// InputFragment is the offending character or key/value fragment.
	InputFragment string
	// Params carries structured parameters (e.g., {"got":3}) for i18n.
	Params map[string]any
}

// Issues is a collection of codec errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. illegal_dimension at /child (offset 4): unrecognized geometry dimension identifier Q
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
		if it.Offset >= 0 {
			fmt.Fprintf(b, " (offset %d)", it.Offset)
		}
		if it.Message != "" {
			b.WriteString(": ")
			b.WriteString(it.Message)
			if it.InputFragment != "" {
				b.WriteString(" ")
				b.WriteString(it.InputFragment)
			}
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Is reports whether target is ErrIllegalArgument. All issue codes describe
// caller input the codec refuses to interpret.
func (iss Issues) Is(target error) bool {
	return target == ErrIllegalArgument && len(iss) > 0
}

// HasCode reports whether any issue carries the given code.
func (iss Issues) HasCode(code string) bool {
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// issueAt builds a single-issue error with a localized message.
func issueAt(path string, offset int, code, fragment string) Issues {
	return Issues{{
		Path:          path,
		Code:          code,
		Message:       i18n.T(code, nil),
		Offset:        int64(offset),
		InputFragment: fragment,
	}}
}

// singleIssue is issueAt without position information.
func singleIssue(code string, params map[string]any) Issues {
	data := make(map[string]string, len(params))
	for k, v := range params {
		data[k] = fmt.Sprint(v)
	}
	return Issues{{Path: "/", Code: code, Message: i18n.T(code, data), Offset: -1, Params: params}}
}
