package tle

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Option adjusts parsing.
type Option func(*parseOptions)

type parseOptions struct {
	verifyChecksum bool
}

// WithChecksumVerification recomputes each line's modulo-10 checksum and
// rejects blocks whose checksum column disagrees. Without it the checksum
// column only has to hold a digit.
func WithChecksumVerification() Option {
	return func(o *parseOptions) { o.verifyChecksum = true }
}

// Parse reads a three-line TLE block: a name line of at most 24 characters
// followed by two 69-column element lines. Trailing whitespace is ignored,
// as is trailing whitespace on the name line; line endings may be "\n" or
// "\r\n".
func Parse(text string, opts ...Option) (*Record, error) {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	lines := strings.Split(strings.TrimRight(text, " \t\r\n"), "\n")
	if len(lines) != 3 {
		return nil, &FormatError{Line: -1, Reason: "want 3 lines, got " + strconv.Itoa(len(lines))}
	}
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
		if i == 0 {
			lines[i] = strings.TrimRight(lines[i], " \t")
		}
		if lines[i] == "" {
			return nil, &FormatError{Line: i, Reason: "empty line"}
		}
	}
	return parseLines(lines[0], lines[1], lines[2], o)
}

// ParseLines is Parse for a block that is already split into lines.
func ParseLines(name, line1, line2 string, opts ...Option) (*Record, error) {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}
	return parseLines(strings.TrimRight(name, " \t\r"), strings.TrimRight(line1, "\r"),
		strings.TrimRight(line2, "\r"), o)
}

func parseLines(name, line1, line2 string, o parseOptions) (*Record, error) {
	if len(name) > maxNameLength {
		return nil, &FormatError{Line: 0, Reason: "name longer than 24 characters"}
	}
	for i, l := range []string{line1, line2} {
		if len(l) != lineLength {
			return nil, &FormatError{
				Line:   i + 1,
				Reason: "want 69 characters, got " + strconv.Itoa(len(l)),
			}
		}
	}

	r := NewRecord()
	if err := r.SetText(FieldName, name); err != nil {
		return nil, errors.Wrap(err, "line 0")
	}

	for n, line := range []string{line1, line2} {
		lineNo := n + 1
		marker := strconv.Itoa(lineNo)
		if line[:1] != marker {
			return nil, &ValidationError{
				Field:  "line" + marker + ".number",
				Value:  line[:1],
				Reason: "want " + marker,
			}
		}

		cs := line[lineLength-1]
		if cs < '0' || cs > '9' {
			return nil, &ValidationError{
				Field:  "line" + marker + ".checksum",
				Value:  string(cs),
				Reason: "not a digit",
			}
		}
		if o.verifyChecksum {
			if want := Checksum(line); int(cs-'0') != want {
				return nil, &ValidationError{
					Field:  "line" + marker + ".checksum",
					Value:  string(cs),
					Reason: "computed checksum is " + strconv.Itoa(want),
				}
			}
		}

		for f := FieldCatalogNumber; f < numFields; f++ {
			d := &descriptors[f]
			if d.line != lineNo {
				continue
			}
			if err := r.SetText(f, line[d.start:d.end]); err != nil {
				return nil, errors.Wrapf(err, "line %d", lineNo)
			}
		}
	}

	tok := line2[line2CatalogStart:line2CatalogEnd]
	cat, _, err := descriptors[FieldCatalogNumber].decode(tok)
	if err != nil {
		return nil, errors.Wrap(err, "line 2")
	}
	if int(cat) != r.CatalogNumber() {
		return nil, &ValidationError{
			Field:  FieldCatalogNumber.String(),
			Value:  tok,
			Reason: "line 2 catalog number differs from line 1 (" + r.Text(FieldCatalogNumber) + ")",
		}
	}
	return r, nil
}
