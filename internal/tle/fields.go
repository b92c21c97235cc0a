package tle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Field identifies one column field of a TLE block.
type Field int

const (
	FieldName Field = iota
	FieldCatalogNumber
	FieldClassification
	FieldLaunchYear
	FieldLaunchNumber
	FieldLaunchPiece
	FieldEpochYear
	FieldEpochDay
	FieldMeanMotionDot
	FieldMeanMotionDDot
	FieldBStar
	FieldEphemerisType
	FieldElementSetNumber
	FieldInclination
	FieldRAAN
	FieldEccentricity
	FieldArgPerigee
	FieldMeanAnomaly
	FieldMeanMotion
	FieldRevolutionNumber

	numFields
)

// Fields returns every field in column order.
func Fields() []Field {
	out := make([]Field, numFields)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// ParseField looks a field up by its String name.
func ParseField(name string) (Field, error) {
	for i := range descriptors {
		if descriptors[i].name == name {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("tle: unknown field %q", name)
}

func (f Field) String() string {
	if f < 0 || f >= numFields {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return descriptors[f].name
}

// IsText reports whether the field carries text rather than a number.
func (f Field) IsText() bool {
	return f >= 0 && f < numFields && descriptors[f].kind == kindText
}

type kind int

const (
	kindText     kind = iota
	kindInt           // zero-padded integer
	kindFixed         // zero-padded fixed-point decimal
	kindFraction      // signed, leading decimal point: " .00000004"
	kindImplied       // digits with an implied leading "0.", scaled by 1e7
	kindExp           // compressed exponent: " 12345-3" = 0.12345e-3
)

type bound struct {
	lo, hi         float64
	loOpen, hiOpen bool
}

func (b bound) contains(v float64) bool {
	if v < b.lo || (b.loOpen && v == b.lo) {
		return false
	}
	if v > b.hi || (b.hiOpen && v == b.hi) {
		return false
	}
	return true
}

func (b bound) String() string {
	l, r := "[", "]"
	if b.loOpen {
		l = "("
	}
	if b.hiOpen {
		r = ")"
	}
	return fmt.Sprintf("%s%g, %g%s", l, b.lo, b.hi, r)
}

// descriptor is one row of the column table. Grammars match the token with
// surrounding spaces removed, except for text fields which match verbatim.
type descriptor struct {
	name       string
	line       int
	start, end int
	kind       kind
	format     string
	grammar    *regexp.Regexp
	bound      bound
	padded     bool // text stored without trailing spaces, padded on output
	blankable  bool // an all-space token is accepted and kept blank
}

func (d *descriptor) width() int { return d.end - d.start }

var (
	angleGrammar = regexp.MustCompile(`^[0-9]{1,3}\.[0-9]{1,4}$`)
	expGrammar   = regexp.MustCompile(`^[+-]?[0-9]{1,5}[+ -][0-9]$`)
	anyValue     = bound{lo: math.Inf(-1), hi: math.Inf(1)}
)

func intGrammar(width int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^[0-9]{1,%d}$`, width))
}

var descriptors = [numFields]descriptor{
	FieldName: {
		name: "name", line: 0, start: 0, end: maxNameLength, kind: kindText,
		grammar: regexp.MustCompile(`^[\x20-\x7e]{0,24}$`),
	},
	FieldCatalogNumber: {
		name: "catalog_number", line: 1, start: 2, end: 7, kind: kindInt, format: "%05d",
		grammar: intGrammar(5), bound: bound{lo: 1, hi: 99999},
	},
	FieldClassification: {
		name: "classification", line: 1, start: 7, end: 8, kind: kindText,
		grammar: regexp.MustCompile(`^[UCS]$`),
	},
	FieldLaunchYear: {
		name: "launch_year", line: 1, start: 9, end: 11, kind: kindInt, format: "%02d",
		grammar: intGrammar(2), bound: bound{lo: 0, hi: 99}, blankable: true,
	},
	FieldLaunchNumber: {
		name: "launch_number", line: 1, start: 11, end: 14, kind: kindInt, format: "%03d",
		grammar: intGrammar(3), bound: bound{lo: 0, hi: 999}, blankable: true,
	},
	FieldLaunchPiece: {
		name: "launch_piece", line: 1, start: 14, end: 17, kind: kindText,
		grammar: regexp.MustCompile(`^[A-Z]{1,3} *$`), padded: true, blankable: true,
	},
	FieldEpochYear: {
		name: "epoch_year", line: 1, start: 18, end: 20, kind: kindInt, format: "%02d",
		grammar: intGrammar(2), bound: bound{lo: 0, hi: 99},
	},
	FieldEpochDay: {
		name: "epoch_day", line: 1, start: 20, end: 32, kind: kindFixed, format: "%012.8f",
		grammar: regexp.MustCompile(`^[0-9]{1,3}\.[0-9]{1,8}$`),
		bound:   bound{lo: 1, hi: 367, hiOpen: true},
	},
	FieldMeanMotionDot: {
		name: "mean_motion_dot", line: 1, start: 33, end: 43, kind: kindFraction,
		grammar: regexp.MustCompile(`^[+-]?\.[0-9]{1,8}$`),
		bound:   bound{lo: -1, hi: 1, loOpen: true, hiOpen: true},
	},
	FieldMeanMotionDDot: {
		name: "mean_motion_ddot", line: 1, start: 44, end: 52, kind: kindExp,
		grammar: expGrammar, bound: anyValue,
	},
	FieldBStar: {
		name: "bstar", line: 1, start: 53, end: 61, kind: kindExp,
		grammar: expGrammar, bound: anyValue,
	},
	FieldEphemerisType: {
		name: "ephemeris_type", line: 1, start: 62, end: 63, kind: kindInt, format: "%01d",
		grammar: intGrammar(1), bound: bound{lo: 0, hi: 9},
	},
	FieldElementSetNumber: {
		name: "element_set_number", line: 1, start: 64, end: 68, kind: kindInt, format: "%04d",
		grammar: intGrammar(4), bound: bound{lo: 0, hi: 9999},
	},
	FieldInclination: {
		name: "inclination", line: 2, start: 8, end: 16, kind: kindFixed, format: "%08.4f",
		grammar: angleGrammar, bound: bound{lo: 0, hi: 180},
	},
	FieldRAAN: {
		name: "raan", line: 2, start: 17, end: 25, kind: kindFixed, format: "%08.4f",
		grammar: angleGrammar, bound: bound{lo: 0, hi: 360, hiOpen: true},
	},
	FieldEccentricity: {
		name: "eccentricity", line: 2, start: 26, end: 33, kind: kindImplied, format: "%07d",
		grammar: intGrammar(7), bound: bound{lo: 0, hi: 1, hiOpen: true},
	},
	FieldArgPerigee: {
		name: "arg_perigee", line: 2, start: 34, end: 42, kind: kindFixed, format: "%08.4f",
		grammar: angleGrammar, bound: bound{lo: 0, hi: 360, hiOpen: true},
	},
	FieldMeanAnomaly: {
		name: "mean_anomaly", line: 2, start: 43, end: 51, kind: kindFixed, format: "%08.4f",
		grammar: angleGrammar, bound: bound{lo: 0, hi: 360, hiOpen: true},
	},
	FieldMeanMotion: {
		name: "mean_motion", line: 2, start: 52, end: 63, kind: kindFixed, format: "%011.8f",
		grammar: regexp.MustCompile(`^[0-9]{1,2}\.[0-9]{1,8}$`),
		bound:   bound{lo: 0, hi: 100, loOpen: true, hiOpen: true},
	},
	FieldRevolutionNumber: {
		name: "revolution_number", line: 2, start: 63, end: 68, kind: kindInt, format: "%05d",
		grammar: intGrammar(5), bound: bound{lo: 0, hi: 99999},
	},
}

// Catalog number columns on line 2.
const line2CatalogStart, line2CatalogEnd = 2, 7

const eccentricityScale = 1e7

func invalid(d *descriptor, value, reason string, err error) *ValidationError {
	return &ValidationError{Field: d.name, Value: value, Reason: reason, Err: err}
}

// decode validates a token against the field grammar and bound and returns
// its numeric value and the text to store.
func (d *descriptor) decode(token string) (float64, string, error) {
	if d.kind == kindText {
		if len(token) > d.width() || !d.grammar.MatchString(token) {
			return 0, "", invalid(d, token, "does not match "+d.grammar.String(), nil)
		}
		if d.padded {
			token = strings.TrimRight(token, " ")
		}
		return 0, token, nil
	}

	s := strings.TrimSpace(token)
	if !d.grammar.MatchString(s) {
		return 0, "", invalid(d, token, "does not match "+d.grammar.String(), nil)
	}

	var (
		v   float64
		err error
	)
	switch d.kind {
	case kindInt:
		var n int
		n, err = strconv.Atoi(s)
		v = float64(n)
	case kindFixed, kindFraction:
		v, err = strconv.ParseFloat(s, 64)
	case kindImplied:
		var n int
		n, err = strconv.Atoi(s)
		v = float64(n) / eccentricityScale
	case kindExp:
		v, err = decodeExp(s)
	}
	if err != nil {
		return 0, "", invalid(d, token, "not a number", errors.Wrapf(err, "decoding %s", d.name))
	}
	if !d.bound.contains(v) {
		return 0, "", invalid(d, token, "outside "+d.bound.String(), nil)
	}
	return v, "", nil
}

// decodeExp reads the compressed exponent notation: optional sign, up to
// five mantissa digits after an implied "0.", then a power of ten signed
// with '+', '-' or a space meaning '+'.
func decodeExp(s string) (float64, error) {
	sign := ""
	if s[0] == '-' || s[0] == '+' {
		sign, s = s[:1], s[1:]
	}
	mant, exp := s[:len(s)-2], s[len(s)-2:]
	if exp[0] == ' ' {
		exp = "+" + exp[1:]
	}
	return strconv.ParseFloat(sign+"0."+mant+"e"+exp, 64)
}

// isBlank reports whether token is an accepted all-space value for d.
func (d *descriptor) isBlank(token string) bool {
	return d.blankable && len(token) <= d.width() && strings.TrimSpace(token) == ""
}

// encode renders v in the field's canonical fixed-width form.
func (d *descriptor) encode(v float64) (string, error) {
	var s string
	switch d.kind {
	case kindInt:
		s = fmt.Sprintf(d.format, int64(v))
	case kindFixed:
		s = fmt.Sprintf(d.format, v)
	case kindFraction:
		digits := strconv.FormatFloat(math.Abs(v), 'f', 8, 64)
		if !strings.HasPrefix(digits, "0.") {
			return "", invalid(d, digits, "magnitude rounds to 1 or more", nil)
		}
		s = signChar(v) + digits[1:]
	case kindImplied:
		s = fmt.Sprintf(d.format, int64(math.Round(v*eccentricityScale)))
	case kindExp:
		var err error
		if s, err = encodeExp(v); err != nil {
			return "", invalid(d, strconv.FormatFloat(v, 'g', -1, 64), err.Error(), nil)
		}
	default:
		return "", invalid(d, "", "text field has no numeric form", nil)
	}
	if len(s) != d.width() {
		return "", invalid(d, s, fmt.Sprintf("does not fit %d columns", d.width()), nil)
	}
	return s, nil
}

func signChar(v float64) string {
	if v < 0 {
		return "-"
	}
	return " "
}

// encodeExp writes v as sign, five mantissa digits and a signed
// single-digit exponent. Zero is " 00000-0".
func encodeExp(v float64) (string, error) {
	if v == 0 {
		return " 00000-0", nil
	}
	// d.dddde±XX: the mantissa digits are the same, the TLE exponent is one
	// higher because the TLE mantissa is 0.ddddd.
	e := strconv.FormatFloat(math.Abs(v), 'e', 4, 64)
	mant := e[:1] + e[2:6]
	exp, err := strconv.Atoi(e[7:])
	if err != nil {
		return "", err
	}
	exp++
	if exp < -9 || exp > 9 {
		return "", fmt.Errorf("exponent %d outside -9..9", exp)
	}
	expSign := "+"
	if exp < 0 {
		expSign = "-"
		exp = -exp
	}
	return signChar(v) + mant + expSign + strconv.Itoa(exp), nil
}
