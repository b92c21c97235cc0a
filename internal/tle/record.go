package tle

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	maxNameLength = 24
	lineLength    = 69
)

// Record is one TLE block. Every field holds a single value: numeric fields
// keep the number and render their fixed-width token on demand, text fields
// keep the text. Setters validate against the column table and leave the
// record unchanged on error.
type Record struct {
	values [numFields]float64
	texts  [numFields]string
	set    [numFields]bool
	blank  [numFields]bool
}

// NewRecord returns an empty record for field-by-field population.
func NewRecord() *Record {
	return &Record{}
}

// SetText assigns a field from its TLE token.
func (r *Record) SetText(f Field, token string) error {
	d, err := lookup(f)
	if err != nil {
		return err
	}
	if d.isBlank(token) {
		r.values[f], r.texts[f], r.set[f], r.blank[f] = 0, "", true, true
		return nil
	}
	v, text, err := d.decode(token)
	if err != nil {
		return err
	}
	r.values[f], r.texts[f], r.set[f], r.blank[f] = v, text, true, false
	return nil
}

// SetValue assigns a numeric field. The value is rounded to the field's
// column precision so the stored number and its token always agree.
func (r *Record) SetValue(f Field, v float64) error {
	d, err := lookup(f)
	if err != nil {
		return err
	}
	raw := fmt.Sprint(v)
	switch {
	case d.kind == kindText:
		return invalid(d, raw, "text field has no numeric form", nil)
	case math.IsNaN(v) || math.IsInf(v, 0):
		return invalid(d, raw, "not finite", nil)
	case !d.bound.contains(v):
		return invalid(d, raw, "outside "+d.bound.String(), nil)
	case d.kind == kindInt && v != math.Trunc(v):
		return invalid(d, raw, "not an integer", nil)
	}
	token, err := d.encode(v)
	if err != nil {
		return err
	}
	q, _, err := d.decode(token)
	if err != nil {
		return err
	}
	r.values[f], r.texts[f], r.set[f], r.blank[f] = q, "", true, false
	return nil
}

func lookup(f Field) (*descriptor, error) {
	if f < 0 || f >= numFields {
		return nil, fmt.Errorf("tle: unknown field %d", int(f))
	}
	return &descriptors[f], nil
}

// IsSet reports whether the field has been assigned.
func (r *Record) IsSet(f Field) bool {
	return f >= 0 && f < numFields && r.set[f]
}

// Text returns the canonical fixed-width token of f, or "" when unset.
func (r *Record) Text(f Field) string {
	if !r.IsSet(f) {
		return ""
	}
	d := &descriptors[f]
	if r.blank[f] {
		return strings.Repeat(" ", d.width())
	}
	if d.kind == kindText {
		if d.padded {
			return fmt.Sprintf("%-*s", d.width(), r.texts[f])
		}
		return r.texts[f]
	}
	// Stored values came through decode, so encode cannot fail.
	s, _ := d.encode(r.values[f])
	return s
}

// Value returns the numeric value of f. ok is false for unset, blank and
// text fields.
func (r *Record) Value(f Field) (v float64, ok bool) {
	if !r.IsSet(f) || r.blank[f] || descriptors[f].kind == kindText {
		return 0, false
	}
	return r.values[f], true
}

func (r *Record) num(f Field) float64 { return r.values[f] }
func (r *Record) whole(f Field) int { return int(r.values[f]) }

func (r *Record) Name() string { return r.texts[FieldName] }
func (r *Record) CatalogNumber() int { return r.whole(FieldCatalogNumber) }
func (r *Record) Classification() string { return r.texts[FieldClassification] }
func (r *Record) LaunchYear() int { return r.whole(FieldLaunchYear) }
func (r *Record) LaunchNumber() int { return r.whole(FieldLaunchNumber) }
func (r *Record) LaunchPiece() string { return r.texts[FieldLaunchPiece] }
func (r *Record) EpochYear() int { return r.whole(FieldEpochYear) }
func (r *Record) EpochDay() float64 { return r.num(FieldEpochDay) }
func (r *Record) MeanMotionDot() float64 { return r.num(FieldMeanMotionDot) }
func (r *Record) MeanMotionDDot() float64 { return r.num(FieldMeanMotionDDot) }
func (r *Record) BStar() float64 { return r.num(FieldBStar) }
func (r *Record) EphemerisType() int { return r.whole(FieldEphemerisType) }
func (r *Record) ElementSetNumber() int { return r.whole(FieldElementSetNumber) }
func (r *Record) Inclination() float64 { return r.num(FieldInclination) }
func (r *Record) RAAN() float64 { return r.num(FieldRAAN) }
func (r *Record) Eccentricity() float64 { return r.num(FieldEccentricity) }
func (r *Record) ArgPerigee() float64 { return r.num(FieldArgPerigee) }
func (r *Record) MeanAnomaly() float64 { return r.num(FieldMeanAnomaly) }
func (r *Record) MeanMotion() float64 { return r.num(FieldMeanMotion) }
func (r *Record) RevolutionNumber() int { return r.whole(FieldRevolutionNumber) }

// EpochInstant returns the element epoch: January 1 of 2000 + epoch year,
// plus epoch day − 1 days, in UTC.
func (r *Record) EpochInstant() time.Time {
	start := time.Date(2000+r.EpochYear(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration(math.Round((r.EpochDay() - 1) * float64(24*time.Hour))))
}

// Elements returns the classical element set. The first derivative of mean
// motion is used as the mean-motion drift.
func (r *Record) Elements() ElementSet {
	return ElementSet{
		Epoch:           r.EpochInstant(),
		ArgPerigee:      r.ArgPerigee(),
		Inclination:     r.Inclination(),
		RAAN:            r.RAAN(),
		Eccentricity:    r.Eccentricity(),
		MeanAnomaly:     r.MeanAnomaly(),
		MeanMotion:      r.MeanMotion(),
		MeanMotionDrift: r.MeanMotionDot(),
	}
}

// Lines renders the record as a name line and two 69-column element lines
// with freshly computed checksums. Unset fields are left blank.
func (r *Record) Lines() (name, line1, line2 string) {
	l1 := []byte(strings.Repeat(" ", lineLength))
	l2 := []byte(strings.Repeat(" ", lineLength))
	l1[0], l2[0] = '1', '2'

	for f := FieldCatalogNumber; f < numFields; f++ {
		tok := r.Text(f)
		if tok == "" {
			continue
		}
		d := &descriptors[f]
		dst := l1
		if d.line == 2 {
			dst = l2
		}
		copy(dst[d.start:d.end], tok)
		if f == FieldCatalogNumber {
			copy(l2[line2CatalogStart:line2CatalogEnd], tok)
		}
	}

	l1[lineLength-1] = byte('0' + Checksum(string(l1)))
	l2[lineLength-1] = byte('0' + Checksum(string(l2)))
	return r.Name(), string(l1), string(l2)
}

// String returns the three-line block joined by "\n".
func (r *Record) String() string {
	name, l1, l2 := r.Lines()
	return name + "\n" + l1 + "\n" + l2
}

// Equal reports whether both records hold the same field values.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.set == o.set && r.blank == o.blank && r.values == o.values && r.texts == o.texts
}

// Checksum returns the modulo-10 checksum of the first 68 columns of a TLE
// line: the sum of all digits, with each '-' counting as 1.
func Checksum(line string) int {
	if len(line) > lineLength-1 {
		line = line[:lineLength-1]
	}
	sum := 0
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}
