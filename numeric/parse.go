package numeric

import (
	"fmt"
	"strconv"
	"strings"
)

// standard integer widths accepted by the int productions.
var intWidths = map[int]bool{8: true, 16: true, 32: true, 64: true}

// ParseDataTypeString parses the numeric data-type grammar of the graph
// interchange format into a scalar DataType (dimensions {1}; vector
// widths and complexity are separate attributes and are applied by the
// importer).
func ParseDataTypeString(str string) (DataType, error) {
	s := strings.TrimSpace(str)
	switch s {
	case "single":
		return NewDataType(true, true, false, 32, 0, nil), nil
	case "double":
		return NewDataType(true, true, false, 64, 0, nil), nil
	case "boolean", "logical":
		return NewDataType(false, false, false, 1, 0, nil), nil
	}

	if t, ok, err := parseIntType(s); ok || err != nil {
		return t, err
	}
	if t, ok, err := parseFixSuffixType(s); ok || err != nil {
		return t, err
	}
	if t, ok, err := parseFixdtType(s); ok || err != nil {
		return t, err
	}

	return DataType{}, fmt.Errorf("%w: %q", ErrUnknownType, str)
}

// parseIntType handles ("u")? "int" {8,16,32,64}.
func parseIntType(s string) (DataType, bool, error) {
	signed := true
	body := s
	if strings.HasPrefix(body, "u") {
		signed = false
		body = body[1:]
	}
	if !strings.HasPrefix(body, "int") {
		return DataType{}, false, nil
	}
	bits, err := strconv.Atoi(body[len("int"):])
	if err != nil {
		return DataType{}, false, nil
	}
	if !intWidths[bits] {
		return DataType{}, true, fmt.Errorf("%w: int width %d", ErrUnknownType, bits)
	}

	return NewDataType(false, signed, false, bits, 0, nil), true, nil
}

// parseFixSuffixType handles ("u"|"s") "fix" <bits> ("_En" <fracbits>)?.
func parseFixSuffixType(s string) (DataType, bool, error) {
	if len(s) < 4 || (s[0] != 'u' && s[0] != 's') || s[1:4] != "fix" {
		return DataType{}, false, nil
	}
	signed := s[0] == 's'
	body := s[4:]
	frac := 0
	if idx := strings.Index(body, "_En"); idx >= 0 {
		f, err := strconv.Atoi(body[idx+len("_En"):])
		if err != nil {
			return DataType{}, true, fmt.Errorf("%w: fractional bits in %q", ErrUnknownType, s)
		}
		frac = f
		body = body[:idx]
	}
	bits, err := strconv.Atoi(body)
	if err != nil {
		return DataType{}, true, fmt.Errorf("%w: total bits in %q", ErrUnknownType, s)
	}
	if bits < 1 || bits > 64 {
		return DataType{}, true, fmt.Errorf("%w: %d bits in %q", ErrBadWidth, bits, s)
	}

	return NewDataType(false, signed, false, bits, frac, nil), true, nil
}

// parseFixdtType handles "fixdt(" ("0"|"1") "," <bits> "," <fracbits> ")".
func parseFixdtType(s string) (DataType, bool, error) {
	if !strings.HasPrefix(s, "fixdt(") || !strings.HasSuffix(s, ")") {
		return DataType{}, false, nil
	}
	inner := s[len("fixdt(") : len(s)-1]
	parts := strings.Split(inner, ",")
	if len(parts) != 3 {
		return DataType{}, true, fmt.Errorf("%w: fixdt arity in %q", ErrUnknownType, s)
	}
	signFlag := strings.TrimSpace(parts[0])
	if signFlag != "0" && signFlag != "1" {
		return DataType{}, true, fmt.Errorf("%w: fixdt sign flag %q", ErrUnknownType, signFlag)
	}
	bits, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return DataType{}, true, fmt.Errorf("%w: fixdt bits in %q", ErrUnknownType, s)
	}
	frac, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return DataType{}, true, fmt.Errorf("%w: fixdt fractional bits in %q", ErrUnknownType, s)
	}
	if bits < 1 || bits > 64 {
		return DataType{}, true, fmt.Errorf("%w: %d bits in %q", ErrBadWidth, bits, s)
	}

	return NewDataType(false, signFlag == "1", false, bits, frac, nil), true, nil
}

// ParseNumericLiterals parses a scalar literal or a bracketed array
// literal ("[a, b; c, d]" - commas and semicolons both separate
// elements) into a flat NumericValue sequence.
func ParseNumericLiterals(str string) ([]NumericValue, error) {
	s := strings.TrimSpace(str)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	vals := make([]NumericValue, 0, len(fields))
	for _, f := range fields {
		v, err := ParseNumericLiteral(f)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}

	return vals, nil
}

// ParseNumericLiteral parses one scalar literal. Integers parse into the
// integer variant; anything with a decimal point or exponent parses into
// the fractional variant. A trailing "i" or "j" marks a pure imaginary
// component.
func ParseNumericLiteral(str string) (NumericValue, error) {
	s := strings.TrimSpace(str)
	imag := false
	if strings.HasSuffix(s, "i") || strings.HasSuffix(s, "j") {
		imag = true
		s = s[:len(s)-1]
	}
	if iv, err := strconv.ParseInt(s, 10, 64); err == nil {
		if imag {
			return NewComplexIntValue(0, iv), nil
		}

		return NewIntValue(iv), nil
	}
	if fv, err := strconv.ParseFloat(s, 64); err == nil {
		if imag {
			return NewComplexValue(complex(0, fv)), nil
		}

		return NewRealValue(fv), nil
	}

	return NumericValue{}, fmt.Errorf("%w: %q", ErrBadLiteral, str)
}
