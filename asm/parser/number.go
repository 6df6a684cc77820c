package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// ParseNumber parses value as a 16-bit word. Recognized forms are
// decimal, 0x hex, 0b binary, 0d decimal and legacy leading-zero octal.
// A leading '-' yields the two's complement. Underscores may be used
// to group digits.
func ParseNumber(value string) (uint16, bool) {
	var neg bool
	if strings.HasPrefix(value, "-") {
		neg = true
		value = value[1:]
	}

	base, digits := SplitNumber(value)
	if len(digits) == 0 {
		return 0, false
	}

	n, err := strconv.ParseUint(digits, base, 64)
	if err != nil || n > 0xffff {
		return 0, false
	}

	if neg {
		return uint16(-int64(n)), true
	}
	return uint16(n), true
}

// SplitNumber splits the given number into its base and the digits
// following the base prefix.
func SplitNumber(v string) (int, string) {
	v = strings.ReplaceAll(v, "_", "")
	lower := strings.ToLower(v)

	switch {
	case strings.HasPrefix(lower, "0x"):
		return 16, v[2:]
	case strings.HasPrefix(lower, "0b"):
		return 2, v[2:]
	case strings.HasPrefix(lower, "0d"):
		return 10, v[2:]
	case len(v) > 1 && v[0] == '0':
		return 8, v[1:]
	}

	return 10, v
}

// ParseChar parses a quoted character literal, escapes included.
func ParseChar(value string) (uint16, bool) {
	s, ok := unquote(value, '\'')
	if !ok || utf8.RuneCountInString(s) != 1 {
		return 0, false
	}

	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || r > 0xffff {
		return 0, false
	}
	return uint16(r), true
}

// ParseString parses a quoted string literal into one word per character.
func ParseString(value string) ([]uint16, bool) {
	s, ok := unquote(value, '"')
	if !ok {
		return nil, false
	}

	out := make([]uint16, 0, len(s))
	for _, r := range s {
		if r == utf8.RuneError || r > 0xffff {
			return nil, false
		}
		out = append(out, uint16(r))
	}
	return out, true
}

// unquote strips the quote characters from value and expands the
// escape sequences \n \t \r \0 \\ \" and \'.
func unquote(value string, quote byte) (string, bool) {
	if len(value) < 2 || value[0] != quote || value[len(value)-1] != quote {
		return "", false
	}
	value = value[1 : len(value)-1]

	var sb strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c == quote {
			return "", false
		}
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}

		i++
		if i >= len(value) {
			return "", false
		}

		switch value[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case '\\', '"', '\'':
			sb.WriteByte(value[i])
		default:
			return "", false
		}
	}

	return sb.String(), true
}
