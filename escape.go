package lattice

import "strings"

// DefaultEscape implements spec.md §4.H's default escape: the five bytes
// `& ' " < >` become two-digit decimal `&#NN;` entities; every other byte
// passes through unchanged.
func DefaultEscape(s string) string {
	if !strings.ContainsAny(s, `&'"<>`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&', '\'', '"', '<', '>':
			sb.WriteByte('&')
			sb.WriteByte('#')
			sb.WriteByte('0' + c/10)
			sb.WriteByte('0' + c%10)
			sb.WriteByte(';')
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
