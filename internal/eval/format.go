package eval

import (
	"fmt"
	"math"
	"strings"
	"time"
)

func isNaN(f float64) bool { return math.IsNaN(f) }
func isInf(f float64) bool { return math.IsInf(f, 0) }

// roundHalfAwayFromZero matches the C library's round(3), which math.Round
// already implements for float64.
func roundHalfAwayFromZero(f float64) float64 { return math.Round(f) }

// strftime renders t according to a small, deliberately non-exhaustive set
// of POSIX strftime(3) conversion specifiers, the ones the original C
// implementation actually threads through to its `datetime` method
// (_examples/original_source/lib/lattice.c calls strftime verbatim with the
// method's string argument as the format). Anything not in the table passes
// through unchanged, matching strftime's own behavior for unknown `%` codes.
func strftime(pattern string, t time.Time) string {
	var sb strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' || i+1 >= len(pattern) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch pattern[i] {
		case 'Y':
			fmt.Fprintf(&sb, "%04d", t.Year())
		case 'y':
			fmt.Fprintf(&sb, "%02d", t.Year()%100)
		case 'm':
			fmt.Fprintf(&sb, "%02d", int(t.Month()))
		case 'd':
			fmt.Fprintf(&sb, "%02d", t.Day())
		case 'H':
			fmt.Fprintf(&sb, "%02d", t.Hour())
		case 'M':
			fmt.Fprintf(&sb, "%02d", t.Minute())
		case 'S':
			fmt.Fprintf(&sb, "%02d", t.Second())
		case 'p':
			if t.Hour() < 12 {
				sb.WriteString("AM")
			} else {
				sb.WriteString("PM")
			}
		case 'j':
			fmt.Fprintf(&sb, "%03d", t.YearDay())
		case 'a':
			sb.WriteString(t.Format("Mon"))
		case 'A':
			sb.WriteString(t.Format("Monday"))
		case 'b':
			sb.WriteString(t.Format("Jan"))
		case 'B':
			sb.WriteString(t.Format("January"))
		case 'Z':
			name, _ := t.Zone()
			sb.WriteString(name)
		case '%':
			sb.WriteByte('%')
		default:
			sb.WriteByte('%')
			sb.WriteByte(pattern[i])
		}
	}
	return sb.String()
}
