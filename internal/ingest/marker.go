package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"quiz-runner/internal/domain"
)

var optionPhrase = regexp.MustCompile(`(?i)\boption\s*#?\s*(\d+)`)

// decodeMarker turns a correctness marker into a 0-based option index.
// Accepted encodings: "3" (1-based ordinal, integral numerics like "3.0" too),
// "C"/"c", and any phrase containing "option 3".
func decodeMarker(raw string) (int, domain.RejectReason, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, domain.UnrecognizedCorrectnessMarker, false
	}

	if n, err := strconv.Atoi(s); err == nil {
		return ordinal(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, domain.UnrecognizedCorrectnessMarker, false
		}
		if f < 1 || f > domain.OptionCount {
			return 0, domain.MarkerOutOfRange, false
		}
		return int(f) - 1, 0, true
	}

	if len(s) == 1 {
		c := strings.ToUpper(s)[0]
		if c >= 'A' && c <= 'Z' {
			idx := int(c - 'A')
			if idx >= domain.OptionCount {
				return 0, domain.MarkerOutOfRange, false
			}
			return idx, 0, true
		}
	}

	if m := optionPhrase.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, domain.MarkerOutOfRange, false
		}
		return ordinal(n)
	}

	return 0, domain.UnrecognizedCorrectnessMarker, false
}

func ordinal(n int) (int, domain.RejectReason, bool) {
	if n < 1 || n > domain.OptionCount {
		return 0, domain.MarkerOutOfRange, false
	}
	return n - 1, 0, true
}
