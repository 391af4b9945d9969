// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"regexp"
	"strconv"
	"strings"
)

// citationRe matches bracketed reference groups such as [1], [2, 3] or [1-3].
var citationRe = regexp.MustCompile(`\[(\d+(?:\s*[-,–]\s*\d+)*)\]`)

// maxRangeSpan bounds how many numbers a single range like [1-9] may expand to.
const maxRangeSpan = 50

// Citations returns the set of reference numbers cited in text. Ranges such
// as [2-4] expand to every number in the range.
func Citations(text string) map[int]bool {
	cited := make(map[int]bool)
	for _, m := range citationRe.FindAllStringSubmatch(text, -1) {
		group := strings.ReplaceAll(m[1], "–", "-")
		for _, part := range strings.Split(group, ",") {
			lo, hi, isRange := strings.Cut(part, "-")
			a, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil {
				continue
			}
			b := a
			if isRange {
				if b, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil || b < a || b-a > maxRangeSpan {
					continue
				}
			}
			for n := a; n <= b; n++ {
				cited[n] = true
			}
		}
	}
	return cited
}
