package workflow

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultQuizCap bounds how many questions a single request may ask for.
const DefaultQuizCap = 20

var questionCountRe = regexp.MustCompile(`(\d+)\s+pergunt`)

// ParseQuestionCount extracts N from "<N> pergunt..." in request, defaulting
// to 1, and clamps it to [1, limit]. A non-positive limit means DefaultQuizCap.
func ParseQuestionCount(request string, limit int) int {
	if limit <= 0 {
		limit = DefaultQuizCap
	}
	m := questionCountRe.FindStringSubmatch(strings.ToLower(request))
	if m == nil {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	switch {
	case err != nil:
		// only overflow can fail here
		return limit
	case n < 1:
		return 1
	case n > limit:
		return limit
	}
	return n
}
