package workflow

import (
	"fmt"
	"regexp"
	"strings"
)

// QuizQuestion is one parsed multiple-choice question.
type QuizQuestion struct {
	Prompt     string
	Options    [4]string
	Answer     string // letter, upper case
	AnswerText string
}

var (
	quizQuestionRe = regexp.MustCompile(`^\s*\**\s*(\d+)[.)]\s*(.+?)\s*\**\s*$`)
	quizOptionRe   = regexp.MustCompile(`^\s*\**\s*([a-dA-D])[).]\s*(.*?)\s*$`)
	quizAnswerRe   = regexp.MustCompile(`(?i)^\s*\**\s*gabarito\s*:?\s*\**\s*letra\s+([a-d])\b\s*[-–:]?\s*(.*?)\s*\**\s*$`)
)

// ParseQuiz extracts complete questions from model output. A question is
// complete once its prompt, all four options and the answer line were seen;
// incomplete questions are dropped. Markdown bold markers are tolerated.
func ParseQuiz(text string) []QuizQuestion {
	var (
		out     []QuizQuestion
		current *QuizQuestion
		seen    [4]bool
	)
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if m := quizAnswerRe.FindStringSubmatch(line); m != nil {
			if current != nil && seen == [4]bool{true, true, true, true} {
				current.Answer = strings.ToUpper(m[1])
				current.AnswerText = strings.TrimSpace(m[2])
				out = append(out, *current)
			}
			current = nil
			continue
		}
		if m := quizOptionRe.FindStringSubmatch(line); m != nil && current != nil {
			idx := strings.ToLower(m[1])[0] - 'a'
			current.Options[idx] = m[2]
			seen[idx] = true
			continue
		}
		if m := quizQuestionRe.FindStringSubmatch(line); m != nil {
			current = &QuizQuestion{Prompt: m[2]}
			seen = [4]bool{}
		}
	}
	return out
}

// FormatQuiz renders questions in the canonical layout, numbered from 1 and
// separated by a blank line.
func FormatQuiz(questions []QuizQuestion) string {
	blocks := make([]string, 0, len(questions))
	for i, q := range questions {
		var b strings.Builder
		fmt.Fprintf(&b, "%d. %s\n", i+1, q.Prompt)
		for j, opt := range q.Options {
			fmt.Fprintf(&b, "%c) %s\n", 'a'+j, opt)
		}
		fmt.Fprintf(&b, "Gabarito: Letra %s", q.Answer)
		if q.AnswerText != "" {
			fmt.Fprintf(&b, " - %s", q.AnswerText)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}
