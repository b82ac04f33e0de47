package workflow

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
)

// Language is an ISO 639-1 code.
type Language string

const (
	LanguagePortuguese Language = "pt"
	LanguageEnglish    Language = "en"
)

var detectOptions = whatlanggo.Options{
	Whitelist: map[whatlanggo.Lang]bool{
		whatlanggo.Por: true,
		whatlanggo.Eng: true,
		whatlanggo.Spa: true,
		whatlanggo.Fra: true,
		whatlanggo.Ita: true,
		whatlanggo.Deu: true,
	},
}

// minDetectWords is the shortest text whose trigram detection is trusted.
// Shorter requests ("gere 3 perguntas", "what is mitosis?") are decided by
// function words.
const minDetectWords = 6

var (
	portugueseWords = wordSet("o a os as que qual quais como por porque quando onde é são explique gere " +
		"pergunta perguntas pergunte sobre de do da dos das em um uma texto")
	englishWords = wordSet("what is are the how why which who when where explain give generate " +
		"question questions about of and in does do quiz me")
)

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

// DetectLanguage guesses the language of text. Portuguese is the default for
// blank text and whenever neither detection nor word cues favour English.
func DetectLanguage(text string) Language {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !unicode.IsLetter(r) })
	if len(words) == 0 {
		return LanguagePortuguese
	}
	if len(words) >= minDetectWords {
		if info := whatlanggo.DetectWithOptions(text, detectOptions); info.IsReliable() {
			return Language(info.Lang.Iso6391())
		}
	}

	var pt, en int
	for _, w := range words {
		if portugueseWords[w] {
			pt++
		}
		if englishWords[w] {
			en++
		}
	}
	if en > pt {
		return LanguageEnglish
	}
	return LanguagePortuguese
}

func answerInstruction(lang Language) string {
	switch lang {
	case LanguageEnglish:
		return "Please answer in English."
	case LanguagePortuguese:
		return "Por favor, responda em português."
	default:
		return "Please answer in the same language as the question."
	}
}

func quizInstruction(lang Language, n int) string {
	switch lang {
	case LanguageEnglish:
		return fmt.Sprintf("Please generate %d multiple-choice question(s) and all alternatives in English.", n)
	case LanguagePortuguese:
		return fmt.Sprintf("Por favor, gere %d pergunta(s) de múltipla escolha e todas as alternativas em português.", n)
	default:
		return fmt.Sprintf("Please generate %d multiple-choice question(s) and all alternatives in the same language as the user's request.", n)
	}
}
