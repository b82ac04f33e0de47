package workflow

import "strings"

// Intent is the response strategy a request is routed to. The values are the
// labels the classification prompt asks the model to answer with.
type Intent string

const (
	IntentExplain          Intent = "explicar"
	IntentGenerateQuestion Intent = "gerar_pergunta"
	IntentEvaluate         Intent = "avaliar"
)

// AllIntents lists every intent in classification priority order. When a
// model reply contains several labels, the first one here wins.
var AllIntents = []Intent{IntentExplain, IntentGenerateQuestion, IntentEvaluate}

// DefaultIntent is used whenever classification is inconclusive.
const DefaultIntent = IntentExplain

// Valid reports whether i is one of AllIntents.
func (i Intent) Valid() bool {
	for _, known := range AllIntents {
		if i == known {
			return true
		}
	}
	return false
}

func (i Intent) String() string { return string(i) }

// ParseIntent maps a raw classifier reply to an intent. The reply is
// lower-cased and trimmed, then searched for each label in AllIntents order.
// Replies with no label map to DefaultIntent.
func ParseIntent(reply string) Intent {
	reply = strings.ToLower(strings.TrimSpace(reply))
	for _, intent := range AllIntents {
		if strings.Contains(reply, string(intent)) {
			return intent
		}
	}
	return DefaultIntent
}
