package intent

import (
	"strings"
	"unicode"
)

// Kind tags a classified command.
type Kind int

const (
	Unknown Kind = iota
	Goodbye
	CheckTime
	Weather
	WebSearch
	OpenApp
)

func (k Kind) String() string {
	switch k {
	case Goodbye:
		return "goodbye"
	case CheckTime:
		return "check_time"
	case Weather:
		return "weather"
	case WebSearch:
		return "web_search"
	case OpenApp:
		return "open_app"
	default:
		return "unknown"
	}
}

// Intent is the classified form of one utterance. Arg carries the phrase
// remainder after the intent keyword (query, location or app name), trimmed;
// for Unknown it carries the raw utterance instead.
type Intent struct {
	Kind Kind
	Arg  string
}

var farewellWords = map[string]struct{}{
	"exit":    {},
	"quit":    {},
	"goodbye": {},
	"bye":     {},
}

// Classify maps an utterance to an Intent. It is a pure function: keyword
// sets are checked in a fixed priority order (farewell, time, weather,
// search, open) and the first match wins. No match yields Unknown with the
// original text as Arg.
func Classify(text string) Intent {
	raw := strings.TrimSpace(text)
	tokens := Tokenize(raw)

	for _, tok := range tokens {
		if _, ok := farewellWords[tok]; ok {
			return Intent{Kind: Goodbye}
		}
	}

	if idx := indexOf(tokens, "time"); idx >= 0 {
		return Intent{Kind: CheckTime}
	}
	if idx := indexOf(tokens, "weather"); idx >= 0 {
		return Intent{Kind: Weather, Arg: remainder(tokens, idx, "in", "for")}
	}
	if idx := indexOf(tokens, "search"); idx >= 0 {
		return Intent{Kind: WebSearch, Arg: remainder(tokens, idx, "for")}
	}
	if idx := indexOf(tokens, "open"); idx >= 0 {
		return Intent{Kind: OpenApp, Arg: remainder(tokens, idx)}
	}

	return Intent{Kind: Unknown, Arg: raw}
}

// ContainsToken reports whether text contains word as a whole token,
// case-insensitively. "Echo, what time is it?" contains "echo";
// "echoing" does not.
func ContainsToken(text, word string) bool {
	word = strings.ToLower(word)
	for _, tok := range Tokenize(text) {
		if tok == word {
			return true
		}
	}
	return false
}

// Tokenize lower-cases text and splits it on every non-letter, non-digit
// rune, so punctuation attached to a word never hides it.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func indexOf(tokens []string, word string) int {
	for i, tok := range tokens {
		if tok == word {
			return i
		}
	}
	return -1
}

// remainder rejoins the tokens after position idx, dropping one leading
// filler word ("for", "in") when present.
func remainder(tokens []string, idx int, fillers ...string) string {
	rest := tokens[idx+1:]
	if len(rest) > 0 {
		for _, f := range fillers {
			if rest[0] == f {
				rest = rest[1:]
				break
			}
		}
	}
	return strings.Join(rest, " ")
}
