package classifier

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/sentiment-watchdog/internal/domain"
)

// lexiconConfidenceFloor is applied when a lexicon term forces a sentiment.
const lexiconConfidenceFloor = 0.99

// LexiconTerm forces a sentiment whenever the phrase occurs in a cleaned
// message, overriding the model's judgement.
type LexiconTerm struct {
	Phrase    string `yaml:"phrase"`
	Sentiment string `yaml:"sentiment"`
}

// Lexicon is an operator-maintained keyword override list.
type Lexicon struct {
	Terms []LexiconTerm `yaml:"terms"`
}

// LoadLexicon reads the YAML lexicon file. Invalid sentiment values are
// rejected so a typo cannot silently disable a term.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lexicon: %w", err)
	}

	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("parsing lexicon: %w", err)
	}
	for _, term := range lex.Terms {
		if !domain.Sentiment(strings.ToLower(term.Sentiment)).Valid() {
			return nil, fmt.Errorf("lexicon term %q: unknown sentiment %q", term.Phrase, term.Sentiment)
		}
	}
	return &lex, nil
}

// Apply overrides the result's sentiment when a term phrase occurs in the
// message. First matching term wins.
func (l *Lexicon) Apply(cleaned string, result Result) Result {
	if l == nil || len(l.Terms) == 0 {
		return result
	}

	haystack := strings.ToLower(cleaned)
	for _, term := range l.Terms {
		phrase := strings.ToLower(strings.TrimSpace(term.Phrase))
		if phrase == "" || !strings.Contains(haystack, phrase) {
			continue
		}
		result.Sentiment = domain.Sentiment(strings.ToLower(term.Sentiment))
		if result.Confidence < lexiconConfidenceFloor {
			result.Confidence = lexiconConfidenceFloor
		}
		return result
	}
	return result
}
