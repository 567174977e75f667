package analysis

import (
	"regexp"
	"strings"
)

const (
	PatternGreeting            = "greeting"
	PatternQuestionHeavy       = "question-heavy"
	PatternTechnical           = "technical"
	PatternHelpRequest         = "help-request"
	PatternPositiveFeedback    = "positive-feedback"
	PatternClarificationNeeded = "clarification-needed"
	PatternExtended            = "extended-conversation"
)

const (
	questionHeavyThreshold = 3
	extendedThreshold      = 10
)

var lexiconPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{PatternGreeting, regexp.MustCompile(`hello|hi|hey|good morning|good afternoon|good evening`)},
	{PatternTechnical, regexp.MustCompile(`api|code|function|error|debug|bug|stack`)},
	{PatternHelpRequest, regexp.MustCompile(`help|assist|support|problem|issue|stuck|can't|unable`)},
	{PatternPositiveFeedback, regexp.MustCompile(`thank|thanks|great|awesome|perfect|excellent|good job`)},
	{PatternClarificationNeeded, regexp.MustCompile(`clarify|explain|what do you mean|not clear|confused`)},
}

// DetectPatterns classifies a transcript into zero or more named usage
// patterns. Each pattern is tested independently; the result is deduplicated
// by construction and ordered by detection order. Lexicon patterns run over
// the concatenated lowercased content; question-heavy and
// extended-conversation are counting rules.
func DetectPatterns(msgs []Message) []string {
	if len(msgs) == 0 {
		return nil
	}

	parts := make([]string, 0, len(msgs))
	questions := 0
	for _, m := range msgs {
		parts = append(parts, strings.ToLower(m.Content))
		if strings.Contains(m.Content, "?") {
			questions++
		}
	}
	fullText := strings.Join(parts, " ")

	var out []string
	add := func(name string) { out = append(out, name) }

	if lexiconPatterns[0].re.MatchString(fullText) {
		add(PatternGreeting)
	}
	if questions >= questionHeavyThreshold {
		add(PatternQuestionHeavy)
	}
	for _, lp := range lexiconPatterns[1:] {
		if lp.re.MatchString(fullText) {
			add(lp.name)
		}
	}
	if len(msgs) > extendedThreshold {
		add(PatternExtended)
	}
	return out
}
