package analysis

import "regexp"

const (
	baseScore = 100

	thanksBonusSimple    = 5
	thanksBonusBreakdown = 10

	clarificationPenalty = 10
	clarificationCap     = 3

	unfinishedPenalty = 30

	sentimentDropPenalty   = 20
	sentimentDropThreshold = 0.5

	loopAssistantThreshold   = 6
	frustrationClarThreshold = 2
)

const (
	FailureLoop        = "loop"
	FailureFrustration = "frustration"
	FailureNonsense    = "nonsense"
	FailureAbruptEnd   = "abrupt_end"
)

var thanksRe = regexp.MustCompile(`(?i)thank(s| you)`)

var clarificationRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)that's not`),
	regexp.MustCompile(`(?i)i meant`),
	regexp.MustCompile(`(?i)not what`),
	regexp.MustCompile(`(?i)try again`),
	regexp.MustCompile(`(?i)doesn't work`),
}

// ClarificationCount counts messages (any role) matching the clarification
// lexicon. A message matching several patterns still counts once.
func ClarificationCount(msgs []Message) int {
	n := 0
	for _, m := range msgs {
		for _, re := range clarificationRes {
			if re.MatchString(m.Content) {
				n++
				break
			}
		}
	}
	return n
}

func hasThanks(msgs []Message) bool {
	for _, m := range msgs {
		if m.Role == "user" && thanksRe.MatchString(m.Content) {
			return true
		}
	}
	return false
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ScoreSimple is the live-scoring variant used by the pipeline: thanks bonus
// and clarification penalty only. The clarification penalty saturates at
// three matches.
func ScoreSimple(msgs []Message) int {
	score := baseScore
	if hasThanks(msgs) {
		score += thanksBonusSimple
	}
	clar := ClarificationCount(msgs)
	if clar > clarificationCap {
		clar = clarificationCap
	}
	score -= clar * clarificationPenalty
	return clamp(score)
}

// Breakdown itemizes the adjustments behind a health score. Penalty buckets
// are negative, bonuses positive.
type Breakdown struct {
	Completion     int `json:"completion"`
	Sentiment      int `json:"sentiment"`
	Clarifications int `json:"clarifications"`
	Bonuses        int `json:"bonuses"`
}

// ScoreWithBreakdown is the richer read-side variant: on top of thanks and
// clarifications it penalizes conversations that never ended (ended nil) and
// an end-to-start sentiment drop greater than 0.5, and reports each bucket.
func ScoreWithBreakdown(msgs []Message, ended bool) (int, Breakdown) {
	var b Breakdown

	if hasThanks(msgs) {
		b.Bonuses = thanksBonusBreakdown
	}

	clar := ClarificationCount(msgs)
	if clar > clarificationCap {
		clar = clarificationCap
	}
	b.Clarifications = -clar * clarificationPenalty

	if !ended {
		b.Completion = -unfinishedPenalty
	}

	if first, last, ok := sentimentBounds(msgs); ok && first-last > sentimentDropThreshold {
		b.Sentiment = -sentimentDropPenalty
	}

	score := clamp(baseScore + b.Bonuses + b.Clarifications + b.Completion + b.Sentiment)
	return score, b
}

// sentimentBounds returns the first and last recorded sentiment scores.
// Most messages carry none; ok is false unless at least two do.
func sentimentBounds(msgs []Message) (first, last float64, ok bool) {
	seen := 0
	for _, m := range msgs {
		if m.Sentiment == nil {
			continue
		}
		if seen == 0 {
			first = *m.Sentiment
		}
		last = *m.Sentiment
		seen++
	}
	return first, last, seen >= 2
}

// DetectFailures infers failures from the same scan the scorer runs:
// frustration when clarifications reach two, loop when the assistant has
// replied six or more times. Nonsense and abrupt_end exist in the taxonomy
// but have no detector yet.
func DetectFailures(msgs []Message) []string {
	var out []string
	if ClarificationCount(msgs) >= frustrationClarThreshold {
		out = append(out, FailureFrustration)
	}
	assistant := 0
	for _, m := range msgs {
		if m.Role == "assistant" {
			assistant++
		}
	}
	if assistant >= loopAssistantThreshold {
		out = append(out, FailureLoop)
	}
	return out
}
