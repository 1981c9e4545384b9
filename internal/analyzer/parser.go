package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"solana-copybot/internal/domain"
)

// DefaultConfidence is used when no confidence figure can be parsed from
// the response.
const DefaultConfidence = 50

// ParseError reports a response that does not match the expected format.
// It carries the raw text so callers can log it; it never escapes the
// analyzer boundary as anything other than a discarded recommendation.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable AI response: %s", e.Reason)
}

var (
	// "confidence: 85%", "Confidence level: 75 %"
	confidencePrefixRe = regexp.MustCompile(`(?i)confidence[^0-9%+-]*(-?\d{1,3})\s*%`)
	// "85% confidence", "-5% confidence"
	confidenceSuffixRe = regexp.MustCompile(`(?i)(-?\d{1,3})\s*%\s*confidence`)
	// fallback: any 1-3 digit figure on a confidence-bearing line
	bareNumberRe = regexp.MustCompile(`\d{1,3}`)
)

// ParseResponse parses free-text AI output into a Recommendation.
//
// Expected format: line 1 is one of BUY/SELL/NOTHING (case-insensitive);
// any line may carry a confidence percentage; the remaining lines are the
// reasoning. An unrecognized action yields a *ParseError. A missing or
// ambiguous confidence defaults to 50; parsed values are clamped to [0,100].
func ParseResponse(token, text string) (*domain.Recommendation, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &ParseError{Raw: text, Reason: "empty response"}
	}

	lines := strings.Split(trimmed, "\n")
	action := domain.Action(strings.ToUpper(strings.TrimSpace(lines[0])))
	if !domain.ValidAction(action) {
		return nil, &ParseError{Raw: text, Reason: fmt.Sprintf("unknown action %q", lines[0])}
	}

	confidence, confLine := parseConfidence(lines)

	// The confidence-bearing line is metadata, not reasoning.
	var rest []string
	for i, line := range lines[1:] {
		if i+1 == confLine {
			continue
		}
		rest = append(rest, line)
	}
	reasoning := strings.TrimSpace(strings.Join(rest, "\n"))
	if reasoning == "" {
		reasoning = "No detailed reasoning provided"
	}

	return &domain.Recommendation{
		Token:      token,
		Action:     action,
		Confidence: confidence,
		Reasoning:  reasoning,
	}, nil
}

// parseConfidence returns the confidence value and the index of the line
// that carried it, or -1 when nothing parsed and the default applies.
func parseConfidence(lines []string) (int, int) {
	for i, line := range lines {
		if m := confidencePrefixRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil {
				return domain.ClampConfidence(v), i
			}
		}
		if m := confidenceSuffixRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil {
				return domain.ClampConfidence(v), i
			}
		}
	}

	// No explicit percentage. Fall back to the first plausible figure on
	// a line that mentions confidence at all.
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), "confidence") {
			continue
		}
		for _, m := range bareNumberRe.FindAllString(line, -1) {
			v, err := strconv.Atoi(m)
			if err == nil && v <= 100 {
				return domain.ClampConfidence(v), i
			}
		}
	}

	return DefaultConfidence, -1
}
