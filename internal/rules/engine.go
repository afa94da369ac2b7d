package rules

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"daybell/internal/domain"
)

type compiledRule interface {
	// Match reports the intent and weight for input, if the rule applies.
	Match(input string) (domain.CommandIntent, float64, bool)
}

// RuleParser parses one line into a compiled rule.
type RuleParser interface {
	CanParse(line string) bool
	Parse(line string) (compiledRule, error)
}

// Engine classifies transcripts into command intents using ordered rules
// loaded from a file, with a built-in vocabulary when no file is configured.
type Engine struct {
	rules []compiledRule
}

// NewEngine loads and compiles rules from a file using built-in parsers.
// A missing or empty path yields the built-in dismiss/snooze vocabulary.
func NewEngine(path string) (*Engine, error) {
	return NewEngineWithParsers(path, defaultRuleParsers())
}

// NewEngineWithParsers allows parser extension without engine changes.
func NewEngineWithParsers(path string, parsers []RuleParser) (*Engine, error) {
	if len(parsers) == 0 {
		parsers = defaultRuleParsers()
	}

	if strings.TrimSpace(path) == "" {
		return &Engine{rules: builtinRules()}, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Engine{rules: builtinRules()}, nil
		}
		return nil, fmt.Errorf("failed to read rules file %q: %w", path, err)
	}

	rules, err := parseRules(string(contents), parsers)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file %q: %w", path, err)
	}

	// User rules take priority; the built-in vocabulary stays as a backstop
	// so a sparse rules file cannot leave the alarm voice-deaf.
	return &Engine{rules: append(rules, builtinRules()...)}, nil
}

// Classify returns the first matching rule's intent and weight. Transcripts
// matching no rule are classified as unknown with zero weight.
func (e *Engine) Classify(transcript string) domain.VoiceCommand {
	normalized := strings.ToLower(strings.TrimSpace(transcript))
	command := domain.VoiceCommand{Command: transcript, Intent: domain.IntentUnknown}
	if normalized == "" {
		return command
	}

	for _, rule := range e.rules {
		intent, weight, ok := rule.Match(normalized)
		if !ok {
			continue
		}
		command.Intent = intent
		command.Confidence = weight
		return command
	}

	return command
}

func parseRules(contents string, parsers []RuleParser) ([]compiledRule, error) {
	lines := strings.Split(contents, "\n")
	rules := make([]compiledRule, 0, len(lines))

	for index, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parsed := false
		for _, parser := range parsers {
			if !parser.CanParse(line) {
				continue
			}
			rule, err := parser.Parse(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", index+1, err)
			}
			rules = append(rules, rule)
			parsed = true
			break
		}

		if !parsed {
			return nil, fmt.Errorf("line %d: unsupported rule format", index+1)
		}
	}

	return rules, nil
}

func defaultRuleParsers() []RuleParser {
	return []RuleParser{regexRuleParser{}, phraseRuleParser{}}
}

// builtinRules is the default dismiss/snooze vocabulary applied when the user
// has no rules file of their own.
func builtinRules() []compiledRule {
	dismiss := []string{
		"dismiss", "stop", "stop the alarm", "turn off", "shut up",
		"i'm up", "i am up", "i'm awake", "i am awake", "wake up", "okay okay",
	}
	snooze := []string{
		"snooze", "five more minutes", "ten more minutes", "later",
		"not yet", "give me a minute",
	}

	rules := make([]compiledRule, 0, len(dismiss)+len(snooze))
	for _, phrase := range dismiss {
		rules = append(rules, phraseRule{phrase: phrase, intent: domain.IntentDismiss, weight: 1.0})
	}
	for _, phrase := range snooze {
		rules = append(rules, phraseRule{phrase: phrase, intent: domain.IntentSnooze, weight: 1.0})
	}
	return rules
}

type phraseRuleParser struct{}

func (phraseRuleParser) CanParse(line string) bool {
	return strings.Contains(line, "=>")
}

func (phraseRuleParser) Parse(line string) (compiledRule, error) {
	return parsePhraseRule(line)
}

type regexRuleParser struct{}

func (regexRuleParser) CanParse(line string) bool {
	return looksLikeRegexRule(line)
}

func (regexRuleParser) Parse(line string) (compiledRule, error) {
	return parseRegexRule(line)
}

// phraseRule matches a whole word or phrase anywhere in the transcript.
type phraseRule struct {
	phrase string
	intent domain.CommandIntent
	weight float64
}

func parsePhraseRule(line string) (compiledRule, error) {
	parts := strings.SplitN(line, "=>", 2)
	if len(parts) != 2 {
		return nil, errors.New("invalid phrase rule")
	}
	phrase := strings.ToLower(strings.TrimSpace(parts[0]))
	if phrase == "" {
		return nil, errors.New("phrase rule source cannot be empty")
	}

	intent, weight, err := parseIntentWithWeight(parts[1])
	if err != nil {
		return nil, err
	}
	return phraseRule{phrase: phrase, intent: intent, weight: weight}, nil
}

func (r phraseRule) Match(input string) (domain.CommandIntent, float64, bool) {
	if !containsPhrase(input, r.phrase) {
		return domain.IntentUnknown, 0, false
	}
	return r.intent, r.weight, true
}

// containsPhrase reports whether phrase appears in input on word boundaries,
// so "stop" does not fire on "stopwatch".
func containsPhrase(input string, phrase string) bool {
	offset := 0
	for {
		index := strings.Index(input[offset:], phrase)
		if index < 0 {
			return false
		}
		start := offset + index
		end := start + len(phrase)
		if boundaryBefore(input, start) && boundaryAfter(input, end) {
			return true
		}
		offset = start + 1
		if offset >= len(input) {
			return false
		}
	}
}

func boundaryBefore(input string, index int) bool {
	return index == 0 || !isWordByte(input[index-1])
}

func boundaryAfter(input string, index int) bool {
	return index >= len(input) || !isWordByte(input[index])
}

func isWordByte(char byte) bool {
	return (char >= 'a' && char <= 'z') ||
		(char >= '0' && char <= '9') ||
		char == '\''
}

// regexRule matches a pattern of the form i/pattern/intent/ with an optional
// trailing weight, e.g. i/^(go away|enough)\b/dismiss/ 0.8
type regexRule struct {
	re     *regexp.Regexp
	intent domain.CommandIntent
	weight float64
}

func parseRegexRule(line string) (compiledRule, error) {
	if len(line) < 2 {
		return nil, errors.New("invalid regex rule")
	}
	delim := line[1]
	if isAlphaNumericOrSpace(delim) {
		return nil, errors.New("regex delimiter must be non-alphanumeric")
	}

	pattern, pos, err := parseDelimited(line, 2, delim)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}
	intentText, pos, err := parseDelimited(line, pos, delim)
	if err != nil {
		return nil, fmt.Errorf("invalid regex intent: %w", err)
	}

	intent, weight, err := parseIntentWithWeight(intentText + " " + line[pos:])
	if err != nil {
		return nil, err
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex: %w", err)
	}

	return regexRule{re: re, intent: intent, weight: weight}, nil
}

func (r regexRule) Match(input string) (domain.CommandIntent, float64, bool) {
	if !r.re.MatchString(input) {
		return domain.IntentUnknown, 0, false
	}
	return r.intent, r.weight, true
}

// parseIntentWithWeight parses "intent" or "intent 0.8".
func parseIntentWithWeight(text string) (domain.CommandIntent, float64, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(fields) == 0 || len(fields) > 2 {
		return domain.IntentUnknown, 0, errors.New("rule target must be an intent with optional weight")
	}

	var intent domain.CommandIntent
	switch fields[0] {
	case string(domain.IntentDismiss):
		intent = domain.IntentDismiss
	case string(domain.IntentSnooze):
		intent = domain.IntentSnooze
	default:
		return domain.IntentUnknown, 0, fmt.Errorf("unsupported intent %q", fields[0])
	}

	weight := 1.0
	if len(fields) == 2 {
		parsed, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || parsed <= 0 || parsed > 1 {
			return domain.IntentUnknown, 0, fmt.Errorf("invalid rule weight %q", fields[1])
		}
		weight = parsed
	}
	return intent, weight, nil
}

func parseDelimited(line string, start int, delim byte) (string, int, error) {
	if start >= len(line) {
		return "", 0, errors.New("unexpected end of expression")
	}

	var builder strings.Builder
	escaped := false
	for index := start; index < len(line); index++ {
		char := line[index]
		if escaped {
			builder.WriteByte(char)
			escaped = false
			continue
		}
		if char == '\\' {
			escaped = true
			builder.WriteByte(char)
			continue
		}
		if char == delim {
			return builder.String(), index + 1, nil
		}
		builder.WriteByte(char)
	}
	return "", 0, errors.New("unterminated expression")
}

func isAlphaNumericOrSpace(char byte) bool {
	return (char >= 'a' && char <= 'z') ||
		(char >= 'A' && char <= 'Z') ||
		(char >= '0' && char <= '9') ||
		char == ' ' || char == '\t'
}

// looksLikeRegexRule requires a full i/pattern/intent/ shape so phrases that
// merely start with "i" ("i'm up => dismiss") stay phrase rules.
func looksLikeRegexRule(line string) bool {
	if len(line) < 2 || line[0] != 'i' || isAlphaNumericOrSpace(line[1]) {
		return false
	}
	return strings.Count(line, string(line[1])) >= 3
}
