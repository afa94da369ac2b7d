package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"daybell/internal/domain"
)

func TestEngineBuiltinVocabulary(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine("")
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	cases := map[string]domain.CommandIntent{
		"please stop the alarm": domain.IntentDismiss,
		"I'm up I'm up":         domain.IntentDismiss,
		"snooze":                domain.IntentSnooze,
		"five more minutes":     domain.IntentSnooze,
		"what time is it":       domain.IntentUnknown,
	}

	for transcript, want := range cases {
		transcript := transcript
		want := want
		t.Run(transcript, func(t *testing.T) {
			t.Parallel()
			command := engine.Classify(transcript)
			if command.Intent != want {
				t.Fatalf("unexpected intent for %q: %s", transcript, command.Intent)
			}
			if command.Command != transcript {
				t.Fatalf("expected raw transcript to be preserved, got %q", command.Command)
			}
		})
	}
}

func TestEnginePhraseAndRegexRules(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	rulesPath := filepath.Join(tmpDir, "commands.rules")

	rulesFile := `
# phrase with weight
leave me alone => snooze 0.7
# regex, case-insensitive by default
i/^(go away|enough)\b/dismiss/
`

	if err := os.WriteFile(rulesPath, []byte(rulesFile), 0o600); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}

	engine, err := NewEngine(rulesPath)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	command := engine.Classify("oh leave me alone")
	if command.Intent != domain.IntentSnooze {
		t.Fatalf("unexpected intent: %s", command.Intent)
	}
	if command.Confidence != 0.7 {
		t.Fatalf("unexpected weight: %f", command.Confidence)
	}

	command = engine.Classify("Enough already")
	if command.Intent != domain.IntentDismiss || command.Confidence != 1.0 {
		t.Fatalf("unexpected regex classification: %+v", command)
	}
}

func TestEngineUserRulesTakePriorityOverBuiltins(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	rulesPath := filepath.Join(tmpDir, "commands.rules")

	// The built-in vocabulary maps "snooze" to the snooze intent; a user who
	// wants the word to dismiss instead must win.
	if err := os.WriteFile(rulesPath, []byte("snooze => dismiss\n"), 0o600); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}

	engine, err := NewEngine(rulesPath)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	if command := engine.Classify("snooze"); command.Intent != domain.IntentDismiss {
		t.Fatalf("expected user rule to win, got %s", command.Intent)
	}
}

func TestEngineMissingFileFallsBackToBuiltins(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(filepath.Join(t.TempDir(), "absent.rules"))
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	if command := engine.Classify("dismiss"); command.Intent != domain.IntentDismiss {
		t.Fatalf("expected builtin vocabulary, got %s", command.Intent)
	}
}

func TestPhraseMatchRespectsWordBoundaries(t *testing.T) {
	t.Parallel()

	rule := phraseRule{phrase: "stop", intent: domain.IntentDismiss, weight: 1.0}
	if _, _, ok := rule.Match("my stopwatch broke"); ok {
		t.Fatalf("expected no match inside a longer word")
	}
	if _, _, ok := rule.Match("please stop now"); !ok {
		t.Fatalf("expected match on word boundary")
	}
}

func TestParsePhraseRuleRejectsBadWeight(t *testing.T) {
	t.Parallel()

	for _, line := range []string{
		"stop => dismiss 1.5",
		"stop => dismiss zero",
		"stop => dismiss 0",
	} {
		if _, err := parsePhraseRule(line); err == nil {
			t.Fatalf("expected weight error for %q", line)
		}
	}
}

func TestParsePhraseRuleRejectsUnknownIntent(t *testing.T) {
	t.Parallel()

	if _, err := parsePhraseRule("stop => explode"); err == nil {
		t.Fatalf("expected unsupported intent error")
	}
}

func TestParseRegexRuleMalformed(t *testing.T) {
	t.Parallel()

	if _, err := parseRegexRule(`i/unterminated`); err == nil {
		t.Fatalf("expected unterminated expression error")
	}
	if _, err := parseRegexRule(`i/(bad/dismiss/`); err == nil {
		t.Fatalf("expected invalid regex error")
	}
}

func TestParseRulesUnsupportedLine(t *testing.T) {
	t.Parallel()

	if _, err := parseRules("not-a-rule", defaultRuleParsers()); err == nil {
		t.Fatalf("expected unsupported rule format error")
	}
}

func TestEngineSupportsParserExtension(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	rulesPath := filepath.Join(tmpDir, "commands.rules")
	if err := os.WriteFile(rulesPath, []byte("exact:good morning=>dismiss\n"), 0o600); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}

	parsers := append([]RuleParser{exactRuleParser{}}, defaultRuleParsers()...)
	engine, err := NewEngineWithParsers(rulesPath, parsers)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	if command := engine.Classify("good morning"); command.Intent != domain.IntentDismiss {
		t.Fatalf("expected extension rule match, got %s", command.Intent)
	}
	if command := engine.Classify("good morning everyone"); command.Intent != domain.IntentUnknown {
		t.Fatalf("expected exact rule to reject longer transcript")
	}
}

type exactRuleParser struct{}

func (exactRuleParser) CanParse(line string) bool {
	return strings.HasPrefix(line, "exact:")
}

func (exactRuleParser) Parse(line string) (compiledRule, error) {
	payload := strings.TrimPrefix(line, "exact:")
	parts := strings.SplitN(payload, "=>", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid exact rule")
	}
	intent, weight, err := parseIntentWithWeight(parts[1])
	if err != nil {
		return nil, err
	}
	return exactRule{text: strings.ToLower(strings.TrimSpace(parts[0])), intent: intent, weight: weight}, nil
}

type exactRule struct {
	text   string
	intent domain.CommandIntent
	weight float64
}

func (r exactRule) Match(input string) (domain.CommandIntent, float64, bool) {
	if input != r.text {
		return domain.IntentUnknown, 0, false
	}
	return r.intent, r.weight, true
}
