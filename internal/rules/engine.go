package rules

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

const defaultLoopLimit = 30

// rule is one compiled substitution. Literal rules replace every
// occurrence; a regex rule without the g flag replaces the first match
// and fires at most once per Apply.
type rule struct {
	re          *regexp.Regexp
	replacement string
	global      bool
}

func (r rule) apply(input string) (string, bool) {
	if r.global {
		output := r.re.ReplaceAllString(input, r.replacement)
		return output, output != input
	}

	loc := r.re.FindStringIndex(input)
	if loc == nil {
		return input, false
	}
	replaced := r.re.ReplaceAllString(input[loc[0]:loc[1]], r.replacement)
	output := input[:loc[0]] + replaced + input[loc[1]:]
	return output, output != input
}

// Engine rewrites transcripts with substitutions loaded from a rules
// file. A missing or empty file yields a passthrough engine.
type Engine struct {
	rules     []rule
	loopLimit int
	log       zerolog.Logger
}

func NewEngine(path string, log zerolog.Logger) (*Engine, error) {
	engine := &Engine{
		loopLimit: defaultLoopLimit,
		log:       log.With().Str("component", "rules").Logger(),
	}

	if strings.TrimSpace(path) == "" {
		return engine, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			engine.log.Debug().Str("path", path).Msg("rules file absent, substitutions disabled")
			return engine, nil
		}
		return nil, fmt.Errorf("read rules file %q: %w", path, err)
	}

	for i, raw := range strings.Split(string(contents), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("rules file %q line %d: %w", path, i+1, err)
		}
		engine.rules = append(engine.rules, r)
	}

	engine.log.Info().Str("path", path).Int("rules", len(engine.rules)).Msg("rules loaded")
	return engine, nil
}

// Apply runs the rule set repeatedly until a full pass changes nothing.
// Non-global rules are retired after their first hit so the fixed-point
// loop cannot promote them to global behavior; the loop limit caps
// mutually-feeding global rules.
func (e *Engine) Apply(text string) (string, error) {
	if len(e.rules) == 0 {
		return text, nil
	}

	fired := make([]bool, len(e.rules))
	result := text
	for i := 0; i < e.loopLimit; i++ {
		changed := false
		for idx, r := range e.rules {
			if !r.global && fired[idx] {
				continue
			}
			next, ok := r.apply(result)
			if ok {
				result = next
				changed = true
				fired[idx] = true
			}
		}
		if !changed {
			break
		}
	}
	return result, nil
}

// parseLine compiles either a sed-style substitution, "s/find/repl/g",
// or a literal mapping, "find => repl". Literals match
// case-insensitively and replace everywhere.
func parseLine(line string) (rule, error) {
	if isRegexLine(line) {
		return parseRegexLine(line)
	}
	if strings.Contains(line, "=>") {
		return parseLiteralLine(line)
	}
	return rule{}, errors.New("unsupported rule format")
}

func parseLiteralLine(line string) (rule, error) {
	parts := strings.SplitN(line, "=>", 2)
	from := strings.TrimSpace(parts[0])
	to := strings.TrimSpace(parts[1])
	if from == "" {
		return rule{}, errors.New("literal rule source cannot be empty")
	}

	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(from))
	if err != nil {
		return rule{}, fmt.Errorf("invalid literal source: %w", err)
	}
	return rule{re: re, replacement: to, global: true}, nil
}

func parseRegexLine(line string) (rule, error) {
	delim := line[1]
	pattern, pos, err := readDelimited(line, 2, delim)
	if err != nil {
		return rule{}, fmt.Errorf("invalid pattern: %w", err)
	}
	replacement, pos, err := readDelimited(line, pos, delim)
	if err != nil {
		return rule{}, fmt.Errorf("invalid replacement: %w", err)
	}

	// Case-insensitive unless overridden; matching stays insensitive
	// even without the explicit i flag.
	modifiers := "i"
	global := false
	for _, flag := range strings.TrimSpace(line[pos:]) {
		switch flag {
		case 'i':
		case 'g':
			global = true
		case 'm', 's':
			modifiers += string(flag)
		case ' ':
		default:
			return rule{}, fmt.Errorf("unsupported flag %q", flag)
		}
	}

	re, err := regexp.Compile("(?" + modifiers + ")" + pattern)
	if err != nil {
		return rule{}, fmt.Errorf("invalid regex: %w", err)
	}
	return rule{re: re, replacement: replacement, global: global}, nil
}

func readDelimited(line string, start int, delim byte) (string, int, error) {
	if start >= len(line) {
		return "", 0, errors.New("unexpected end of expression")
	}

	var b strings.Builder
	escaped := false
	for i := start; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			b.WriteByte(c)
			escaped = false
		case c == '\\':
			b.WriteByte(c)
			escaped = true
		case c == delim:
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, errors.New("unterminated expression")
}

func isRegexLine(line string) bool {
	if len(line) < 2 || line[0] != 's' {
		return false
	}
	d := line[1]
	return !(d >= 'a' && d <= 'z' || d >= 'A' && d <= 'Z' || d >= '0' && d <= '9' || d == ' ' || d == '\t')
}
