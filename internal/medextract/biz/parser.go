package biz

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/kart-io/medextract/internal/model"
	"github.com/kart-io/medextract/pkg/utils/json"
)

// Parse strategy names, in the order they are tried.
const (
	StrategyDirect   = "direct"
	StrategyFenced   = "fenced"
	StrategyRepaired = "repaired"
)

var (
	fencedBlock      = regexp.MustCompile("```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?```")
	objectSpan       = regexp.MustCompile(`\{[\s\S]*\}`)
	trailingObjComma = regexp.MustCompile(`,\s*}`)
	trailingArrComma = regexp.MustCompile(`,\s*]`)
	whitespaceRun    = regexp.MustCompile(`\s+`)

	errNotObject = errors.New("text does not start with '{'")
	errNoFence   = errors.New("no fenced code block")
	errNoObject  = errors.New("no {...} span")
)

// ParseAttempt records the outcome of one parse strategy.
type ParseAttempt struct {
	Strategy string
	Err      error
}

// ParseFailure is returned when every strategy failed.
type ParseFailure struct {
	Attempts []ParseAttempt
}

func (f *ParseFailure) Error() string {
	parts := make([]string, 0, len(f.Attempts))
	for _, a := range f.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Strategy, a.Err))
	}
	return "all parse strategies failed (" + strings.Join(parts, "; ") + ")"
}

type parseStrategy struct {
	name    string
	extract func(raw string) (string, error)
}

var parseStrategies = []parseStrategy{
	{name: StrategyDirect, extract: extractDirect},
	{name: StrategyFenced, extract: extractFenced},
	{name: StrategyRepaired, extract: extractRepaired},
}

func extractDirect(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "{") {
		return "", errNotObject
	}
	return s, nil
}

func extractFenced(raw string) (string, error) {
	m := fencedBlock.FindStringSubmatch(raw)
	if m == nil {
		return "", errNoFence
	}
	return strings.TrimSpace(m[1]), nil
}

func extractRepaired(raw string) (string, error) {
	s := objectSpan.FindString(raw)
	if s == "" {
		return "", errNoObject
	}
	return repairJSON(s), nil
}

// repairJSON fixes the defects models commonly emit: trailing commas and raw
// control whitespace inside the text.
func repairJSON(s string) string {
	s = trailingObjComma.ReplaceAllString(s, "}")
	s = trailingArrComma.ReplaceAllString(s, "]")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return whitespaceRun.ReplaceAllString(s, " ")
}

// ParseJSON decodes the first JSON object recoverable from raw model output
// into v, which must be a non-nil pointer. Strategies are tried in order; on
// success the last returned attempt names the strategy that succeeded.
func ParseJSON(raw string, v any) ([]ParseAttempt, error) {
	target := reflect.ValueOf(v)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return nil, fmt.Errorf("parse target must be a non-nil pointer, got %T", v)
	}

	attempts := make([]ParseAttempt, 0, len(parseStrategies))
	for _, st := range parseStrategies {
		text, err := st.extract(raw)
		if err == nil {
			target.Elem().SetZero()
			err = json.Unmarshal([]byte(text), v)
		}
		attempts = append(attempts, ParseAttempt{Strategy: st.name, Err: err})
		if err == nil {
			return attempts, nil
		}
	}
	return attempts, &ParseFailure{Attempts: attempts}
}

// ParsePage parses one page's model output.
func ParsePage(raw string) (model.PageExtraction, error) {
	var page model.PageExtraction
	if _, err := ParseJSON(raw, &page); err != nil {
		return model.PageExtraction{}, err
	}
	page.Normalize()
	return page, nil
}
