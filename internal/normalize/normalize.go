package normalize

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ErrFieldParse значение есть, но не в ожидаемом формате. Ошибка не фатальная:
// поле считается отсутствующим.
var ErrFieldParse = errors.New("field parse error")

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// число с разделителями разрядов и необязательной единицей измерения: "85,000 km"
	distanceRe = regexp.MustCompile(`^([0-9][0-9,\s]*(?:\.[0-9]+)?)\s*([[:alpha:].]*)$`)
	// текстовые обозначения валюты, которые встречаются перед ценой
	currencyWords = []string{"CAD", "CDN", "USD"}
)

type Options struct {
	TrimNBSP        bool
	CollapseSpaces  bool
	MaxPreviewChars int
}

type Normalizer struct {
	opts Options
}

func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// CleanText приводит текст узла к одной строке без NBSP и лишних пробелов
func (n *Normalizer) CleanText(text string) string {
	if n.opts.TrimNBSP {
		text = strings.ReplaceAll(text, "\u00A0", " ")
	}

	if n.opts.CollapseSpaces {
		text = whitespaceRe.ReplaceAllString(text, " ")
	}

	return strings.TrimSpace(text)
}

// TruncatePreview обрезает текст до maxPreviewChars (в символах, не байтах)
func (n *Normalizer) TruncatePreview(text string) string {
	limit := n.opts.MaxPreviewChars
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}

	truncated := string(runes[:limit-1])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		return truncated[:lastSpace] + "…"
	}

	return truncated + "…"
}

// Currency разбирает цену вида "$12,500": убирает символ валюты и разделители разрядов
func Currency(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	for _, word := range currencyWords {
		s = strings.TrimPrefix(s, word)
		s = strings.TrimSuffix(s, word)
	}

	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Sc, r) || r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	if s == "" {
		return 0, fmt.Errorf("%w: empty price %q", ErrFieldParse, raw)
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: price %q is not numeric", ErrFieldParse, raw)
	}
	return value, nil
}

// Distance разбирает пробег вида "85,000 km": убирает разделители и единицу измерения
func Distance(raw string) (float64, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "\u00A0", " "))

	matches := distanceRe.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: distance %q is not numeric", ErrFieldParse, raw)
	}

	digits := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, matches[1])

	value, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: distance %q is not numeric", ErrFieldParse, raw)
	}
	return value, nil
}

// NormalizeURL убирает якорь и пробелы по краям
func NormalizeURL(urlStr string) string {
	urlStr = strings.TrimSpace(urlStr)
	if idx := strings.Index(urlStr, "#"); idx > -1 {
		urlStr = urlStr[:idx]
	}
	return urlStr
}
