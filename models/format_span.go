package models

import (
	"net/url"
	"sort"
	"strings"
	"unicode/utf16"

	"roommate_go/internal/apperr"
)

// SpanOption — вид форматирования фрагмента текста.
type SpanOption string

const (
	SpanSpoiler       SpanOption = "spoiler"
	SpanBold          SpanOption = "bold"
	SpanItalic        SpanOption = "italic"
	SpanMonospace     SpanOption = "monospace"
	SpanLink          SpanOption = "link"
	SpanStrikethrough SpanOption = "strikethrough"
	SpanUnderline     SpanOption = "underline"
	SpanCode          SpanOption = "code"
)

var spanOptions = map[SpanOption]struct{}{
	SpanSpoiler: {}, SpanBold: {}, SpanItalic: {}, SpanMonospace: {},
	SpanLink: {}, SpanStrikethrough: {}, SpanUnderline: {}, SpanCode: {},
}

// FormatSpan — форматирование фрагмента текста. Смещение и длина
// считаются в кодовых единицах UTF-16, как в Telegram.
// Значение сравнимо и может быть ключом map.
type FormatSpan struct {
	Option   SpanOption `json:"option"`
	Offset   int        `json:"offset"`
	Length   int        `json:"length"`
	URL      string     `json:"url,omitempty"`
	Language string     `json:"language,omitempty"`
}

// Check проверяет корректность фрагмента.
func (f FormatSpan) Check(op string) error {
	if _, ok := spanOptions[f.Option]; !ok {
		return apperr.Newf(apperr.ValidationFailed, op, "unknown format option %q", f.Option)
	}
	if f.Offset < 0 || f.Length < 1 {
		return apperr.Newf(apperr.ValidationFailed, op, "format span %s has offset %d length %d", f.Option, f.Offset, f.Length)
	}
	if f.Option == SpanLink {
		u, err := url.Parse(f.URL)
		if f.URL == "" || err != nil || u.Scheme == "" {
			return apperr.Newf(apperr.ValidationFailed, op, "link span needs an absolute url, got %q", f.URL)
		}
	} else if f.URL != "" {
		return apperr.Newf(apperr.ValidationFailed, op, "url is allowed only for link spans")
	}
	if f.Language != "" && f.Option != SpanCode {
		return apperr.Newf(apperr.ValidationFailed, op, "language is allowed only for code spans")
	}
	return nil
}

// NormalizeSpans проверяет фрагменты, убирает дубликаты и сортирует их,
// превращая список в множество с детерминированным порядком.
func NormalizeSpans(op string, spans []FormatSpan) ([]FormatSpan, error) {
	seen := make(map[FormatSpan]struct{}, len(spans))
	out := make([]FormatSpan, 0, len(spans))
	for _, s := range spans {
		if err := s.Check(op); err != nil {
			return nil, err
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		if a.Length != b.Length {
			return a.Length < b.Length
		}
		if a.Option != b.Option {
			return a.Option < b.Option
		}
		if a.URL != b.URL {
			return a.URL < b.URL
		}
		return a.Language < b.Language
	})
	return out, nil
}

// UTF16Len возвращает длину строки в кодовых единицах UTF-16.
func UTF16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// SpanOf размечает первое вхождение fragment в text. Если фрагмента нет, ok == false.
func SpanOf(text, fragment string, option SpanOption) (span FormatSpan, ok bool) {
	idx := strings.Index(text, fragment)
	if idx < 0 || fragment == "" {
		return FormatSpan{}, false
	}
	return FormatSpan{Option: option, Offset: UTF16Len(text[:idx]), Length: UTF16Len(fragment)}, true
}
