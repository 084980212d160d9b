package telegram

import (
	"roommate_go/models"

	"github.com/gotd/td/tg"
)

// ToEntities переводит разметку текста в сущности сообщения Telegram.
func ToEntities(spans []models.FormatSpan) []tg.MessageEntityClass {
	if len(spans) == 0 {
		return nil
	}
	out := make([]tg.MessageEntityClass, 0, len(spans))
	for _, s := range spans {
		off, l := s.Offset, s.Length
		switch s.Option {
		case models.SpanBold:
			out = append(out, &tg.MessageEntityBold{Offset: off, Length: l})
		case models.SpanItalic:
			out = append(out, &tg.MessageEntityItalic{Offset: off, Length: l})
		case models.SpanUnderline:
			out = append(out, &tg.MessageEntityUnderline{Offset: off, Length: l})
		case models.SpanStrikethrough:
			out = append(out, &tg.MessageEntityStrike{Offset: off, Length: l})
		case models.SpanSpoiler:
			out = append(out, &tg.MessageEntitySpoiler{Offset: off, Length: l})
		case models.SpanMonospace:
			out = append(out, &tg.MessageEntityCode{Offset: off, Length: l})
		case models.SpanCode:
			out = append(out, &tg.MessageEntityPre{Offset: off, Length: l, Language: s.Language})
		case models.SpanLink:
			out = append(out, &tg.MessageEntityTextURL{Offset: off, Length: l, URL: s.URL})
		}
	}
	return out
}

// FromEntities выполняет обратное преобразование; неизвестные сущности пропускаются.
func FromEntities(entities []tg.MessageEntityClass) []models.FormatSpan {
	out := make([]models.FormatSpan, 0, len(entities))
	for _, e := range entities {
		var s models.FormatSpan
		switch v := e.(type) {
		case *tg.MessageEntityBold:
			s = models.FormatSpan{Option: models.SpanBold, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntityItalic:
			s = models.FormatSpan{Option: models.SpanItalic, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntityUnderline:
			s = models.FormatSpan{Option: models.SpanUnderline, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntityStrike:
			s = models.FormatSpan{Option: models.SpanStrikethrough, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntitySpoiler:
			s = models.FormatSpan{Option: models.SpanSpoiler, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntityCode:
			s = models.FormatSpan{Option: models.SpanMonospace, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntityPre:
			s = models.FormatSpan{Option: models.SpanCode, Offset: v.Offset, Length: v.Length, Language: v.Language}
		case *tg.MessageEntityTextURL:
			s = models.FormatSpan{Option: models.SpanLink, Offset: v.Offset, Length: v.Length, URL: v.URL}
		default:
			continue
		}
		out = append(out, s)
	}
	return out
}

// botAPITypes сопоставляет типы сущностей Bot API с вариантами разметки.
var botAPITypes = map[string]models.SpanOption{
	"bold":          models.SpanBold,
	"italic":        models.SpanItalic,
	"underline":     models.SpanUnderline,
	"strikethrough": models.SpanStrikethrough,
	"spoiler":       models.SpanSpoiler,
	"code":          models.SpanMonospace,
	"pre":           models.SpanCode,
	"text_link":     models.SpanLink,
}

// SpanFromBotAPI переводит сущность из JSON Bot API. Неизвестный тип даёт ok == false.
func SpanFromBotAPI(kind string, offset, length int, url, language string) (models.FormatSpan, bool) {
	opt, ok := botAPITypes[kind]
	if !ok {
		return models.FormatSpan{}, false
	}
	s := models.FormatSpan{Option: opt, Offset: offset, Length: length}
	switch opt {
	case models.SpanLink:
		s.URL = url
	case models.SpanCode:
		s.Language = language
	}
	return s, true
}
