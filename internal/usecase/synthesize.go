package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"BookAnnotator/internal/domain"
	"BookAnnotator/internal/ports"
)

const (
	// NotFoundSentinel is the exact reply the model gives when the sources do
	// not describe the book.
	NotFoundSentinel = "ИНФОРМАЦИЯ О КНИГЕ НЕ НАЙДЕНА"

	unknownAuthor = "Автор не указан"
	repeatBlock   = 200
)

var echoedLabel = regexp.MustCompile(`(?i)^\s*(аннотация|ответ|annotation)\s*:\s*`)

const promptTemplate = `
Проанализируй предоставленный текст, если в нем нет аннотации, то создай ее.

ИНФОРМАЦИЯ О КНИГЕ:
Автор: {author}
Название: {title}
{additionalInfo}

ИЗВЛЕЧЕННЫЙ ТЕКСТ ИЗ ИСТОЧНИКОВ:
{content}

ИНСТРУКЦИИ:
1. Внимательно прочитай весь текст и найди информацию, относящуюся именно к этой книге
2. Обрати особое внимание на:
   - Описания содержания пособия
   - Фразы типа "В пособии рассмотрены...", "Предназначено для...", "Описаны..."
   - Информацию о целевой аудитории
   - Перечисление тем и разделов

3. Если информация о книге НАЙДЕНА, создай аннотацию (4-6 предложений):
   - Первое предложение: тематика и назначение пособия
   - Второе-третье: основное содержание и охваченные темы
   - Четвертое: целевая аудитория
   - Пятое (опционально): особенности и преимущества

4. Если информация НЕ НАЙДЕНА или текст не содержит описания книги, напиши только: "` + NotFoundSentinel + `"

ВАЖНО:
- Пиши кратко и информативно
- Используй академический стиль
- НЕ придумывай информацию, если её нет в тексте
- Если в тексте упоминается только название без описания, считай это как "НЕ НАЙДЕНА"
- НЕ включай слово "Аннотация:" в начале ответа, начинай сразу с текста

Ответ:
`

// Synthesizer turns aggregated source text into a short annotation.
type Synthesizer struct {
	completer ports.TextCompleter
}

// NewSynthesizer wraps a text completion capability.
func NewSynthesizer(completer ports.TextCompleter) *Synthesizer {
	return &Synthesizer{completer: completer}
}

// Annotate asks the model for an annotation grounded in content.
// ErrDescriptionNotFound is returned when the model replies with the sentinel.
func (s *Synthesizer) Annotate(ctx context.Context, record domain.BibliographicRecord, content string) (string, error) {
	if s == nil || s.completer == nil {
		return "", &SynthesisError{Err: fmt.Errorf("text completer is not configured")}
	}

	reply, err := s.completer.Complete(ctx, BuildPrompt(record, content))
	if err != nil {
		return "", &SynthesisError{Err: err}
	}

	annotation, ok := CleanAnnotation(reply)
	if !ok {
		return "", ErrDescriptionNotFound
	}
	return annotation, nil
}

// BuildPrompt fills the instruction template with the record and the content.
func BuildPrompt(record domain.BibliographicRecord, content string) string {
	author := record.PrimaryAuthor()
	if author == "" {
		author = unknownAuthor
	}

	r := strings.NewReplacer(
		"{author}", author,
		"{title}", strings.TrimSpace(record.Title),
		"{additionalInfo}", additionalInfo(record),
		"{content}", collapseRepeats(CollapseWhitespace(content), repeatBlock),
	)
	return r.Replace(promptTemplate)
}

func additionalInfo(record domain.BibliographicRecord) string {
	var lines []string
	add := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			lines = append(lines, label+": "+value)
		}
	}
	if record.Year > 0 {
		add("Год издания", record.YearLiteral())
	}
	add("Издательство", record.Publisher)
	add("Место издания", record.PublicationPlace)
	add("ISBN", record.ISBN)
	add("Ключевые слова", record.Keywords)
	return strings.Join(lines, "\n")
}

// CleanAnnotation strips labels the model may echo and reports false when the
// reply is empty or carries the not-found sentinel.
func CleanAnnotation(reply string) (string, bool) {
	text := strings.TrimSpace(reply)
	for {
		stripped := echoedLabel.ReplaceAllString(text, "")
		if stripped == text {
			break
		}
		text = stripped
	}
	text = strings.TrimSpace(text)

	if text == "" || strings.Contains(strings.ToUpper(text), NotFoundSentinel) {
		return "", false
	}
	return text, true
}
