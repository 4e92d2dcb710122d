package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"BookAnnotator/internal/domain"
)

func TestAnnotateStripsEchoedLabels(t *testing.T) {
	completer := &fakeCompleter{reply: "  Аннотация: Пособие рассматривает основы ресторанного бизнеса.  "}
	s := NewSynthesizer(completer)

	got, err := s.Annotate(context.Background(), restaurantRecord(), "текст")
	require.NoError(t, err)
	require.Equal(t, "Пособие рассматривает основы ресторанного бизнеса.", got)
	require.Len(t, completer.prompts, 1)
}

func TestAnnotateSentinelIsNotFound(t *testing.T) {
	s := NewSynthesizer(&fakeCompleter{reply: "Ответ: " + NotFoundSentinel + "."})

	_, err := s.Annotate(context.Background(), restaurantRecord(), "текст")
	require.ErrorIs(t, err, ErrDescriptionNotFound)
	require.True(t, IsNotFound(err))
}

func TestAnnotateCompletionFailure(t *testing.T) {
	s := NewSynthesizer(&fakeCompleter{err: errors.New("status 429")})

	_, err := s.Annotate(context.Background(), restaurantRecord(), "текст")
	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	require.False(t, IsNotFound(err))

	_, err = NewSynthesizer(nil).Annotate(context.Background(), restaurantRecord(), "текст")
	require.ErrorAs(t, err, &synthErr)
}

func TestBuildPrompt(t *testing.T) {
	record := restaurantRecord()
	record.ISBN = "978-601-000-00-0"
	block := strings.Repeat("абвгд", 40)

	prompt := BuildPrompt(record, "Первый   абзац\n\n"+block+block)
	require.Contains(t, prompt, "Автор: Иванов И.И.")
	require.Contains(t, prompt, "Название: Ресторанный бизнес")
	require.Contains(t, prompt, "Год издания: 2015\nИздательство: АТУ\nМесто издания: Алматы\nISBN: 978-601-000-00-0\nКлючевые слова: общепит")
	require.Contains(t, prompt, "Первый абзац "+block+"\n")
	require.NotContains(t, prompt, block+block)
	require.Contains(t, prompt, NotFoundSentinel)

	anonymous := BuildPrompt(domain.BibliographicRecord{Title: "Экология"}, "x")
	require.Contains(t, anonymous, "Автор: Автор не указан")
	require.NotContains(t, anonymous, "Год издания")
}

func TestCleanAnnotation(t *testing.T) {
	got, ok := CleanAnnotation("Ответ: аннотация: Текст.")
	require.True(t, ok)
	require.Equal(t, "Текст.", got)

	_, ok = CleanAnnotation("   ")
	require.False(t, ok)

	_, ok = CleanAnnotation("информация о книге не найдена")
	require.False(t, ok)

	got, ok = CleanAnnotation("ANNOTATION: Textbook.")
	require.True(t, ok)
	require.Equal(t, "Textbook.", got)
}
