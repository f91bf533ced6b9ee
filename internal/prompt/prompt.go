// Package prompt holds the per-language prompt templates for the three
// pipeline stages: per-chunk extraction, consolidation, and polishing.
package prompt

import (
	"fmt"
	"strings"
)

type templates struct {
	system      string
	extract     string
	consolidate string
	polish      string
}

var byLanguage = map[string]templates{
	"en": {
		system: "You are an experienced editor producing faithful, well-structured book summaries. " +
			"Work only with the provided text. Never invent plot points, names, or facts.",
		extract: "Condense the following book fragment. Keep the narrative order, key events, " +
			"characters, and important details. Write connected prose, not bullet points. " +
			"Answer in English.\n\n---\n%s",
		consolidate: "Below are condensed fragments of one book, in order, separated by blank lines. " +
			"Merge them into a single coherent narrative summary. Remove repetition, resolve " +
			"references between fragments, and keep the chronology. Answer in English.\n\n---\n%s",
		polish: "Rewrite the following book summary into its final form: a short introduction, " +
			"the main narrative, and a closing paragraph on themes and takeaways. Improve flow " +
			"and wording without adding new information. Answer in English.\n\n---\n%s",
	},
	"ru": {
		system: "Ты опытный редактор, который составляет точные и хорошо структурированные пересказы книг. " +
			"Работай только с предоставленным текстом. Не выдумывай события, имена и факты.",
		extract: "Сожми следующий фрагмент книги. Сохрани порядок повествования, ключевые события, " +
			"персонажей и важные детали. Пиши связным текстом, без списков. Отвечай по-русски.\n\n---\n%s",
		consolidate: "Ниже идут сжатые фрагменты одной книги по порядку, разделённые пустыми строками. " +
			"Объедини их в один связный пересказ: убери повторы, согласуй отсылки между фрагментами, " +
			"сохрани хронологию. Отвечай по-русски.\n\n---\n%s",
		polish: "Перепиши следующий пересказ книги в итоговую форму: короткое вступление, основное " +
			"повествование и финальный абзац о темах и выводах. Улучши слог, не добавляя новой " +
			"информации. Отвечай по-русски.\n\n---\n%s",
	},
}

// DefaultLanguage is used when a requested language has no templates.
const DefaultLanguage = "en"

func forLanguage(lang string) templates {
	if t, ok := byLanguage[strings.ToLower(lang)]; ok {
		return t
	}
	return byLanguage[DefaultLanguage]
}

// IsSupported reports whether templates exist for the language tag.
func IsSupported(lang string) bool {
	_, ok := byLanguage[strings.ToLower(lang)]
	return ok
}

// System returns the system instruction for the language.
func System(lang string) string {
	return forLanguage(lang).system
}

// Extract builds the per-chunk condensation prompt.
func Extract(lang, chunkText string) string {
	return fmt.Sprintf(forLanguage(lang).extract, chunkText)
}

// Consolidate builds the draft-merging prompt.
func Consolidate(lang, draft string) string {
	return fmt.Sprintf(forLanguage(lang).consolidate, draft)
}

// Polish builds the final formatting prompt.
func Polish(lang, consolidated string) string {
	return fmt.Sprintf(forLanguage(lang).polish, consolidated)
}
