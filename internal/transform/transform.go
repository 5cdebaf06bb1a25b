// Package transform реализует движок преобразования имен файлов и подписей:
// разбор пользовательских правил замены, добавление префикса и суффикса,
// подстановку переменных в шаблон подписи. Все функции чистые, без ввода-вывода.
package transform

import (
	"path/filepath"
	"strings"
)

// Rule одно правило преобразования текста. Правило либо заменяет Old на New,
// либо удаляет Old целиком (Remove = true).
type Rule struct {
	Old    string
	New    string
	Remove bool
}

// ParseRules разбирает строку правил, разделенных "|".
// Сегмент с ":" — правило замены (разделение по первому ":"),
// сегмент без ":" — правило удаления. Пустые сегменты отбрасываются,
// порядок правил сохраняется.
func ParseRules(rulesString string) []Rule {
	if strings.TrimSpace(rulesString) == "" {
		return nil
	}

	var rules []Rule
	for _, part := range strings.Split(rulesString, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if old, newValue, found := strings.Cut(part, ":"); found {
			rules = append(rules, Rule{
				Old: strings.TrimSpace(old),
				New: strings.TrimSpace(newValue),
			})
		} else {
			rules = append(rules, Rule{Old: part, Remove: true})
		}
	}
	return rules
}

// Apply применяет правила к тексту слева направо. Каждое правило видит
// результат предыдущих, поэтому повторное применение набора к собственному
// выводу в общем случае меняет текст дальше.
func Apply(text string, rules []Rule) string {
	result := text
	for _, rule := range rules {
		if rule.Remove {
			result = strings.ReplaceAll(result, rule.Old, "")
		} else {
			result = strings.ReplaceAll(result, rule.Old, rule.New)
		}
	}
	return result
}

// AddAffix добавляет префикс и суффикс к основе имени файла, не трогая
// расширение. Между аффиксом и основой вставляется ровно один пробел,
// если аффикс сам не несет пробел с нужной стороны.
func AddAffix(filename, prefix, suffix string) string {
	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)

	if prefix != "" {
		if strings.HasSuffix(prefix, " ") {
			name = prefix + name
		} else {
			name = prefix + " " + name
		}
	}
	if suffix != "" {
		if strings.HasPrefix(suffix, " ") {
			name = name + suffix
		} else {
			name = name + " " + suffix
		}
	}
	return name + ext
}

// TransformFilename применяет полный порядок преобразования имени:
// сначала правила замен по всей строке, затем префикс и суффикс.
func TransformFilename(filename string, rules []Rule, prefix, suffix string) string {
	return AddAffix(Apply(filename, rules), prefix, suffix)
}

// Переменные, допустимые в шаблоне подписи.
var captionVars = []string{"filename", "size", "extension", "caption"}

// Substitute подставляет значения переменных в шаблон подписи.
// Незаданные переменные заменяются пустой строкой.
func Substitute(template string, vars map[string]string) string {
	result := template
	for _, name := range captionVars {
		result = strings.ReplaceAll(result, "{"+name+"}", vars[name])
	}
	return result
}
