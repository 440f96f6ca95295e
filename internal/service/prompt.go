package service

import (
	"fmt"
	"strings"

	"unirag/internal/domain"
)

const (
	unknownDocument = "Unbekanntes Dokument"
	unknownSection  = "Unbekannter Abschnitt"
)

const promptTemplate = `Du bist ein hilfreicher Assistent für Studierende der Universität Leipzig.
Beantworte die folgende Frage basierend ausschließlich auf dem gegebenen Kontext aus den Universitätsdokumenten.

WICHTIGE REGELN:
1. Beantworte nur Fragen, die sich aus dem Kontext beantworten lassen
2. Wenn der Kontext keine ausreichenden Informationen enthält, sage ehrlich "Ich kann diese Frage nicht basierend auf den verfügbaren Dokumenten beantworten"
3. Gib am Ende deiner Antwort die verwendeten Quellen an
4. Antworte auf Deutsch und sei präzise

KONTEXT:
%s

FRAGE: %s

ANTWORT:`

// BuildPrompt labels each passage with its 1-based source number, file and
// section and wraps them in the answering rules.
func BuildPrompt(query string, matches []domain.Match) string {
	parts := make([]string, 0, len(matches))
	for i, m := range matches {
		parts = append(parts, fmt.Sprintf("[Quelle %d: %s - %s]\n%s\n",
			i+1,
			m.Metadata.FilenameOr(unknownDocument),
			m.Metadata.TitleOr(unknownSection),
			m.Text))
	}
	return fmt.Sprintf(promptTemplate, strings.Join(parts, "\n"), query)
}
