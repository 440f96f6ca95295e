package service

import "unirag/internal/domain"

const unknownSource = "Unbekannt"

// SourceOf describes where a match came from.
func SourceOf(m domain.Match) domain.Source {
	return domain.Source{
		Filename:   m.Metadata.FilenameOr(unknownSource),
		Title:      m.Metadata.TitleOr(unknownSource),
		PageNumber: m.Metadata.PageNumber,
		ChunkIndex: m.Metadata.ChunkIndex,
		Path:       m.Metadata.SourcePath,
	}
}

// DedupSources drops repeated sources, keeping the first occurrence of each.
func DedupSources(sources []domain.Source) []domain.Source {
	seen := make(map[domain.Source]struct{}, len(sources))
	out := make([]domain.Source, 0, len(sources))
	for _, s := range sources {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
