package files

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"trivia-showdown/internal/domain"
)

// SetEntry describes where a question set lives on disk.
type SetEntry struct {
	ID       string
	Title    string
	Category string
	Path     string
}

// QuestionSetLoader reads question sets from JSON files.
type QuestionSetLoader struct {
	baseDir string
	entries map[string]SetEntry
}

func NewQuestionSetLoader(baseDir string, entries []SetEntry) *QuestionSetLoader {
	byID := make(map[string]SetEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	return &QuestionSetLoader{baseDir: baseDir, entries: byID}
}

func (l *QuestionSetLoader) LoadQuestionSet(_ context.Context, setID string) (domain.QuestionSet, error) {
	entry, ok := l.entries[setID]
	if !ok {
		return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
	}
	path := entry.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.baseDir, path)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.QuestionSet{}, fmt.Errorf("%w: %s", domain.ErrQuestionSetNotFound, path)
	}
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("read question set: %w", err)
	}

	var set domain.QuestionSet
	if err := json.Unmarshal(data, &set); err != nil {
		return domain.QuestionSet{}, fmt.Errorf("unmarshal question set %s: %w", setID, err)
	}
	set.ID = setID
	if entry.Title != "" {
		set.Title = entry.Title
	}
	if entry.Category != "" {
		set.Category = entry.Category
	}
	for i, q := range set.Questions {
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Answers) {
			return domain.QuestionSet{}, fmt.Errorf("question set %s: question %d has no valid correct index", setID, i)
		}
	}
	return set, nil
}
