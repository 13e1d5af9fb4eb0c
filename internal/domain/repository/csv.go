package repository

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"babyweight_service/internal/domain/model"
)

// CSVSource serves records from a header-less natality CSV file. The file is
// read once on first Fetch.
type CSVSource struct {
	path string

	once    sync.Once
	babies  []model.Baby
	loadErr error
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Fetch(ctx context.Context, offset, limit int) ([]model.Baby, error) {
	s.once.Do(func() { s.babies, s.loadErr = s.load() })
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset >= len(s.babies) || limit <= 0 {
		return nil, nil
	}
	end := min(offset+limit, len(s.babies))
	return s.babies[offset:end], nil
}

func (s *CSVSource) load() ([]model.Baby, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	var babies []model.Baby
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		baby, err := model.ParseBabyCSV(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", s.path, line, err)
		}
		babies = append(babies, baby)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return babies, nil
}
