package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"castanet-watch/internal/scraper"
)

// LoadSelectors загружает селекторы из YAML файла поверх значений по умолчанию
func LoadSelectors(filePath string) (*scraper.Selectors, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close selectors file: %v\n", closeErr)
		}
	}()

	selectors := scraper.DefaultSelectors()
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := validateSelectors(selectors); err != nil {
		return nil, err
	}

	return selectors, nil
}

// Selectors возвращает селекторы из selectors_file, либо встроенные, если файл не задан
func (c *Config) Selectors() (*scraper.Selectors, error) {
	if c.SelectorsFile == "" {
		return scraper.DefaultSelectors(), nil
	}
	return LoadSelectors(c.SelectorsFile)
}

// validateSelectors проверяет минимальный набор селекторов
func validateSelectors(s *scraper.Selectors) error {
	if s.ContentRegion == "" {
		return fmt.Errorf("content_region is required")
	}
	if s.Entry == "" {
		return fmt.Errorf("entry is required")
	}
	if s.DetailRegion == "" || s.DetailCell == "" {
		return fmt.Errorf("detail_region and detail_cell are required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.DescriptionMarkers.Default == "" {
		return fmt.Errorf("description_markers.default is required")
	}
	if _, err := s.DetailOffsets.Layout(); err != nil {
		return err
	}

	return nil
}
