// Package quiz serves the preference quiz and records submissions.
package quiz

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/internhub/backend/internal/models"
	"github.com/internhub/backend/internal/store"
)

//go:embed questions.yaml
var defaultCatalogue []byte

// LoadCatalogue reads a YAML question list from path, or the built-in list when path is
// empty.
func LoadCatalogue(path string) ([]models.Question, error) {
	data := defaultCatalogue
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read questions file: %w", err)
		}
	}
	return ParseCatalogue(data)
}

// ParseCatalogue decodes and validates a YAML question list.
func ParseCatalogue(data []byte) ([]models.Question, error) {
	var questions []models.Question
	if err := yaml.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("question catalogue is empty")
	}
	if err := models.ValidateQuestions(questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// Seed stores questions when the Questions collection is empty. An existing catalogue is
// left alone: stored responses are aligned with it by position.
func Seed(ctx context.Context, backend store.Backend, questions []models.Question, logger *zap.Logger) error {
	seeded, err := store.SeedIfEmpty(ctx, backend, store.Questions, questions)
	if err != nil {
		return fmt.Errorf("seed questions: %w", err)
	}
	if seeded && logger != nil {
		logger.Info("question catalogue seeded", zap.Int("questions", len(questions)))
	}
	return nil
}
