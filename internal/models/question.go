package models

import (
	"fmt"
)

// QuestionType is the input kind of a quiz question.
type QuestionType string

const (
	QuestionRadio  QuestionType = "radio"
	QuestionSlider QuestionType = "slider"
)

// Slider answers are integers in [SliderMin, SliderMax].
const (
	SliderMin = 1
	SliderMax = 10
)

// Question is one entry of the static preference quiz.
type Question struct {
	ID      int          `json:"id" yaml:"id"`
	Text    string       `json:"question" yaml:"question"`
	Type    QuestionType `json:"type" yaml:"type"`
	Options []string     `json:"options,omitempty" yaml:"options,omitempty"`
}

// ValidateQuestions checks the catalogue invariants: unique ids, radio questions carry at
// least one option, slider questions carry none.
func ValidateQuestions(questions []Question) error {
	seen := make(map[int]struct{}, len(questions))
	for i, q := range questions {
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("question %d: duplicate id %d", i, q.ID)
		}
		seen[q.ID] = struct{}{}
		if q.Text == "" {
			return fmt.Errorf("question %d: text is required", q.ID)
		}
		switch q.Type {
		case QuestionRadio:
			if len(q.Options) == 0 {
				return fmt.Errorf("question %d: radio question needs at least one option", q.ID)
			}
		case QuestionSlider:
			if len(q.Options) != 0 {
				return fmt.Errorf("question %d: slider question must not have options", q.ID)
			}
		default:
			return fmt.Errorf("question %d: unsupported type %q", q.ID, q.Type)
		}
	}
	return nil
}
