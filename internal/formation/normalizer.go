package formation

import (
	"fmt"

	"github.com/internhub/backend/internal/models"
)

// NormalizedResponse is a quiz response with every answer rendered as readable text.
type NormalizedResponse struct {
	Username string
	Answers  []string
}

// Normalize maps raw answers onto their human-readable labels. The result has exactly one
// entry per question.
func Normalize(questions []models.Question, r models.QuizResponse) ([]string, error) {
	if len(r.Answers) != len(questions) {
		return nil, &MalformedAnswerError{
			Username: r.Username,
			Reason:   fmt.Sprintf("got %d answers for %d questions", len(r.Answers), len(questions)),
		}
	}
	out := make([]string, len(questions))
	for i, q := range questions {
		ans := int(r.Answers[i])
		switch q.Type {
		case models.QuestionRadio:
			if ans < 0 || ans >= len(q.Options) {
				return nil, &MalformedAnswerError{
					Username: r.Username,
					Question: q.ID,
					Reason:   fmt.Sprintf("option index %d out of range [0,%d)", ans, len(q.Options)),
				}
			}
			out[i] = q.Options[ans]
		case models.QuestionSlider:
			out[i] = fmt.Sprintf("Rated %d on a scale of %d-%d", ans, models.SliderMin, models.SliderMax)
		default:
			return nil, fmt.Errorf("question %d: %w %q", q.ID, ErrUnsupportedQuestionType, q.Type)
		}
	}
	return out, nil
}

// NormalizeAll normalizes every response in submission order and stops at the first error.
func NormalizeAll(questions []models.Question, responses []models.QuizResponse) ([]NormalizedResponse, error) {
	out := make([]NormalizedResponse, 0, len(responses))
	for _, r := range responses {
		answers, err := Normalize(questions, r)
		if err != nil {
			return nil, err
		}
		out = append(out, NormalizedResponse{Username: r.Username, Answers: answers})
	}
	return out, nil
}
