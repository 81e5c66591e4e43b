package formation

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/internhub/backend/internal/models"
)

func sampleQuestions() []models.Question {
	return []models.Question{
		{ID: 1, Text: "Pick one", Type: models.QuestionRadio, Options: []string{"A", "B"}},
		{ID: 2, Text: "Rate yourself", Type: models.QuestionSlider},
	}
}

func TestNormalize_MapsRadioAndSlider(t *testing.T) {
	got, err := Normalize(sampleQuestions(), models.QuizResponse{Username: "u1", Answers: []models.Answer{0, 7}})
	require.NoError(t, err)
	require.Equal(t, []string{"A", "Rated 7 on a scale of 1-10"}, got)

	got, err = Normalize(sampleQuestions(), models.QuizResponse{Username: "u2", Answers: []models.Answer{1, 3}})
	require.NoError(t, err)
	require.Equal(t, []string{"B", "Rated 3 on a scale of 1-10"}, got)
}

func TestNormalize_LengthMatchesQuestions(t *testing.T) {
	qs := sampleQuestions()
	for _, answers := range [][]models.Answer{{0, 1}, {1, 10}, {0, 5}} {
		got, err := Normalize(qs, models.QuizResponse{Username: "u", Answers: answers})
		require.NoError(t, err)
		require.Len(t, got, len(qs))
	}
}

func TestNormalize_RadioIndexYieldsOption(t *testing.T) {
	q := []models.Question{{ID: 9, Text: "q", Type: models.QuestionRadio, Options: []string{"x", "y", "z"}}}
	for i, want := range q[0].Options {
		got, err := Normalize(q, models.QuizResponse{Answers: []models.Answer{models.Answer(i)}})
		require.NoError(t, err)
		require.Equal(t, []string{want}, got)
	}
}

func TestNormalize_RadioIndexOutOfRange(t *testing.T) {
	for _, idx := range []models.Answer{-1, 2, 100} {
		_, err := Normalize(sampleQuestions(), models.QuizResponse{Username: "u", Answers: []models.Answer{idx, 5}})
		var mae *MalformedAnswerError
		require.True(t, errors.As(err, &mae), "index %d", idx)
		require.Equal(t, 1, mae.Question)
		require.True(t, IsDataIntegrity(err))
	}
}

func TestNormalize_SliderContainsValue(t *testing.T) {
	q := []models.Question{{ID: 1, Text: "rate", Type: models.QuestionSlider}}
	for v := models.SliderMin; v <= models.SliderMax; v++ {
		got, err := Normalize(q, models.QuizResponse{Answers: []models.Answer{models.Answer(v)}})
		require.NoError(t, err)
		require.Contains(t, got[0], "Rated ")
		require.Contains(t, got[0], " "+strconv.Itoa(v)+" ")
	}
}

func TestNormalize_LengthMismatch(t *testing.T) {
	_, err := Normalize(sampleQuestions(), models.QuizResponse{Username: "short", Answers: []models.Answer{0}})
	var mae *MalformedAnswerError
	require.ErrorAs(t, err, &mae)
	require.Equal(t, "short", mae.Username)
	require.Zero(t, mae.Question)
}

func TestNormalize_UnsupportedType(t *testing.T) {
	q := []models.Question{{ID: 3, Text: "free text", Type: "text"}}
	_, err := Normalize(q, models.QuizResponse{Answers: []models.Answer{0}})
	require.ErrorIs(t, err, ErrUnsupportedQuestionType)
	require.True(t, IsDataIntegrity(err))
}

func TestNormalizeAll_StopsAtFirstError(t *testing.T) {
	responses := []models.QuizResponse{
		{Username: "u1", Answers: []models.Answer{0, 7}},
		{Username: "bad", Answers: []models.Answer{5, 7}},
	}
	_, err := NormalizeAll(sampleQuestions(), responses)
	var mae *MalformedAnswerError
	require.ErrorAs(t, err, &mae)
	require.Equal(t, "bad", mae.Username)
}
