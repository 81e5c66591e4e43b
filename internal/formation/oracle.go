package formation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/internhub/backend/internal/completion"
	"github.com/internhub/backend/internal/models"
)

// Oracle decides how submitters are grouped.
type Oracle interface {
	ProposeTeams(ctx context.Context, questions []models.Question, responses []NormalizedResponse) (*models.TeamSet, error)
}

// Completer is implemented by *completion.Client.
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

// LLMOracle asks a chat completion service to form the teams.
type LLMOracle struct {
	completer Completer
	teamSize  int
}

func NewLLMOracle(completer Completer, teamSize int) *LLMOracle {
	if teamSize <= 0 {
		teamSize = DefaultTeamSize
	}
	return &LLMOracle{completer: completer, teamSize: teamSize}
}

func (o *LLMOracle) ProposeTeams(ctx context.Context, questions []models.Question, responses []NormalizedResponse) (*models.TeamSet, error) {
	text, err := o.completer.Complete(ctx, completion.Request{
		System: SystemInstruction,
		User:   BuildPrompt(questions, responses, o.teamSize),
	})
	switch {
	case errors.Is(err, completion.ErrEmpty):
		return nil, fmt.Errorf("%w: %v", ErrEmptyCompletion, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrDelegateUnavailable, err)
	}
	return ParseTeamSet([]byte(text))
}

// ParseTeamSet decodes a completion into a TeamSet, requiring the teams key and every team
// field to be present.
func ParseTeamSet(data []byte) (*models.TeamSet, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyCompletion
	}
	var raw struct {
		Teams *[]struct {
			TeamID        *string   `json:"teamId"`
			Members       *[]string `json:"members"`
			TeamStrengths *[]string `json:"teamStrengths"`
		} `json:"teams"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if raw.Teams == nil {
		return nil, fmt.Errorf("%w: missing \"teams\"", ErrSchemaMismatch)
	}
	set := &models.TeamSet{Teams: make([]models.Team, 0, len(*raw.Teams))}
	for i, t := range *raw.Teams {
		switch {
		case t.TeamID == nil:
			return nil, fmt.Errorf("%w: team %d missing \"teamId\"", ErrSchemaMismatch, i)
		case t.Members == nil:
			return nil, fmt.Errorf("%w: team %d missing \"members\"", ErrSchemaMismatch, i)
		case t.TeamStrengths == nil:
			return nil, fmt.Errorf("%w: team %d missing \"teamStrengths\"", ErrSchemaMismatch, i)
		}
		set.Teams = append(set.Teams, models.Team{
			TeamID:        *t.TeamID,
			Members:       *t.Members,
			TeamStrengths: *t.TeamStrengths,
		})
	}
	return set, nil
}
