// Package formation groups quiz submitters into teams by delegating the decision to an
// external completion service and storing the result as the authoritative team list.
package formation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/internhub/backend/internal/models"
	"github.com/internhub/backend/internal/store"
)

// Service runs team formation against the document store.
type Service struct {
	store  store.Backend
	oracle Oracle
	locker Locker
	logger *zap.Logger
}

// NewService wires a formation service. A nil locker serializes runs in-process only.
func NewService(backend store.Backend, oracle Oracle, locker Locker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = &LocalLocker{}
	}
	return &Service{store: backend, oracle: oracle, locker: locker, logger: logger}
}

// Run forms teams from every stored quiz response and replaces the Teams collection with
// the result. Nothing is written unless the completion parses.
func (s *Service) Run(ctx context.Context) (set *models.TeamSet, err error) {
	start := time.Now()
	defer func() {
		status := runStatus(err)
		runsTotal.WithLabelValues(status).Inc()
		runDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}()

	release, err := s.locker.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	questions, err := store.List[models.Question](ctx, s.store, store.Questions)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	responses, err := store.List[models.QuizResponse](ctx, s.store, store.QuizResponses)
	if err != nil {
		return nil, fmt.Errorf("load quiz responses: %w", err)
	}
	s.warnDuplicates(responses)

	normalized, err := NormalizeAll(questions, responses)
	if err != nil {
		return nil, err
	}
	s.logger.Info("team formation started",
		zap.Int("questions", len(questions)),
		zap.Int("responses", len(normalized)),
	)

	set, err = s.oracle.ProposeTeams(ctx, questions, normalized)
	if err != nil {
		s.logger.Error("team formation failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}
	s.warnUnknownMembers(set, responses)

	if err := store.ReplaceAll(ctx, s.store, store.Teams, set.Teams); err != nil {
		return nil, fmt.Errorf("store teams: %w", err)
	}
	teamsFormed.Set(float64(len(set.Teams)))
	s.logger.Info("team formation finished",
		zap.Int("teams", len(set.Teams)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return set, nil
}

// Teams returns the stored team collection.
func (s *Service) Teams(ctx context.Context) ([]models.Team, error) {
	return store.List[models.Team](ctx, s.store, store.Teams)
}

// Membership is a user's view of the stored teams.
type Membership struct {
	Teams     []models.Team `json:"teams"`
	Teammates []string      `json:"teammates"`
	// Ambiguous is set when the user is listed in more than one team.
	Ambiguous bool `json:"ambiguous"`
}

// MembershipOf finds every team listing username. Teammates is the union of the other
// members in first-seen order.
func (s *Service) MembershipOf(ctx context.Context, username string) (*Membership, error) {
	teams, err := s.Teams(ctx)
	if err != nil {
		return nil, err
	}
	m := &Membership{Teams: []models.Team{}, Teammates: []string{}}
	seen := map[string]bool{username: true}
	for _, t := range teams {
		if !t.HasMember(username) {
			continue
		}
		m.Teams = append(m.Teams, t)
		for _, member := range t.Members {
			if !seen[member] {
				seen[member] = true
				m.Teammates = append(m.Teammates, member)
			}
		}
	}
	m.Ambiguous = len(m.Teams) > 1
	return m, nil
}

func (s *Service) warnDuplicates(responses []models.QuizResponse) {
	counts := make(map[string]int, len(responses))
	for _, r := range responses {
		counts[r.Username]++
	}
	for username, n := range counts {
		if n > 1 {
			s.logger.Warn("duplicate quiz submissions", zap.String("username", username), zap.Int("count", n))
		}
	}
}

func (s *Service) warnUnknownMembers(set *models.TeamSet, responses []models.QuizResponse) {
	submitted := make(map[string]struct{}, len(responses))
	for _, r := range responses {
		submitted[r.Username] = struct{}{}
	}
	for _, t := range set.Teams {
		for _, m := range t.Members {
			if _, ok := submitted[m]; !ok {
				s.logger.Warn("team member did not submit the quiz", zap.String("team_id", t.TeamID), zap.String("member", m))
			}
		}
	}
}
