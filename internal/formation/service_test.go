package formation

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/internhub/backend/internal/completion"
	"github.com/internhub/backend/internal/models"
	"github.com/internhub/backend/internal/store"
)

const oneTeam = `{"teams":[{"teamId":"Team1","members":["u1","u2"],"teamStrengths":["communication"]}]}`

func seededStore(t *testing.T) *store.FileBackend {
	t.Helper()
	ctx := context.Background()
	b, err := store.NewFileBackend(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, store.ReplaceAll(ctx, b, store.Questions, sampleQuestions()))
	require.NoError(t, store.ReplaceAll(ctx, b, store.QuizResponses, []models.QuizResponse{
		{Username: "u1", Answers: []models.Answer{0, 7}},
		{Username: "u2", Answers: []models.Answer{1, 3}},
	}))
	return b
}

func newService(b store.Backend, c Completer) *Service {
	return NewService(b, NewLLMOracle(c, DefaultTeamSize), nil, nil)
}

func TestRun_StoresTeamsUnchanged(t *testing.T) {
	b := seededStore(t)
	c := &stubCompleter{text: oneTeam}

	set, err := newService(b, c).Run(context.Background())
	require.NoError(t, err)

	want := []models.Team{{TeamID: "Team1", Members: []string{"u1", "u2"}, TeamStrengths: []string{"communication"}}}
	require.Equal(t, want, set.Teams)

	stored, err := store.List[models.Team](context.Background(), b, store.Teams)
	require.NoError(t, err)
	require.Equal(t, want, stored)

	require.Contains(t, c.req.User, "Username: u1\nQ1: A\nQ2: Rated 7 on a scale of 1-10\n")
	require.Contains(t, c.req.User, "Username: u2\nQ1: B\nQ2: Rated 3 on a scale of 1-10\n")
}

func TestRun_InvalidJSONLeavesTeamsUntouched(t *testing.T) {
	ctx := context.Background()
	b := seededStore(t)
	require.NoError(t, store.ReplaceAll(ctx, b, store.Teams, []models.Team{{TeamID: "Old", Members: []string{"x"}, TeamStrengths: []string{}}}))
	before, err := os.ReadFile(b.Path(store.Teams))
	require.NoError(t, err)

	_, err = newService(b, &stubCompleter{text: "{not valid json"}).Run(ctx)
	require.ErrorIs(t, err, ErrSchemaMismatch)

	after, err := os.ReadFile(b.Path(store.Teams))
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestRun_MissingTeamsKey(t *testing.T) {
	_, err := newService(seededStore(t), &stubCompleter{text: `{"groups":[]}`}).Run(context.Background())
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestRun_SecondRunReplacesFirst(t *testing.T) {
	ctx := context.Background()
	b := seededStore(t)
	c := &stubCompleter{text: `{"teams":[{"teamId":"A","members":["u1"],"teamStrengths":["x"]},{"teamId":"B","members":["u2"],"teamStrengths":["y"]}]}`}
	svc := newService(b, c)

	_, err := svc.Run(ctx)
	require.NoError(t, err)

	c.text = `{"teams":[{"teamId":"C","members":["u1","u2"],"teamStrengths":["z"]}]}`
	_, err = svc.Run(ctx)
	require.NoError(t, err)

	stored, err := svc.Teams(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "C", stored[0].TeamID)
}

func TestRun_DelegateFailuresWriteNothing(t *testing.T) {
	cases := map[string]struct {
		c    *stubCompleter
		want error
	}{
		"unavailable": {&stubCompleter{err: completion.ErrUnavailable}, ErrDelegateUnavailable},
		"empty":       {&stubCompleter{err: completion.ErrEmpty}, ErrEmptyCompletion},
	}
	for name, tc := range cases {
		b := seededStore(t)
		_, err := newService(b, tc.c).Run(context.Background())
		require.ErrorIs(t, err, tc.want, name)

		_, statErr := os.Stat(b.Path(store.Teams))
		require.True(t, os.IsNotExist(statErr), name)
	}
}

func TestRun_MalformedResponseSkipsDelegate(t *testing.T) {
	ctx := context.Background()
	b := seededStore(t)
	require.NoError(t, store.Append(ctx, b, store.QuizResponses, models.QuizResponse{Username: "u3", Answers: []models.Answer{0}}))
	c := &stubCompleter{text: oneTeam}

	_, err := newService(b, c).Run(ctx)
	var mae *MalformedAnswerError
	require.ErrorAs(t, err, &mae)
	require.Equal(t, "u3", mae.Username)
	require.Zero(t, c.n)
}

func TestRun_MalformedCollection(t *testing.T) {
	b := seededStore(t)
	require.NoError(t, os.WriteFile(b.Path(store.QuizResponses), []byte("[{"), 0o644))

	_, err := newService(b, &stubCompleter{text: oneTeam}).Run(context.Background())
	require.ErrorIs(t, err, store.ErrMalformedCollection)
	require.True(t, IsDataIntegrity(err))
}

type blockingOracle struct {
	entered chan struct{}
	release chan struct{}
}

func (o *blockingOracle) ProposeTeams(context.Context, []models.Question, []NormalizedResponse) (*models.TeamSet, error) {
	close(o.entered)
	<-o.release
	return &models.TeamSet{Teams: []models.Team{}}, nil
}

func TestRun_ConcurrentRunIsRejected(t *testing.T) {
	o := &blockingOracle{entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(seededStore(t), o, nil, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = svc.Run(context.Background())
	}()
	<-o.entered

	_, err := svc.Run(context.Background())
	require.ErrorIs(t, err, ErrFormationInProgress)

	close(o.release)
	wg.Wait()
	require.NoError(t, firstErr)
}

func TestMembershipOf(t *testing.T) {
	ctx := context.Background()
	b := seededStore(t)
	require.NoError(t, store.ReplaceAll(ctx, b, store.Teams, []models.Team{
		{TeamID: "T1", Members: []string{"u1", "u2", "u3"}},
		{TeamID: "T2", Members: []string{"u4", "u5"}},
		{TeamID: "T3", Members: []string{"u1", "u4"}},
	}))
	svc := newService(b, &stubCompleter{})

	m, err := svc.MembershipOf(ctx, "u2")
	require.NoError(t, err)
	require.False(t, m.Ambiguous)
	require.Equal(t, []string{"u1", "u3"}, m.Teammates)

	m, err = svc.MembershipOf(ctx, "u1")
	require.NoError(t, err)
	require.True(t, m.Ambiguous)
	require.Len(t, m.Teams, 2)
	require.Equal(t, []string{"u2", "u3", "u4"}, m.Teammates)

	m, err = svc.MembershipOf(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, m.Teams)
	require.Empty(t, m.Teammates)
}
