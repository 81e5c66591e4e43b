package formation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/internhub/backend/internal/models"
)

// SystemInstruction is sent as the system message of every formation request.
const SystemInstruction = "You are a team formation expert who analyzes responses and creates balanced teams. " +
	"Always respond in valid JSON format, matching the requested schema exactly."

// DefaultTeamSize is the target number of members per team.
const DefaultTeamSize = 5

// BuildPrompt renders the formation request from the question catalogue and the normalized
// responses. Answers are labelled with the id of the question at the same position.
func BuildPrompt(questions []models.Question, responses []NormalizedResponse, teamSize int) string {
	if teamSize <= 0 {
		teamSize = DefaultTeamSize
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Based on the following questions and user answers, create balanced teams of %d people each.\n", teamSize)
	b.WriteString("Consider diversity in skills, experience, and problem-solving approaches.\n\n")

	b.WriteString("Questions:\n")
	for _, q := range questions {
		fmt.Fprintf(&b, "%d. %s (%s)\n", q.ID, q.Text, q.Type)
	}

	b.WriteString("\nUser Answers:\n")
	for _, r := range responses {
		fmt.Fprintf(&b, "\nUsername: %s\n", r.Username)
		for i, ans := range r.Answers {
			if i >= len(questions) {
				break
			}
			fmt.Fprintf(&b, "Q%d: %s\n", questions[i].ID, ans)
		}
	}

	fmt.Fprintf(&b, "\nCreate balanced teams of %d people each. Analyze their responses and group them "+
		"based on complementary skills and experiences.\n", teamSize)
	b.WriteString("Every username must appear in exactly one team. Use only the usernames listed above.\n")
	b.WriteString("Provide the response in this exact format, with exactly these keys, and return only valid JSON:\n")
	b.WriteString(schemaExample(teamSize))
	b.WriteString("\n")
	return b.String()
}

// schemaExample renders a sample models.TeamSet, the type the response is decoded into.
func schemaExample(teamSize int) string {
	members := make([]string, teamSize)
	for i := range members {
		members[i] = fmt.Sprintf("username%d", i+1)
	}
	sample := models.TeamSet{Teams: []models.Team{{
		TeamID:        "Team1",
		Members:       members,
		TeamStrengths: []string{"strength1", "strength2", "strength3"},
	}}}
	out, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		// A fixed value of a plain struct always marshals.
		panic(err)
	}
	return string(out)
}
