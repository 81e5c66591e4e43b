package models

// Team is one group proposed by the formation run.
type Team struct {
	TeamID        string   `json:"teamId"`
	Members       []string `json:"members"`
	TeamStrengths []string `json:"teamStrengths"`
}

// TeamSet is the document shape the completion service must return and the formation
// endpoint responds with.
type TeamSet struct {
	Teams []Team `json:"teams"`
}

// HasMember reports whether username is listed in the team.
func (t Team) HasMember(username string) bool {
	for _, m := range t.Members {
		if m == username {
			return true
		}
	}
	return false
}
