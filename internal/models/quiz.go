package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Answer is one raw quiz answer: an option index for radio questions or a 1-10 rating for
// slider questions. The quiz form posts radio choices as numeric strings, so both "2" and 2
// decode to the same value.
type Answer int

// UnmarshalJSON accepts a JSON number or a string holding an integer.
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("answer %q is not an integer", s)
		}
		*a = Answer(n)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("answer must be a number: %w", err)
	}
	v, err := n.Int64()
	if err != nil {
		return fmt.Errorf("answer %s is not an integer", n)
	}
	*a = Answer(v)
	return nil
}

// QuizResponse is one submitted quiz. Answers are aligned by position with the question
// catalogue. Usernames are not unique across responses.
type QuizResponse struct {
	Username string   `json:"username"`
	Answers  []Answer `json:"answers"`
}
