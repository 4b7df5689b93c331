package services

import "campusquiz/models"

// Response is one answer supplied by the client at submission time. It is
// never persisted beyond the attempt's score.
type Response struct {
	ID       uint   `json:"id" binding:"required"`
	Response string `json:"response"`
}

// Grade scores submitted responses against the questions' right answers.
// A response counts when its question ID is known and its answer string
// exactly equals the stored right answer (case-sensitive, stored format).
// Unknown question IDs and empty answers contribute nothing and are not
// errors. Duplicate responses for the same question each count.
func Grade(questions []models.Question, responses []Response) int {
	correctAnswers := make(map[uint]string, len(questions))
	for _, q := range questions {
		correctAnswers[q.ID] = q.RightAnswer
	}

	score := 0
	for _, res := range responses {
		answer, ok := correctAnswers[res.ID]
		if ok && res.Response != "" && res.Response == answer {
			score++
		}
	}
	return score
}
