package app

import "quiz-attempt-service/internal/domain"

// Score counts the answers matching each question's correct answer.
// Unanswered slots never match, and answers past the last question are ignored.
func Score(answers []int, questions []domain.Question) int {
	score := 0
	for i, question := range questions {
		if i >= len(answers) {
			break
		}
		if answers[i] != domain.Unanswered && answers[i] == question.CorrectAnswer {
			score++
		}
	}
	return score
}

func unansweredCount(answers []int) int {
	n := 0
	for _, a := range answers {
		if a == domain.Unanswered {
			n++
		}
	}
	return n
}
