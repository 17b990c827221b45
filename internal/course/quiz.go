package course

import (
	"errors"

	"github.com/cypherlabdev/stake-calculator-service/internal/models"
)

var (
	ErrNoAnswerSelected = errors.New("no answer selected")
	ErrInvalidOption    = errors.New("answer is not one of the exercise options")
	ErrAlreadySubmitted = errors.New("answer already submitted for this exercise")
	ErrNotSubmitted     = errors.New("submit an answer before moving on")
)

// Exercises returns the practice exercises
func Exercises() []models.Exercise {
	return []models.Exercise{
		{
			ID:       1,
			Question: "Which decision is the most rational?",
			Scenario: "Team A plays at home against team B. Your favourite team A is on a five-match losing streak. " +
				"The price on an A win is 2.80, on B 2.40. Statistics say A wins at home 40% of the time against top teams.",
			Options: []models.ExerciseOption{
				{Value: "a", Label: "Back team A because it is my favourite and is \"due\" a win"},
				{Value: "b", Label: "Back team B: the lower price means a higher probability"},
				{Value: "c", Label: "Work out the implied probabilities and compare them with the statistics"},
				{Value: "d", Label: "Skip the match entirely, it is too unpredictable"},
			},
			CorrectAnswer: "c",
			Explanation: "The right approach is to do the maths. 2.80 implies about 35.7%, 2.40 about 41.7%. " +
				"Statistics give A 40% at home. There is no clear value, so skip the bet or look at other markets.",
		},
		{
			ID:       2,
			Question: "How should the bankroll be managed?",
			Scenario: "Your bankroll is 10,000. You found a great bet at 2.0 and you are 60% confident. " +
				"Full Kelly says the optimal stake is 20% of the bank (2,000). What do you do?",
			Options: []models.ExerciseOption{
				{Value: "a", Label: "Stake 2,000: the maths does not lie"},
				{Value: "b", Label: "Stake 10% or less to reduce variance"},
				{Value: "c", Label: "Stake the whole 10,000 since you are 60% sure"},
				{Value: "d", Label: "Do not bet: 2,000 is too much"},
			},
			CorrectAnswer: "b",
			Explanation: "Pure Kelly is aggressive. Practitioners use fractional Kelly (1/4 or 1/2) to manage risk. " +
				"10% of the bank (1,000) is a sensible compromise between growth and safety.",
		},
		{
			ID:       3,
			Question: "Assessing value in a price",
			Scenario: "The bookmaker offers 1.90 on over 2.5 goals. Your analysis puts the probability of over 2.5 at 55%. Is there value?",
			Options: []models.ExerciseOption{
				{Value: "a", Label: "No value: the price is too low"},
				{Value: "b", Label: "Yes, there is value of about 4.5%"},
				{Value: "c", Label: "Impossible to tell without more data"},
				{Value: "d", Label: "Yes, huge value: stake the maximum"},
			},
			CorrectAnswer: "b",
			Explanation: "1.90 implies 52.6%. Your estimate is 55%. Value = 55% x 1.90 - 100% = 4.5%. " +
				"That is a reasonable bet, but not a \"huge\" edge.",
		},
	}
}

// Quiz walks a learner through the practice exercises. It is not safe for concurrent use.
type Quiz struct {
	exercises []models.Exercise
	index     int
	selected  string
	submitted bool
	score     int
	finished  bool
}

// NewQuiz creates a quiz positioned at the first exercise
func NewQuiz(exercises []models.Exercise) *Quiz {
	return &Quiz{exercises: exercises}
}

// State returns a snapshot of the quiz
func (q *Quiz) State() models.QuizState {
	state := models.QuizState{
		Index:     q.index,
		Total:     len(q.exercises),
		Selected:  q.selected,
		Submitted: q.submitted,
		Score:     q.score,
		Finished:  q.finished,
	}
	if !q.finished && q.index < len(q.exercises) {
		ex := q.exercises[q.index]
		state.Exercise = &ex
	}
	return state
}

// Select picks an answer for the current exercise
func (q *Quiz) Select(answer string) error {
	if q.finished || q.submitted {
		return ErrAlreadySubmitted
	}
	if !q.hasOption(answer) {
		return ErrInvalidOption
	}
	q.selected = answer
	return nil
}

// Submit checks the selected answer and updates the score
func (q *Quiz) Submit() (*models.AnswerResult, error) {
	if q.finished || q.submitted {
		return nil, ErrAlreadySubmitted
	}
	if q.selected == "" {
		return nil, ErrNoAnswerSelected
	}

	ex := q.exercises[q.index]
	correct := q.selected == ex.CorrectAnswer
	if correct {
		q.score++
	}
	q.submitted = true

	return &models.AnswerResult{
		ExerciseID:    ex.ID,
		Selected:      q.selected,
		Correct:       correct,
		CorrectAnswer: ex.CorrectAnswer,
		Explanation:   ex.Explanation,
		Score:         q.score,
	}, nil
}

// Answer selects and submits in one step
func (q *Quiz) Answer(answer string) (*models.AnswerResult, error) {
	if err := q.Select(answer); err != nil {
		return nil, err
	}
	return q.Submit()
}

// Next moves to the following exercise. After the last exercise the quiz is finished;
// calling Next on a finished quiz starts it again.
func (q *Quiz) Next() error {
	if q.finished {
		q.Reset()
		return nil
	}
	if !q.submitted {
		return ErrNotSubmitted
	}

	q.selected = ""
	q.submitted = false
	if q.index < len(q.exercises)-1 {
		q.index++
		return nil
	}
	q.finished = true
	return nil
}

// Reset starts the quiz again from the first exercise with a zero score
func (q *Quiz) Reset() {
	q.index = 0
	q.selected = ""
	q.submitted = false
	q.score = 0
	q.finished = false
}

func (q *Quiz) hasOption(answer string) bool {
	if q.index >= len(q.exercises) {
		return false
	}
	for _, opt := range q.exercises[q.index].Options {
		if opt.Value == answer {
			return true
		}
	}
	return false
}
