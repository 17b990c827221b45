package models

// Lesson is a single checklist item inside a week
type Lesson struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

// Week is one of the four course weeks
type Week struct {
	Number      int          `json:"week"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Lessons     []Lesson     `json:"lessons"`
	Details     *WeekDetails `json:"details,omitempty"`
}

// WeekDetails holds the long-form material shown alongside a week
type WeekDetails struct {
	Overview  string   `json:"overview"`
	KeyPoints []string `json:"key_points"`
	Tips      []string `json:"tips"`
}

// ExerciseOption is one answer choice of a practice exercise
type ExerciseOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Exercise is a multiple-choice practice question
type Exercise struct {
	ID            int              `json:"id"`
	Question      string           `json:"question"`
	Scenario      string           `json:"scenario"`
	Options       []ExerciseOption `json:"options"`
	CorrectAnswer string           `json:"-"`
	Explanation   string           `json:"-"`
}

// WeekProgress reports lesson completion for a single week
type WeekProgress struct {
	Week      int     `json:"week"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// Progress reports lesson completion across the whole course
type Progress struct {
	CompletedLessons []int          `json:"completed_lessons"`
	Completed        int            `json:"completed"`
	Total            int            `json:"total"`
	Percent          float64        `json:"percent"`
	Weeks            []WeekProgress `json:"weeks"`
}

// QuizState is a snapshot of the practice quiz
type QuizState struct {
	Exercise  *Exercise `json:"exercise,omitempty"`
	Index     int       `json:"index"` // zero-based position of the current exercise
	Total     int       `json:"total"`
	Selected  string    `json:"selected"`
	Submitted bool      `json:"submitted"`
	Score     int       `json:"score"`
	Finished  bool      `json:"finished"`
}

// AnswerResult is returned after an answer is submitted
type AnswerResult struct {
	ExerciseID    int    `json:"exercise_id"`
	Selected      string `json:"selected"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
	Score         int    `json:"score"`
}
