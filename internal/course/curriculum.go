package course

import (
	"errors"

	"github.com/cypherlabdev/stake-calculator-service/internal/models"
)

var (
	ErrWeekNotFound   = errors.New("week not found")
	ErrLessonNotFound = errors.New("lesson not found")
)

// Curriculum is the static four-week course
type Curriculum struct {
	weeks   []models.Week
	lessons map[int]int // lesson ID -> week number
}

// NewCurriculum builds the course content
func NewCurriculum() *Curriculum {
	weeks := []models.Week{
		{
			Number:      1,
			Title:       "Fundamentals of analysis",
			Description: "Statistics, probability and the core concepts",
			Lessons: []models.Lesson{
				{ID: 1, Title: "Introduction to sports analytics", Duration: "15 min"},
				{ID: 2, Title: "Reading team statistics", Duration: "20 min"},
				{ID: 3, Title: "Probability theory basics", Duration: "25 min"},
				{ID: 4, Title: "Understanding odds and lines", Duration: "20 min"},
			},
			Details: &models.WeekDetails{
				Overview: "The first week covers the fundamentals of analysing sporting events: working with statistics, reading odds and estimating probabilities.",
				KeyPoints: []string{
					"How to collect and interpret statistical data",
					"The difference between the bookmaker margin and the real probability",
					"Basic mathematical concepts for betting",
					"Analysing team form and key indicators",
				},
				Tips: []string{
					"Start with one sport you know well",
					"Keep a table with the statistics of each team's last 10 matches",
					"Practise converting odds into probabilities without placing real bets",
				},
			},
		},
		{
			Number:      2,
			Title:       "Betting psychology",
			Description: "Emotion versus logic, discipline and control",
			Lessons: []models.Lesson{
				{ID: 5, Title: "Emotional versus probabilistic betting", Duration: "20 min"},
				{ID: 6, Title: "Cognitive bias traps", Duration: "25 min"},
				{ID: 7, Title: "Discipline and self-control", Duration: "15 min"},
				{ID: 8, Title: "Dealing with losses", Duration: "20 min"},
			},
			Details: &models.WeekDetails{
				Overview: "The second week is about the psychology of betting: how emotions drive decisions and how to keep them in check to bet rationally.",
				KeyPoints: []string{
					"Recognising emotional triggers",
					"Cognitive biases: anchoring and confirmation",
					"Self-control and discipline techniques",
					"Responding correctly to losing streaks",
				},
				Tips: []string{
					"Keep an emotion journal and note how you feel before every decision",
					"24-hour rule: wait at least a day before placing a bet",
					"Avoid betting on your favourite team, it is the main source of emotion",
				},
			},
		},
		{
			Number:      3,
			Title:       "Strategy and bankroll",
			Description: "Money management and risk management",
			Lessons: []models.Lesson{
				{ID: 9, Title: "Bankroll management basics", Duration: "25 min"},
				{ID: 10, Title: "Stake sizing: flat versus percentage", Duration: "20 min"},
				{ID: 11, Title: "The value betting strategy", Duration: "30 min"},
				{ID: 12, Title: "Risk management in practice", Duration: "25 min"},
			},
			Details: &models.WeekDetails{
				Overview: "The third week is money management: bankroll strategies and protecting capital from reckless risk.",
				KeyPoints: []string{
					"Sizing stakes optimally with the Kelly criterion",
					"Flat versus percentage stakes",
					"Value betting: finding overpriced outcomes",
					"Diversifying risk across a portfolio of bets",
				},
				Tips: []string{
					"Set aside a practice bankroll and never stake more than 1-2% per bet",
					"Record every bet in a spreadsheet to track ROI",
					"Only bet when you see at least 5-10% value",
				},
			},
		},
		{
			Number:      4,
			Title:       "Forecasts and practice",
			Description: "Building your own forecasts and practical skills",
			Lessons: []models.Lesson{
				{ID: 13, Title: "Forming your own forecast", Duration: "30 min"},
				{ID: 14, Title: "Analysing different sports", Duration: "35 min"},
				{ID: 15, Title: "Finding value in bookmaker lines", Duration: "25 min"},
				{ID: 16, Title: "Final practical test", Duration: "40 min"},
			},
			Details: &models.WeekDetails{
				Overview: "The final week is practice: combining everything into your own forecasting system and producing independent forecasts.",
				KeyPoints: []string{
					"Building your own forecasting model",
					"What is specific to football, tennis and basketball analysis",
					"Spotting mistakes in bookmaker lines",
					"Setting up a results tracking system",
				},
				Tips: []string{
					"Build a forecasting model with a weight for each factor",
					"Write down the reasoning behind every forecast",
					"Review results, see what worked and adjust your approach",
				},
			},
		},
	}

	lessons := make(map[int]int)
	for _, w := range weeks {
		for _, l := range w.Lessons {
			lessons[l.ID] = w.Number
		}
	}

	return &Curriculum{weeks: weeks, lessons: lessons}
}

// Weeks returns all weeks without their long-form details
func (c *Curriculum) Weeks() []models.Week {
	out := make([]models.Week, len(c.weeks))
	for i, w := range c.weeks {
		w.Details = nil
		out[i] = w
	}
	return out
}

// Week returns a single week with its details
func (c *Curriculum) Week(number int) (*models.Week, error) {
	for _, w := range c.weeks {
		if w.Number == number {
			week := w
			return &week, nil
		}
	}
	return nil, ErrWeekNotFound
}

// WeekOfLesson returns the week number a lesson belongs to
func (c *Curriculum) WeekOfLesson(lessonID int) (int, error) {
	week, ok := c.lessons[lessonID]
	if !ok {
		return 0, ErrLessonNotFound
	}
	return week, nil
}

// TotalLessons returns the number of lessons in the course
func (c *Curriculum) TotalLessons() int {
	return len(c.lessons)
}
