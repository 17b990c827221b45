package service

import (
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/stake-calculator-service/internal/course"
	"github.com/cypherlabdev/stake-calculator-service/internal/metrics"
	"github.com/cypherlabdev/stake-calculator-service/internal/models"
)

// CourseService serves the curriculum, the lesson checklist and the practice quiz
type CourseService struct {
	curriculum *course.Curriculum
	progress   *course.ProgressTracker

	quizMu sync.Mutex
	quiz   *course.Quiz

	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewCourseService creates a course service with fresh progress and quiz state
func NewCourseService(m *metrics.Metrics, logger zerolog.Logger) *CourseService {
	curriculum := course.NewCurriculum()
	return &CourseService{
		curriculum: curriculum,
		progress:   course.NewProgressTracker(curriculum),
		quiz:       course.NewQuiz(course.Exercises()),
		metrics:    m,
		logger:     logger.With().Str("component", "course_service").Logger(),
	}
}

// Weeks lists the course weeks
func (s *CourseService) Weeks() []models.Week {
	return s.curriculum.Weeks()
}

// Week returns one week with its details
func (s *CourseService) Week(number int) (*models.Week, error) {
	return s.curriculum.Week(number)
}

// ToggleLesson flips a lesson's completion and returns the updated progress
func (s *CourseService) ToggleLesson(lessonID int) (bool, models.Progress, error) {
	completed, err := s.progress.Toggle(lessonID)
	if err != nil {
		return false, models.Progress{}, err
	}

	state := "open"
	if completed {
		state = "completed"
	}
	s.metrics.LessonToggles.WithLabelValues(state).Inc()

	progress := s.progress.Progress()
	s.logger.Debug().
		Int("lesson_id", lessonID).
		Bool("completed", completed).
		Float64("progress_pct", progress.Percent).
		Msg("toggled lesson")

	return completed, progress, nil
}

// Progress returns the learner's progress
func (s *CourseService) Progress() models.Progress {
	return s.progress.Progress()
}

// QuizState returns the current quiz snapshot
func (s *CourseService) QuizState() models.QuizState {
	s.quizMu.Lock()
	defer s.quizMu.Unlock()
	return s.quiz.State()
}

// AnswerQuiz submits an answer for the current exercise
func (s *CourseService) AnswerQuiz(answer string) (*models.AnswerResult, error) {
	s.quizMu.Lock()
	defer s.quizMu.Unlock()

	res, err := s.quiz.Answer(answer)
	if err != nil {
		return nil, err
	}

	s.metrics.QuizAnswers.WithLabelValues(strconv.FormatBool(res.Correct)).Inc()
	s.logger.Debug().
		Int("exercise_id", res.ExerciseID).
		Bool("correct", res.Correct).
		Int("score", res.Score).
		Msg("quiz answer submitted")

	return res, nil
}

// NextExercise advances the quiz
func (s *CourseService) NextExercise() (models.QuizState, error) {
	s.quizMu.Lock()
	defer s.quizMu.Unlock()

	if err := s.quiz.Next(); err != nil {
		return models.QuizState{}, err
	}
	return s.quiz.State(), nil
}

// ResetQuiz starts the quiz again
func (s *CourseService) ResetQuiz() models.QuizState {
	s.quizMu.Lock()
	defer s.quizMu.Unlock()

	s.quiz.Reset()
	return s.quiz.State()
}
