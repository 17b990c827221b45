package course

import (
	"sort"
	"sync"

	"github.com/cypherlabdev/stake-calculator-service/internal/models"
)

// ProgressTracker records which lessons the learner has completed
type ProgressTracker struct {
	curriculum *Curriculum
	mu         sync.RWMutex
	completed  map[int]struct{}
}

// NewProgressTracker creates a tracker with no completed lessons
func NewProgressTracker(curriculum *Curriculum) *ProgressTracker {
	return &ProgressTracker{
		curriculum: curriculum,
		completed:  make(map[int]struct{}),
	}
}

// Toggle flips the completion of a lesson and reports whether it is now completed
func (p *ProgressTracker) Toggle(lessonID int) (bool, error) {
	if _, err := p.curriculum.WeekOfLesson(lessonID); err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.completed[lessonID]; ok {
		delete(p.completed, lessonID)
		return false, nil
	}
	p.completed[lessonID] = struct{}{}
	return true, nil
}

// IsCompleted reports whether a lesson is completed
func (p *ProgressTracker) IsCompleted(lessonID int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.completed[lessonID]
	return ok
}

// Progress summarises completion overall and per week
func (p *ProgressTracker) Progress() models.Progress {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]int, 0, len(p.completed))
	for id := range p.completed {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	weeks := p.curriculum.Weeks()
	perWeek := make([]models.WeekProgress, 0, len(weeks))
	for _, w := range weeks {
		done := 0
		for _, l := range w.Lessons {
			if _, ok := p.completed[l.ID]; ok {
				done++
			}
		}
		perWeek = append(perWeek, models.WeekProgress{
			Week:      w.Number,
			Completed: done,
			Total:     len(w.Lessons),
			Percent:   percent(done, len(w.Lessons)),
		})
	}

	total := p.curriculum.TotalLessons()
	return models.Progress{
		CompletedLessons: ids,
		Completed:        len(ids),
		Total:            total,
		Percent:          percent(len(ids), total),
		Weeks:            perWeek,
	}
}

func percent(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}
