// Package catalog holds the read-only course content: modules, lessons,
// quizzes. It is loaded once at startup and never mutated, so lookups need
// no locking.
package catalog

import (
	"fmt"
	"math"
	"sort"
)

// Catalog is the validated, ordered course content.
type Catalog struct {
	title     string
	modules   []Module
	lessons   []Lesson
	byOrder   map[int]Lesson
	terminals map[int]int // lesson order index -> module order index it closes
}

// Title returns the course title.
func (c *Catalog) Title() string { return c.title }

// Modules returns all modules in order-index order.
func (c *Catalog) Modules() []Module {
	out := make([]Module, len(c.modules))
	copy(out, c.modules)
	return out
}

// Lessons returns all lessons in order-index order.
func (c *Catalog) Lessons() []Lesson {
	out := make([]Lesson, len(c.lessons))
	copy(out, c.lessons)
	return out
}

// LessonCount returns the number of lessons in the course.
func (c *Catalog) LessonCount() int { return len(c.lessons) }

// LessonByOrder returns the lesson with the given order index.
func (c *Catalog) LessonByOrder(orderIndex int) (Lesson, bool) {
	l, ok := c.byOrder[orderIndex]
	return l, ok
}

// TerminalModule reports whether the lesson with the given order index is
// the last lesson of its module, and if so which module it closes.
func (c *Catalog) TerminalModule(lessonOrderIndex int) (int, bool) {
	m, ok := c.terminals[lessonOrderIndex]
	return m, ok
}

// TerminalLessons returns the lesson-order -> module-order map of
// module-closing lessons.
func (c *Catalog) TerminalLessons() map[int]int {
	out := make(map[int]int, len(c.terminals))
	for k, v := range c.terminals {
		out[k] = v
	}
	return out
}

// LessonsOfModule returns the lessons belonging to the given module, in order.
func (c *Catalog) LessonsOfModule(moduleOrderIndex int) []Lesson {
	var out []Lesson
	for _, l := range c.lessons {
		if l.ModuleOrderIndex == moduleOrderIndex {
			out = append(out, l)
		}
	}
	return out
}

// Grade scores a set of selected choices against the quiz. answers maps
// question order index to the selected choice order index. Unanswered or
// unknown selections count as incorrect. The score is the rounded
// percentage of correct answers; passed is score >= PassScore.
func (q Quiz) Grade(answers map[int]int) (score int, passed bool) {
	total := len(q.Questions)
	if total == 0 {
		return 0, false
	}

	correct := 0
	for _, question := range q.Questions {
		selected, ok := answers[question.OrderIndex]
		if !ok {
			continue
		}
		for _, choice := range question.Choices {
			if choice.OrderIndex == selected && choice.IsCorrect {
				correct++
				break
			}
		}
	}

	score = int(math.Round(float64(correct) / float64(total) * 100))
	return score, score >= q.PassScore
}

// New builds a catalog from an in-memory course definition, enforcing the
// same invariants as Parse. Intended for tests and embedded content.
func New(course Course) (*Catalog, error) {
	return build(course)
}

// build orders and indexes a decoded course, enforcing the catalog
// invariants: contiguous 1..N module order, contiguous 1..N global lesson
// order, valid module references, and exactly one correct choice per
// question.
func build(course Course) (*Catalog, error) {
	if len(course.Modules) == 0 {
		return nil, fmt.Errorf("course has no modules")
	}
	if len(course.Lessons) == 0 {
		return nil, fmt.Errorf("course has no lessons")
	}

	modules := make([]Module, len(course.Modules))
	copy(modules, course.Modules)
	sort.Slice(modules, func(i, j int) bool { return modules[i].OrderIndex < modules[j].OrderIndex })

	moduleSet := make(map[int]bool, len(modules))
	for i, m := range modules {
		if m.OrderIndex != i+1 {
			return nil, fmt.Errorf("module order indexes must run 1..%d without gaps, got %d at position %d", len(modules), m.OrderIndex, i+1)
		}
		if m.Title == "" {
			return nil, fmt.Errorf("module %d has no title", m.OrderIndex)
		}
		moduleSet[m.OrderIndex] = true
	}

	lessons := make([]Lesson, len(course.Lessons))
	copy(lessons, course.Lessons)
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].OrderIndex < lessons[j].OrderIndex })

	byOrder := make(map[int]Lesson, len(lessons))
	for i := range lessons {
		l := &lessons[i]
		if l.OrderIndex != i+1 {
			return nil, fmt.Errorf("lesson order indexes must run 1..%d without gaps, got %d at position %d", len(lessons), l.OrderIndex, i+1)
		}
		if !moduleSet[l.ModuleOrderIndex] {
			return nil, fmt.Errorf("lesson %d references unknown module %d", l.OrderIndex, l.ModuleOrderIndex)
		}
		if l.ID == "" {
			l.ID = fmt.Sprintf("lesson-%02d", l.OrderIndex)
		}
		if err := validateQuiz(l.OrderIndex, l.Quiz); err != nil {
			return nil, err
		}
		byOrder[l.OrderIndex] = *l
	}

	// Lessons must not interleave modules: module order is non-decreasing
	// along the lesson sequence.
	for i := 1; i < len(lessons); i++ {
		if lessons[i].ModuleOrderIndex < lessons[i-1].ModuleOrderIndex {
			return nil, fmt.Errorf("lesson %d belongs to module %d but follows module %d", lessons[i].OrderIndex, lessons[i].ModuleOrderIndex, lessons[i-1].ModuleOrderIndex)
		}
	}

	terminals := make(map[int]int)
	for i, l := range lessons {
		if i == len(lessons)-1 || lessons[i+1].ModuleOrderIndex != l.ModuleOrderIndex {
			terminals[l.OrderIndex] = l.ModuleOrderIndex
		}
	}

	return &Catalog{
		title:     course.Title,
		modules:   modules,
		lessons:   lessons,
		byOrder:   byOrder,
		terminals: terminals,
	}, nil
}

func validateQuiz(lessonOrder int, q Quiz) error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("lesson %d has a quiz with no questions", lessonOrder)
	}
	if q.PassScore < 1 || q.PassScore > 100 {
		return fmt.Errorf("lesson %d has pass score %d, want 1-100", lessonOrder, q.PassScore)
	}

	seen := make(map[int]bool, len(q.Questions))
	for _, question := range q.Questions {
		if seen[question.OrderIndex] {
			return fmt.Errorf("lesson %d has duplicate question order index %d", lessonOrder, question.OrderIndex)
		}
		seen[question.OrderIndex] = true

		if len(question.Choices) < 2 {
			return fmt.Errorf("lesson %d question %d needs at least two choices", lessonOrder, question.OrderIndex)
		}
		correct := 0
		choiceSeen := make(map[int]bool, len(question.Choices))
		for _, choice := range question.Choices {
			if choiceSeen[choice.OrderIndex] {
				return fmt.Errorf("lesson %d question %d has duplicate choice order index %d", lessonOrder, question.OrderIndex, choice.OrderIndex)
			}
			choiceSeen[choice.OrderIndex] = true
			if choice.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("lesson %d question %d has %d correct choices, want exactly 1", lessonOrder, question.OrderIndex, correct)
		}
	}
	return nil
}
