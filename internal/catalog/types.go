package catalog

// Course is the root of the content document.
type Course struct {
	Title   string   `yaml:"title" json:"title"`
	Modules []Module `yaml:"modules" json:"modules"`
	Lessons []Lesson `yaml:"lessons" json:"lessons"`
}

// Module groups an ordered run of lessons.
type Module struct {
	OrderIndex  int    `yaml:"order_index" json:"order_index"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// Lesson is one step of the linear course sequence.
type Lesson struct {
	ID               string  `yaml:"id" json:"id"`
	OrderIndex       int     `yaml:"order_index" json:"order_index"`
	ModuleOrderIndex int     `yaml:"module_order_index" json:"module_order_index"`
	Title            string  `yaml:"title" json:"title"`
	TimeMinutes      int     `yaml:"time_minutes" json:"time_minutes"`
	Overview         string  `yaml:"overview" json:"overview"`
	Content          Content `yaml:"content" json:"content"`
	Quiz             Quiz    `yaml:"quiz" json:"quiz"`
}

// Content is the lesson body. The engine never interprets it.
type Content struct {
	Bullets   []string `yaml:"bullets" json:"bullets"`
	Example   string   `yaml:"example" json:"example"`
	Takeaways []string `yaml:"takeaways" json:"takeaways"`
}

// Quiz gates progression past its lesson.
type Quiz struct {
	PassScore int        `yaml:"pass_score" json:"pass_score"`
	Questions []Question `yaml:"questions" json:"questions"`
}

// Question is a single-answer multiple choice item.
type Question struct {
	OrderIndex  int      `yaml:"order_index" json:"order_index"`
	Prompt      string   `yaml:"prompt" json:"prompt"`
	Explanation string   `yaml:"explanation" json:"explanation"`
	Choices     []Choice `yaml:"choices" json:"choices"`
}

// Choice is one answer option. Exactly one choice per question is correct.
type Choice struct {
	OrderIndex int    `yaml:"order_index" json:"order_index"`
	Text       string `yaml:"text" json:"text"`
	IsCorrect  bool   `yaml:"is_correct" json:"-"`
}
