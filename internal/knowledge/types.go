// Package knowledge holds the assistant's question/answer corpus and the
// lexical matcher used to rank it against free text.
package knowledge

// QAPair is one knowledge entry.
type QAPair struct {
	ID          string   `yaml:"id" json:"id"`
	Question    string   `yaml:"question" json:"question"`
	Answer      string   `yaml:"answer" json:"answer"`
	Keywords    []string `yaml:"keywords" json:"keywords"`
	Category    string   `yaml:"category" json:"category"`
	Subcategory string   `yaml:"subcategory,omitempty" json:"subcategory,omitempty"`
	Priority    int      `yaml:"priority" json:"priority"` // 1..5, higher = more important
}

// Category groups entries for browsing.
type Category struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Description   string   `yaml:"description" json:"description"`
	Icon          string   `yaml:"icon" json:"icon"`
	Subcategories []string `yaml:"subcategories" json:"subcategories"`
}

// HasSubcategory reports whether sub is listed by the category.
func (c Category) HasSubcategory(sub string) bool {
	for _, s := range c.Subcategories {
		if s == sub {
			return true
		}
	}
	return false
}

const (
	MinPriority = 1
	MaxPriority = 5

	// highPriorityFloor is the lowest priority returned by HighPriority.
	highPriorityFloor = 4
)
