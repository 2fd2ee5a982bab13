// Package requirements models weighted job requirement profiles and the operations
// that create and edit them.
package requirements

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Category groups requirement items.
type Category string

const (
	CoreSkills      Category = "CoreSkills"
	TechnicalSkills Category = "TechnicalSkills"
	Experience      Category = "Experience"
	Education       Category = "Education"
	SoftSkills      Category = "SoftSkills"
)

// Categories lists every category in display order.
var Categories = []Category{CoreSkills, TechnicalSkills, Experience, Education, SoftSkills}

var (
	ErrWeightOutOfRange = errors.New("weight must be between 0 and 1")
	ErrEmptyLabel       = errors.New("label must not be empty")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrDuplicateItem    = errors.New("item already exists in category")
	ErrItemNotFound     = errors.New("item not found")
	ErrEmptyJobTitle    = errors.New("job title must not be empty")
)

var validate = validator.New()

// Item is a single scoring criterion. Within a profile, (Category, Label) identifies one slot.
type Item struct {
	Label    string   `json:"label" yaml:"label" validate:"required"`
	Weight   float64  `json:"weight" yaml:"weight" validate:"gte=0,lte=1"`
	Category Category `json:"category" yaml:"category" validate:"oneof=CoreSkills TechnicalSkills Experience Education SoftSkills"`
}

// Profile is the weighted benchmark used to score resumes for one job title.
// Items keep insertion order for display.
type Profile struct {
	JobTitle string
	Items    []Item
}

// Validate checks the item invariants and reports the first violation as one of the
// package sentinel errors.
func (i Item) Validate() error {
	i.Label = strings.TrimSpace(i.Label)

	err := validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	switch fe := verrs[0]; fe.Field() {
	case "Weight":
		return fmt.Errorf("%w: got %v", ErrWeightOutOfRange, i.Weight)
	case "Label":
		return ErrEmptyLabel
	case "Category":
		return fmt.Errorf("%w: %q", ErrUnknownCategory, i.Category)
	default:
		return err
	}
}

// IsSkill reports whether items of the category are named "skill" in the exchange format.
func (c Category) IsSkill() bool {
	return c == CoreSkills || c == TechnicalSkills || c == SoftSkills
}

// Find returns the index of the slot identified by category and label, or -1.
// Labels are compared case-insensitively after trimming.
func (p *Profile) Find(cat Category, label string) int {
	label = strings.TrimSpace(label)
	for idx, item := range p.Items {
		if item.Category == cat && strings.EqualFold(strings.TrimSpace(item.Label), label) {
			return idx
		}
	}
	return -1
}

// AddItem appends a new item. Invalid items and duplicate slots are rejected.
func (p *Profile) AddItem(item Item) error {
	item.Label = strings.TrimSpace(item.Label)
	if err := item.Validate(); err != nil {
		return err
	}

	if p.Find(item.Category, item.Label) != -1 {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateItem, item.Category, item.Label)
	}

	p.Items = append(p.Items, item)
	return nil
}

// SetItem replaces the item stored in the slot (cat, label), keeping its position.
// The replacement may move the item to another slot as long as that slot is free.
func (p *Profile) SetItem(cat Category, label string, item Item) error {
	idx := p.Find(cat, label)
	if idx == -1 {
		return fmt.Errorf("%w: %s/%s", ErrItemNotFound, cat, strings.TrimSpace(label))
	}

	item.Label = strings.TrimSpace(item.Label)
	if err := item.Validate(); err != nil {
		return err
	}

	if other := p.Find(item.Category, item.Label); other != -1 && other != idx {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateItem, item.Category, item.Label)
	}

	p.Items[idx] = item
	return nil
}

// RemoveItem deletes the slot (cat, label), preserving the order of the remaining items.
func (p *Profile) RemoveItem(cat Category, label string) error {
	idx := p.Find(cat, label)
	if idx == -1 {
		return fmt.Errorf("%w: %s/%s", ErrItemNotFound, cat, strings.TrimSpace(label))
	}

	p.Items = append(p.Items[:idx], p.Items[idx+1:]...)
	return nil
}

// RenameJob changes the job title.
func (p *Profile) RenameJob(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyJobTitle
	}
	p.JobTitle = title
	return nil
}

// ByCategory returns the items of one category in display order.
func (p *Profile) ByCategory(cat Category) []Item {
	var items []Item
	for _, item := range p.Items {
		if item.Category == cat {
			items = append(items, item)
		}
	}
	return items
}

// Validate checks the job title and every item, including slot uniqueness.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.JobTitle) == "" {
		return ErrEmptyJobTitle
	}

	seen := make(map[string]struct{}, len(p.Items))
	for idx, item := range p.Items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", idx, err)
		}
		key := string(item.Category) + "\x00" + strings.ToLower(strings.TrimSpace(item.Label))
		if _, ok := seen[key]; ok {
			return fmt.Errorf("item %d: %w: %s/%s", idx, ErrDuplicateItem, item.Category, item.Label)
		}
		seen[key] = struct{}{}
	}

	return nil
}

// ParseCategory accepts canonical names as well as the exchange-format names,
// ignoring case, spaces, underscores, hyphens and a trailing "requirements".
func ParseCategory(s string) (Category, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	key = strings.TrimSuffix(key, "requirements")
	key = strings.TrimSuffix(key, "requirement")

	switch key {
	case "coreskills", "core":
		return CoreSkills, true
	case "technicalskills", "technical":
		return TechnicalSkills, true
	case "experience":
		return Experience, true
	case "education":
		return Education, true
	case "softskills", "soft":
		return SoftSkills, true
	default:
		return "", false
	}
}

// ExchangeName returns the category key used in the exchange format.
func (c Category) ExchangeName() string {
	switch c {
	case CoreSkills:
		return "Core skills"
	case TechnicalSkills:
		return "Technical skills"
	case Experience:
		return "Experience requirements"
	case Education:
		return "Education requirements"
	case SoftSkills:
		return "Soft skills"
	default:
		return string(c)
	}
}
