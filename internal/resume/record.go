// Package resume holds the structured resume record and turns resume documents into it.
package resume

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrIncompleteRecord is returned when an extracted record misses identifying fields.
var ErrIncompleteRecord = errors.New("resume record is incomplete")

var validate = validator.New()

type TechnicalSkills struct {
	ProgrammingLanguages []string `json:"programming_languages" mapstructure:"programming_languages"`
	Frameworks           []string `json:"frameworks" mapstructure:"frameworks"`
	Skills               []string `json:"skills" mapstructure:"skills"`
}

type Experience struct {
	Company     string `json:"company" mapstructure:"company"`
	Title       string `json:"title" mapstructure:"title"`
	Description string `json:"description,omitempty" mapstructure:"description"`
	StartDate   string `json:"start_date,omitempty" mapstructure:"start_date"`
	EndDate     string `json:"end_date,omitempty" mapstructure:"end_date"`
}

type Education struct {
	Institution string `json:"institution" mapstructure:"institution"`
	Degree      string `json:"degree" mapstructure:"degree"`
	StartDate   string `json:"start_date,omitempty" mapstructure:"start_date"`
	EndDate     string `json:"end_date,omitempty" mapstructure:"end_date"`
}

// Record is the fixed extraction schema for one resume.
type Record struct {
	Name                string          `json:"name" mapstructure:"name" validate:"required"`
	Phone               string          `json:"phone" mapstructure:"phone"`
	Email               string          `json:"email" mapstructure:"email" validate:"required,email"`
	Links               []string        `json:"links" mapstructure:"links"`
	Experience          []Experience    `json:"experience" mapstructure:"experience"`
	Education           []Education     `json:"education" mapstructure:"education"`
	TechnicalSkills     TechnicalSkills `json:"technical_skills" mapstructure:"technical_skills"`
	KeyAccomplishments  string          `json:"key_accomplishments" mapstructure:"key_accomplishments"`
	Certifications      []string        `json:"certifications" mapstructure:"certifications"`
	Projects            []string        `json:"projects" mapstructure:"projects"`
	Languages           []string        `json:"languages" mapstructure:"languages"`
	Interests           []string        `json:"interests" mapstructure:"interests"`
	Hobbies             []string        `json:"hobbies" mapstructure:"hobbies"`
	Awards              []string        `json:"awards" mapstructure:"awards"`
	VolunteerExperience []string        `json:"volunteer_experience" mapstructure:"volunteer_experience"`
	References          []string        `json:"references" mapstructure:"references"`
	Summary             string          `json:"summary" mapstructure:"summary"`
	Location            string          `json:"location" mapstructure:"location"`
}

// Validate requires a name and a well-formed email.
func (r *Record) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)

	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrIncompleteRecord, strings.Join(fields, ", "))
}

// Skills returns programming languages, frameworks and skills without duplicates.
func (r *Record) Skills() []string {
	seen := make(map[string]struct{})
	var out []string

	groups := [][]string{r.TechnicalSkills.ProgrammingLanguages, r.TechnicalSkills.Frameworks, r.TechnicalSkills.Skills}
	for _, group := range groups {
		for _, skill := range group {
			skill = strings.TrimSpace(skill)
			key := strings.ToLower(skill)
			if skill == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, skill)
		}
	}

	return out
}
