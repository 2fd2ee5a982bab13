package requirements

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemValidate(t *testing.T) {
	cases := []struct {
		name string
		item Item
		want error
	}{
		{name: "valid", item: Item{Label: "Go", Weight: 0.8, Category: CoreSkills}},
		{name: "bounds", item: Item{Label: "Go", Weight: 1, Category: TechnicalSkills}},
		{name: "zero", item: Item{Label: "Go", Weight: 0, Category: SoftSkills}},
		{name: "above one", item: Item{Label: "Go", Weight: 1.5, Category: CoreSkills}, want: ErrWeightOutOfRange},
		{name: "negative", item: Item{Label: "Go", Weight: -0.1, Category: CoreSkills}, want: ErrWeightOutOfRange},
		{name: "nan", item: Item{Label: "Go", Weight: math.NaN(), Category: CoreSkills}, want: ErrWeightOutOfRange},
		{name: "blank label", item: Item{Label: "   ", Weight: 0.5, Category: CoreSkills}, want: ErrEmptyLabel},
		{name: "unknown category", item: Item{Label: "Go", Weight: 0.5, Category: "Hobbies"}, want: ErrUnknownCategory},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.item.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestProfileEdits(t *testing.T) {
	p := &Profile{JobTitle: "Backend Engineer"}

	require.NoError(t, p.AddItem(Item{Label: "Go", Weight: 0.9, Category: CoreSkills}))
	require.NoError(t, p.AddItem(Item{Label: "Teamwork", Weight: 0.4, Category: SoftSkills}))
	require.NoError(t, p.AddItem(Item{Label: "Go", Weight: 0.6, Category: TechnicalSkills}))

	err := p.AddItem(Item{Label: " go ", Weight: 0.1, Category: CoreSkills})
	assert.ErrorIs(t, err, ErrDuplicateItem)

	err = p.AddItem(Item{Label: "Rust", Weight: 2, Category: CoreSkills})
	assert.ErrorIs(t, err, ErrWeightOutOfRange)
	assert.Len(t, p.Items, 3)

	require.NoError(t, p.SetItem(CoreSkills, "go", Item{Label: "Golang", Weight: 1, Category: CoreSkills}))
	assert.Equal(t, Item{Label: "Golang", Weight: 1, Category: CoreSkills}, p.Items[0])

	err = p.SetItem(CoreSkills, "Golang", Item{Label: "Golang", Weight: 1.01, Category: CoreSkills})
	assert.ErrorIs(t, err, ErrWeightOutOfRange)
	assert.Equal(t, 1.0, p.Items[0].Weight)

	err = p.SetItem(CoreSkills, "Golang", Item{Label: "Go", Weight: 0.5, Category: TechnicalSkills})
	assert.ErrorIs(t, err, ErrDuplicateItem)

	err = p.SetItem(Education, "PhD", Item{Label: "PhD", Weight: 0.5, Category: Education})
	assert.ErrorIs(t, err, ErrItemNotFound)

	require.NoError(t, p.RemoveItem(SoftSkills, "Teamwork"))
	assert.ErrorIs(t, p.RemoveItem(SoftSkills, "Teamwork"), ErrItemNotFound)
	assert.Equal(t, []Item{
		{Label: "Golang", Weight: 1, Category: CoreSkills},
		{Label: "Go", Weight: 0.6, Category: TechnicalSkills},
	}, p.Items)

	assert.ErrorIs(t, p.RenameJob("  "), ErrEmptyJobTitle)
	require.NoError(t, p.RenameJob(" Platform Engineer "))
	assert.Equal(t, "Platform Engineer", p.JobTitle)
	assert.NoError(t, p.Validate())
}

func TestProfileValidateRejectsDuplicates(t *testing.T) {
	p := &Profile{
		JobTitle: "Analyst",
		Items: []Item{
			{Label: "SQL", Weight: 0.5, Category: TechnicalSkills},
			{Label: "sql", Weight: 0.7, Category: TechnicalSkills},
		},
	}
	assert.ErrorIs(t, p.Validate(), ErrDuplicateItem)
}

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"Core skills":             CoreSkills,
		"technical_skills":        TechnicalSkills,
		"Experience requirements": Experience,
		"EDUCATION":               Education,
		"soft-skills":             SoftSkills,
		"SoftSkills":              SoftSkills,
	}
	for in, want := range cases {
		got, ok := ParseCategory(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseCategory("Hobbies")
	assert.False(t, ok)

	for _, cat := range Categories {
		got, ok := ParseCategory(cat.ExchangeName())
		assert.True(t, ok)
		assert.Equal(t, cat, got)
	}
}
