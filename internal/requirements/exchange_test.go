package requirements

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProfile() *Profile {
	return &Profile{
		JobTitle: "Data Engineer",
		Items: []Item{
			{Label: "Python", Weight: 0.9, Category: CoreSkills},
			{Label: "SQL", Weight: 0.8, Category: CoreSkills},
			{Label: "Airflow", Weight: 0.6, Category: TechnicalSkills},
			{Label: "3+ years building pipelines", Weight: 0.7, Category: Experience},
			{Label: "BSc in Computer Science", Weight: 0.3, Category: Education},
			{Label: "Communication", Weight: 0.5, Category: SoftSkills},
		},
	}
}

func TestMarshalJSONUsesExchangeFormat(t *testing.T) {
	data, err := json.Marshal(sampleProfile())
	require.NoError(t, err)

	want := `{"job_type":"Data Engineer","importance_weights":{` +
		`"Core skills":[{"skill":"Python","weight":0.9},{"skill":"SQL","weight":0.8}],` +
		`"Technical skills":[{"skill":"Airflow","weight":0.6}],` +
		`"Experience requirements":[{"requirement":"3+ years building pipelines","weight":0.7}],` +
		`"Education requirements":[{"requirement":"BSc in Computer Science","weight":0.3}],` +
		`"Soft skills":[{"skill":"Communication","weight":0.5}]}}`
	assert.JSONEq(t, want, string(data))
}

func TestMarshalJSONEmptyCategories(t *testing.T) {
	data, err := json.Marshal(&Profile{JobTitle: "Intern"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"job_type":"Intern","importance_weights":{
		"Core skills":[],"Technical skills":[],"Experience requirements":[],
		"Education requirements":[],"Soft skills":[]}}`, string(data))
}

func TestJSONRoundTrip(t *testing.T) {
	original := sampleProfile()

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Profile
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *original, decoded)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"profile.json", "profile.yaml", "nested/profile.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(path, sampleProfile()))

			loaded, notes, err := Load(path)
			require.NoError(t, err)
			assert.Empty(t, notes)
			assert.Equal(t, sampleProfile(), loaded)
		})
	}
}

func TestSaveYAMLIsBlockStyle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, Save(path, sampleProfile()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "job_type: Data Engineer\n")
	assert.Contains(t, string(data), "- skill: Python\n")
	assert.NotContains(t, string(data), "{")
}

func TestDecodeAdjustsModelOutput(t *testing.T) {
	doc := `{
		"job_type": "QA",
		"importance_weights": {
			"Core skills": [{"skill": "Testing", "weight": 1.4}, {"skill": "", "weight": 0.2}],
			"technical_skills": [{"skill": "Selenium", "weight": "0.6"}],
			"Hobbies": [{"skill": "Chess", "weight": 0.1}],
			"Soft skills": [{"skill": "Patience", "weight": -3}, {"skill": "patience", "weight": 0.2}]
		}
	}`

	p, notes, err := Decode([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, []Item{
		{Label: "Testing", Weight: 1, Category: CoreSkills},
		{Label: "Selenium", Weight: 0.6, Category: TechnicalSkills},
		{Label: "Patience", Weight: 0, Category: SoftSkills},
	}, p.Items)
	assert.Len(t, notes, 5)
}

func TestDecodeRejectsWrongStructure(t *testing.T) {
	cases := map[string]string{
		"missing weights":   `{"job_type": "QA"}`,
		"weights not map":   `{"job_type": "QA", "importance_weights": [1, 2]}`,
		"items not objects": `{"job_type": "QA", "importance_weights": {"Core skills": ["Go"]}}`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Decode([]byte(doc))
			var serr *StructureError
			require.ErrorAs(t, err, &serr)
			assert.NotEmpty(t, serr.Errors)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
