package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/pkg/models"
)

var longText = strings.Repeat("You will build distributed systems that matter. ", 4)

func detailPageHTML() string {
	return `<html><body>
<h1>Senior Backend Engineer</h1>
<div class="description" style="display:none">` + longText + `hidden copy</div>
<div class="job-description">` + longText + `</div>
<div class="requirements"><ul>
  <li>5+ years of experience with Go</li>
  <li>Free snacks</li>
  <li>Bachelor degree in CS</li>
</ul></div>
<p>Compensation: $120,000 - $150,000 per year. Full-time position.</p>
<span class="department">Platform Engineering</span>
<time datetime="2024-05-01">May 1</time>
</body></html>`
}

func TestHeuristicsExtractsDetailFields(t *testing.T) {
	got := HeuristicsFromHTML(detailPageHTML(), "")

	require.NotNil(t, got[models.KeyFullDescription])
	assert.NotContains(t, *got[models.KeyFullDescription], "hidden copy")
	assert.Greater(t, len(*got[models.KeyFullDescription]), minDescriptionLen)

	require.NotNil(t, got[models.KeyRequirements])
	assert.Equal(t, "5+ years of experience with Go\nBachelor degree in CS", *got[models.KeyRequirements])

	require.NotNil(t, got[models.KeySalary])
	assert.Equal(t, "$120,000 - $150,000", *got[models.KeySalary])

	assert.Equal(t, "2024-05-01", *got[models.FieldPostedDate])
	assert.Equal(t, "Platform Engineering", *got[models.FieldDepartment])
	assert.Equal(t, "Senior", *got[models.FieldSeniority])
	assert.Equal(t, "Full-time", *got[models.KeyJobType])
}

func TestHeuristicsLeavesGapsNil(t *testing.T) {
	got := HeuristicsFromHTML(`<html><body><p>Short page.</p></body></html>`, "Engineer")

	assert.Nil(t, got[models.KeyFullDescription])
	assert.Nil(t, got[models.KeyRequirements])
	assert.Nil(t, got[models.KeySalary])
	assert.Nil(t, got[models.KeyJobType])
	assert.Nil(t, got[models.FieldSeniority])
	assert.Nil(t, got[models.FieldPostedDate])
}

func TestHeuristicsRequirementsCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body><div class="requirements"><ul>`)
	for i := 0; i < 15; i++ {
		b.WriteString("<li>Required skill</li>")
	}
	b.WriteString(`</ul></div></body></html>`)

	got := HeuristicsFromHTML(b.String(), "")
	require.NotNil(t, got[models.KeyRequirements])
	assert.Len(t, strings.Split(*got[models.KeyRequirements], "\n"), maxRequirements)
}

func TestSeniorityFromTitleHint(t *testing.T) {
	got := HeuristicsFromHTML(`<html><body><h1>Engineer</h1></body></html>`, "Jr. Data Analyst")
	require.NotNil(t, got[models.FieldSeniority])
	assert.Equal(t, "Junior", *got[models.FieldSeniority])
}

func TestHeuristicsKeywordsMatchWholeWords(t *testing.T) {
	page := `<html><body><h1>Senior Accountant</h1>
<p>We are an international company with internal tools built on the internet.
Our contractors and leadership team are based in Berlin.</p></body></html>`

	got := HeuristicsFromHTML(page, "Senior Accountant")
	assert.Nil(t, got[models.KeyJobType])
	require.NotNil(t, got[models.FieldSeniority])
	assert.Equal(t, "Senior", *got[models.FieldSeniority])

	got = HeuristicsFromHTML(`<html><body><h1>International Sales Manager</h1></body></html>`, "")
	assert.Nil(t, got[models.FieldSeniority])
}

func TestInferJobTypeAndSeniority(t *testing.T) {
	tests := []struct {
		text      string
		jobType   string
		seniority string
	}{
		{text: "Summer Intern, Marketing", jobType: "Internship", seniority: "Intern"},
		{text: "12 month contract role", jobType: "Contract"},
		{text: "Part time barista", jobType: "Part-time"},
		{text: "Lead Designer", seniority: "Lead"},
		{text: "Staff Engineer, full-time", jobType: "Full-time", seniority: "Principal"},
		{text: "Graduate programme", seniority: "Entry-level"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if tt.jobType == "" {
				assert.Nil(t, inferJobType(tt.text))
			} else {
				require.NotNil(t, inferJobType(tt.text))
				assert.Equal(t, tt.jobType, *inferJobType(tt.text))
			}
			if tt.seniority == "" {
				assert.Nil(t, inferSeniority(tt.text))
			} else {
				require.NotNil(t, inferSeniority(tt.text))
				assert.Equal(t, tt.seniority, *inferSeniority(tt.text))
			}
		})
	}
}
