package extraction

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

const (
	minDescriptionLen = 100
	maxRequirements   = 10
)

var (
	descriptionSelectors = []string{
		"[class*='job-description']",
		"[class*='jobDescription']",
		"[class*='description']",
		"[id*='description']",
		"[class*='job-details']",
		"[class*='content']",
		"article",
		"main",
	}

	requirementSelectors = []string{
		"[class*='requirement'] li",
		"[class*='qualification'] li",
		"[id*='requirement'] li",
		"[id*='qualification'] li",
		"ul li",
		"p",
	}

	requirementKeywords = []string{
		"year", "experience", "degree", "skill", "required", "bachelor", "master",
	}

	// tried in order, the first pattern with a match wins
	salaryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[$€£]\s?\d{1,3}(?:[,.]\d{3})*(?:\.\d+)?[kK]?\s?(?:-|–|to)\s?[$€£]?\s?\d{1,3}(?:[,.]\d{3})*(?:\.\d+)?[kK]?`),
		regexp.MustCompile(`[$€£]\s?\d{1,3}(?:[,.]\d{3})+(?:\.\d+)?`),
		regexp.MustCompile(`[$€£]\s?\d+(?:\.\d+)?[kK]`),
		regexp.MustCompile(`(?i)\d{1,3}(?:[,.]\d{3})+\s?(?:USD|EUR|GBP|INR|CAD|AUD)`),
		regexp.MustCompile(`(?i)(?:USD|EUR|GBP|INR|CAD|AUD)\s?\d{1,3}(?:[,.]\d{3})+`),
	}

	postedDatePattern = regexp.MustCompile(`(?i)posted\s*(?:on)?:?\s*((?:\d+\s+(?:minute|hour|day|week|month)s?\s+ago)|today|yesterday|[A-Z][a-z]{2,8}\.?\s+\d{1,2},?\s+\d{4}|\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4})`)

	departmentSelectors = []string{
		"[class*='department']",
		"[class*='team']",
		"[data-department]",
	}

	// seniority and job type keywords match whole words only, so
	// "international" is not an intern and "contractor" is not a contract
	seniorityLevels = []labelPattern{
		{"Principal", regexp.MustCompile(`\b(?:principal|staff)\b`)},
		{"Lead", regexp.MustCompile(`\blead\b`)},
		{"Senior", regexp.MustCompile(`\b(?:senior|sr\.)`)},
		{"Junior", regexp.MustCompile(`\b(?:junior|jr\.)`)},
		{"Entry-level", regexp.MustCompile(`\b(?:entry|graduate)\b`)},
		{"Intern", regexp.MustCompile(`\b(?:intern|interns|internship)\b`)},
	}

	jobTypes = []labelPattern{
		{"Full-time", regexp.MustCompile(`\bfull[- ]time\b`)},
		{"Part-time", regexp.MustCompile(`\bpart[- ]time\b`)},
		{"Contract", regexp.MustCompile(`\bcontract\b`)},
		{"Internship", regexp.MustCompile(`\b(?:internships?|intern)\b`)},
		{"Temporary", regexp.MustCompile(`\btemporary\b`)},
		{"Freelance", regexp.MustCompile(`\bfreelance\b`)},
	}
)

type labelPattern struct {
	label   string
	pattern *regexp.Regexp
}

// Heuristics derives detail fields from a detail page without any selector
// map. Every value is nil when nothing plausible was found.
func Heuristics(doc *goquery.Document, titleHint string) map[string]*string {
	out := map[string]*string{
		models.KeyFullDescription: heuristicDescription(doc),
		models.KeyRequirements:    heuristicRequirements(doc),
		models.KeySalary:          heuristicSalary(doc),
		models.FieldPostedDate:    heuristicPostedDate(doc),
		models.FieldDepartment:    heuristicDepartment(doc),
	}

	seniorityText := titleHint + " " + doc.Find("h1").First().Text()
	out[models.FieldSeniority] = inferSeniority(seniorityText)
	out[models.KeyJobType] = inferJobType(visibleText(doc))
	return out
}

// HeuristicsFromHTML parses markup and runs Heuristics
func HeuristicsFromHTML(markup, titleHint string) map[string]*string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return map[string]*string{}
	}
	return Heuristics(doc, titleHint)
}

func heuristicDescription(doc *goquery.Document) *string {
	for _, selector := range descriptionSelectors {
		var found *string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if hidden(s) {
				return true
			}
			text := strings.TrimSpace(s.Text())
			if len(text) > minDescriptionLen {
				found = utils.CleanText(text)
				return found == nil
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

func heuristicRequirements(doc *goquery.Document) *string {
	for _, selector := range requirementSelectors {
		var matches []string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if hidden(s) {
				return true
			}
			text := utils.CleanInline(s.Text())
			if text == nil || !containsAny(strings.ToLower(*text), requirementKeywords) {
				return true
			}
			matches = append(matches, *text)
			return len(matches) < maxRequirements
		})
		if len(matches) > 0 {
			joined := strings.Join(matches, "\n")
			return &joined
		}
	}
	return nil
}

func heuristicSalary(doc *goquery.Document) *string {
	text := visibleText(doc)
	for _, pattern := range salaryPatterns {
		if m := pattern.FindString(text); m != "" {
			m = strings.TrimSpace(m)
			return &m
		}
	}
	return nil
}

func heuristicPostedDate(doc *goquery.Document) *string {
	if dt, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		if dt = strings.TrimSpace(dt); dt != "" {
			return &dt
		}
	}
	if m := postedDatePattern.FindStringSubmatch(visibleText(doc)); m != nil {
		return utils.CleanInline(m[1])
	}
	return nil
}

func heuristicDepartment(doc *goquery.Document) *string {
	for _, selector := range departmentSelectors {
		s := doc.Find(selector).First()
		if s.Length() == 0 || hidden(s) {
			continue
		}
		if v, ok := s.Attr("data-department"); ok && strings.TrimSpace(v) != "" {
			return utils.CleanInline(v)
		}
		text := utils.CleanInline(s.Text())
		if text != nil && len(*text) <= 80 {
			return text
		}
	}
	return nil
}

func inferSeniority(text string) *string {
	return firstLabel(seniorityLevels, strings.ToLower(text))
}

// inferJobType returns a job type only when a keyword is present
func inferJobType(text string) *string {
	return firstLabel(jobTypes, strings.ToLower(text))
}

// firstLabel returns the label of the first pattern matching lower
func firstLabel(rules []labelPattern, lower string) *string {
	for _, rule := range rules {
		if rule.pattern.MatchString(lower) {
			label := rule.label
			return &label
		}
	}
	return nil
}

// visibleText is the body text without script, style and hidden subtrees
func visibleText(doc *goquery.Document) string {
	body := doc.Find("body").First().Clone()
	if body.Length() == 0 {
		body = doc.Selection.Clone()
	}
	body.Find("script, style, noscript, template").Remove()
	body.Find("*").Each(func(_ int, s *goquery.Selection) {
		if hiddenSelf(s) {
			s.Remove()
		}
	})
	return strings.Join(strings.Fields(body.Text()), " ")
}

// hidden reports whether s or any ancestor is hidden by markup
func hidden(s *goquery.Selection) bool {
	if hiddenSelf(s) {
		return true
	}
	found := false
	s.Parents().EachWithBreak(func(_ int, p *goquery.Selection) bool {
		found = hiddenSelf(p)
		return !found
	})
	return found
}

func hiddenSelf(s *goquery.Selection) bool {
	if _, ok := s.Attr("hidden"); ok {
		return true
	}
	if strings.EqualFold(s.AttrOr("aria-hidden", ""), "true") {
		return true
	}
	style := strings.ReplaceAll(strings.ToLower(s.AttrOr("style", "")), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
