package llm

import (
	"fmt"
	"strings"
)

// siteHints carries extra guidance for careers sites whose markup the
// generic prompt tends to misread. Matched against the lowercased URL.
var siteHints = []struct {
	marker string
	hint   string
}{
	{
		marker: "google",
		hint: `GOOGLE CAREERS SPECIFIC HINTS:
- Jobs are often in elements with data-job-id attributes
- Look for role="listitem" containers
- Titles are usually in h3 tags or elements with job-title classes
- Locations often have location or job-location classes`,
	},
	{
		marker: "microsoft",
		hint: `MICROSOFT CAREERS SPECIFIC HINTS:
- Jobs may be in .ms-List-cell containers
- Look for data-automation-id attributes
- Titles often have job-title classes or are in anchor tags`,
	},
}

const listPromptTemplate = `You are an expert web scraping assistant analyzing a company's job listings page.

IMPORTANT: You must analyze the HTML structure carefully and provide SPECIFIC CSS selectors.
%s
Your task is to identify CSS selectors for these elements:

1. job_item: Container for each individual job posting (div, article, li, etc.)
2. title: Job title text within each job container
3. location: Job location text within each job container
4. job_link: Clickable link that opens the full job details (usually an <a> tag with an href)
5. job_id: Unique identifier (in href URLs, data attributes, or visible text)
6. description: Brief job summary text visible on the listing page
7. pagination_next: Next page button or link

ANALYSIS STRATEGY:
- Look for repeating patterns in the HTML structure
- Common job listing patterns: class names containing "job", "position", "career", "listing"
- Look for data attributes like data-job-id or data-id
- title, location, job_link, job_id and description are resolved inside each job_item
- If an element doesn't exist, set its value to null

You MUST return ONLY a raw JSON object with no explanations or markdown:
{
  "job_item": "div.job-card",
  "title": "h2.job-title",
  "location": "span.location",
  "job_link": "a.job-link",
  "job_id": "a.job-link",
  "description": "div.job-summary",
  "pagination_next": "a.next-page"
}`

const detailPrompt = `You are an expert web scraping assistant. Analyze the provided HTML of a company's individual job detail page.
Your task is to identify the CSS selectors for the following elements on the job detail page:

1. The full job description content (key: "full_description").
2. Job requirements or qualifications section (key: "requirements").
3. Company information or about section (key: "company_info").
4. Job type (full-time, part-time, contract, etc.) (key: "job_type").
5. Experience level required (entry, mid, senior, etc.) (key: "experience_level").
6. Salary information, if available (key: "salary").
7. Application deadline, if available (key: "deadline").
8. Skills or technologies mentioned (key: "skills").

IMPORTANT NOTES:
- Focus on finding the main content areas that contain job information.
- If any element is not found or doesn't exist, set its value to null.
- Prioritize the most comprehensive selectors that capture the full content.

You MUST return ONLY a raw JSON object with no explanations or markdown:
{
  "full_description": "div.job-description",
  "requirements": "div.requirements",
  "company_info": "div.company-info",
  "job_type": "span.job-type",
  "experience_level": "span.experience",
  "salary": "div.salary-info",
  "deadline": "span.deadline",
  "skills": "div.skills"
}`

// ListPrompt builds the list selector instruction for a careers page URL
func ListPrompt(pageURL string) string {
	lower := strings.ToLower(pageURL)
	hints := ""
	for _, h := range siteHints {
		if strings.Contains(lower, h.marker) {
			hints = "\n" + h.hint + "\n"
			break
		}
	}
	return fmt.Sprintf(listPromptTemplate, hints)
}

// DetailPrompt returns the detail selector instruction
func DetailPrompt() string {
	return detailPrompt
}
