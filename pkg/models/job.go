package models

import (
	"encoding/json"
	"sort"
	"time"
)

// Field names emitted on a JobRecord besides the detail selector keys
const (
	FieldTitle              = "title"
	FieldLocation           = "location"
	FieldCompany            = "company"
	FieldJobID              = "job_id"
	FieldJobURL             = "job_url"
	FieldPreviewDescription = "preview_description"
	FieldPostedDate         = "posted_date"
	FieldDepartment         = "department"
	FieldSeniority          = "seniority"
	FieldScrapedDate        = "scraped_date"
)

// JobRecord is one extracted posting. Base fields come from the list page;
// Details holds whatever the detail page contributed. Absent values are nil
// or missing, never empty strings.
type JobRecord struct {
	Title              *string
	Location           *string
	JobID              *string
	JobURL             *string
	PreviewDescription *string
	Company            string
	Details            map[string]string
}

// Fields flattens the record into a single field map, omitting absent values
func (j JobRecord) Fields() map[string]string {
	out := make(map[string]string, 6+len(j.Details))
	for k, v := range j.Details {
		if v != "" {
			out[k] = v
		}
	}
	put := func(key string, v *string) {
		if v != nil && *v != "" {
			out[key] = *v
		}
	}
	put(FieldTitle, j.Title)
	put(FieldLocation, j.Location)
	put(FieldJobID, j.JobID)
	put(FieldJobURL, j.JobURL)
	put(FieldPreviewDescription, j.PreviewDescription)
	if j.Company != "" {
		out[FieldCompany] = j.Company
	}
	return out
}

// Get returns a flattened field value
func (j JobRecord) Get(key string) (string, bool) {
	v, ok := j.Fields()[key]
	return v, ok
}

// DetailKeys returns the detail field names in sorted order
func (j JobRecord) DetailKeys() []string {
	keys := make([]string, 0, len(j.Details))
	for k := range j.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (j JobRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.Fields())
}

// UnmarshalJSON reverses MarshalJSON: base keys fill the typed fields and
// everything else lands in Details.
func (j *JobRecord) UnmarshalJSON(data []byte) error {
	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	*j = JobRecord{Details: map[string]string{}}
	for k, v := range flat {
		v := v
		switch k {
		case FieldTitle:
			j.Title = &v
		case FieldLocation:
			j.Location = &v
		case FieldJobID:
			j.JobID = &v
		case FieldJobURL:
			j.JobURL = &v
		case FieldPreviewDescription:
			j.PreviewDescription = &v
		case FieldCompany:
			j.Company = v
		default:
			j.Details[k] = v
		}
	}
	return nil
}

// Company is one entry of the companies file
type Company struct {
	Name      string `json:"name" validate:"required"`
	CareerURL string `json:"career_url" validate:"omitempty,url"`
}

// CompanyConfiguration is a persisted selector map for one company
type CompanyConfiguration struct {
	CompanyName string      `json:"company_name"`
	Selectors   SelectorMap `json:"selectors"`
	LastUpdated time.Time   `json:"last_updated"`
}
