package models

import (
	"encoding/json"
	"strings"
)

// List-level selector keys, in the order they are requested from the model
const (
	KeyJobItem        = "job_item"
	KeyTitle          = "title"
	KeyLocation       = "location"
	KeyJobLink        = "job_link"
	KeyJobID          = "job_id"
	KeyDescription    = "description"
	KeyPaginationNext = "pagination_next"
)

// Detail-level selector keys
const (
	KeyFullDescription = "full_description"
	KeyRequirements    = "requirements"
	KeyCompanyInfo     = "company_info"
	KeyJobType         = "job_type"
	KeyExperienceLevel = "experience_level"
	KeySalary          = "salary"
	KeyDeadline        = "deadline"
	KeySkills          = "skills"
)

// ListSelectorKeys is the complete list-level key set
var ListSelectorKeys = []string{
	KeyJobItem, KeyTitle, KeyLocation, KeyJobLink, KeyJobID, KeyDescription, KeyPaginationNext,
}

// DetailSelectorKeys is the complete detail-level key set
var DetailSelectorKeys = []string{
	KeyFullDescription, KeyRequirements, KeyCompanyInfo, KeyJobType,
	KeyExperienceLevel, KeySalary, KeyDeadline, KeySkills,
}

// SelectorMap holds the list-page CSS selectors. Every key is always present
// when serialized; a nil field means the model could not identify it.
type SelectorMap struct {
	JobItem        *string `json:"job_item"`
	Title          *string `json:"title"`
	Location       *string `json:"location"`
	JobLink        *string `json:"job_link"`
	JobID          *string `json:"job_id"`
	Description    *string `json:"description"`
	PaginationNext *string `json:"pagination_next"`
}

// DetailSelectorMap holds the detail-page CSS selectors
type DetailSelectorMap struct {
	FullDescription *string `json:"full_description"`
	Requirements    *string `json:"requirements"`
	CompanyInfo     *string `json:"company_info"`
	JobType         *string `json:"job_type"`
	ExperienceLevel *string `json:"experience_level"`
	Salary          *string `json:"salary"`
	Deadline        *string `json:"deadline"`
	Skills          *string `json:"skills"`
}

// ParseSelectorMap builds a SelectorMap from a decoded model response.
// Missing keys, non-string values and blank strings become nil; unknown
// keys are ignored.
func ParseSelectorMap(raw map[string]interface{}) SelectorMap {
	return SelectorMap{
		JobItem:        selectorValue(raw, KeyJobItem),
		Title:          selectorValue(raw, KeyTitle),
		Location:       selectorValue(raw, KeyLocation),
		JobLink:        selectorValue(raw, KeyJobLink),
		JobID:          selectorValue(raw, KeyJobID),
		Description:    selectorValue(raw, KeyDescription),
		PaginationNext: selectorValue(raw, KeyPaginationNext),
	}
}

// ParseDetailSelectorMap is ParseSelectorMap for the detail key set
func ParseDetailSelectorMap(raw map[string]interface{}) DetailSelectorMap {
	return DetailSelectorMap{
		FullDescription: selectorValue(raw, KeyFullDescription),
		Requirements:    selectorValue(raw, KeyRequirements),
		CompanyInfo:     selectorValue(raw, KeyCompanyInfo),
		JobType:         selectorValue(raw, KeyJobType),
		ExperienceLevel: selectorValue(raw, KeyExperienceLevel),
		Salary:          selectorValue(raw, KeySalary),
		Deadline:        selectorValue(raw, KeyDeadline),
		Skills:          selectorValue(raw, KeySkills),
	}
}

func selectorValue(raw map[string]interface{}, key string) *string {
	s, ok := raw[key].(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}

// UnmarshalJSON applies the same lenient rules as ParseSelectorMap, so a
// stored map written by an older version still loads.
func (m *SelectorMap) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = ParseSelectorMap(raw)
	return nil
}

func (m *DetailSelectorMap) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = ParseDetailSelectorMap(raw)
	return nil
}

// Usable reports whether the map can drive extraction at all
func (m SelectorMap) Usable() bool {
	return m.JobItem != nil
}

// Found counts the non-nil selectors
func (m SelectorMap) Found() int {
	n := 0
	for _, v := range []*string{m.JobItem, m.Title, m.Location, m.JobLink, m.JobID, m.Description, m.PaginationNext} {
		if v != nil {
			n++
		}
	}
	return n
}

// DetailField pairs a detail key with its selector
type DetailField struct {
	Key      string
	Selector *string
}

// Fields returns the detail selectors in key order
func (m DetailSelectorMap) Fields() []DetailField {
	return []DetailField{
		{KeyFullDescription, m.FullDescription},
		{KeyRequirements, m.Requirements},
		{KeyCompanyInfo, m.CompanyInfo},
		{KeyJobType, m.JobType},
		{KeyExperienceLevel, m.ExperienceLevel},
		{KeySalary, m.Salary},
		{KeyDeadline, m.Deadline},
		{KeySkills, m.Skills},
	}
}

// Empty reports whether no detail selector was discovered
func (m DetailSelectorMap) Empty() bool {
	for _, f := range m.Fields() {
		if f.Selector != nil {
			return false
		}
	}
	return true
}
