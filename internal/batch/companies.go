// Package batch runs scout and scrape over the companies file.
package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

var validate = validator.New()

// LoadCompanies reads a JSON array of {name, career_url}. Entries without a
// name or with a malformed URL fail the whole load; an empty career_url is
// allowed and reported per company later.
func LoadCompanies(path string) ([]models.Company, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.NewNotFoundError(fmt.Sprintf("companies file %s", path)).Wrap(err)
	}

	var companies []models.Company
	if err := json.Unmarshal(data, &companies); err != nil {
		return nil, utils.NewValidationError(fmt.Sprintf("invalid companies file %s", path)).Wrap(err)
	}

	for i := range companies {
		companies[i].Name = strings.TrimSpace(companies[i].Name)
		companies[i].CareerURL = strings.TrimSpace(companies[i].CareerURL)
		if err := validate.Struct(companies[i]); err != nil {
			return nil, utils.NewValidationError(fmt.Sprintf("company #%d: %v", i+1, err))
		}
	}
	return companies, nil
}
