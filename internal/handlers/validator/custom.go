package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	funk "github.com/thoas/go-funk"
)

var projectNameValidRegex = regexp.MustCompile("^[a-zA-Z0-9+-_.]+$")

// knownPlatforms is the catalog of talent sources the scanner can target.
var knownPlatforms = []string{
	"linkedin",
	"github",
	"gitlab",
	"bitbucket",
	"sourcehut",
	"stackoverflow",
	"indeed",
	"xing",
}

func projectNameValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return projectNameValidRegex.MatchString(val)
}

func jobDescriptionValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return strings.TrimSpace(val) != ""
}

func platformsValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}

	if len(val) == 0 {
		return false
	}
	for _, platform := range val {
		if !funk.ContainsString(knownPlatforms, strings.ToLower(platform)) {
			return false
		}
	}
	return true
}
