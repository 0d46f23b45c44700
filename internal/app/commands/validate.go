package commands

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/tutur3u/discordbot/internal/app/domain"
)

var validate = validator.New()

var (
	slugPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)
	mentionPattern = regexp.MustCompile(`<@!?(\d+)>`)
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 1000
)

// requireName trims and bounds a user supplied name.
func requireName(field, raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", domain.Invalid(field, "is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", domain.Invalid(field, "must be at most %d characters", maxNameLength)
	}
	return name, nil
}

func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if err := validate.Var(raw, "required,http_url"); err != nil {
		return "", domain.Invalid("url", "must be an absolute http or https URL")
	}
	return raw, nil
}

func validateSlug(raw string) error {
	if !slugPattern.MatchString(raw) {
		return domain.Invalid("slug", "must be 3-32 characters of letters, digits, _ or -")
	}
	return nil
}

// parseDueDate accepts YYYY-MM-DD in loc. Empty input means no due date.
func parseDueDate(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return nil, domain.Invalid("end_date", "must use the YYYY-MM-DD format")
	}
	return &day, nil
}

// mentionedUserIDs extracts unique user ids from <@id> and <@!id> mentions in order.
func mentionedUserIDs(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	return lo.Uniq(lo.Map(matches, func(m []string, _ int) string { return m[1] }))
}
