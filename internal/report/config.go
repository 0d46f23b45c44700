package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/tutur3u/discordbot/internal/app/domain"
	"github.com/tutur3u/discordbot/internal/config"
)

// DefaultTimezone is used when the configured zone is empty or unknown.
const DefaultTimezone = "Asia/Ho_Chi_Minh"

type Format string

const (
	FormatSummary  Format = "summary"
	FormatDetailed Format = "detailed"
)

// Config is the validated daily report configuration.
type Config struct {
	ChannelID    string
	WorkspaceID  string
	SkipWeekends bool
	Format       Format
	Location     *time.Location
}

// NewConfig validates raw settings. Missing channel or workspace is an error naming the variable;
// unknown formats and zones fall back to defaults.
func NewConfig(raw config.ReportConfig) (Config, error) {
	channel := strings.TrimSpace(raw.Channel)
	if channel == "" {
		return Config{}, fmt.Errorf("%w: DISCORD_DAILY_REPORT_CHANNEL (or DISCORD_ANNOUNCEMENT_CHANNEL) is not set", domain.ErrServerConfiguration)
	}
	workspace := strings.TrimSpace(raw.WorkspaceID)
	if workspace == "" {
		return Config{}, fmt.Errorf("%w: DISCORD_DAILY_REPORT_WORKSPACE_ID is not set", domain.ErrServerConfiguration)
	}

	return Config{
		ChannelID:    channel,
		WorkspaceID:  workspace,
		SkipWeekends: ParseSkipWeekends(raw.SkipWeekends),
		Format:       ParseFormat(raw.Format),
		Location:     LoadLocation(raw.Timezone),
	}, nil
}

// ParseSkipWeekends accepts true, 1 and yes. An empty value keeps the default of true.
func ParseSkipWeekends(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return true
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func ParseFormat(raw string) Format {
	if Format(strings.ToLower(strings.TrimSpace(raw))) == FormatDetailed {
		return FormatDetailed
	}
	return FormatSummary
}

// LoadLocation resolves an IANA zone, falling back to DefaultTimezone and then UTC.
func LoadLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.FixedZone("GMT+7", 7*60*60)
}
