package phone

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/goccy/go-json"
)

// AllowList is a JSON file holding an array of phone numbers in any
// format the region understands. The file is read on every lookup so
// edits apply without a restart.
type AllowList struct {
	path   string
	region string
	logger *slog.Logger
}

func NewAllowList(path, region string, logger *slog.Logger) *AllowList {
	if logger == nil {
		logger = slog.Default()
	}
	return &AllowList{path: path, region: region, logger: logger}
}

// Numbers returns the allowed numbers in E.164 form. Entries that cannot
// be parsed are logged and left out.
func (a *AllowList) Numbers() (map[string]struct{}, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, fmt.Errorf("read allow-list: %w", err)
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse allow-list %s: %w", a.path, err)
	}

	numbers := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		n, err := International(entry, a.region)
		if err != nil {
			a.logger.Warn("Skipping allow-list entry", "entry", entry, "error", err)
			continue
		}
		numbers[n] = struct{}{}
	}
	return numbers, nil
}

// Contains reports whether number is on the list.
func (a *AllowList) Contains(number string) (bool, error) {
	want, err := International(number, a.region)
	if err != nil {
		return false, err
	}
	numbers, err := a.Numbers()
	if err != nil {
		return false, err
	}
	_, ok := numbers[want]
	return ok, nil
}
