package message

import (
	"fmt"
	"strings"
)

// Fallback templates. %s is replaced with a short file listing, %d with the
// file count. The general pool always applies; a recognized theme extends it.
var generalFileTemplates = []string{
	"chore: update %s",
	"fix: adjust %s",
	"refactor: clean up %s",
	"docs: revise %s",
	"style: tidy %s",
}

var generalCountTemplates = []string{
	"chore: update %d files",
	"refactor: rework %d files",
	"fix: apply fixes across %d files",
	"chore: routine maintenance on %d files",
}

var themeFileTemplates = map[string][]string{
	"kubernetes": {
		"chore: update manifests in %s",
		"fix: correct resource definitions in %s",
	},
	"docker": {
		"chore: update container setup in %s",
		"build: adjust image configuration in %s",
	},
	"web": {
		"feat: improve page behavior in %s",
		"style: polish layout in %s",
	},
	"data": {
		"chore: refresh datasets in %s",
		"feat: extend processing in %s",
	},
}

var themeCountTemplates = map[string][]string{
	"kubernetes": {"chore: update %d manifest files"},
	"docker":     {"build: update %d container files"},
	"web":        {"feat: update %d frontend files"},
	"data":       {"chore: update %d data files"},
}

// smallFileListLimit is the file count up to which fallback messages name the
// files instead of counting them.
const smallFileListLimit = 3

// fallbackMessage builds a deterministic template message. pick selects an
// index into the pool; callers pass a random source, tests pass a constant.
func fallbackMessage(files []string, theme string, pick func(n int) int) string {
	if len(files) > 0 && len(files) <= smallFileListLimit {
		pool := generalFileTemplates
		if extra, ok := themeFileTemplates[strings.ToLower(theme)]; ok {
			pool = append(append([]string{}, pool...), extra...)
		}
		return fmt.Sprintf(pool[pick(len(pool))], strings.Join(files, ", "))
	}

	pool := generalCountTemplates
	if extra, ok := themeCountTemplates[strings.ToLower(theme)]; ok {
		pool = append(append([]string{}, pool...), extra...)
	}
	return fmt.Sprintf(pool[pick(len(pool))], len(files))
}
