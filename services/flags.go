package services

import (
	"log"
	"regexp"
	"strings"

	"ctf-learning-platform/models"
)

// CheckFlag reports whether a submitted string satisfies a single flag.
// Inactive flags never match. A malformed regex pattern is a content
// configuration defect, not a player error: it is logged and treated
// as a non-match.
func CheckFlag(flag *models.Flag, submitted string) bool {
	if !flag.IsActive {
		return false
	}

	switch flag.FlagType {
	case models.FlagTypeExact:
		return strings.TrimSpace(submitted) == strings.TrimSpace(flag.FlagValue)

	case models.FlagTypeRegex:
		pattern := flag.FlagValue
		// Anchor at the start; patterns may still match a prefix of the
		// submission, same as the platform always behaved.
		if !strings.HasPrefix(pattern, "^") {
			pattern = "^(?:" + pattern + ")"
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			log.Printf("⚠️ [FLAGS] Malformed regex on flag %s: %v", flag.ID, err)
			return false
		}
		return re.MatchString(strings.TrimSpace(submitted))

	case models.FlagTypeContains:
		return strings.Contains(strings.ToLower(submitted), strings.ToLower(flag.FlagValue))
	}

	return false
}

// MatchFlag returns the first flag in evaluation order that accepts the
// submission, or nil if none do. Callers must pass flags pre-sorted
// (created_at ASC, id ASC) so the winner is deterministic; later flags
// are not evaluated once one matches.
func MatchFlag(flags []models.Flag, submitted string) *models.Flag {
	for i := range flags {
		if CheckFlag(&flags[i], submitted) {
			return &flags[i]
		}
	}
	return nil
}
