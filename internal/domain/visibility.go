package domain

import "strings"

// publicRequired is the fixed field set gating the private->public transition.
var publicRequired = []string{
	"name", "description", "organizer", "start_at", "end_at", "location", "image",
}

// MissingPublicFields checks every public-required field in one pass and
// returns the complete list of absent ones, so callers can report all
// deficiencies at once instead of failing on the first.
func MissingPublicFields(e *Event) []string {
	var missing []string
	for _, f := range publicRequired {
		if !publicFieldPresent(e, f) {
			missing = append(missing, f)
		}
	}
	return missing
}

func publicFieldPresent(e *Event, field string) bool {
	switch field {
	case "name":
		return strings.TrimSpace(e.Name) != ""
	case "description":
		return strings.TrimSpace(e.Description) != ""
	case "organizer":
		return strings.TrimSpace(e.OrganizerID) != ""
	case "start_at":
		return !e.StartAt.IsZero()
	case "end_at":
		return !e.EndAt.IsZero()
	case "location":
		return strings.TrimSpace(e.Location) != ""
	case "image":
		return len(e.ImageIDs) > 0
	default:
		return true
	}
}
