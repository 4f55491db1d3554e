package entries

import "strings"

// DateInterval returns `start/end`, or a single date when both bounds are equal or only one is set.
func DateInterval(start, end string) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	switch {
	case start != "" && end != "" && start != end:
		return start + "/" + end
	case start != "":
		return start
	default:
		return end
	}
}

func Date(entry map[string]any) map[string]any {
	date := DateInterval(str(entry, "start"), str(entry, "end"))
	if date == "" {
		return nil
	}

	return compactMap(map[string]any{
		"date":        date,
		"type":        vocabulary(strings.ToLower(str(entry, "type"))),
		"description": str(entry, "description"),
	})
}

func Dates(legacy map[string]any) []any {
	var out []any
	for _, entry := range objects(legacy, "dates") {
		if date := Date(entry); date != nil {
			out = append(out, date)
		}
	}
	return out
}
