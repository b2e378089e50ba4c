package conversation

import "strings"

// Placeholder is the instructional literal pre-filled into the bulk-entry
// block. A submitted value equal to it counts as absent.
const Placeholder = "[Enter value here]"

// ParseBulk extracts field values from one free-text block of
// "<display name>: <value>" lines. For each template field, in order, the
// first line carrying that display name and a real value wins; later
// duplicate-labeled lines are ignored. The second return value lists the
// display names still missing, in template order, for re-prompting.
//
// The format is deliberately loose - no JSON, no key=value - to keep the
// exchange conversational; a failed parse just echoes the missing fields back.
func ParseBulk(raw string, fields []string, mapping map[string]string) (map[string]string, []string) {
	lines := strings.Split(raw, "\n")

	values := make(map[string]string, len(fields))
	var missing []string
	for _, id := range fields {
		name := mapping[id]
		value, ok := findValue(lines, name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		values[id] = value
	}
	return values, missing
}

func findValue(lines []string, displayName string) (string, bool) {
	prefix := displayName + ":"
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, prefix) {
			continue
		}
		value := strings.TrimSpace(trimmed[len(prefix):])
		if value == "" || value == Placeholder {
			continue
		}
		return value, true
	}
	return "", false
}
