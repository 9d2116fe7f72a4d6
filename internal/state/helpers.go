package state

import "github.com/goccy/go-json"

// Roster groups are stored as a JSON array; no groups is an empty column.
func encodeGroups(groups []string) (string, error) {
	if len(groups) == 0 {
		return "", nil
	}
	data, err := json.Marshal(groups)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeGroups treats a corrupt column as no groups.
func decodeGroups(raw string) []string {
	var groups []string
	if raw == "" || json.Unmarshal([]byte(raw), &groups) != nil {
		return nil
	}
	return groups
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
