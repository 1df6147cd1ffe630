package region

import (
	"encoding/json"
	"strings"
)

// Region is one administrative unit as returned by the children endpoint.
type Region struct {
	ID    string `json:"administrative_id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Level string `json:"administrative_level" yaml:"level"`
}

// Committed is a region the user confirmed through the add action.
type Committed struct {
	ID    string
	Name  string
	Level string
	Code  string
}

// Tag returns the label rendered for the committed region, e.g. "Alpha (Com)".
func (c Committed) Tag() string {
	if c.Code == "" {
		return c.Name
	}
	return c.Name + " (" + c.Code + ")"
}

// Entry is the hidden field representation of a committed region.
type Entry struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// EncodeCommitted serializes committed regions into the hidden field format.
// An empty list encodes as "[]".
func EncodeCommitted(list []Committed) (string, error) {
	entries := make([]Entry, 0, len(list))
	for _, c := range list {
		entries = append(entries, Entry{Name: c.Name, ID: c.ID})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseStored extracts region ids from a hidden field seed. The seed may be a
// single id, a comma separated list, a JSON array of ids or a JSON array of
// committed entries. Blank ids are dropped and order is preserved.
func ParseStored(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var entries []Entry
		if err := json.Unmarshal([]byte(raw), &entries); err == nil {
			ids := make([]string, 0, len(entries))
			for _, e := range entries {
				ids = appendID(ids, e.ID)
			}
			return ids
		}
		var plain []string
		if err := json.Unmarshal([]byte(raw), &plain); err == nil {
			ids := make([]string, 0, len(plain))
			for _, id := range plain {
				ids = appendID(ids, id)
			}
			return ids
		}
		return nil
	}

	var ids []string
	for _, part := range strings.Split(raw, ",") {
		ids = appendID(ids, part)
	}
	return ids
}

func appendID(ids []string, id string) []string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ids
	}
	return append(ids, id)
}
