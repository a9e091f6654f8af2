package models

import "encoding/json"

// PageData is the document the archive embeds in the edit page: the draft under
// edit plus the suggestion lists for the tag inputs. Mod stays raw until the
// schema has normalized it.
type PageData struct {
	Mod      json.RawMessage `json:"mod"`
	Authors  []Suggestion    `json:"authors"`
	GameVsns []Suggestion    `json:"game_vsns"`
}

type Suggestion struct {
	ID   *int64 `json:"id,omitempty"`
	Name string `json:"name"`
}

func SuggestionNames(suggestions []Suggestion) []string {
	names := make([]string, 0, len(suggestions))
	for _, suggestion := range suggestions {
		if suggestion.Name == "" {
			continue
		}
		names = append(names, suggestion.Name)
	}
	return names
}
