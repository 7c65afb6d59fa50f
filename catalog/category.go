package catalog

import (
	"fmt"
	"strings"

	models "github.com/phillip/eventhub-go/models"
)

type Type string

const (
	Hackathon Type = "Hackathon"
	Workshop  Type = "Workshop"
	Codethon  Type = "Codethon"
	Cultural  Type = "Cultural"
	Other     Type = "Other"
)

// Types lists every category in match priority order. Other is last and
// matches whatever the keyword buckets do not.
var Types = []Type{Hackathon, Workshop, Codethon, Cultural, Other}

var typeKeywords = []struct {
	typ      Type
	keywords []string
}{
	{Hackathon, []string{"hackathon"}},
	{Workshop, []string{"workshop"}},
	{Codethon, []string{"codethon"}},
	{Cultural, []string{"cultural", "culture"}},
}

// ClassifyType buckets an event by keyword in its name. The first matching
// bucket wins, so "Annual Cultural Workshop" is a Workshop.
func ClassifyType(ev models.Event) Type {
	name := strings.ToLower(ev.Name)
	for _, b := range typeKeywords {
		for _, kw := range b.keywords {
			if strings.Contains(name, kw) {
				return b.typ
			}
		}
	}
	return Other
}

// ParseType resolves a category name case-insensitively.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown event type %q", s)
}
