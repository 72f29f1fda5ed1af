package cities

import (
	"sort"
	"strings"

	"github.com/goliatone/go-formguard/pkg/quote"
	"github.com/goliatone/go-formguard/pkg/validate"
)

// Option is one picker entry. Value is what the wizard's SelectCity takes.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	ZIP   string `json:"zip"`
}

func newOption(city quote.City) Option {
	return Option{Value: city.Name, Label: city.Name + " (" + city.ZIP + ")", ZIP: city.ZIP}
}

// Search filters cities by name or ZIP. Prefix matches come first, then the
// rest alphabetically. An empty query keeps display order. A non-positive
// limit returns every match.
func Search(cities []quote.City, query string, limit int) []quote.City {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return truncate(append([]quote.City{}, cities...), limit)
	}

	type match struct {
		city   quote.City
		prefix bool
	}
	matches := make([]match, 0, len(cities))
	for _, city := range cities {
		name := strings.ToLower(city.Name)
		if !strings.Contains(name, q) && !strings.HasPrefix(city.ZIP, q) {
			continue
		}
		matches = append(matches, match{
			city:   city,
			prefix: strings.HasPrefix(name, q) || strings.HasPrefix(city.ZIP, q),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].prefix != matches[j].prefix {
			return matches[i].prefix
		}
		return matches[i].city.Name < matches[j].city.Name
	})

	out := make([]quote.City, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.city)
	}
	return truncate(out, limit)
}

func truncate(cities []quote.City, limit int) []quote.City {
	if limit > 0 && len(cities) > limit {
		return cities[:limit]
	}
	return cities
}

// ZIPCheck reports whether a typed ZIP is served. City is set when the ZIP
// belongs to one of the listed cities; Message carries the validation text
// otherwise shown next to the wizard's ZIP field.
type ZIPCheck struct {
	Value   string `json:"value"`
	InArea  bool   `json:"inArea"`
	City    string `json:"city,omitempty"`
	Message string `json:"message,omitempty"`
}

// CheckZIP validates zip against area and resolves it to a city when one of
// cities uses the same five digit base.
func CheckZIP(area *validate.ServiceArea, cities []quote.City, zip string) ZIPCheck {
	zip = strings.TrimSpace(zip)
	res := area.Validate(zip)
	check := ZIPCheck{Value: zip, InArea: res.Valid, Message: res.Message}
	if !res.Valid {
		return check
	}
	base := zip[:5]
	for _, city := range cities {
		if city.ZIP == base {
			check.City = city.Name
			break
		}
	}
	return check
}
