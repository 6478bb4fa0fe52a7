// Package grocery turns the markdown grocery list produced by Gemini into
// categorized sections for the API response.
package grocery

import "strings"

const uncategorized = "Uncategorized"

type Section struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Parse groups "* item" lines under the closest preceding "### Category"
// heading. Items before any heading land in "Uncategorized". Repeated
// headings are merged, first-appearance order is kept, empty categories are
// dropped and every other line is ignored.
func Parse(markdown string) []Section {
	var order []string
	items := make(map[string][]string)

	category := uncategorized
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "###"):
			category = strings.TrimSpace(strings.TrimPrefix(line, "###"))
			if _, seen := items[category]; !seen {
				items[category] = nil
				order = append(order, category)
			}

		case strings.HasPrefix(line, "*"):
			item := strings.TrimSpace(strings.TrimPrefix(line, "*"))
			if item == "" {
				continue
			}
			if _, seen := items[category]; !seen {
				order = append(order, category)
			}
			items[category] = append(items[category], item)
		}
	}

	sections := make([]Section, 0, len(order))
	for _, name := range order {
		if len(items[name]) == 0 {
			continue
		}
		sections = append(sections, Section{Category: name, Items: items[name]})
	}
	return sections
}
