// Package classify assigns discovered subdomains a category and interest
// tier, and groups numbered siblings (node-1, node-2, ...) into clusters.
//
// Classify is pure: the same input always produces the same output, and no
// map iteration order reaches the result.
package classify

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/siteintel/siteintel/pkg/defaults"
)

// UnknownSource is reported for names without a recorded discovery source.
const UnknownSource = "unknown"

var digitRun = regexp.MustCompile(`[0-9]+`)

// Subdomain is one classified name.
type Subdomain struct {
	Subdomain   string `json:"subdomain"`
	Category    string `json:"category"`
	Interest    Tier   `json:"interest"`
	Opportunity string `json:"cf_opportunity"`
	Source      string `json:"source"`
}

// Cluster is a group of same-category names that differ only in embedded
// numbers. Prefix is the wildcarded stem joined to the base domain, e.g.
// "node-*.example.com".
type Cluster struct {
	Prefix   string   `json:"prefix"`
	Count    int      `json:"count"`
	Category string   `json:"category"`
	Members  []string `json:"members"`
}

// CategoryCount is the number of classified names in one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// TierStats counts classified names per interest tier.
type TierStats struct {
	High   int `json:"high_interest"`
	Medium int `json:"medium_interest"`
	Low    int `json:"low_interest"`
}

// Result is the output of Classify.
type Result struct {
	Classified []Subdomain
	Categories []CategoryCount
	Clusters   []Cluster
	Stats      TierStats
}

// Match returns the first table row whose keyword is contained in a label
// of prefix, or Default.
func Match(prefix string) Category {
	labels := Labels(prefix)
	for _, row := range Table {
		for _, label := range labels {
			for _, kw := range row.Keywords {
				if strings.Contains(label, kw) {
					return row
				}
			}
		}
	}
	return Default
}

// Labels splits prefix on dots, hyphens, underscores and whitespace and
// lower-cases the pieces.
func Labels(prefix string) []string {
	return strings.FieldsFunc(strings.ToLower(prefix), func(r rune) bool {
		return r == '.' || r == '-' || r == '_' || unicode.IsSpace(r)
	})
}

// Prefix returns name without the ".baseDomain" suffix. A name equal to
// the base domain has an empty prefix; a name outside it is returned whole.
func Prefix(name, baseDomain string) string {
	name = strings.ToLower(name)
	base := strings.ToLower(baseDomain)
	if base == "" {
		return name
	}
	if name == base {
		return ""
	}
	if p, ok := strings.CutSuffix(name, "."+base); ok {
		return p
	}
	return name
}

// Classify categorizes names under baseDomain. sources maps a name to the
// passive source that reported it. Empty and repeated names are skipped.
func Classify(names []string, sources map[string]string, baseDomain string) Result {
	res := Result{
		Classified: []Subdomain{},
		Categories: []CategoryCount{},
		Clusters:   []Cluster{},
	}

	seen := make(map[string]bool, len(names))
	inputOrder := make([]Subdomain, 0, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		cat := Match(Prefix(name, baseDomain))
		source := sources[name]
		if source == "" {
			source = UnknownSource
		}
		inputOrder = append(inputOrder, Subdomain{
			Subdomain:   name,
			Category:    cat.Name,
			Interest:    cat.Tier,
			Opportunity: cat.Opportunity,
			Source:      source,
		})
	}

	res.Clusters = clusters(inputOrder, baseDomain)

	res.Classified = slices.Clone(inputOrder)
	slices.SortStableFunc(res.Classified, func(a, b Subdomain) int {
		if c := cmp.Compare(a.Interest.Rank(), b.Interest.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(a.Subdomain, b.Subdomain)
	})

	index := make(map[string]int)
	for _, s := range res.Classified {
		i, ok := index[s.Category]
		if !ok {
			i = len(res.Categories)
			index[s.Category] = i
			res.Categories = append(res.Categories, CategoryCount{Category: s.Category})
		}
		res.Categories[i].Count++

		switch s.Interest {
		case High:
			res.Stats.High++
		case Medium:
			res.Stats.Medium++
		default:
			res.Stats.Low++
		}
	}

	return res
}

// clusters groups names by (category, wildcarded prefix). Only prefixes
// that contained digits are eligible. Groups keep input order and are
// reported in order of first appearance.
func clusters(items []Subdomain, baseDomain string) []Cluster {
	type key struct{ category, stem string }

	groups := make(map[key]*Cluster)
	var order []key
	for _, s := range items {
		prefix := Prefix(s.Subdomain, baseDomain)
		stem := digitRun.ReplaceAllString(prefix, "*")
		if stem == prefix {
			continue
		}

		k := key{s.Category, stem}
		g, ok := groups[k]
		if !ok {
			full := stem
			if baseDomain != "" {
				full = stem + "." + strings.ToLower(baseDomain)
			}
			g = &Cluster{Prefix: full, Category: s.Category}
			groups[k] = g
			order = append(order, k)
		}
		g.Members = append(g.Members, s.Subdomain)
		g.Count++
	}

	out := []Cluster{}
	for _, k := range order {
		if g := groups[k]; g.Count >= defaults.ClusterMinSize {
			out = append(out, *g)
		}
	}
	return out
}
