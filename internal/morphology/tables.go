package morphology

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tables holds the override tables consulted by SuggestPlural and GetVerbForms.
type Tables struct {
	Plurals map[string]string
	Verbs   VerbOverrides
	// Skipped lists entries that were dropped because they were malformed.
	Skipped []string
}

// tablesFile is the on-disk layout:
//
//	plurals:
//	  mouse: mice
//	verbs:
//	  go: {past: went, perfect: gone, negatives: ["don't go", "didn't go"]}
type tablesFile struct {
	Plurals map[string]yaml.Node `yaml:"plurals"`
	Verbs   map[string]yaml.Node `yaml:"verbs"`
}

// EmptyTables returns tables with no overrides.
func EmptyTables() *Tables {
	return &Tables{Plurals: map[string]string{}, Verbs: VerbOverrides{}}
}

// LoadTablesFile reads override tables from a YAML file. A missing file
// yields empty tables.
func LoadTablesFile(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return EmptyTables(), nil
		}
		return nil, fmt.Errorf("open overrides: %w", err)
	}
	defer f.Close()
	return LoadTables(f)
}

// LoadTables parses override tables. Only a document that is not YAML at all
// is an error; individual malformed entries are skipped and recorded in
// Tables.Skipped so the default rule applies to them.
func LoadTables(r io.Reader) (*Tables, error) {
	var raw tablesFile
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}

	t := EmptyTables()
	for _, k := range sortedKeys(raw.Plurals) {
		node := raw.Plurals[k]
		var plural string
		if err := node.Decode(&plural); err != nil || strings.TrimSpace(plural) == "" {
			t.Skipped = append(t.Skipped, "plurals."+k)
			continue
		}
		t.Plurals[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(plural)
	}

	for _, k := range sortedKeys(raw.Verbs) {
		node := raw.Verbs[k]
		o, ok := decodeVerb(node)
		if !ok {
			t.Skipped = append(t.Skipped, "verbs."+k)
			continue
		}
		t.Verbs[strings.ToLower(strings.TrimSpace(k))] = o
	}
	return t, nil
}

// decodeVerb reads a verb entry field by field so that one bad field only
// resets that field to its default.
func decodeVerb(node yaml.Node) (VerbOverride, bool) {
	if node.Kind != yaml.MappingNode {
		return VerbOverride{}, false
	}
	var fields map[string]yaml.Node
	if err := node.Decode(&fields); err != nil {
		return VerbOverride{}, false
	}

	var o VerbOverride
	if n, ok := fields["past"]; ok {
		_ = n.Decode(&o.Past)
	}
	if n, ok := fields["perfect"]; ok {
		_ = n.Decode(&o.Perfect)
	}
	if n, ok := fields["negatives"]; ok && n.Kind == yaml.SequenceNode {
		for _, item := range n.Content {
			var neg string
			if item.Kind == yaml.ScalarNode && item.Decode(&neg) == nil && neg != "" {
				o.Negatives = append(o.Negatives, neg)
			}
		}
	}
	o.Past = strings.TrimSpace(o.Past)
	o.Perfect = strings.TrimSpace(o.Perfect)
	return o, true
}

func sortedKeys(m map[string]yaml.Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
