package github

import (
	"encoding/json"
	"strings"
	"unicode"
)

// MaxTechStack caps the tech-stack list on every project.
const MaxTechStack = 10

// maxTopicTags is how many repository topics may join the tech stack.
const maxTopicTags = 5

// Manifests holds the manifest files probed from a repository. A nil slice /
// false flag means "that file isn't there" — a normal answer for most repos.
type Manifests struct {
	PackageJSON     []byte
	RequirementsTxt []byte
	HasGoMod        bool
	HasCargoToml    bool
}

// DETECTION TABLES:
// Each table is an explicit, ORDERED list of (marker → tag) pairs. Order
// matters because the final tech-stack list preserves discovery order, and
// tests pin it. Adding a framework is adding one row — no code changes.

// nodeDependencyTags maps package.json dependency names to display tags.
var nodeDependencyTags = []struct {
	Dep string
	Tag string
}{
	{"next", "Next.js"},
	{"react", "React"},
	{"vue", "Vue"},
	{"@angular/core", "Angular"},
	{"express", "Express"},
	{"tailwindcss", "Tailwind CSS"},
	{"typescript", "TypeScript"},
	{"@supabase/supabase-js", "Supabase"},
	{"prisma", "Prisma"},
	{"mongoose", "MongoDB"},
}

// pythonRequirementTags maps substrings of requirements.txt to display tags.
// Substring matching is deliberately loose — "django==4.2" and
// "django-rest-framework" both count as Django, matching the original
// heuristic's behaviour.
var pythonRequirementTags = []struct {
	Marker string
	Tag    string
}{
	{"django", "Django"},
	{"flask", "Flask"},
	{"fastapi", "FastAPI"},
}

// packageJSON is the slice of a package manifest we inspect. Versions and
// everything else are irrelevant; only the dependency NAMES matter.
type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// DetectTechStack inspects the fetched manifests and returns technology tags
// in discovery order.
//
// This function is pure — no network, no clock — so the heuristic is
// unit-testable with literal manifest bytes. The Client gathers the
// Manifests; this decides what they mean.
func DetectTechStack(m Manifests) []string {
	var stack []string

	if len(m.PackageJSON) > 0 {
		var pkg packageJSON
		// A malformed package.json yields no Node tags, nothing more —
		// detection failures never fail an import.
		if err := json.Unmarshal(m.PackageJSON, &pkg); err == nil {
			for _, row := range nodeDependencyTags {
				if _, ok := pkg.Dependencies[row.Dep]; ok {
					stack = append(stack, row.Tag)
					continue
				}
				if _, ok := pkg.DevDependencies[row.Dep]; ok {
					stack = append(stack, row.Tag)
				}
			}
		}
	}

	if len(m.RequirementsTxt) > 0 {
		stack = append(stack, "Python")
		content := strings.ToLower(string(m.RequirementsTxt))
		for _, row := range pythonRequirementTags {
			if strings.Contains(content, row.Marker) {
				stack = append(stack, row.Tag)
			}
		}
	}

	if m.HasGoMod {
		stack = append(stack, "Go")
	}
	if m.HasCargoToml {
		stack = append(stack, "Rust")
	}

	return stack
}

// BuildTechStack assembles the final tech-stack list for an imported repo:
//
//  1. The repo's primary language goes FIRST (if not already detected)
//  2. Then the manifest-detected tags, in table order
//  3. Then up to 5 of the repo's topics, title-cased, skipping duplicates
//  4. The whole list is capped at MaxTechStack entries
//
// De-duplication is by exact string match and insertion order always wins —
// the first discovery of a technology keeps its slot.
func BuildTechStack(detected []string, language string, topics []string) []string {
	stack := make([]string, 0, MaxTechStack)
	seen := make(map[string]bool, MaxTechStack)

	add := func(tag string) {
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		stack = append(stack, tag)
	}

	add(language)
	for _, tag := range detected {
		add(tag)
	}

	// Only the first 5 topics are CONSIDERED; duplicates among them are
	// skipped rather than replaced by later topics.
	for i, topic := range topics {
		if i >= maxTopicTags {
			break
		}
		add(titleCase(topic))
	}

	if len(stack) > MaxTechStack {
		stack = stack[:MaxTechStack]
	}
	return stack
}

// titleCase upper-cases the first rune only: "machine-learning" →
// "Machine-learning". Matches the original's single-character capitalization,
// not a full word-by-word title case.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
