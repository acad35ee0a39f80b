// Package wikiconfig loads an optional .wikidice.kdl file and merges it
// with CLI flag overrides, the way the teacher's internal/config package
// layers an optional KDL file under explicit flags.
package wikiconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// Config holds the builder driver's settings that are worth persisting
// between invocations instead of retyping as flags every time.
type Config struct {
	DBPath                string
	WikipediaLanguageCode string
	Threads               int
}

// Default returns the zero-configuration defaults: no db path set,
// language code "en", and thread count 0 ("use hardware concurrency",
// per spec §6 --threads).
func Default() *Config {
	return &Config{WikipediaLanguageCode: "en", Threads: 0}
}

// Load reads path if it exists and overlays its fields onto Default().
// A missing file is not an error — it just means "use defaults",
// matching the teacher's LoadKDL contract.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wikiconfig: read %s: %w", path, err)
	}
	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, fmt.Errorf("wikiconfig: parse %s: %w", path, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "db_path":
			if s, ok := firstStringArg(n); ok {
				cfg.DBPath = s
			}
		case "wikipedia_language_code":
			if s, ok := firstStringArg(n); ok {
				cfg.WikipediaLanguageCode = s
			}
		case "threads":
			if v, ok := firstIntArg(n); ok {
				cfg.Threads = v
			}
		}
	}
	return cfg, nil
}

// languageWhitelist mirrors original_source/src/build_category_tree.h's
// is_valid_language (declared there, body not retained in this pack): a
// fixed set of language codes the builder accepts for --wikipedia_language_code.
// Only the codes are load-bearing; the rest of the original's validation
// logic (network lookups, live whitelist refresh) is out of scope per
// spec.md's Non-goals.
var languageWhitelist = map[string]bool{
	"en": true, "de": true, "fr": true, "es": true, "it": true,
	"pt": true, "nl": true, "pl": true, "ru": true, "ja": true,
	"zh": true, "ar": true, "sv": true, "fi": true, "no": true,
	"da": true, "ko": true, "tr": true, "cs": true, "el": true,
	"he": true, "hi": true, "id": true, "vi": true, "uk": true,
}

// IsValidLanguageCode reports whether code is in the known whitelist.
func IsValidLanguageCode(code string) bool {
	return languageWhitelist[code]
}

// FindNear looks for a ".wikidice.kdl" file starting at dir and walking
// up to the filesystem root, mirroring the teacher's project-root
// detection. Returns "" if none is found.
func FindNear(dir string) string {
	const filename = ".wikidice.kdl"
	for {
		candidate := filepath.Join(dir, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	s, ok := n.Arguments[0].Value.(string)
	return s, ok
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
