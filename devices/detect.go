package devices

import (
	"strings"

	"caseforge/core"
)

type detectionRule struct {
	keywords []string
	handle   string
}

// detectionRules maps product copy to a device, ordered from most specific to
// least specific. Ordering is correctness-critical: a generic rule placed
// before a specific one would shadow it ("iphone 16" matches every Pro
// listing too).
var detectionRules = []detectionRule{
	{[]string{"iphone-16-pro-max", "iphone 16 pro max"}, "iphone-16-pro-max"},
	{[]string{"iphone-16-pro", "iphone 16 pro"}, "iphone-16-pro"},
	{[]string{"iphone-16", "iphone 16"}, "iphone-16"},
	{[]string{"iphone-15-pro", "iphone 15 pro"}, "iphone-15-pro"},
	{[]string{"iphone-15", "iphone 15"}, "iphone-15"},
	{[]string{"galaxy-s24-ultra", "galaxy s24 ultra", "s24 ultra"}, "galaxy-s24-ultra"},
	{[]string{"galaxy-s24", "galaxy s24", "s24"}, "galaxy-s24"},
	{[]string{"pixel-9-pro", "pixel 9 pro"}, "pixel-9-pro"},
}

// DetectFromProduct resolves a device from whatever product fields are
// available. All fields are optional; the first rule with any keyword found
// as a substring of the lowercased concatenation wins. No match returns
// core.ErrNotFound and the caller falls back to Default.
func DetectFromProduct(handle, title, description string) (*core.DeviceConfig, error) {
	haystack := strings.ToLower(handle + " " + title + " " + description)
	for _, rule := range detectionRules {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				return Get(rule.handle)
			}
		}
	}
	return nil, core.ErrNotFound
}
