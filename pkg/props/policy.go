package props

import "path"

// ignoredNames are property names whose values are computed by other
// subsystems on every request. They are never stored here, so lookups
// must not hit storage for them.
var ignoredNames = map[string]struct{}{
	"{DAV:}getcontentlength":                {},
	"{DAV:}getcontenttype":                  {},
	"{DAV:}getetag":                         {},
	"{DAV:}quota-used-bytes":                {},
	"{DAV:}quota-available-bytes":           {},
	"{http://owncloud.org/ns}permissions":   {},
	"{http://owncloud.org/ns}size":          {},
	"{http://owncloud.org/ns}share-types":   {},
	"{http://nextcloud.org/ns}is-encrypted": {},
}

// publishedNames is the fixed allow-list of names served from the
// published set to users other than the writer. Everything else is
// owner-private.
var publishedNames = map[string]struct{}{
	"{urn:ietf:params:xml:ns:caldav}calendar-availability": {},
}

// IsIgnored reports whether name is on the static ignore-list.
func IsIgnored(name string) bool {
	_, ok := ignoredNames[name]
	return ok
}

// IsPublished reports whether name may be served from the published set.
func IsPublished(name string) bool {
	_, ok := publishedNames[name]
	return ok
}

// InclusionRule forces storage lookup of descriptive names at paths
// matching its pattern. Patterns are slash-separated with path.Match
// semantics per segment and must match the whole path, so
// "calendars/*/*" matches exactly the collections directly under the
// calendars root, not the root's children or the collections' items.
type InclusionRule struct {
	Pattern string
	Names   []string
}

// collectionRules keeps the per-collection-root exceptions as data so a
// new collection root is one more table row, not another conditional.
var collectionRules = []InclusionRule{
	{
		Pattern: "calendars/*/*",
		Names: []string{
			"{DAV:}displayname",
			"{urn:ietf:params:xml:ns:caldav}calendar-description",
			"{urn:ietf:params:xml:ns:caldav}calendar-timezone",
			"{http://apple.com/ns/ical/}calendar-order",
			"{http://apple.com/ns/ical/}calendar-color",
			"{urn:ietf:params:xml:ns:caldav}schedule-calendar-transp",
		},
	},
	{
		Pattern: "addressbooks/*/*",
		Names: []string{
			"{DAV:}displayname",
			"{urn:ietf:params:xml:ns:carddav}addressbook-description",
		},
	},
}

// FilterRequested reduces a requested name set to the names worth
// looking up in storage at the given path.
//
// Ignore-listed names are removed. Then, when the path denotes a
// collection resource (it matches an inclusion rule), every rule name
// present in the original requested set is re-added, whether or not an
// earlier step dropped it. An empty result means the caller performs no
// lookup at all.
//
// The input is not modified; the result preserves request order with
// re-included names appended, deduplicated.
func FilterRequested(resourcePath string, requested []string) []string {
	if len(requested) == 0 {
		return nil
	}

	effective := make([]string, 0, len(requested))
	seen := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		if IsIgnored(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		effective = append(effective, name)
	}

	for _, name := range collectionInclusions(resourcePath) {
		if _, dup := seen[name]; dup {
			continue
		}
		for _, requestedName := range requested {
			if requestedName == name {
				seen[name] = struct{}{}
				effective = append(effective, name)
				break
			}
		}
	}

	return effective
}

// collectionInclusions returns the descriptive names forced at this
// path, or nil when no rule matches.
func collectionInclusions(resourcePath string) []string {
	for _, rule := range collectionRules {
		if matchSegments(rule.Pattern, resourcePath) {
			return rule.Names
		}
	}
	return nil
}

// matchSegments matches a slash-separated pattern against a path,
// segment by segment. The segment counts must agree exactly; a leading
// slash on the path is tolerated.
func matchSegments(pattern, resourcePath string) bool {
	patternSegs := splitSegments(pattern)
	pathSegs := splitSegments(resourcePath)
	if len(patternSegs) != len(pathSegs) {
		return false
	}

	for i, seg := range patternSegs {
		ok, err := path.Match(seg, pathSegs[i])
		if err != nil || !ok {
			return false
		}
	}
	return true
}

func splitSegments(p string) []string {
	var segs []string
	start := -1
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			if start >= 0 {
				segs = append(segs, p[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		segs = append(segs, p[start:])
	}
	return segs
}
