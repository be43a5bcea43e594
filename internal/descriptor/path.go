package descriptor

import (
	"net/url"
	"strings"
)

// SentinelSegment is a leading path segment that never carries a descriptor.
const SentinelSegment = "earth-view"

// FromPath extracts a candidate descriptor from a URL path. A leading segment
// equal to siteBase is dropped, a leading SentinelSegment yields "", and the
// remaining segments are joined.
func FromPath(path, siteBase string) string {
	segments := make([]string, 0, 4)
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}

	base := strings.TrimSpace(siteBase)
	if base != "" && len(segments) > 0 && segments[0] == base {
		segments = segments[1:]
	}
	if len(segments) == 0 || segments[0] == SentinelSegment {
		return ""
	}
	return strings.Join(segments, "")
}

// FromURL returns the first non-empty descriptor source of u, in order: the
// "camera" query parameter, the "code" query parameter, the fragment, the path.
func FromURL(u *url.URL, siteBase string) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	for _, key := range []string{"camera", "code"} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			return v
		}
	}
	if frag := strings.TrimSpace(strings.TrimPrefix(u.Fragment, "#")); frag != "" {
		return frag
	}
	return FromPath(u.Path, siteBase)
}

// ShareURL builds the link for a descriptor under root.
func ShareURL(root, descriptor string) string {
	root = strings.TrimRight(root, "/")
	if descriptor == "" {
		return root
	}
	return root + "/" + descriptor
}
