package ats

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	greenhouseJobRe = regexp.MustCompile(`/jobs/(\d+)`)
	workdayReqRe    = regexp.MustCompile(`(JR\d+)`)
)

// ParseExternalRef extracts the vendor-side job identifier from a posting
// URL. It is a pure function of the URL; an empty string means the id could
// not be derived and the adapter must rely on the full URL.
func ParseExternalRef(rawURL string) string {
	switch KindFromURL(rawURL) {
	case KindGreenhouse:
		if m := greenhouseJobRe.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
		return ""
	case KindLever:
		return leverPostingID(rawURL)
	case KindWorkday:
		if m := workdayReqRe.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
		return ""
	default:
		return ""
	}
}

// leverPostingID takes the last non-empty path segment, which Lever uses as
// the posting UUID. The trailing "apply" segment of application URLs is
// skipped.
func leverPostingID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		s := segments[i]
		if s == "" || strings.EqualFold(s, "apply") {
			continue
		}
		return s
	}
	return ""
}
