package main

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/ideamans/go-l10n"
)

var (
	postHosts    = map[string]bool{"x.com": true, "twitter.com": true, "www.x.com": true, "www.twitter.com": true}
	statusPathRe = regexp.MustCompile(`^/[A-Za-z0-9_]+/status/(\d+)/?$`)
)

// parsePostRef accepts a bare post ID or a status URL such as
// https://x.com/user/status/123 and returns the ID.
func parsePostRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New(l10n.T("Post ID argument is required"))
	}
	if !strings.Contains(ref, "/") {
		return ref, nil
	}

	if !strings.Contains(ref, "://") {
		ref = "https://" + ref
	}
	u, err := url.Parse(ref)
	if err != nil || !postHosts[strings.ToLower(u.Host)] {
		return "", errors.New(l10n.F("Invalid post URL: %s", ref))
	}
	m := statusPathRe.FindStringSubmatch(u.Path)
	if m == nil {
		return "", errors.New(l10n.F("No post ID found in URL: %s", ref))
	}
	return m[1], nil
}
