package domain

import (
	"net/url"
	"strings"
)

// ContentKind buckets a URL into the prompt-framing classes the orchestrator
// specializes on.
type ContentKind string

const (
	KindVideo      ContentKind = "video"
	KindSocial     ContentKind = "social"
	KindRepository ContentKind = "repository"
	KindGeneral    ContentKind = "general"
)

var videoHosts = []string{
	"youtube.com",
	"youtu.be",
	"vimeo.com",
	"twitch.tv",
	"dailymotion.com",
}

var socialHosts = []string{
	"twitter.com",
	"x.com",
	"bsky.app",
	"mastodon.social",
	"reddit.com",
	"threads.net",
	"linkedin.com",
}

var repositoryHosts = []string{
	"github.com",
	"gitlab.com",
	"bitbucket.org",
	"codeberg.org",
}

// KindOfURL classifies a URL by host. Unparsable or unrecognized URLs are
// KindGeneral; classification never fails.
func KindOfURL(raw string) ContentKind {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return KindGeneral
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))

	match := func(hosts []string) bool {
		for _, h := range hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return true
			}
		}
		return false
	}

	switch {
	case match(videoHosts):
		return KindVideo
	case match(repositoryHosts):
		return KindRepository
	case match(socialHosts):
		return KindSocial
	default:
		return KindGeneral
	}
}

// RepoSlugFromURL extracts the owner and repository name from a code-hosting
// URL. ok is false when the path does not carry both segments.
func RepoSlugFromURL(raw string) (owner, name string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	name = strings.TrimSuffix(parts[1], ".git")
	return parts[0], name, name != ""
}

// VideoIDFromURL extracts the video identifier from the common YouTube URL
// shapes. ok is false for anything else.
func VideoIDFromURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	switch {
	case host == "youtu.be":
		id := strings.Trim(u.Path, "/")
		return id, id != ""
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		if id := u.Query().Get("v"); id != "" {
			return id, true
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if strings.HasPrefix(u.Path, prefix) {
				id := strings.Trim(strings.TrimPrefix(u.Path, prefix), "/")
				if id != "" {
					return id, true
				}
			}
		}
	}
	return "", false
}
