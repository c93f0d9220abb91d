package chat

import (
	"regexp"
	"strings"
)

// linkRe matches bare URLs and domains in message text: explicit http(s)
// URLs, www-prefixed hosts, and bare hostnames ending in a recognized TLD.
var linkRe = regexp.MustCompile(`(https?://[^\s]+)|(www\.[^\s]+?\.[^\s]+)|([a-zA-Z0-9.\-]+?\.(?:com|org|net|gov|edu|io|co|uk|dev|app)[^\s]*)`)

// Segment is one run of message text: plain, or a detected link with the
// normalized target URL. Segments are rendered as terminal cells, never
// spliced into markup, so arbitrary user text cannot inject anything.
type Segment struct {
	Text string
	URL  string // empty for plain text
}

// Linkify splits text into plain and link segments. Applied to the text
// portion of messages only, never to image payloads.
func Linkify(text string) []Segment {
	var segs []Segment
	last := 0
	for _, loc := range linkRe.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			segs = append(segs, Segment{Text: text[last:loc[0]]})
		}
		raw := text[loc[0]:loc[1]]
		segs = append(segs, Segment{Text: raw, URL: normalizeURL(raw)})
		last = loc[1]
	}
	if last < len(text) {
		segs = append(segs, Segment{Text: text[last:]})
	}
	return segs
}

// FirstLink returns the first link target in text, or "".
func FirstLink(text string) string {
	for _, seg := range Linkify(text) {
		if seg.URL != "" {
			return seg.URL
		}
	}
	return ""
}

// normalizeURL prefixes schemeless matches so they open correctly.
func normalizeURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "ftp://") {
		return raw
	}
	return "http://" + raw
}
