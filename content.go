package nostr

import (
	"regexp"
	"strings"
)

var (
	hashtagPattern = regexp.MustCompile(`#(\w+)`)
	mentionPattern = regexp.MustCompile(`@(npub1[023456789acdefghjklmnpqrstuvwxyz]+)`)
)

// ParseContentTags scans text for "#word" hashtags and "@npub1..." mentions
// and appends the corresponding tags to existing, in first-seen order,
// suppressing duplicates. It returns only the resulting tag vector; text is
// not modified, and it is not returned.
func ParseContentTags(text string, existing Tags, hashtagKey string, extractMentions, extractHashtags bool) Tags {
	tags := existing.Clone()
	seenHashtags := make(map[string]bool, len(existing))
	seenMentions := make(map[string]bool, len(existing))

	for _, t := range existing {
		if len(t) >= 2 {
			switch t[0] {
			case hashtagKey:
				seenHashtags[t[1]] = true
			case "p":
				seenMentions[t[1]] = true
			}
		}
	}

	if extractHashtags {
		for _, m := range hashtagPattern.FindAllStringSubmatch(text, -1) {
			word := strings.ToLower(m[1])
			if seenHashtags[word] {
				continue
			}
			seenHashtags[word] = true
			tags = append(tags, Tag{hashtagKey, word})
		}
	}

	if extractMentions {
		for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
			_, payload, err := DecodeBech32(m[1])
			if err != nil {
				continue
			}
			hexPub := PubKey(payload).String()
			if seenMentions[hexPub] {
				continue
			}
			seenMentions[hexPub] = true
			tags = append(tags, Tag{"p", hexPub})
		}
	}

	return tags
}
