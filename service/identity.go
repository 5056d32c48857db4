package service

import (
	"strings"
	"unicode"

	"drinktab/models"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lower-cases, strips diacritics to their base Latin letters and
// trims surrounding whitespace. Vietnamese đ does not decompose to a
// combining mark, so it is mapped explicitly.
func Normalize(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	out = strings.ReplaceAll(out, "đ", "d")
	return strings.TrimSpace(out)
}

// Resolver maps loosely-specified identifiers (URL slug, tag id, ChatOps
// channel id) to canonical user records. The matching precedence lives here
// and nowhere else.
type Resolver struct {
	tagSuffix string
}

// NewResolver creates a resolver aware of the org tag suffix
func NewResolver(tagSuffix string) *Resolver {
	return &Resolver{tagSuffix: tagSuffix}
}

// StripTagSuffix removes the org suffix from a tag id if present
func (r *Resolver) StripTagSuffix(tagID string) string {
	if r.tagSuffix != "" && strings.HasSuffix(strings.ToLower(tagID), strings.ToLower(r.tagSuffix)) {
		return tagID[:len(tagID)-len(r.tagSuffix)]
	}
	return tagID
}

// Resolve finds the unique user matching a raw identifier. Precedence:
// exact id, then tag id (raw, lower-cased, lower-cased plus suffix), then
// channel id (raw or lower-cased). First match wins; nil when nothing
// matches, leaving the caller free to treat the identifier as a literal
// bill owner key.
func (r *Resolver) Resolve(raw string, users []*models.User) *models.User {
	if raw == "" {
		return nil
	}
	clean := strings.ToLower(raw)
	suffixed := clean + strings.ToLower(r.tagSuffix)

	for _, u := range users {
		if u.ID == raw {
			return u
		}
	}
	for _, u := range users {
		if u.TagID == "" {
			continue
		}
		tag := strings.ToLower(u.TagID)
		if u.TagID == raw || tag == clean || tag == suffixed {
			return u
		}
	}
	for _, u := range users {
		if u.ChatOpsChannelID == "" {
			continue
		}
		if u.ChatOpsChannelID == raw || strings.ToLower(u.ChatOpsChannelID) == clean {
			return u
		}
	}
	return nil
}

// suggest ranks, highest first
const (
	rankTagExact = iota
	rankNamePrefix
	rankTagPrefix
	rankNameSubstring
	rankTagSubstring
	rankNone
)

// Suggest returns users ranked for an interactive picker: exact
// suffix-stripped tag match, then name prefix, tag prefix, name substring,
// tag substring. Ties keep the input order. Result is capped at limit.
func (r *Resolver) Suggest(query string, users []*models.User, limit int) []*models.User {
	q := Normalize(query)
	if q == "" || limit <= 0 {
		return nil
	}

	buckets := make([][]*models.User, rankNone)
	for _, u := range users {
		name := Normalize(u.UserName)
		tag := Normalize(r.StripTagSuffix(u.TagID))

		rank := rankNone
		switch {
		case tag != "" && tag == q:
			rank = rankTagExact
		case name != "" && strings.HasPrefix(name, q):
			rank = rankNamePrefix
		case tag != "" && strings.HasPrefix(tag, q):
			rank = rankTagPrefix
		case name != "" && strings.Contains(name, q):
			rank = rankNameSubstring
		case tag != "" && strings.Contains(tag, q):
			rank = rankTagSubstring
		}
		if rank != rankNone {
			buckets[rank] = append(buckets[rank], u)
		}
	}

	var result []*models.User
	for _, bucket := range buckets {
		for _, u := range bucket {
			if len(result) == limit {
				return result
			}
			result = append(result, u)
		}
	}
	return result
}
