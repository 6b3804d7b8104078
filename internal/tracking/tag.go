// Package tracking reads and rewrites the Google Analytics beacon embedded in
// partner listing templates.
//
// The beacon has a single fixed shape,
//
//	<img src="https://ga-beacon.appspot.com/{ID}/{destination}/{sellerName}/{{itemid}}.gif">
//
// so it is handled as a string transform rather than by parsing HTML:
// ExtractTagID maps a template to the ID it carries and BuildTag maps an ID
// back to the markup.
package tracking

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

const (
	beaconHost = "https://ga-beacon.appspot.com"

	// ItemPlaceholder is expanded by the partner per listing.
	ItemPlaceholder = "{{itemid}}"
)

// tagPattern matches the first beacon, any case. Group 1 is the tracking ID.
var tagPattern = regexp.MustCompile(`(?i)<img src="https://ga-beacon\.appspot\.com/([^/"\s]+)/[^"]*">`)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// ErrInvalidTrackingID is returned for IDs that could not be read back out
// of the tag they would produce.
var ErrInvalidTrackingID = errors.New("tracking: invalid tracking id")

// ValidateTrackingID accepts the empty ID (tracking disabled) and IDs made
// of letters, digits, '.', '_' and '-'.
func ValidateTrackingID(id string) error {
	if id == "" || idPattern.MatchString(id) {
		return nil
	}
	return ErrInvalidTrackingID
}

// ExtractTagID returns the tracking ID of the first beacon in template.
func ExtractTagID(template string) (string, bool) {
	m := tagPattern.FindStringSubmatch(template)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// BuildTag returns the beacon markup for id. Destination and seller name are
// path escaped so the tag always matches tagPattern.
func BuildTag(id, destination, sellerName string) string {
	return `<img src="` + beaconHost +
		"/" + id +
		"/" + url.PathEscape(destination) +
		"/" + url.PathEscape(sellerName) +
		"/" + ItemPlaceholder + `.gif">`
}

// RemoveTag deletes every beacon from template in place. Surrounding text,
// whitespace included, is left as it was.
func RemoveTag(template string) string {
	return tagPattern.ReplaceAllLiteralString(template, "")
}

// RewriteTemplate returns the account template with its beacon replaced by
// one for newID, or only removed when newID is empty. Trailing whitespace
// left by the removal is folded into the single newline that precedes the
// appended tag, so repeated rewrites with the same ID are no-ops.
func RewriteTemplate(account Account, newID string) string {
	stripped := RemoveTag(account.Template)
	if newID == "" {
		return stripped
	}

	tag := BuildTag(newID, account.Destination, account.SellerName)
	body := strings.TrimRight(stripped, " \t\r\n")
	if body == "" {
		return tag
	}
	return body + "\n" + tag
}
