package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// Linkified URLs open safely: forced rel=nofollow plus target=_blank with
	// the matching noopener guard.
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Sanitize cleans user-submitted HTML against the allow-list policy.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
