package usage

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DefaultUserIDPattern is what ids must look like when neither known users nor
// a pattern are configured: a single token of letters, digits and ._@+-.
const DefaultUserIDPattern = `^[A-Za-z0-9][A-Za-z0-9._@+-]*$`

var defaultUserIDRegexp = regexp.MustCompile(DefaultUserIDPattern)

// Attributor maps raw ownership tag values onto user ids. Values that are
// missing become UntaggedUser and values that fail validation become
// UnattributedUser, so every resource ends up in exactly one bucket.
type Attributor struct {
	known   map[string]struct{}
	pattern *regexp.Regexp
}

// NewAttributor builds an Attributor. When known is non-empty only those ids
// are accepted. When pattern is non-empty ids must match it. With neither,
// ids must match DefaultUserIDPattern.
func NewAttributor(known []string, pattern string) (*Attributor, error) {
	a := &Attributor{}
	if len(known) > 0 {
		a.known = make(map[string]struct{}, len(known))
		for _, id := range known {
			id = strings.TrimSpace(id)
			if id != "" {
				a.known[id] = struct{}{}
			}
		}
	}
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid user id pattern %q: %w", pattern, err)
		}
		a.pattern = re
	}
	if a.known == nil && a.pattern == nil {
		a.pattern = defaultUserIDRegexp
	}
	return a, nil
}

// Attribute returns the user id a raw tag value is attributed to.
func (a *Attributor) Attribute(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" {
		return UntaggedUser
	}
	if !a.Valid(id) {
		return UnattributedUser
	}
	return id
}

// Valid reports whether id is an acceptable user id.
func (a *Attributor) Valid(id string) bool {
	if id == UntaggedUser || id == UnattributedUser {
		return true
	}
	if a.known != nil {
		if _, ok := a.known[id]; !ok {
			return false
		}
	}
	if a.pattern != nil && !a.pattern.MatchString(id) {
		return false
	}
	return true
}

// Restricted is false when ids are only checked against DefaultUserIDPattern.
func (a *Attributor) Restricted() bool {
	return a.known != nil || a.pattern != defaultUserIDRegexp
}

// KnownUsers returns the configured ids, if any.
func (a *Attributor) KnownUsers() []string {
	users := make([]string, 0, len(a.known))
	for id := range a.known {
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}
