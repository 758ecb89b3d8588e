package state

import (
	"github.com/google/uuid"
)

// NewActionID returns a unique action id. Ids cross the wire unchanged so a
// host and its clients refer to the same action.
func NewActionID() string {
	return uuid.NewString()
}

// NewSiteID returns an endpoint id for a participant that was not given one.
func NewSiteID() string {
	return "site-" + uuid.NewString()[:8]
}
