package node

import "strings"

// SpecialTag is a line quality marker found in a node name.
type SpecialTag uint8

const (
	TagNone SpecialTag = iota
	TagIPLC
	TagIEPL
	TagBGP
	TagRelay
	TagPremium
	TagPlus
	TagPro
	TagGame
)

var tagNames = [...]string{
	TagNone:    "",
	TagIPLC:    "IPLC",
	TagIEPL:    "IEPL",
	TagBGP:     "BGP",
	TagRelay:   "RELAY",
	TagPremium: "PREMIUM",
	TagPlus:    "PLUS",
	TagPro:     "PRO",
	TagGame:    "GAME",
}

func (t SpecialTag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return ""
}

func parseTag(s string) SpecialTag {
	s = strings.ToUpper(s)
	for i, name := range tagNames {
		if i > 0 && name == s {
			return SpecialTag(i)
		}
	}
	return TagNone
}
