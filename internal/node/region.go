package node

import (
	"github.com/dlclark/regexp2"
)

// Region is the detected location of a node. The zero value means none.
type Region uint8

const (
	RegionNone Region = iota
	RegionHK
	RegionSG
	RegionJP
	RegionUS
	RegionTW
	RegionKR
)

func (r Region) String() string {
	switch r {
	case RegionHK:
		return "HK"
	case RegionSG:
		return "SG"
	case RegionJP:
		return "JP"
	case RegionUS:
		return "US"
	case RegionTW:
		return "TW"
	case RegionKR:
		return "KR"
	default:
		return ""
	}
}

type regionPattern struct {
	region Region
	re     *regexp2.Regexp
}

// Detection order; the first match wins.
var regionTable = []regionPattern{
	{RegionHK, mustCompile(`^(?:香港|HK|Hong Kong|🇭🇰)`, regexp2.IgnoreCase)},
	{RegionSG, mustCompile(`^(?:新加坡|狮城|SG|Singapore|🇸🇬)`, regexp2.IgnoreCase)},
	{RegionJP, mustCompile(`^(?:日本|JP|Japan|🇯🇵)`, regexp2.IgnoreCase)},
	{RegionUS, mustCompile(`^(?:美国|US|United States|🇺🇸)`, regexp2.IgnoreCase)},
	{RegionTW, mustCompile(`^(?:台湾|TW|Taiwan|🇹🇼)`, regexp2.IgnoreCase)},
	{RegionKR, mustCompile(`^(?:韩国|KR|Korea|🇰🇷)`, regexp2.IgnoreCase)},
}

// Regions lists every region in detection order.
func Regions() []Region {
	out := make([]Region, 0, len(regionTable))
	for _, p := range regionTable {
		out = append(out, p.region)
	}
	return out
}

// DetectRegion returns the first region whose pattern matches the start of name.
func DetectRegion(name string) (Region, error) {
	for _, p := range regionTable {
		ok, err := p.re.MatchString(name)
		if err != nil {
			return RegionNone, err
		}
		if ok {
			return p.region, nil
		}
	}
	return RegionNone, nil
}
