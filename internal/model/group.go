package model

type GroupType string

const (
	GroupSelect      GroupType = "select"
	GroupURLTest     GroupType = "url-test"
	GroupLoadBalance GroupType = "load-balance"
)

// Group is one entry of proxy-groups. Field order follows the order in which
// the keys are written to the document.
type Group struct {
	Name     string    `yaml:"name" json:"name"`
	Type     GroupType `yaml:"type" json:"type"`
	Strategy string    `yaml:"strategy,omitempty" json:"strategy,omitempty"` // load-balance only

	// url-test / load-balance health check
	URL            string `yaml:"url,omitempty" json:"url,omitempty"`
	Interval       int    `yaml:"interval,omitempty" json:"interval,omitempty"`
	Tolerance      int    `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
	MaxFailedTimes int    `yaml:"max-failed-times,omitempty" json:"max-failed-times,omitempty"`
	Lazy           bool   `yaml:"lazy,omitempty" json:"lazy,omitempty"`

	Proxies []string `yaml:"proxies" json:"proxies"` // proxy names / group names / DIRECT / REJECT

	Hidden *bool  `yaml:"hidden,omitempty" json:"hidden,omitempty"`
	Icon   string `yaml:"icon,omitempty" json:"icon,omitempty"`
}
