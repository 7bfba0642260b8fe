package groups

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/John-Robertt/subrules/internal/model"
	"github.com/John-Robertt/subrules/internal/node"
)

type AssembleError struct {
	AppError model.AppError
	Cause    error
}

func (e *AssembleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *AssembleError) Unwrap() error { return e.Cause }

const stageAssemble = "assemble_groups"

// Health check policy shared by every url-test and load-balance group.
const (
	probeURL       = "http://www.gstatic.com/generate_204"
	probeInterval  = 300
	probeTolerance = 50
	probeMaxFailed = 3
)

const (
	iconBase   = "https://fastly.jsdelivr.net/gh/clash-verge-rev/clash-verge-rev.github.io@main/docs/assets/icons/"
	iconClaude = "https://raw.githubusercontent.com/clash-verge-rev/clash-verge-rev.github.io/main/docs/assets/icons/claude.svg"
)

type Options struct {
	// DefaultGroup is the top level selector; empty means model.DefaultGroupName.
	DefaultGroup string
}

// AutoGroupName is the hidden url-test group of a region.
func AutoGroupName(r node.Region) string { return r.String() + "-" + model.GroupNameAuto }

// ManualGroupName is the select group of a region.
func ManualGroupName(r node.Region) string { return r.String() + "-" + model.GroupNameManual }

// Assemble derives the proxy groups from the final node names. Duplicate
// names are listed once.
func Assemble(nodeNames []string, opt Options) ([]model.Group, error) {
	def := opt.DefaultGroup
	if def == "" {
		def = model.DefaultGroupName
	}

	names := lo.Uniq(nodeNames)
	if len(names) == 0 {
		return nil, &AssembleError{
			AppError: model.AppError{
				Code:    "GROUP_VALIDATE_ERROR",
				Message: "没有任何可用节点",
				Stage:   stageAssemble,
			},
		}
	}

	byRegion, err := partition(names)
	if err != nil {
		return nil, err
	}

	var regionAuto, regionManual []model.Group
	for _, r := range node.Regions() {
		members := byRegion[r]
		if len(members) >= 1 {
			regionAuto = append(regionAuto, urlTest(AutoGroupName(r), members, "", true))
		}
		manual := append([]string{model.PolicyDirect}, members...)
		if len(manual) >= 2 {
			regionManual = append(regionManual, model.Group{
				Name:    ManualGroupName(r),
				Type:    model.GroupSelect,
				Proxies: manual,
				Hidden:  lo.ToPtr(false),
			})
		}
	}

	// Service groups may only point at region groups that were emitted.
	present := lo.SliceToMap(regionAuto, func(g model.Group) (string, struct{}) {
		return g.Name, struct{}{}
	})
	onlyPresent := func(members ...string) []string {
		return lo.Filter(members, func(m string, _ int) bool {
			if _, ok := present[m]; ok {
				return true
			}
			return m == model.GroupNameManual
		})
	}

	out := []model.Group{
		{
			Name:    def,
			Type:    model.GroupSelect,
			Proxies: []string{model.GroupNameAuto, model.GroupNameManual, model.GroupNameHashLB, model.GroupNameRoundRobin, model.PolicyDirect},
			Icon:    iconBase + "proxy.svg",
		},
		{
			Name:    model.GroupNameManual,
			Type:    model.GroupSelect,
			Proxies: names,
			Icon:    iconBase + "select.svg",
		},
		urlTest(model.GroupNameAuto, names, iconBase+"auto.svg", false),
		loadBalance(model.GroupNameHashLB, "consistent-hashing", names),
		loadBalance(model.GroupNameRoundRobin, "round-robin", names),
		{
			Name:    model.GroupNameChatGPT,
			Type:    model.GroupSelect,
			Proxies: onlyPresent(AutoGroupName(node.RegionUS), AutoGroupName(node.RegionJP), model.GroupNameManual),
			Icon:    iconBase + "chatgpt.svg",
		},
		{
			Name:    model.GroupNameClaude,
			Type:    model.GroupSelect,
			Proxies: onlyPresent(AutoGroupName(node.RegionUS), model.GroupNameManual),
			Icon:    iconClaude,
		},
		{
			Name:    model.GroupNameSpotify,
			Type:    model.GroupSelect,
			Proxies: []string{model.PolicyDirect, def},
			Icon:    iconBase + "spotify.svg",
		},
		{
			Name:    model.GroupNameTelegram,
			Type:    model.GroupSelect,
			Proxies: []string{def, model.GroupNameManual},
			Icon:    iconBase + "telegram.svg",
		},
		{
			Name:    model.GroupNameAdBlock,
			Type:    model.GroupSelect,
			Proxies: []string{model.PolicyReject, model.PolicyDirect},
			Icon:    iconBase + "reject.svg",
		},
		{
			Name:    model.GroupNameFinal,
			Type:    model.GroupSelect,
			Proxies: []string{def, model.PolicyDirect},
		},
	}
	out = append(out, regionAuto...)
	out = append(out, regionManual...)

	if err := Validate(out, names); err != nil {
		return nil, err
	}
	return out, nil
}

func partition(names []string) (map[node.Region][]string, error) {
	out := make(map[node.Region][]string)
	for _, name := range names {
		r, err := node.DetectRegion(name)
		if err != nil {
			return nil, &AssembleError{
				AppError: model.AppError{
					Code:    "GROUP_VALIDATE_ERROR",
					Message: "节点地区识别失败",
					Stage:   stageAssemble,
					Snippet: name,
				},
				Cause: err,
			}
		}
		if r != node.RegionNone {
			out[r] = append(out[r], name)
		}
	}
	return out, nil
}

func urlTest(name string, members []string, icon string, hidden bool) model.Group {
	g := model.Group{
		Name:           name,
		Type:           model.GroupURLTest,
		URL:            probeURL,
		Interval:       probeInterval,
		Tolerance:      probeTolerance,
		MaxFailedTimes: probeMaxFailed,
		Lazy:           true,
		Proxies:        members,
		Icon:           icon,
	}
	if hidden {
		g.Hidden = lo.ToPtr(true)
	}
	return g
}

func loadBalance(name, strategy string, members []string) model.Group {
	return model.Group{
		Name:           name,
		Type:           model.GroupLoadBalance,
		Strategy:       strategy,
		URL:            probeURL,
		Interval:       probeInterval,
		MaxFailedTimes: probeMaxFailed,
		Lazy:           true,
		Proxies:        members,
		Icon:           iconBase + "round-robin.svg",
	}
}
