package rules

import "github.com/John-Robertt/subrules/internal/model"

const (
	providerInterval = 86400

	loyalsoldierBase = "https://cdn.jsdelivr.net/gh/Loyalsoldier/clash-rules@release/"
	blackmatrixBase  = "https://raw.githubusercontent.com/blackmatrix7/ios_rule_script/master/rule/Clash/"
	customPathPrefix = "/.config/clash/ruleset/custom/"
)

func loyalsoldier(name, behavior string) model.RuleProvider {
	return model.RuleProvider{
		Name:     name,
		Type:     "http",
		Behavior: behavior,
		URL:      loyalsoldierBase + name + ".txt",
		Path:     customPathPrefix + name + ".yaml",
		Interval: providerInterval,
	}
}

// localPath overrides the custom ruleset directory with ./ruleset.
func localPath(p model.RuleProvider) model.RuleProvider {
	p.Path = "./ruleset/" + p.Name + ".yaml"
	return p
}

func blackmatrix(name, dir string) model.RuleProvider {
	return model.RuleProvider{
		Name:     name,
		Type:     "http",
		Behavior: "classical",
		URL:      blackmatrixBase + dir + "/" + dir + ".yaml",
		Path:     customPathPrefix + name + ".yaml",
		Interval: providerInterval,
	}
}

// Providers returns the rule-provider declarations in emission order.
func Providers() []model.RuleProvider {
	return []model.RuleProvider{
		loyalsoldier("reject", "domain"),
		loyalsoldier("direct", "domain"),
		loyalsoldier("proxy", "domain"),
		localPath(loyalsoldier("icloud", "domain")),
		localPath(loyalsoldier("apple", "domain")),
		localPath(loyalsoldier("google", "domain")),
		loyalsoldier("private", "domain"),
		loyalsoldier("gfw", "domain"),
		loyalsoldier("greatfire", "domain"),
		loyalsoldier("tld-not-cn", "domain"),
		loyalsoldier("telegramcidr", "ipcidr"),
		loyalsoldier("cncidr", "ipcidr"),
		loyalsoldier("lancidr", "ipcidr"),
		loyalsoldier("applications", "classical"),
		blackmatrix("openai", "OpenAI"),
		blackmatrix("claude", "Claude"),
		blackmatrix("spotify", "Spotify"),
	}
}
