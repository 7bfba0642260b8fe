package model

// Group names shared by the rule and group assemblers.
const (
	DefaultGroupName = "代理模式"

	GroupNameManual     = "手动选择"
	GroupNameAuto       = "自动选择"
	GroupNameHashLB     = "负载均衡(散列)"
	GroupNameRoundRobin = "负载均衡(轮询)"

	GroupNameChatGPT  = "ChatGPT"
	GroupNameClaude   = "Claude"
	GroupNameSpotify  = "Spotify"
	GroupNameTelegram = "电报消息"
	GroupNameAdBlock  = "广告拦截"
	GroupNameFinal    = "漏网之鱼"
)
