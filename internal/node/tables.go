package node

import (
	"time"

	"github.com/dlclark/regexp2"
)

// MatchTimeout bounds every single match against a node name. A name that
// trips it is dropped as a per-node error.
const MatchTimeout = 200 * time.Millisecond

func mustCompile(expr string, opt regexp2.RegexOptions) *regexp2.Regexp {
	re := regexp2.MustCompile(expr, opt)
	re.MatchTimeout = MatchTimeout
	return re
}

var (
	junkPattern = mustCompile(
		`套餐|到期|有效|剩余|版本|已用|过期|失联|测试|官方|网址|备用|群|TEST|客服|网站|获取|订阅|流量|机场|下次|官址|联系|邮箱|工单|学术|USED?|TOTAL|EXPIRE|EMAIL`,
		regexp2.IgnoreCase,
	)

	multiplierPattern = mustCompile(`[0-9]+(?:\.[0-9]+)?[xX×]|[xX×][0-9]+(?:\.[0-9]+)?`, regexp2.None)

	tagPattern = mustCompile(`IPLC|IEPL|BGP|RELAY|PREMIUM|PLUS|PRO|GAME`, regexp2.IgnoreCase)

	// A trailing 1-2 digit index, optionally decimal, with its separator.
	// Digits right after a multiplier sign (x2, ×1.5) are not an index.
	ordinalPattern = mustCompile(`[\s\-_]*(?<![xX×0-9.])[0-9]{1,2}(?:\.[0-9]{1,2})?\s*$`, regexp2.None)
)

type substitution struct {
	label string
	re    *regexp2.Regexp
}

// Applied in order, each on the output of the previous one.
var substitutions = []substitution{
	{"GB", mustCompile(`UK`, regexp2.None)},
	{"B-G-P", mustCompile(`BGP`, regexp2.None)},
	{"Russia Moscow", mustCompile(`Moscow`, regexp2.None)},
	{"Korea Chuncheon", mustCompile(`Chuncheon|Seoul`, regexp2.None)},
	{"Hong Kong", mustCompile(`Hongkong|HONG KONG`, regexp2.IgnoreCase)},
	{"United Kingdom London", mustCompile(`London|Great Britain`, regexp2.None)},
	{"Dubai United Arab Emirates", mustCompile(`United Arab Emirates`, regexp2.None)},
	{"Taiwan TW 台湾 🇹🇼", mustCompile(`(台|Tai\s?wan|TW).*?🇨🇳|🇨🇳.*?(台|Tai\s?wan|TW)`, regexp2.None)},
	{"United States", mustCompile(`USA|Los Angeles|San Jose|Silicon Valley|Michigan`, regexp2.None)},
	{"澳大利亚", mustCompile(`澳洲|墨尔本|悉尼|土澳|(深|沪|呼|京|广|杭)澳`, regexp2.None)},
	{"德国", mustCompile(`(深|沪|呼|京|广|杭)德(?!.*(I|线))|法兰克福|滬德`, regexp2.None)},
	{"香港", mustCompile(`(深|沪|呼|京|广|杭)港(?!.*(I|线))`, regexp2.None)},
	{"日本", mustCompile(`(深|沪|呼|京|广|杭|中|辽)日(?!.*(I|线))|东京|大坂`, regexp2.None)},
	{"新加坡", mustCompile(`狮城|(深|沪|呼|京|广|杭)新`, regexp2.None)},
	{"美国", mustCompile(`(深|沪|呼|京|广|杭)美|波特兰|芝加哥|哥伦布|纽约|硅谷|俄勒冈|西雅图`, regexp2.None)},
}
