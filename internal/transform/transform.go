package transform

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/subrules/internal/dns"
	"github.com/John-Robertt/subrules/internal/groups"
	"github.com/John-Robertt/subrules/internal/model"
	"github.com/John-Robertt/subrules/internal/node"
	"github.com/John-Robertt/subrules/internal/rules"
)

const notifyTitle = "subrules"

type Options struct {
	// DefaultGroup names the top level selector; empty means model.DefaultGroupName.
	DefaultGroup string
	// CustomRules are rule lines placed before the generated rules.
	CustomRules []string
	// UniqueNames renames duplicate node names to base-2, base-3, ...
	UniqueNames bool
	DNS         dns.Options

	Logger   logrus.FieldLogger // nil means the logrus standard logger
	Notifier Notifier           // nil means LogNotifier on Logger
}

// Transformer runs the pipeline. It holds no per-run state and is safe for
// concurrent use.
type Transformer struct {
	defaultGroup string
	custom       []model.Rule
	uniqueNames  bool
	dns          dns.Options

	log      logrus.FieldLogger
	notifier Notifier
}

// New validates the options once so that Run only fails on bad input.
func New(opt Options) (*Transformer, error) {
	def := strings.TrimSpace(opt.DefaultGroup)
	if def == "" {
		def = model.DefaultGroupName
	}
	if model.IsBuiltinPolicy(def) {
		return nil, newError(StageValidateInput, "OPTIONS_INVALID", fmt.Sprintf("默认策略组名不能是 %s", def), nil)
	}

	custom, err := rules.ParseCustomRules(opt.CustomRules)
	if err != nil {
		return nil, wrap(StageValidateInput, err)
	}

	dnsOpt := opt.DNS.WithDefaults()
	if err := dns.Validate(dnsOpt); err != nil {
		return nil, wrap(StageValidateInput, err)
	}

	log := opt.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	notifier := opt.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: log}
	}

	return &Transformer{
		defaultGroup: def,
		custom:       custom,
		uniqueNames:  opt.UniqueNames,
		dns:          opt.DNS,
		log:          log,
		notifier:     notifier,
	}, nil
}

// Report summarizes one run.
type Report struct {
	Input  int
	Kept   int
	Junk   int
	Errors int
	Nodes  []node.Result

	Rules     int
	Providers int
	Groups    int
}

// Run returns the augmented document. On failure it returns cfg itself,
// unmodified, together with the error, after notifying the operator.
func (t *Transformer) Run(cfg *model.Config) (*model.Config, *Report, error) {
	rep := &Report{}
	out, err := t.run(cfg, rep)
	if err != nil {
		e := wrap(StageValidateInput, err)
		runsTotal.WithLabelValues("error").Inc()
		appErrorsTotal.WithLabelValues(e.AppError.Stage, e.AppError.Code).Inc()
		t.notifier.Notify(notifyTitle, "处理失败", e.Error())
		return cfg, rep, e
	}
	runsTotal.WithLabelValues("ok").Inc()
	t.log.WithFields(logrus.Fields{
		"kept":   rep.Kept,
		"junk":   rep.Junk,
		"errors": rep.Errors,
		"groups": rep.Groups,
		"rules":  rep.Rules,
	}).Info("transform finished")
	return out, rep, nil
}

func (t *Transformer) run(cfg *model.Config, rep *Report) (*model.Config, error) {
	if cfg == nil {
		return nil, newError(StageValidateInput, "INPUT_INVALID", "配置不能为空", nil)
	}
	in, err := cfg.Proxies()
	if err != nil {
		return nil, newError(StageValidateInput, "INPUT_INVALID", "节点列表为空", err)
	}
	if len(in) == 0 {
		return nil, newError(StageValidateInput, "INPUT_INVALID", "节点列表为空", nil)
	}
	rep.Input = len(in)
	t.log.WithField("proxies", len(in)).Info("transform started")

	kept, results := node.Normalize(in, node.Options{UniqueNames: t.uniqueNames})
	rep.Nodes = results
	for _, r := range results {
		nodesTotal.WithLabelValues(string(r.Outcome)).Inc()
		switch r.Outcome {
		case node.OutcomeKept:
			rep.Kept++
		case node.OutcomeJunk:
			rep.Junk++
			t.log.WithField("node", r.Original).Info("dropped junk node")
		case node.OutcomeError:
			rep.Errors++
			t.log.WithFields(logrus.Fields{
				"node":   r.Original,
				"index":  r.Index,
				"reason": r.Err,
			}).Warn("dropped node")
		}
	}
	if len(kept) == 0 {
		return nil, newError(StageNormalize, "NO_NODES", "没有任何可用节点", nil)
	}

	names := lo.Map(kept, func(p *model.Proxy, _ int) string {
		n, _ := p.Name()
		return n
	})
	if dups := lo.FindDuplicates(names); len(dups) > 0 && !t.uniqueNames {
		t.log.WithField("names", dups).Warn("duplicate node names; enable unique names to rename them")
	}
	if shadow := lo.Filter(names, func(n string, _ int) bool { return model.IsBuiltinPolicy(n) }); len(shadow) > 0 && !t.uniqueNames {
		t.log.WithField("names", shadow).Warn("node names shadow built-in policies; enable unique names to rename them")
	}

	rs, err := rules.Assemble(rules.Options{DefaultGroup: t.defaultGroup, Custom: t.custom})
	if err != nil {
		return nil, wrap(StageAssembleRules, err)
	}

	gs, err := groups.Assemble(names, groups.Options{DefaultGroup: t.defaultGroup})
	if err != nil {
		return nil, wrap(StageAssembleGroups, err)
	}

	targets := make(map[string]struct{}, len(gs)+len(names))
	for _, n := range groups.Names(gs) {
		targets[n] = struct{}{}
	}
	for _, n := range names {
		targets[n] = struct{}{}
	}
	if err := rules.CheckTargets(rs.Rules, func(name string) bool {
		_, ok := targets[name]
		return ok
	}); err != nil {
		return nil, wrap(StageValidateOutput, err)
	}

	out := cfg.Clone()
	out.SetProxies(kept)
	out.Set(model.KeyRuleProviders, rs.ProviderMap())
	out.Set(model.KeyRules, rs.Lines())
	out.Set(model.KeyProxyGroups, gs)
	if err := dns.Apply(out, t.dns); err != nil {
		return nil, wrap(StageAssembleDNS, err)
	}

	rep.Rules = len(rs.Rules)
	rep.Providers = len(rs.Providers)
	rep.Groups = len(gs)
	return out, nil
}
