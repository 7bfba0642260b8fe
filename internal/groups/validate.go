package groups

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/John-Robertt/subrules/internal/model"
)

// Validate checks the group list against the node names: group names are
// unique and never shadow a node, every member resolves, and the membership
// graph has no cycle.
func Validate(gs []model.Group, nodeNames []string) error {
	nodes := make(map[string]struct{}, len(nodeNames))
	for _, n := range nodeNames {
		nodes[n] = struct{}{}
	}

	byName := make(map[string]*model.Group, len(gs))
	for i := range gs {
		g := &gs[i]
		if strings.TrimSpace(g.Name) == "" {
			return validateErr("GROUP_VALIDATE_ERROR", "策略组名不能为空", "")
		}
		if _, ok := byName[g.Name]; ok {
			return validateErr("GROUP_VALIDATE_ERROR", fmt.Sprintf("策略组名重复：%s", g.Name), g.Name)
		}
		// Group name namespace must not conflict with proxy names.
		if _, ok := nodes[g.Name]; ok {
			return validateErr("GROUP_VALIDATE_ERROR", fmt.Sprintf("策略组名与节点名冲突：%s", g.Name), g.Name)
		}
		byName[g.Name] = g
	}

	for _, g := range gs {
		if len(g.Proxies) == 0 {
			return validateErr("GROUP_VALIDATE_ERROR", fmt.Sprintf("策略组 %s 没有任何成员", g.Name), g.Name)
		}
		for _, m := range g.Proxies {
			if model.IsBuiltinPolicy(m) {
				continue
			}
			if _, ok := byName[m]; ok {
				continue
			}
			if _, ok := nodes[m]; ok {
				continue
			}
			return validateErr("REFERENCE_NOT_FOUND", fmt.Sprintf("策略组 %s 引用了不存在的成员：%s", g.Name, m), g.Name)
		}
	}

	return checkCycles(gs, byName)
}

const (
	unvisited = iota
	visiting
	done
)

func checkCycles(gs []model.Group, byName map[string]*model.Group) error {
	state := make(map[string]int, len(gs))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			start := 0
			for i, p := range path {
				if p == name {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, path[start:]...), name)
			return validateErr("GROUP_CYCLE", "策略组存在循环引用："+strings.Join(cycle, " -> "), name)
		}

		state[name] = visiting
		path = append(path, name)
		for _, m := range byName[name].Proxies {
			if _, ok := byName[m]; !ok {
				continue
			}
			if err := visit(m); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}

	for _, g := range gs {
		if err := visit(g.Name); err != nil {
			return err
		}
	}
	return nil
}

func validateErr(code, msg, snippet string) error {
	return &AssembleError{
		AppError: model.AppError{
			Code:    code,
			Message: msg,
			Stage:   stageAssemble,
			Snippet: snippet,
		},
	}
}

// Names returns the group names in order.
func Names(gs []model.Group) []string {
	return lo.Map(gs, func(g model.Group, _ int) string { return g.Name })
}
