package powerflow

import (
	"slices"

	"powerflow/types"
)

// violation 电压控制母线的无功越限
type violation struct {
	pos    int     // 母线位置
	amount float64 // 越限量
	upper  bool    // 越上限
}

// SolveWithLimits 求解并处理发电机无功越限:
// 每轮将越限(默认只取最严重的一条)的电压控制母线转为负荷母线，
// 其发电机无功固定在越限的边界，然后重新分类并重新求解，
// 直到没有越限或达到 Config.MaxLimitRounds。直流潮流不处理无功。
func (pf *PowerFlow) SolveWithLimits(method types.Method) (*Result, error) {
	res, err := pf.Solve(method)
	if err != nil || !method.IsAC() {
		return res, err
	}
	var converted []int
	for round := 0; ; round++ {
		res.Rounds, res.Converted = round, converted
		if !res.Converged() {
			return res, nil
		}
		found := pf.violations()
		if len(found) == 0 {
			return res, nil
		}
		if round >= pf.Config.MaxLimitRounds {
			pf.logger.Warn("reactive limit rounds exhausted", "rounds", round, "violations", len(found))
			return res, nil
		}
		if pf.Config.QLimitMode == types.QLimitOne {
			found = found[:1]
		}
		for _, v := range found {
			bus := &pf.System.Buses[v.pos]
			for _, k := range pf.generatorsAt(bus.ID) {
				gen := &pf.System.Generators[k]
				if v.upper {
					gen.Reactive = gen.MaxReactive
				} else {
					gen.Reactive = gen.MinReactive
				}
			}
			bus.Type = types.PQ
			converted = append(converted, bus.ID)
			pf.logger.Warn("generator reactive limit reached, bus converted to PQ",
				"bus", bus.ID, "upper", v.upper, "violation", v.amount, "round", round+1)
		}
		if res, err = pf.Solve(method); err != nil {
			return nil, err
		}
	}
}

// violations 按越限量从大到小返回越限母线(使用已写回的发电机无功)
func (pf *PowerFlow) violations() []violation {
	var found []violation
	for _, i := range pf.graph.PV {
		var q, qmin, qmax float64
		for _, k := range pf.generatorsAt(pf.index.ID(i)) {
			gen := pf.System.Generators[k]
			q += gen.Reactive
			qmin += gen.MinReactive
			qmax += gen.MaxReactive
		}
		switch {
		case q > qmax+pf.Config.Tolerance:
			found = append(found, violation{pos: i, amount: q - qmax, upper: true})
		case q < qmin-pf.Config.Tolerance:
			found = append(found, violation{pos: i, amount: qmin - q})
		}
	}
	slices.SortStableFunc(found, func(a, b violation) int {
		switch {
		case a.amount > b.amount:
			return -1
		case a.amount < b.amount:
			return 1
		}
		return 0
	})
	return found
}
