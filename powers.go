package powerflow

import (
	"errors"
	"math"
	"math/cmplx"

	"powerflow/solver"
	"powerflow/types"
	"powerflow/ybus"
)

// BusPower 母线注入功率(发电-负荷，标幺值)
type BusPower struct {
	ID        int     `json:"id"`
	Magnitude float64 `json:"magnitude"`
	Angle     float64 `json:"angle"`
	Active    float64 `json:"active"`
	Reactive  float64 `json:"reactive"`
}

// GeneratorPower 发电机出力
type GeneratorPower struct {
	ID       int     `json:"id"`
	Bus      int     `json:"bus"`
	Active   float64 `json:"active"`
	Reactive float64 `json:"reactive"`
}

// BranchFlow 支路两端功率与串联损耗
type BranchFlow struct {
	ID           int     `json:"id"`
	From         int     `json:"from"`
	To           int     `json:"to"`
	FromActive   float64 `json:"fromActive"`
	FromReactive float64 `json:"fromReactive"`
	ToActive     float64 `json:"toActive"`
	ToReactive   float64 `json:"toReactive"`
	LossActive   float64 `json:"lossActive"`
	LossReactive float64 `json:"lossReactive"`
}

// Powers 潮流结果
type Powers struct {
	Method     string           `json:"method"`
	Buses      []BusPower       `json:"buses"`
	Generators []GeneratorPower `json:"generators"`
	Branches   []BranchFlow     `json:"branches"`
}

// ErrNoResult 尚未求解
var ErrNoResult = errors.New("no solution available")

// injections 交流注入功率
func (pf *PowerFlow) injections(s *solver.State) ([]float64, []float64) {
	n := len(s.Magnitude)
	v := make([]complex128, n)
	for i := range v {
		v[i] = cmplx.Rect(s.Magnitude[i], s.Angle[i])
	}
	p, q := make([]float64, n), make([]float64, n)
	for i := range v {
		var current complex128
		cols, vals := pf.ac.Y.GetRow(i)
		for k, j := range cols {
			current += vals[k] * v[j]
		}
		si := v[i] * cmplx.Conj(current)
		p[i], q[i] = real(si), imag(si)
	}
	return p, q
}

// Powers 由最近一次收敛的结果计算母线注入、发电机出力与支路潮流
func (pf *PowerFlow) Powers() (*Powers, error) {
	res := pf.result
	if res == nil || !res.Converged() {
		return nil, ErrNoResult
	}
	s := res.State
	out := &Powers{Method: res.Method.String()}
	var p, q []float64
	if res.Method.IsAC() {
		p, q = pf.injections(s)
	} else {
		p = pf.dcInjections(s)
		q = make([]float64, len(p))
	}
	for i := range s.Angle {
		out.Buses = append(out.Buses, BusPower{
			ID:        pf.index.ID(i),
			Magnitude: s.Magnitude[i],
			Angle:     s.Angle[i],
			Active:    p[i],
			Reactive:  q[i],
		})
	}
	for _, gen := range pf.System.Generators {
		if !gen.Status {
			continue
		}
		out.Generators = append(out.Generators, GeneratorPower{
			ID: gen.ID, Bus: gen.Bus, Active: gen.Active, Reactive: gen.Reactive,
		})
	}
	if !res.Method.IsAC() {
		// 直流潮流未写回发电机，平衡母线出力由注入计算
		slack := pf.graph.Slack
		gens := pf.generatorsAt(pf.index.ID(slack))
		if len(gens) > 0 {
			sys := pf.System.Clone()
			dispatchActive(sys, gens, p[slack]+sys.Buses[slack].ActiveDemand)
			for k := range out.Generators {
				g, _ := sys.GeneratorIndex(out.Generators[k].ID)
				out.Generators[k].Active = sys.Generators[g].Active
			}
		}
	}
	for k, br := range pf.System.Branches {
		if !br.Status {
			continue
		}
		f, _ := pf.index.Position(br.From)
		t, _ := pf.index.Position(br.To)
		flow := BranchFlow{ID: br.ID, From: br.From, To: br.To}
		if res.Method.IsAC() {
			vf := cmplx.Rect(s.Magnitude[f], s.Angle[f])
			vt := cmplx.Rect(s.Magnitude[t], s.Angle[t])
			quad := pf.ac.Quadrants[k]
			sf := vf * cmplx.Conj(quad.FF*vf+quad.FT*vt)
			st := vt * cmplx.Conj(quad.TF*vf+quad.TT*vt)
			flow.FromActive, flow.FromReactive = real(sf), imag(sf)
			flow.ToActive, flow.ToReactive = real(st), imag(st)
			flow.LossActive, flow.LossReactive = real(sf+st), imag(sf+st)
		} else {
			b, err := ybus.Susceptance(br)
			if err != nil {
				return nil, err
			}
			active := b * (s.Angle[f] - s.Angle[t] - br.ShiftAngle)
			flow.FromActive, flow.ToActive = active, -active
		}
		out.Branches = append(out.Branches, flow)
	}
	return out, nil
}

// dcInjections 直流注入 B'θ + P_shift + G_s
func (pf *PowerFlow) dcInjections(s *solver.State) []float64 {
	p := make([]float64, len(s.Angle))
	for i := range p {
		cols, vals := pf.dc.B.GetRow(i)
		for k, j := range cols {
			p[i] += vals[k] * s.Angle[j]
		}
		p[i] += pf.dc.ShiftPower[i] + pf.System.Buses[i].ShuntConductance
	}
	return p
}

// dispatchActive 平衡母线有功: 除第一台外保持设定，余量由第一台承担
func dispatchActive(sys *types.System, gens []int, total float64) {
	for _, k := range gens[1:] {
		total -= sys.Generators[k].Active
	}
	sys.Generators[gens[0]].Active = total
}

// shareReactive 母线无功在发电机间分配:
// 上下限均有限时按调节范围比例分配，否则平均分配
func shareReactive(sys *types.System, gens []int, total float64) {
	var low, span float64
	finite := true
	for _, k := range gens {
		g := sys.Generators[k]
		if math.IsInf(g.MinReactive, 0) || math.IsInf(g.MaxReactive, 0) {
			finite = false
			break
		}
		low += g.MinReactive
		span += g.MaxReactive - g.MinReactive
	}
	if finite && span > 0 {
		for _, k := range gens {
			g := &sys.Generators[k]
			g.Reactive = g.MinReactive + (total-low)*(g.MaxReactive-g.MinReactive)/span
		}
		return
	}
	for _, k := range gens {
		sys.Generators[k].Reactive = total / float64(len(gens))
	}
}
