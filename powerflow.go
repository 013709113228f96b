// Package powerflow 输电网稳态潮流计算
package powerflow

import (
	"errors"
	"fmt"
	"log/slog"

	"powerflow/graph"
	"powerflow/solver"
	"powerflow/types"
	"powerflow/ybus"
)

// PowerFlow 潮流计算器，持有一份网络模型
type PowerFlow struct {
	System *types.System
	Config types.Config
	index  *graph.Index
	graph  *graph.Graph // 最近一次求解使用的分类
	ac     *ybus.AC
	dc     *ybus.DC
	result *Result
	logger *slog.Logger
}

// Result 求解结果
type Result struct {
	Method    types.Method
	Report    solver.Report // 最后一次迭代求解
	State     *solver.State
	Rounds    int   // 无功越限处理轮数
	Converted []int // 转为PQ的母线编号
}

// Converged 是否收敛
func (r *Result) Converged() bool { return r.Report.Converged }

// New 校验系统数据并创建计算器
func New(sys *types.System, cfg types.Config) (*PowerFlow, error) {
	logger := cfg.Log()
	sys.Normalize(logger)
	idx, err := graph.NewIndex(sys)
	if err != nil {
		return nil, err
	}
	return &PowerFlow{System: sys, Config: cfg, index: idx, logger: logger}, nil
}

// Index 母线索引
func (pf *PowerFlow) Index() *graph.Index { return pf.index }

// Result 最近一次求解结果
func (pf *PowerFlow) Result() *Result { return pf.result }

// model 按需构建交流/直流模型
func (pf *PowerFlow) model(method types.Method) error {
	var err error
	if method.IsAC() && pf.ac == nil {
		if pf.ac, err = ybus.BuildAC(pf.System, pf.index); err != nil {
			return err
		}
		pf.logger.Debug("admittance matrix built", "buses", pf.index.Len(), "nonzeros", pf.ac.Y.NonZeroCount())
	}
	if !method.IsAC() && pf.dc == nil {
		if pf.dc, err = ybus.BuildDC(pf.System, pf.index); err != nil {
			return err
		}
		pf.logger.Debug("susceptance matrix built", "buses", pf.index.Len(), "nonzeros", pf.dc.B.NonZeroCount())
	}
	return nil
}

// NewSolver 重新分类母线并创建求解器
func (pf *PowerFlow) NewSolver(method types.Method) (solver.Method, error) {
	if err := pf.model(method); err != nil {
		return nil, err
	}
	class, err := graph.Classify(pf.System, pf.index, pf.logger)
	if err != nil {
		return nil, err
	}
	pf.graph = &graph.Graph{Index: pf.index, Classification: class}
	in, err := solver.NewInput(pf.System, pf.graph, pf.Config)
	if err != nil {
		return nil, err
	}
	in.AC, in.DC = pf.ac, pf.dc
	m, err := solver.New(method, in)
	if err != nil {
		return nil, pf.islands(err)
	}
	return m, nil
}

// islands 为奇异错误补充孤岛信息
func (pf *PowerFlow) islands(err error) error {
	var se *types.SingularError
	if errors.As(err, &se) && se.Islands == nil {
		se.Islands = pf.graph.Unreachable(pf.System)
	}
	return err
}

// Solve 求解一次(不处理无功越限)，收敛后写回母线电压与发电机出力
func (pf *PowerFlow) Solve(method types.Method) (*Result, error) {
	m, err := pf.NewSolver(method)
	if err != nil {
		return nil, err
	}
	s := m.Initialize()
	if d := pf.Config.Debug; d != nil && d.IsDebug() {
		ids := make([]int, pf.index.Len())
		for i := range ids {
			ids[i] = pf.index.ID(i)
		}
		d.Init(m.Name(), ids)
	}
	pf.logger.Debug("solve start", "method", m.Name(), "buses", pf.index.Len(),
		"pv", len(pf.graph.PV), "pq", len(pf.graph.PQ))
	report, err := solver.Run(m, s, pf.Config.IterationsFor(method), pf.Config.Tolerance, pf.Config.Debug)
	if err != nil {
		err = pf.islands(err)
		pf.logger.Error("power flow step failed", "method", m.Name(), "iterations", report.Iterations, "err", err)
		return nil, err
	}
	res := &Result{Method: method, Report: report, State: s}
	if report.Converged {
		pf.commit(method, s)
		pf.logger.Info("power flow converged", "method", m.Name(), "iterations", report.Iterations,
			"active", report.Active, "reactive", report.Reactive, "elapsed", report.Elapsed)
	} else {
		pf.logger.Warn("power flow did not converge", "method", m.Name(), "iterations", report.Iterations,
			"active", report.Active, "reactive", report.Reactive)
	}
	pf.result = res
	return res, nil
}

// commit 写回母线电压，交流潮流同时写回平衡母线有功与电压控制母线无功
func (pf *PowerFlow) commit(method types.Method, s *solver.State) {
	for i := range pf.System.Buses {
		pf.System.Buses[i].Angle = s.Angle[i]
		if method.IsAC() {
			pf.System.Buses[i].Magnitude = s.Magnitude[i]
		}
	}
	if !method.IsAC() {
		return
	}
	p, q := pf.injections(s)
	for i, t := range pf.graph.Types {
		if t == types.PQ {
			continue
		}
		bus := pf.System.Buses[i]
		gens := pf.generatorsAt(bus.ID)
		if len(gens) == 0 {
			continue
		}
		if t == types.Slack {
			dispatchActive(pf.System, gens, p[i]+bus.ActiveDemand)
		}
		shareReactive(pf.System, gens, q[i]+bus.ReactiveDemand)
	}
}

// generatorsAt 母线上投运发电机的位置
func (pf *PowerFlow) generatorsAt(bus int) []int {
	var gens []int
	for k, gen := range pf.System.Generators {
		if gen.Status && gen.Bus == bus {
			gens = append(gens, k)
		}
	}
	return gens
}

// AdjustAngles 平移全部相角使指定母线相角等于 angle(弧度)
func (pf *PowerFlow) AdjustAngles(busID int, angle float64) error {
	ref, err := pf.index.Position(busID)
	if err != nil {
		return fmt.Errorf("adjust angles: %w", err)
	}
	offset := angle - pf.System.Buses[ref].Angle
	for i := range pf.System.Buses {
		pf.System.Buses[i].Angle += offset
	}
	if pf.result != nil {
		solver.AdjustAngles(pf.result.State, ref, angle)
	}
	return nil
}

// UpdateBranch 修改支路参数，已构建的模型增量更新
func (pf *PowerFlow) UpdateBranch(id int, fn func(br *types.Branch)) error {
	k, err := pf.System.BranchIndex(id)
	if err != nil {
		return err
	}
	old := pf.System.Branches[k]
	updated := old
	fn(&updated)
	updated.ID = old.ID
	if _, err := pf.index.Position(updated.From); err != nil {
		return fmt.Errorf("branch %d from: %w", id, err)
	}
	if _, err := pf.index.Position(updated.To); err != nil {
		return fmt.Errorf("branch %d to: %w", id, err)
	}
	if updated.Status {
		// 先校验，失败时模型保持不变
		if pf.ac != nil {
			if _, err := ybus.BranchQuadrant(updated, 0); err != nil {
				return err
			}
		}
		if pf.dc != nil {
			if _, err := ybus.Susceptance(updated); err != nil {
				return err
			}
		}
	}
	if pf.ac != nil {
		if err := pf.ac.PatchBranch(k, old, -1); err != nil {
			return err
		}
		if err := pf.ac.PatchBranch(k, updated, 1); err != nil {
			return err
		}
	}
	if pf.dc != nil {
		if err := pf.dc.PatchBranch(old, -1); err != nil {
			return err
		}
		if err := pf.dc.PatchBranch(updated, 1); err != nil {
			return err
		}
	}
	pf.System.Branches[k] = updated
	pf.logger.Debug("branch updated", "branch", id, "status", updated.Status)
	return nil
}

// UpdateShunt 修改母线并联导纳
func (pf *PowerFlow) UpdateShunt(busID int, conductance, susceptance float64) error {
	i, err := pf.index.Position(busID)
	if err != nil {
		return fmt.Errorf("shunt: %w", err)
	}
	bus := &pf.System.Buses[i]
	if pf.ac != nil {
		if err := pf.ac.PatchShunt(busID, bus.ShuntConductance, bus.ShuntSusceptance, -1); err != nil {
			return err
		}
		if err := pf.ac.PatchShunt(busID, conductance, susceptance, 1); err != nil {
			return err
		}
	}
	bus.ShuntConductance, bus.ShuntSusceptance = conductance, susceptance
	return nil
}
