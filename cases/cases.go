// Package cases 内置标幺值测试网络
package cases

import (
	"fmt"
	"math"
	"slices"

	"powerflow/types"
)

const deg = math.Pi / 180

// builder 按表格数据生成系统
var builders = map[string]func() *types.System{
	"case2":   TwoBus,
	"case3":   ThreeBus,
	"case4ps": FourBusShifter,
	"case9":   IEEE9,
	"case14":  IEEE14,
}

// Names 内置网络名称
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Get 通过名称获取网络（每次返回新副本）
func Get(name string) (*types.System, error) {
	build, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("case %q: %w", name, types.ErrNotFound)
	}
	return build(), nil
}

// bus 行: 编号 类型 Pd Qd Gs Bs Vm Va(度)，功率为MW/MVAr
type busRow struct {
	id     int
	typ    types.BusType
	pd, qd float64
	gs, bs float64
	vm, va float64
}

// branch 行: 首端 末端 r x b 变比 移相(度)
type branchRow struct {
	from, to     int
	r, x, b      float64
	ratio, shift float64
}

// gen 行: 母线 Pg Qg Qmax Qmin Vg，功率为MW/MVAr
type genRow struct {
	bus            int
	pg, qg         float64
	qmax, qmin, vg float64
}

// build 转换为标幺值
func build(base float64, buses []busRow, branches []branchRow, gens []genRow) *types.System {
	sys := &types.System{BasePower: base}
	for _, b := range buses {
		sys.Buses = append(sys.Buses, types.Bus{
			ID:               b.id,
			Type:             b.typ,
			ActiveDemand:     b.pd / base,
			ReactiveDemand:   b.qd / base,
			ShuntConductance: b.gs / base,
			ShuntSusceptance: b.bs / base,
			Magnitude:        b.vm,
			Angle:            b.va * deg,
			MinMagnitude:     0.9,
			MaxMagnitude:     1.1,
			BaseVoltage:      types.DefaultBaseVoltage,
		})
	}
	for i, br := range branches {
		sys.Branches = append(sys.Branches, types.Branch{
			ID:          i + 1,
			From:        br.from,
			To:          br.to,
			Resistance:  br.r,
			Reactance:   br.x,
			Susceptance: br.b,
			TapRatio:    br.ratio,
			ShiftAngle:  br.shift * deg,
			Status:      true,
		})
	}
	for i, g := range gens {
		sys.Generators = append(sys.Generators, types.Generator{
			ID:          i + 1,
			Bus:         g.bus,
			Active:      g.pg / base,
			Reactive:    g.qg / base,
			Voltage:     g.vg,
			MaxReactive: g.qmax / base,
			MinReactive: g.qmin / base,
			Status:      true,
		})
	}
	return sys
}

// TwoBus 两节点: 平衡母线1，负荷母线2（50MW），支路电抗0.1
func TwoBus() *types.System {
	return build(100,
		[]busRow{
			{1, types.Slack, 0, 0, 0, 0, 1, 0},
			{2, types.PQ, 50, 0, 0, 0, 1, 0},
		},
		[]branchRow{
			{1, 2, 0, 0.1, 0, 0, 0},
		},
		[]genRow{
			{1, 50, 0, math.Inf(1), math.Inf(-1), 1},
		})
}

// ThreeBus 三节点环网，母线3为电压控制母线
func ThreeBus() *types.System {
	return build(100,
		[]busRow{
			{1, types.Slack, 0, 0, 0, 0, 1.05, 0},
			{2, types.PQ, 256.6, 110.2, 0, 0, 1, 0},
			{3, types.PV, 0, 0, 0, 0, 1.04, 0},
		},
		[]branchRow{
			{1, 2, 0.02, 0.04, 0, 0, 0},
			{1, 3, 0.01, 0.03, 0, 0, 0},
			{2, 3, 0.0125, 0.025, 0, 0, 0},
		},
		[]genRow{
			{1, 0, 0, 500, -500, 1.05},
			{3, 200, 0, 300, -300, 1.04},
		})
}

// FourBusShifter 在三节点网络上经带移相的变压器接入负荷母线4
func FourBusShifter() *types.System {
	sys := build(100,
		[]busRow{
			{1, types.Slack, 0, 0, 0, 0, 1.05, 0},
			{2, types.PQ, 156.6, 60.2, 0, 0, 1, 0},
			{3, types.PV, 0, 0, 0, 0, 1.04, 0},
			{4, types.PQ, 80, 25, 0, 10, 1, 0},
		},
		[]branchRow{
			{1, 2, 0.02, 0.04, 0.02, 0, 0},
			{1, 3, 0.01, 0.03, 0.01, 0, 0},
			{2, 3, 0.0125, 0.025, 0, 0, 0},
			{3, 4, 0.005, 0.08, 0, 1.02, 5},
			{2, 4, 0.03, 0.09, 0.04, 0, 0},
		},
		[]genRow{
			{1, 0, 0, 500, -500, 1.05},
			{3, 150, 0, 300, -300, 1.04},
		})
	return sys
}

// IEEE9 WSCC 9节点
func IEEE9() *types.System {
	return build(100,
		[]busRow{
			{1, types.Slack, 0, 0, 0, 0, 1, 0},
			{2, types.PV, 0, 0, 0, 0, 1, 0},
			{3, types.PV, 0, 0, 0, 0, 1, 0},
			{4, types.PQ, 0, 0, 0, 0, 1, 0},
			{5, types.PQ, 90, 30, 0, 0, 1, 0},
			{6, types.PQ, 0, 0, 0, 0, 1, 0},
			{7, types.PQ, 100, 35, 0, 0, 1, 0},
			{8, types.PQ, 0, 0, 0, 0, 1, 0},
			{9, types.PQ, 125, 50, 0, 0, 1, 0},
		},
		[]branchRow{
			{1, 4, 0, 0.0576, 0, 0, 0},
			{4, 5, 0.017, 0.092, 0.158, 0, 0},
			{5, 6, 0.039, 0.17, 0.358, 0, 0},
			{3, 6, 0, 0.0586, 0, 0, 0},
			{6, 7, 0.0119, 0.1008, 0.209, 0, 0},
			{7, 8, 0.0085, 0.072, 0.149, 0, 0},
			{8, 2, 0, 0.0625, 0, 0, 0},
			{8, 9, 0.032, 0.161, 0.306, 0, 0},
			{9, 4, 0.01, 0.085, 0.176, 0, 0},
		},
		[]genRow{
			{1, 72.3, 27.03, 300, -300, 1.04},
			{2, 163, 6.54, 300, -300, 1.025},
			{3, 85, -10.95, 300, -300, 1.025},
		})
}

// IEEE14 IEEE 14节点
func IEEE14() *types.System {
	return build(100,
		[]busRow{
			{1, types.Slack, 0, 0, 0, 0, 1.06, 0},
			{2, types.PV, 21.7, 12.7, 0, 0, 1.045, -4.98},
			{3, types.PV, 94.2, 19, 0, 0, 1.01, -12.72},
			{4, types.PQ, 47.8, -3.9, 0, 0, 1.019, -10.33},
			{5, types.PQ, 7.6, 1.6, 0, 0, 1.02, -8.78},
			{6, types.PV, 11.2, 7.5, 0, 0, 1.07, -14.22},
			{7, types.PQ, 0, 0, 0, 0, 1.062, -13.37},
			{8, types.PV, 0, 0, 0, 0, 1.09, -13.36},
			{9, types.PQ, 29.5, 16.6, 0, 19, 1.056, -14.94},
			{10, types.PQ, 9, 5.8, 0, 0, 1.051, -15.1},
			{11, types.PQ, 3.5, 1.8, 0, 0, 1.057, -14.79},
			{12, types.PQ, 6.1, 1.6, 0, 0, 1.055, -15.07},
			{13, types.PQ, 13.5, 5.8, 0, 0, 1.05, -15.16},
			{14, types.PQ, 14.9, 5, 0, 0, 1.036, -16.04},
		},
		[]branchRow{
			{1, 2, 0.01938, 0.05917, 0.0528, 0, 0},
			{1, 5, 0.05403, 0.22304, 0.0492, 0, 0},
			{2, 3, 0.04699, 0.19797, 0.0438, 0, 0},
			{2, 4, 0.05811, 0.17632, 0.034, 0, 0},
			{2, 5, 0.05695, 0.17388, 0.0346, 0, 0},
			{3, 4, 0.06701, 0.17103, 0.0128, 0, 0},
			{4, 5, 0.01335, 0.04211, 0, 0, 0},
			{4, 7, 0, 0.20912, 0, 0.978, 0},
			{4, 9, 0, 0.55618, 0, 0.969, 0},
			{5, 6, 0, 0.25202, 0, 0.932, 0},
			{6, 11, 0.09498, 0.1989, 0, 0, 0},
			{6, 12, 0.12291, 0.25581, 0, 0, 0},
			{6, 13, 0.06615, 0.13027, 0, 0, 0},
			{7, 8, 0, 0.17615, 0, 0, 0},
			{7, 9, 0, 0.11001, 0, 0, 0},
			{9, 10, 0.03181, 0.0845, 0, 0, 0},
			{9, 14, 0.12711, 0.27038, 0, 0, 0},
			{10, 11, 0.08205, 0.19207, 0, 0, 0},
			{12, 13, 0.22092, 0.19988, 0, 0, 0},
			{13, 14, 0.17093, 0.34802, 0, 0, 0},
		},
		[]genRow{
			{1, 232.4, -16.9, 10, 0, 1.06},
			{2, 40, 42.4, 50, -40, 1.045},
			{3, 0, 23.4, 40, 0, 1.01},
			{6, 0, 12.2, 24, -6, 1.07},
			{8, 0, 17.4, 24, -6, 1.09},
		})
}
