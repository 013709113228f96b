package powerflow

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"testing"

	"powerflow/cases"
	"powerflow/debug"
	"powerflow/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPowerFlow(t *testing.T, sys *types.System, opts ...types.Option) *PowerFlow {
	t.Helper()
	pf, err := New(sys, types.NewConfig(opts...))
	require.NoError(t, err)
	return pf
}

func TestSolveCommitsSolution(t *testing.T) {
	sys := cases.IEEE14()
	pf := newPowerFlow(t, sys)
	res, err := pf.Solve(types.NewtonRaphson)
	require.NoError(t, err)
	require.True(t, res.Converged())
	assert.Same(t, res, pf.Result())

	assert.InDelta(t, 1.0177, sys.Buses[3].Magnitude, 1e-4)
	assert.InDelta(t, -10.3129*math.Pi/180, sys.Buses[3].Angle, 1e-5)
	// 平衡母线有功与电压控制母线无功写回发电机
	assert.InDelta(t, 2.3239, sys.Generators[0].Active, 1e-4)
	assert.InDelta(t, -0.1655, sys.Generators[0].Reactive, 1e-4)
	assert.InDelta(t, 0.4356, sys.Generators[1].Reactive, 1e-4)
}

func TestPowersBalance(t *testing.T) {
	for _, method := range []types.Method{types.NewtonRaphson, types.DC} {
		sys := cases.IEEE14()
		pf := newPowerFlow(t, sys)
		_, err := pf.Solve(method)
		require.NoError(t, err)
		powers, err := pf.Powers()
		require.NoError(t, err)
		assert.Len(t, powers.Branches, 20)

		var injected, losses float64
		for _, bus := range powers.Buses {
			injected += bus.Active
		}
		for _, br := range powers.Branches {
			losses += br.LossActive
			assert.InDelta(t, br.LossActive, br.FromActive+br.ToActive, 1e-12)
		}
		assert.InDelta(t, losses, injected, 1e-8, method.String())

		var generated float64
		for _, gen := range powers.Generators {
			generated += gen.Active
		}
		var demand float64
		for _, bus := range sys.Buses {
			demand += bus.ActiveDemand
		}
		assert.InDelta(t, demand+losses, generated, 1e-6, method.String())
	}
}

func TestPowersDCTwoBus(t *testing.T) {
	pf := newPowerFlow(t, cases.TwoBus())
	_, err := pf.Powers()
	assert.ErrorIs(t, err, ErrNoResult)

	res, err := pf.Solve(types.DC)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Report.Iterations)
	powers, err := pf.Powers()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, powers.Branches[0].FromActive, 1e-12)
	assert.InDelta(t, 0.5, powers.Generators[0].Active, 1e-12)
	assert.InDelta(t, -0.05, pf.System.Buses[1].Angle, 1e-12)
	// 直流潮流不修改幅值
	assert.Equal(t, 1.0, pf.System.Buses[1].Magnitude)
}

func TestSolveWithLimitsConvertsBus(t *testing.T) {
	sys := cases.ThreeBus()
	sys.Generators[1].MaxReactive = 0.05
	pf := newPowerFlow(t, sys)
	res, err := pf.SolveWithLimits(types.NewtonRaphson)
	require.NoError(t, err)
	require.True(t, res.Converged())
	assert.Equal(t, 1, res.Rounds)
	assert.Equal(t, []int{3}, res.Converted)
	assert.Equal(t, types.PQ, sys.Buses[2].Type)
	assert.Equal(t, 0.05, sys.Generators[1].Reactive)
	assert.InDelta(t, 1.03889, sys.Buses[2].Magnitude, 1e-5)

	// 固定点: 再次求解无越限
	again, err := pf.SolveWithLimits(types.NewtonRaphson)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Rounds)
	assert.InDelta(t, res.State.Magnitude[2], again.State.Magnitude[2], 1e-9)
}

func TestSolveWithLimitsOneAtATime(t *testing.T) {
	for _, mode := range []types.QLimitMode{types.QLimitOne, types.QLimitAll} {
		sys := cases.IEEE14()
		sys.Generators[1].MaxReactive = 0.30
		sys.Generators[3].MaxReactive = 0.10
		pf := newPowerFlow(t, sys, types.WithQLimitMode(mode))
		res, err := pf.SolveWithLimits(types.NewtonRaphson)
		require.NoError(t, err)
		require.True(t, res.Converged())
		if mode == types.QLimitOne {
			// 越限最严重的母线2先转换
			assert.Equal(t, []int{2, 6}, res.Converted)
			assert.Equal(t, 2, res.Rounds)
		} else {
			assert.ElementsMatch(t, []int{2, 6}, res.Converted)
			assert.Equal(t, 1, res.Rounds)
		}
		assert.InDelta(t, 1.03991, sys.Buses[1].Magnitude, 1e-5)
		assert.InDelta(t, 1.06236, sys.Buses[5].Magnitude, 1e-5)
		assert.Empty(t, pf.violations())
	}
}

func TestSolveWithLimitsRoundCap(t *testing.T) {
	sys := cases.IEEE14()
	sys.Generators[1].MaxReactive = 0.30
	sys.Generators[3].MaxReactive = 0.10
	pf := newPowerFlow(t, sys, types.WithMaxLimitRounds(1))
	res, err := pf.SolveWithLimits(types.NewtonRaphson)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rounds)
	assert.Equal(t, []int{2}, res.Converted)
	assert.NotEmpty(t, pf.violations())
}

func TestSolveWithLimitsDC(t *testing.T) {
	sys := cases.ThreeBus()
	sys.Generators[1].MaxReactive = 0.05
	pf := newPowerFlow(t, sys)
	res, err := pf.SolveWithLimits(types.DC)
	require.NoError(t, err)
	assert.Empty(t, res.Converted)
	assert.Equal(t, types.PV, sys.Buses[2].Type)
}

func TestAdjustAnglesKeepsFlows(t *testing.T) {
	pf := newPowerFlow(t, cases.IEEE9())
	_, err := pf.Solve(types.NewtonRaphson)
	require.NoError(t, err)
	before, err := pf.Powers()
	require.NoError(t, err)

	require.NoError(t, pf.AdjustAngles(2, 0.3))
	assert.InDelta(t, 0.3, pf.System.Buses[1].Angle, 1e-15)
	assert.InDelta(t, 0.3, pf.Result().State.Angle[1], 1e-15)
	after, err := pf.Powers()
	require.NoError(t, err)
	for k := range before.Branches {
		assert.InDelta(t, before.Branches[k].FromActive, after.Branches[k].FromActive, 1e-12)
		assert.InDelta(t, before.Branches[k].ToReactive, after.Branches[k].ToReactive, 1e-12)
	}
	assert.ErrorIs(t, pf.AdjustAngles(99, 0), types.ErrNotFound)
}

func TestUpdateBranchMatchesRebuild(t *testing.T) {
	for _, method := range []types.Method{types.NewtonRaphson, types.FastDecoupledBX, types.DC} {
		sys := cases.IEEE9()
		pf := newPowerFlow(t, sys)
		_, err := pf.Solve(method)
		require.NoError(t, err)

		require.NoError(t, pf.UpdateBranch(5, func(br *types.Branch) {
			br.Resistance *= 1.5
			br.Reactance *= 1.2
			br.TapRatio = 1.03
		}))
		require.NoError(t, pf.UpdateBranch(8, func(br *types.Branch) { br.Status = false }))
		require.NoError(t, pf.UpdateShunt(5, 0, 0.1))
		patched, err := pf.Solve(method)
		require.NoError(t, err)

		fresh := newPowerFlow(t, sys.Clone())
		rebuilt, err := fresh.Solve(method)
		require.NoError(t, err)
		assert.InDeltaSlice(t, rebuilt.State.Angle, patched.State.Angle, 1e-9, method.String())
		assert.InDeltaSlice(t, rebuilt.State.Magnitude, patched.State.Magnitude, 1e-9, method.String())
	}
}

func TestUpdateBranchRejectsInvalid(t *testing.T) {
	sys := cases.IEEE9()
	pf := newPowerFlow(t, sys)
	ref, err := pf.Solve(types.NewtonRaphson)
	require.NoError(t, err)

	err = pf.UpdateBranch(2, func(br *types.Branch) { br.Resistance, br.Reactance = 0, 0 })
	assert.ErrorIs(t, err, types.ErrZeroImpedance)
	err = pf.UpdateBranch(2, func(br *types.Branch) { br.To = 42 })
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, pf.UpdateBranch(42, func(*types.Branch) {}), types.ErrNotFound)
	assert.ErrorIs(t, pf.UpdateShunt(42, 0, 0), types.ErrNotFound)

	// 模型未被修改
	res, err := pf.Solve(types.NewtonRaphson)
	require.NoError(t, err)
	assert.InDeltaSlice(t, ref.State.Angle, res.State.Angle, 1e-12)
}

func TestSolveSingularReportsIslands(t *testing.T) {
	sys := cases.IEEE9()
	sys.Branches[6].Status = false
	pf := newPowerFlow(t, sys)
	for _, method := range types.Methods() {
		_, err := pf.Solve(method)
		var se *types.SingularError
		require.True(t, errors.As(err, &se), method.String())
		assert.Equal(t, [][]int{{2}}, se.Islands)
		assert.Contains(t, err.Error(), "[2]")
	}
}

func TestSolveStepFailureLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rec := &debug.Record{}
	sys := cases.IEEE9()
	sys.Branches[6].Status = false
	pf := newPowerFlow(t, sys, types.WithLogger(logger), types.WithDebug(rec))
	_, err := pf.Solve(types.NewtonRaphson)
	require.ErrorIs(t, err, types.ErrSingular)
	assert.Contains(t, buf.String(), "power flow step failed")
	assert.Contains(t, buf.String(), "method=nr")
	require.Len(t, rec.Errors, 1)
	assert.Contains(t, rec.Errors[0], "singular")
}

func TestSolveConfigErrors(t *testing.T) {
	sys := cases.ThreeBus()
	sys.Buses[1].Type = types.Slack
	pf := newPowerFlow(t, sys)
	_, err := pf.Solve(types.NewtonRaphson)
	assert.ErrorIs(t, err, types.ErrMultipleSlack)

	sys = cases.ThreeBus()
	sys.Branches[0].Resistance, sys.Branches[0].Reactance = 0, 0
	pf = newPowerFlow(t, sys)
	_, err = pf.Solve(types.GaussSeidel)
	assert.ErrorIs(t, err, types.ErrZeroImpedance)

	sys = cases.ThreeBus()
	sys.Buses[2].ID = 1
	_, err = New(sys, types.NewConfig())
	assert.ErrorIs(t, err, types.ErrInvalidLabel)
}

func TestNonConvergenceIsNotAnError(t *testing.T) {
	sys := cases.IEEE14()
	pf := newPowerFlow(t, sys, types.WithMaxIterations(2))
	res, err := pf.Solve(types.GaussSeidel)
	require.NoError(t, err)
	assert.False(t, res.Converged())
	// 未收敛不写回
	assert.Equal(t, cases.IEEE14().Buses[4].Magnitude, sys.Buses[4].Magnitude)
}

func TestModellingWarnings(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sys := cases.TwoBus()
	sys.BasePower = 0
	sys.Buses[0].Type = types.PQ
	pf := newPowerFlow(t, sys, types.WithLogger(logger))
	assert.Equal(t, float64(types.DefaultBasePower), sys.BasePower)
	res, err := pf.Solve(types.NewtonRaphson)
	require.NoError(t, err)
	assert.True(t, res.Converged())
	assert.Contains(t, buf.String(), "base power missing")
	assert.Contains(t, buf.String(), "slack bus not found")
	assert.Contains(t, buf.String(), "power flow converged")
}

func TestDebugRecord(t *testing.T) {
	rec := &debug.Record{}
	sys := cases.ThreeBus()
	sys.Generators[1].MaxReactive = 0.05
	pf := newPowerFlow(t, sys, types.WithDebug(rec))
	res, err := pf.SolveWithLimits(types.FastDecoupledXB)
	require.NoError(t, err)
	require.Len(t, rec.Runs, 2)
	assert.Equal(t, []int{1, 2, 3}, rec.Buses)
	last := rec.Runs[1]
	assert.Equal(t, "fdxb", last.Method)
	assert.Len(t, last.Active, res.Report.Iterations+1)
	assert.Less(t, last.Active[len(last.Active)-1], types.DefaultTolerance)
}
