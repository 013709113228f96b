package ybus

import (
	"powerflow/graph"
	"powerflow/maths"
	"powerflow/types"
)

// BuildB 按简化选项构建 -Im(Y)，用于快速解耦法的 B' 与 B''。
// shunt 为 false 时忽略母线并联电纳。
func BuildB(sys *types.System, idx *graph.Index, s Simplify, shunt bool) (maths.Matrix[float64], error) {
	n := idx.Len()
	b := maths.NewSparseMatrix[float64](n, n)
	for _, br := range sys.Branches {
		if !br.Status {
			continue
		}
		f, t, err := ends(idx, br)
		if err != nil {
			return nil, err
		}
		q, err := BranchQuadrant(br, s)
		if err != nil {
			return nil, err
		}
		Stamp(b, f, t, -imag(q.FF), -imag(q.FT), -imag(q.TF), -imag(q.TT))
	}
	if shunt {
		for i, bus := range sys.Buses {
			b.Increment(i, i, -bus.ShuntSusceptance)
		}
	}
	return b, nil
}
