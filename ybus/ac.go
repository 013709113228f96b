package ybus

import (
	"fmt"

	"powerflow/graph"
	"powerflow/maths"
	"powerflow/types"
)

// AC 交流节点导纳矩阵
type AC struct {
	Y         maths.Matrix[complex128] // 节点导纳矩阵(稀疏)
	Quadrants []Quadrant               // 各支路导纳分量(退出运行为零值)
	Revision  uint64                   // 修改计数，派生的分解据此失效
	index     *graph.Index
}

// BuildAC 由系统数据构建节点导纳矩阵
func BuildAC(sys *types.System, idx *graph.Index) (*AC, error) {
	n := idx.Len()
	ac := &AC{
		Y:         maths.NewSparseMatrix[complex128](n, n),
		Quadrants: make([]Quadrant, len(sys.Branches)),
		index:     idx,
	}
	for k, br := range sys.Branches {
		if err := ac.stampBranch(k, br, 1); err != nil {
			return nil, err
		}
	}
	for i, bus := range sys.Buses {
		if bus.ShuntConductance != 0 || bus.ShuntSusceptance != 0 {
			ac.Y.Increment(i, i, complex(bus.ShuntConductance, bus.ShuntSusceptance))
		}
	}
	return ac, nil
}

// Index 母线索引
func (ac *AC) Index() *graph.Index { return ac.index }

// stampBranch 加盖(sign=1)或撤销(sign=-1)一条支路
func (ac *AC) stampBranch(k int, br types.Branch, sign float64) error {
	if !br.Status {
		return nil
	}
	f, t, err := ends(ac.index, br)
	if err != nil {
		return err
	}
	q, err := BranchQuadrant(br, 0)
	if err != nil {
		return err
	}
	if sign > 0 {
		ac.Quadrants[k] = q
	} else {
		ac.Quadrants[k] = Quadrant{}
	}
	q = q.Scale(complex(sign, 0))
	Stamp(ac.Y, f, t, q.FF, q.FT, q.TF, q.TT)
	return nil
}

// PatchBranch 增量修改第k条支路的贡献(sign=1加入，sign=-1移除)
func (ac *AC) PatchBranch(k int, br types.Branch, sign float64) error {
	if k < 0 || k >= len(ac.Quadrants) {
		return fmt.Errorf("branch position %d: %w", k, types.ErrNotFound)
	}
	if err := ac.stampBranch(k, br, sign); err != nil {
		return err
	}
	ac.Revision++
	return nil
}

// PatchShunt 增量修改母线并联导纳
func (ac *AC) PatchShunt(bus int, g, b, sign float64) error {
	i, err := ac.index.Position(bus)
	if err != nil {
		return fmt.Errorf("shunt: %w", err)
	}
	ac.Y.Increment(i, i, complex(sign*g, sign*b))
	ac.Revision++
	return nil
}

// ends 支路两端母线位置
func ends(idx *graph.Index, br types.Branch) (int, int, error) {
	f, err := idx.Position(br.From)
	if err != nil {
		return 0, 0, fmt.Errorf("branch %d (%d-%d): %w", br.ID, br.From, br.To, err)
	}
	t, err := idx.Position(br.To)
	if err != nil {
		return 0, 0, fmt.Errorf("branch %d (%d-%d): %w", br.ID, br.From, br.To, err)
	}
	return f, t, nil
}
