package ybus

import (
	"fmt"

	"powerflow/graph"
	"powerflow/maths"
	"powerflow/types"
)

// DC 直流潮流节点电纳矩阵
type DC struct {
	B          maths.Matrix[float64] // 节点电纳矩阵B'
	ShiftPower []float64             // 移相器等效注入功率
	Revision   uint64
	index      *graph.Index
}

// BuildDC 由系统数据构建B'，支路电纳 b = 1/(τx)
func BuildDC(sys *types.System, idx *graph.Index) (*DC, error) {
	n := idx.Len()
	dc := &DC{
		B:          maths.NewSparseMatrix[float64](n, n),
		ShiftPower: make([]float64, n),
		index:      idx,
	}
	for _, br := range sys.Branches {
		if err := dc.stampBranch(br, 1); err != nil {
			return nil, err
		}
	}
	return dc, nil
}

// Index 母线索引
func (dc *DC) Index() *graph.Index { return dc.index }

// Susceptance 支路直流电纳
func Susceptance(br types.Branch) (float64, error) {
	if br.Reactance == 0 {
		return 0, fmt.Errorf("branch %d (%d-%d): %w", br.ID, br.From, br.To, types.ErrZeroImpedance)
	}
	return 1 / (br.Tap() * br.Reactance), nil
}

func (dc *DC) stampBranch(br types.Branch, sign float64) error {
	if !br.Status {
		return nil
	}
	f, t, err := ends(dc.index, br)
	if err != nil {
		return err
	}
	b, err := Susceptance(br)
	if err != nil {
		return err
	}
	b *= sign
	Stamp(dc.B, f, t, b, -b, -b, b)
	if br.ShiftAngle != 0 {
		dc.ShiftPower[f] -= br.ShiftAngle * b
		dc.ShiftPower[t] += br.ShiftAngle * b
	}
	return nil
}

// PatchBranch 增量修改支路贡献(sign=1加入，sign=-1移除)
func (dc *DC) PatchBranch(br types.Branch, sign float64) error {
	if err := dc.stampBranch(br, sign); err != nil {
		return err
	}
	dc.Revision++
	return nil
}
