package graph

import (
	"fmt"
	"log/slog"
	"slices"

	"powerflow/types"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Index 母线编号到矩阵位置的映射
type Index struct {
	ids []int       // 位置 -> 编号
	pos map[int]int // 编号 -> 位置
}

// NewIndex 建立母线索引并校验所有元件引用的编号
func NewIndex(sys *types.System) (*Index, error) {
	idx := &Index{
		ids: make([]int, len(sys.Buses)),
		pos: make(map[int]int, len(sys.Buses)),
	}
	for i, bus := range sys.Buses {
		if bus.ID <= 0 {
			return nil, fmt.Errorf("bus %d: %w", bus.ID, types.ErrInvalidLabel)
		}
		if _, ok := idx.pos[bus.ID]; ok {
			return nil, fmt.Errorf("bus %d: duplicate: %w", bus.ID, types.ErrInvalidLabel)
		}
		idx.ids[i] = bus.ID
		idx.pos[bus.ID] = i
	}
	for _, br := range sys.Branches {
		if br.ID <= 0 {
			return nil, fmt.Errorf("branch %d: %w", br.ID, types.ErrInvalidLabel)
		}
		if _, err := idx.Position(br.From); err != nil {
			return nil, fmt.Errorf("branch %d from: %w", br.ID, err)
		}
		if _, err := idx.Position(br.To); err != nil {
			return nil, fmt.Errorf("branch %d to: %w", br.ID, err)
		}
	}
	for _, gen := range sys.Generators {
		if gen.ID <= 0 {
			return nil, fmt.Errorf("generator %d: %w", gen.ID, types.ErrInvalidLabel)
		}
		if _, err := idx.Position(gen.Bus); err != nil {
			return nil, fmt.Errorf("generator %d: %w", gen.ID, err)
		}
	}
	return idx, nil
}

// Position 编号 -> 位置
func (idx *Index) Position(id int) (int, error) {
	if id <= 0 {
		return -1, fmt.Errorf("bus %d: %w", id, types.ErrInvalidLabel)
	}
	i, ok := idx.pos[id]
	if !ok {
		return -1, fmt.Errorf("bus %d: %w", id, types.ErrNotFound)
	}
	return i, nil
}

// ID 位置 -> 编号
func (idx *Index) ID(i int) int { return idx.ids[i] }

// Len 母线数量
func (idx *Index) Len() int { return len(idx.ids) }

// Classification 母线分类结果，求解器快照期间不可变
type Classification struct {
	Types    []types.BusType // 求解用类型（与声明类型可能不同）
	Slack    int             // 平衡母线位置
	PV       []int           // 电压控制母线位置
	PQ       []int           // 负荷母线位置
	NonSlack []int           // 非平衡母线位置（节点顺序）
	Setpoint []float64       // 电压幅值设定（PV与平衡母线有效）
}

// Classify 按声明类型与发电机投运状态对母线分类：
//   - 类型3 -> 平衡母线，出现第二个时报错
//   - 类型2且至少一台投运发电机 -> 电压控制母线
//   - 类型2无投运发电机 -> 负荷母线（不修改声明类型）
//   - 类型1 -> 负荷母线
//
// 未声明平衡母线时以母线1(不存在时取第一条母线)为平衡母线并记录告警。
func Classify(sys *types.System, idx *Index, logger *slog.Logger) (*Classification, error) {
	if logger == nil {
		logger = slog.Default()
	}
	n := idx.Len()
	if n == 0 {
		return nil, fmt.Errorf("system has no buses: %w", types.ErrNotFound)
	}
	setpoint := make([]float64, n)
	hasGen := make([]bool, n)
	for i := range sys.Buses {
		setpoint[i] = sys.Buses[i].Magnitude
	}
	for _, gen := range sys.Generators {
		if !gen.Status {
			continue
		}
		i, err := idx.Position(gen.Bus)
		if err != nil {
			return nil, fmt.Errorf("generator %d: %w", gen.ID, err)
		}
		if !hasGen[i] && gen.Voltage > 0 {
			setpoint[i] = gen.Voltage
		}
		hasGen[i] = true
	}
	c := &Classification{Types: make([]types.BusType, n), Slack: -1}
	for i, bus := range sys.Buses {
		switch {
		case bus.Type == types.Slack:
			if c.Slack >= 0 {
				return nil, fmt.Errorf("bus %d and bus %d: %w", idx.ID(c.Slack), bus.ID, types.ErrMultipleSlack)
			}
			c.Slack = i
			c.Types[i] = types.Slack
		case bus.Type == types.PV && hasGen[i]:
			c.Types[i] = types.PV
		default:
			c.Types[i] = types.PQ
		}
	}
	if c.Slack < 0 {
		// 默认母线1，不存在时取第一条母线
		c.Slack = 0
		if i, err := idx.Position(1); err == nil {
			c.Slack = i
		}
		logger.Warn("slack bus not found, defaulting", "bus", idx.ID(c.Slack))
		c.Types[c.Slack] = types.Slack
	}
	for i, t := range c.Types {
		if setpoint[i] <= 0 {
			setpoint[i] = 1
		}
		switch t {
		case types.PV:
			c.PV = append(c.PV, i)
			c.NonSlack = append(c.NonSlack, i)
		case types.PQ:
			c.PQ = append(c.PQ, i)
			c.NonSlack = append(c.NonSlack, i)
		}
	}
	c.Setpoint = setpoint
	return c, nil
}

// Graph 组合索引与分类
type Graph struct {
	*Index
	*Classification
}

// NewGraph 创建图
func NewGraph(sys *types.System, logger *slog.Logger) (*Graph, error) {
	idx, err := NewIndex(sys)
	if err != nil {
		return nil, err
	}
	class, err := Classify(sys, idx, logger)
	if err != nil {
		return nil, err
	}
	return &Graph{Index: idx, Classification: class}, nil
}

// Islands 返回投运支路形成的连通分量（母线编号，按最小编号排序）
func Islands(sys *types.System, idx *Index) [][]int {
	g := simple.NewUndirectedGraph()
	for i := 0; i < idx.Len(); i++ {
		g.AddNode(simple.Node(i))
	}
	for _, br := range sys.Branches {
		if !br.Status {
			continue
		}
		f, errF := idx.Position(br.From)
		t, errT := idx.Position(br.To)
		if errF != nil || errT != nil || f == t || g.HasEdgeBetween(int64(f), int64(t)) {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(f), T: simple.Node(t)})
	}
	components := topo.ConnectedComponents(g)
	islands := make([][]int, 0, len(components))
	for _, nodes := range components {
		ids := make([]int, 0, len(nodes))
		for _, node := range nodes {
			ids = append(ids, idx.ID(int(node.ID())))
		}
		slices.Sort(ids)
		islands = append(islands, ids)
	}
	slices.SortFunc(islands, func(a, b []int) int { return a[0] - b[0] })
	return islands
}

// Unreachable 返回不包含平衡母线的连通分量
func (g *Graph) Unreachable(sys *types.System) [][]int {
	slack := g.ID(g.Slack)
	var out [][]int
	for _, island := range Islands(sys, g.Index) {
		if !slices.Contains(island, slack) {
			out = append(out, island)
		}
	}
	return out
}
