package types

import (
	"fmt"
	"log/slog"
	"math"
)

// BusType 母线类型
type BusType int

// 母线类型常量定义
const (
	PQ    BusType = 1 // 负荷母线
	PV    BusType = 2 // 电压控制母线
	Slack BusType = 3 // 平衡母线
)

// busTypeString 类型映射
var busTypeString = map[BusType]string{
	PQ:    "PQ",
	PV:    "PV",
	Slack: "Slack",
}

// String 返回母线类型的字符串表示
func (t BusType) String() string {
	if name, ok := busTypeString[t]; ok {
		return name
	}
	return fmt.Sprintf("BusType(%d)", int(t))
}

// Bus 母线数据(标幺值)
type Bus struct {
	ID               int     `json:"id"`               // 母线编号(正整数且唯一)
	Name             string  `json:"name,omitempty"`   // 名称
	Type             BusType `json:"type"`             // 声明类型
	ActiveDemand     float64 `json:"activeDemand"`     // 有功负荷
	ReactiveDemand   float64 `json:"reactiveDemand"`   // 无功负荷
	ShuntConductance float64 `json:"shuntConductance"` // 并联电导
	ShuntSusceptance float64 `json:"shuntSusceptance"` // 并联电纳
	Magnitude        float64 `json:"magnitude"`        // 电压幅值(初值/解)
	Angle            float64 `json:"angle"`            // 电压相角(弧度,初值/解)
	MinMagnitude     float64 `json:"minMagnitude"`     // 幅值下限
	MaxMagnitude     float64 `json:"maxMagnitude"`     // 幅值上限
	BaseVoltage      float64 `json:"baseVoltage"`      // 基准电压(kV)
}

// Branch 支路数据(π型等值)
type Branch struct {
	ID          int     `json:"id"`
	From        int     `json:"from"`        // 首端母线编号
	To          int     `json:"to"`          // 末端母线编号
	Resistance  float64 `json:"resistance"`  // 串联电阻
	Reactance   float64 `json:"reactance"`   // 串联电抗
	Conductance float64 `json:"conductance"` // 充电电导(全线)
	Susceptance float64 `json:"susceptance"` // 充电电纳(全线)
	TapRatio    float64 `json:"tapRatio"`    // 变比幅值,0视为1
	ShiftAngle  float64 `json:"shiftAngle"`  // 移相角(弧度)
	Status      bool    `json:"status"`      // 投运标记
}

// Tap 返回有效变比
func (br *Branch) Tap() float64 {
	if br.TapRatio == 0 {
		return 1
	}
	return br.TapRatio
}

// Generator 发电机数据
type Generator struct {
	ID          int     `json:"id"`
	Bus         int     `json:"bus"`         // 所在母线编号
	Active      float64 `json:"active"`      // 有功出力
	Reactive    float64 `json:"reactive"`    // 无功出力
	Voltage     float64 `json:"voltage"`     // 电压设定值
	MinReactive float64 `json:"minReactive"` // 无功下限(可为-Inf)
	MaxReactive float64 `json:"maxReactive"` // 无功上限(可为+Inf)
	Status      bool    `json:"status"`      // 投运标记
}

// System 电力系统数据
type System struct {
	BasePower  float64     `json:"basePower"` // 基准容量(MVA)
	Buses      []Bus       `json:"buses"`
	Branches   []Branch    `json:"branches"`
	Generators []Generator `json:"generators"`
}

// Clone 深拷贝
func (s *System) Clone() *System {
	return &System{
		BasePower:  s.BasePower,
		Buses:      append([]Bus(nil), s.Buses...),
		Branches:   append([]Branch(nil), s.Branches...),
		Generators: append([]Generator(nil), s.Generators...),
	}
}

// BranchIndex 通过编号查找支路位置
func (s *System) BranchIndex(id int) (int, error) {
	if id <= 0 {
		return -1, fmt.Errorf("branch %d: %w", id, ErrInvalidLabel)
	}
	for i := range s.Branches {
		if s.Branches[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("branch %d: %w", id, ErrNotFound)
}

// GeneratorIndex 通过编号查找发电机位置
func (s *System) GeneratorIndex(id int) (int, error) {
	if id <= 0 {
		return -1, fmt.Errorf("generator %d: %w", id, ErrInvalidLabel)
	}
	for i := range s.Generators {
		if s.Generators[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("generator %d: %w", id, ErrNotFound)
}

// Normalize 补全缺省的基准值,缺省时记录告警
func (s *System) Normalize(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if s.BasePower <= 0 || math.IsNaN(s.BasePower) {
		logger.Warn("base power missing, using default", "basePower", DefaultBasePower)
		s.BasePower = DefaultBasePower
	}
	missing := 0
	for i := range s.Buses {
		if s.Buses[i].BaseVoltage <= 0 {
			s.Buses[i].BaseVoltage = DefaultBaseVoltage
			missing++
		}
	}
	if missing > 0 {
		logger.Warn("base voltage missing, using default", "buses", missing, "baseVoltage", DefaultBaseVoltage)
	}
}
