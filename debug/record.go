// Package debug 记录迭代过程并输出
package debug

import (
	"encoding/json"
	"io"
)

// Trace 一次求解的迭代历史
type Trace struct {
	Method     string      `json:"method"`
	Iterations []int       `json:"iterations"`
	Active     []float64   `json:"active"`   // 有功不平衡量
	Reactive   []float64   `json:"reactive"` // 无功不平衡量
	Magnitude  [][]float64 `json:"magnitude"`
	Angle      [][]float64 `json:"angle"`
}

// Record 记录历史状态
type Record struct {
	Buses  []int    `json:"buses"` // 母线编号(状态向量顺序)
	Runs   []Trace  `json:"runs"`  // 每次求解一段(无功越限处理会产生多段)
	Errors []string `json:"errors,omitempty"`
	off    bool
}

// Init 开始记录一次求解
func (list *Record) Init(method string, buses []int) {
	list.Buses = append(list.Buses[:0], buses...)
	list.Runs = append(list.Runs, Trace{Method: method})
}

func (list *Record) IsDebug() bool    { return !list.off }
func (list *Record) SetDebug(is bool) { list.off = !is }

// Update 记录数据
func (list *Record) Update(iter int, active, reactive float64, magnitude, angle []float64) {
	if len(list.Runs) == 0 {
		list.Runs = append(list.Runs, Trace{})
	}
	run := &list.Runs[len(list.Runs)-1]
	run.Iterations = append(run.Iterations, iter)
	run.Active = append(run.Active, active)
	run.Reactive = append(run.Reactive, reactive)
	run.Magnitude = append(run.Magnitude, append([]float64{}, magnitude...))
	run.Angle = append(run.Angle, append([]float64{}, angle...))
}

// Render 格式和输出内容
func (list *Record) Render(w io.Writer) error { return json.NewEncoder(w).Encode(list) }

// Error 记录错误
func (list *Record) Error(err error) {
	list.Errors = append(list.Errors, err.Error())
}
