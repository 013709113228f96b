package debug

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// floor 对数坐标下限
const floor = 1e-16

// Charts 收敛曲线绘制
type Charts struct {
	Record
	Format        string    // 输出格式(svg/png/pdf/eps)，默认svg
	Width, Height vg.Length // 图像尺寸，默认 6x4 英寸
}

// Render 以对数坐标绘制每次求解的有功/无功不平衡量
func (c *Charts) Render(w io.Writer) error {
	p := plot.New()
	p.Title.Text = "Power flow convergence"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "max mismatch (p.u.)"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	var lines []any
	for k, run := range c.Runs {
		if len(run.Iterations) == 0 {
			continue
		}
		active := make(plotter.XYs, len(run.Iterations))
		reactive := make(plotter.XYs, len(run.Iterations))
		for i, iter := range run.Iterations {
			active[i] = plotter.XY{X: float64(iter), Y: math.Max(run.Active[i], floor)}
			reactive[i] = plotter.XY{X: float64(iter), Y: math.Max(run.Reactive[i], floor)}
		}
		lines = append(lines,
			fmt.Sprintf("%s#%d P", run.Method, k+1), active,
			fmt.Sprintf("%s#%d Q", run.Method, k+1), reactive)
	}
	if len(lines) == 0 {
		return fmt.Errorf("charts: no iterations recorded")
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return fmt.Errorf("charts: %w", err)
	}
	width, height := c.Width, c.Height
	if width <= 0 {
		width = 6 * vg.Inch
	}
	if height <= 0 {
		height = 4 * vg.Inch
	}
	format := c.Format
	if format == "" {
		format = "svg"
	}
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return fmt.Errorf("charts: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
