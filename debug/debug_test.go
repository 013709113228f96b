package debug

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"powerflow/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ types.Debug = (*Record)(nil)
	_ types.Debug = (*Charts)(nil)
)

func fill(rec types.Debug) {
	rec.Init("nr", []int{1, 2})
	rec.Update(0, 0.5, 0.1, []float64{1, 1}, []float64{0, 0})
	rec.Update(1, 1e-3, 2e-4, []float64{1, 0.99}, []float64{0, -0.05})
	rec.Update(2, 0, 1e-9, []float64{1, 0.9987}, []float64{0, -0.0501})
}

func TestRecordRender(t *testing.T) {
	rec := &Record{}
	assert.True(t, rec.IsDebug())
	fill(rec)
	rec.Error(errors.New("boom"))

	var buf bytes.Buffer
	require.NoError(t, rec.Render(&buf))
	var out Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, []int{1, 2}, out.Buses)
	require.Len(t, out.Runs, 1)
	assert.Equal(t, "nr", out.Runs[0].Method)
	assert.Equal(t, []int{0, 1, 2}, out.Runs[0].Iterations)
	assert.Equal(t, []float64{1, 0.99}, out.Runs[0].Magnitude[1])
	assert.Equal(t, []string{"boom"}, out.Errors)

	rec.SetDebug(false)
	assert.False(t, rec.IsDebug())
}

func TestRecordCopiesState(t *testing.T) {
	rec := &Record{}
	rec.Init("gs", []int{1})
	v := []float64{1}
	rec.Update(0, 1, 1, v, []float64{0})
	v[0] = 2
	assert.Equal(t, 1.0, rec.Runs[0].Magnitude[0][0])
}

func TestChartsRender(t *testing.T) {
	c := &Charts{}
	fill(c)
	c.Init("fdxb", []int{1, 2})
	c.Update(0, 0.5, 0.2, []float64{1, 1}, []float64{0, 0})

	var buf bytes.Buffer
	require.NoError(t, c.Render(&buf))
	assert.Contains(t, buf.String(), "<svg")
	assert.Len(t, c.Runs, 2)
}

func TestChartsEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, (&Charts{}).Render(&buf))
}
