package chart

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/rustyeddy/autotrader/indicators"
	"github.com/rustyeddy/autotrader/market"
)

// Renderer persists one candlestick chart with SMA overlays per fired
// signal. A nil *Renderer is a no-op, so charting stays optional for
// callers.
type Renderer struct {
	dir string
	now func() time.Time
}

func NewRenderer(dir string) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}
	return &Renderer{dir: dir, now: time.Now}, nil
}

// SaveCrossover renders the series with both SMA overlays and writes it as a
// self-contained HTML artifact. It returns the written path.
func (r *Renderer) SaveCrossover(symbol, signal string, series market.BarSeries, shortWindow, longWindow int) (string, error) {
	if r == nil {
		return "", nil
	}
	if len(series) < 2 {
		return "", fmt.Errorf("chart: not enough bars for %s", symbol)
	}

	closes := series.Closes()
	shortMA := indicators.SMASeries(closes, shortWindow)
	longMA := indicators.SMASeries(closes, longWindow)

	xAxis := make([]string, len(series))
	klineData := make([]opts.KlineData, len(series))
	for i, b := range series {
		xAxis[i] = b.Time.UTC().Format("15:04")
		klineData[i] = opts.KlineData{Value: [4]float64{b.Open, b.Close, b.Low, b.High}}
	}

	title := fmt.Sprintf("%s SMA crossover (%s)", symbol, strings.ToUpper(signal))

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{SplitLine: &opts.SplitLine{Show: opts.Bool(false)}}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	kline.SetXAxis(xAxis)
	kline.AddSeries("price", klineData)

	overlay := charts.NewLine()
	overlay.SetXAxis(xAxis)
	overlay.AddSeries(fmt.Sprintf("SMA%d", shortWindow), lineData(shortMA),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	overlay.AddSeries(fmt.Sprintf("SMA%d", longWindow), lineData(longMA),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	kline.Overlap(overlay)

	name := fmt.Sprintf("%s_%s_%s.html",
		strings.ReplaceAll(symbol, "/", "-"),
		strings.ToLower(signal),
		r.now().UTC().Format("2006-01-02_15-04-05"))
	path := filepath.Join(r.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("chart: %w", err)
	}
	defer f.Close()

	if err := kline.Render(f); err != nil {
		return "", fmt.Errorf("chart: render %s: %w", symbol, err)
	}
	return path, nil
}

// lineData converts an SMA series to chart points; values inside the warmup
// window render as gaps.
func lineData(values []float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = opts.LineData{Value: "-"}
			continue
		}
		out[i] = opts.LineData{Value: v}
	}
	return out
}
