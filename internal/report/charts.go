package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// DPI is the raster resolution of every chart artifact.
const DPI = 150

// Fixed artifact filenames per chart type.
const (
	SummaryFile     = "allocator_summary.png"
	HeatmapFile     = "allocator_heatmap.png"
	HeatmapLogFile  = "allocator_heatmap_log.png"
	TopCommandsFile = "top_commands_comparison.png"
)

var (
	steelBlue   = color.RGBA{70, 130, 180, 255}
	forestGreen = color.RGBA{34, 139, 34, 255}
	coral       = color.RGBA{255, 127, 80, 255}
	lightBlue   = color.RGBA{173, 216, 230, 255}

	// one bar color per allocator in grouped charts
	groupColors = []color.RGBA{
		{31, 119, 180, 255},
		{255, 127, 14, 255},
		{44, 160, 44, 255},
		{214, 39, 40, 255},
		{148, 103, 189, 255},
		{140, 86, 75, 255},
		{227, 119, 194, 255},
		{127, 127, 127, 255},
		{188, 189, 34, 255},
		{23, 190, 207, 255},
	}
)

func sanitizeName(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		" ", "_",
	)
	return replacer.Replace(strings.TrimSpace(s))
}

// savePNG rasterizes one plot at the fixed DPI.
func savePNG(p *plot.Plot, w, h vg.Length, path string) error {
	img := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(DPI))
	p.Draw(draw.New(img))
	return writePNG(img, path)
}

// saveGrid rasterizes a grid of plots on one canvas at the fixed DPI.
func saveGrid(plots [][]*plot.Plot, rows, cols int, w, h vg.Length, path string) error {
	img := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(DPI))
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows: rows,
		Cols: cols,
		PadX: vg.Millimeter * 4,
		PadY: vg.Millimeter * 4,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			if plots[i][j] != nil {
				plots[i][j].Draw(canvases[i][j])
			}
		}
	}
	return writePNG(img, path)
}

func writePNG(img *vgimg.Canvas, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create chart file: %w", err)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

type errPoints struct {
	plotter.XYs
	plotter.YErrors
}

// barPanel builds one bar chart with [min,max] error bars for a single
// time dimension across allocators.
func barPanel(title string, allocators []string, mean, min, max []float64, c color.RGBA) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Allocator"
	p.Y.Label.Text = "Time (s)"

	bars, err := plotter.NewBarChart(plotter.Values(mean), vg.Points(30))
	if err != nil {
		return nil, err
	}
	bars.Color = c
	p.Add(bars)

	pts := errPoints{
		XYs:     make(plotter.XYs, len(mean)),
		YErrors: make(plotter.YErrors, len(mean)),
	}
	for i := range mean {
		pts.XYs[i].X = float64(i)
		pts.XYs[i].Y = mean[i]
		pts.YErrors[i].Low = mean[i] - min[i]
		pts.YErrors[i].High = max[i] - mean[i]
	}
	errBars, err := plotter.NewYErrorBars(pts)
	if err != nil {
		return nil, err
	}
	p.Add(errBars)

	p.NominalX(allocators...)
	return p, nil
}

// CommandChart renders the per-command detail chart: three side-by-side
// bar panels (total, user, system mean) with [min,max] error bars per
// allocator. Returns "" without error when the command has no rows.
func CommandChart(t *Table, command, outDir string) (string, error) {
	rows := t.ByCommand(command)
	if len(rows) == 0 {
		return "", nil
	}

	allocators := make([]string, len(rows))
	var totalMean, totalMin, totalMax []float64
	var userMean, userMin, userMax []float64
	var sysMean, sysMin, sysMax []float64
	for i, r := range rows {
		allocators[i] = r.Allocator
		totalMean = append(totalMean, r.TotalMean)
		totalMin = append(totalMin, r.TotalMin)
		totalMax = append(totalMax, r.TotalMax)
		userMean = append(userMean, r.UserMean)
		userMin = append(userMin, r.UserMin)
		userMax = append(userMax, r.UserMax)
		sysMean = append(sysMean, r.SystemMean)
		sysMin = append(sysMin, r.SystemMin)
		sysMax = append(sysMax, r.SystemMax)
	}

	total, err := barPanel("Total Time: "+command, allocators, totalMean, totalMin, totalMax, steelBlue)
	if err != nil {
		return "", err
	}
	user, err := barPanel("User Time", allocators, userMean, userMin, userMax, forestGreen)
	if err != nil {
		return "", err
	}
	system, err := barPanel("System Time", allocators, sysMean, sysMin, sysMax, coral)
	if err != nil {
		return "", err
	}

	path := filepath.Join(outDir, sanitizeName(command)+".png")
	plots := [][]*plot.Plot{{total, user, system}}
	if err := saveGrid(plots, 1, 3, 15*vg.Inch, 5*vg.Inch, path); err != nil {
		return "", err
	}
	return path, nil
}

// horizontalRanking renders one metric per allocator as horizontal bars
// in the given (already ranked) order.
func horizontalRanking(title, xlabel string, stats []AllocatorStat, c color.RGBA) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel

	values := make(plotter.Values, len(stats))
	names := make([]string, len(stats))
	for i, s := range stats {
		values[i] = s.Value
		names[i] = s.Allocator
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, err
	}
	bars.Color = c
	bars.Horizontal = true
	p.Add(bars)
	p.NominalY(names...)
	return p, nil
}

// SummaryChart renders the 2x2 cross-allocator dashboard: ranked average
// total time, win counts, total-time box plots, and ranked coefficient
// of variation.
func SummaryChart(t *Table, outDir string) (string, error) {
	avg, err := horizontalRanking("Average Performance Across All Commands",
		"Average Total Time (s)", t.AllocatorMeans(), steelBlue)
	if err != nil {
		return "", err
	}

	wins := plot.New()
	wins.Title.Text = "Win Count (Times Fastest)"
	wins.Y.Label.Text = "Number of Commands"
	winStats := t.WinCounts()
	winValues := make(plotter.Values, len(winStats))
	winNames := make([]string, len(winStats))
	for i, s := range winStats {
		winValues[i] = s.Value
		winNames[i] = s.Allocator
	}
	winBars, err := plotter.NewBarChart(winValues, vg.Points(25))
	if err != nil {
		return "", err
	}
	winBars.Color = forestGreen
	wins.Add(winBars)
	wins.NominalX(winNames...)

	dist := plot.New()
	dist.Title.Text = "Performance Distribution"
	dist.Y.Label.Text = "Total Time (s)"
	allocators, totals := t.TotalsByAllocator()
	for i, a := range allocators {
		box, err := plotter.NewBoxPlot(vg.Points(25), float64(i), plotter.Values(totals[a]))
		if err != nil {
			return "", err
		}
		box.FillColor = lightBlue
		dist.Add(box)
	}
	dist.NominalX(allocators...)

	cv, err := horizontalRanking("Performance Consistency",
		"Coefficient of Variation (lower = more consistent)", t.CoefficientOfVariation(), coral)
	if err != nil {
		return "", err
	}

	path := filepath.Join(outDir, SummaryFile)
	plots := [][]*plot.Plot{{avg, wins}, {dist, cv}}
	if err := saveGrid(plots, 2, 2, 15*vg.Inch, 12*vg.Inch, path); err != nil {
		return "", err
	}
	return path, nil
}

// relativeGrid adapts a normalized Matrix to the heatmap plotter. An
// optional transform is applied per cell (identity or log10).
type relativeGrid struct {
	m         *Matrix
	transform func(float64) float64
}

func (g relativeGrid) Dims() (c, r int) { return len(g.m.Allocators), len(g.m.Commands) }
func (g relativeGrid) X(c int) float64  { return float64(c) }
func (g relativeGrid) Y(r int) float64  { return float64(r) }
func (g relativeGrid) Z(c, r int) float64 {
	v := g.m.Values[r][c]
	if g.transform != nil {
		return g.transform(v)
	}
	return v
}

func heatmapPlot(title string, grid relativeGrid, min, max float64) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Allocator"
	p.Y.Label.Text = "Command"

	pal := moreland.SmoothBlueRed().Palette(255)
	hm := plotter.NewHeatMap(grid, pal)
	hm.Min = min
	hm.Max = max
	p.Add(hm)

	xticks := make([]plot.Tick, len(grid.m.Allocators))
	for i, a := range grid.m.Allocators {
		xticks[i] = plot.Tick{Value: float64(i), Label: a}
	}
	yticks := make([]plot.Tick, len(grid.m.Commands))
	for i, c := range grid.m.Commands {
		yticks[i] = plot.Tick{Value: float64(i), Label: c}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xticks)
	p.Y.Tick.Marker = plot.ConstantTicks(yticks)
	return p
}

// clampedBounds returns the matrix's finite min/max pulled into the
// [0.5, 1.5] window used by the linear ratio scale.
func clampedBounds(m *Matrix) (vmin, vmax float64) {
	vmin, vmax = m.Bounds()
	if vmin < 0.5 {
		vmin = 0.5
	}
	if vmax > 1.5 {
		vmax = 1.5
	}
	return vmin, vmax
}

func heatmapHeight(commands int) vg.Length {
	h := vg.Length(commands) * 0.3 * vg.Inch
	if h < 8*vg.Inch {
		h = 8 * vg.Inch
	}
	return h
}

// HeatmapChart renders the baseline-normalized ratio heatmap with a
// linear color scale centered at 1.0. The color bounds are the data's
// own min/max clamped into [0.5, 1.5], so a narrow spread of ratios
// still gets a tight scale.
func HeatmapChart(m *Matrix, baseline, outDir string) (string, error) {
	rel, err := m.Normalize(baseline)
	if err != nil {
		return "", err
	}

	vmin, vmax := clampedBounds(rel)

	title := fmt.Sprintf("Allocator Performance Heatmap\n(normalized to %s baseline, 1.0 = parity)", baseline)
	p := heatmapPlot(title, relativeGrid{m: rel}, vmin, vmax)

	path := filepath.Join(outDir, HeatmapFile)
	if err := savePNG(p, 12*vg.Inch, heatmapHeight(len(rel.Commands)), path); err != nil {
		return "", err
	}
	return path, nil
}

// HeatmapLogChart renders the same ratio matrix with a logarithmic color
// scale and true min/max bounds.
func HeatmapLogChart(m *Matrix, baseline, outDir string) (string, error) {
	rel, err := m.Normalize(baseline)
	if err != nil {
		return "", err
	}

	grid := relativeGrid{m: rel, transform: math.Log10}
	min, max := rel.Bounds()

	title := fmt.Sprintf("Allocator Performance Heatmap\n(log scale, ratio to %s baseline)", baseline)
	p := heatmapPlot(title, grid, math.Log10(min), math.Log10(max))

	path := filepath.Join(outDir, HeatmapLogFile)
	if err := savePNG(p, 12*vg.Inch, heatmapHeight(len(rel.Commands)), path); err != nil {
		return "", err
	}
	return path, nil
}

// TopCommandsChart renders a grouped bar chart for the n longest-running
// commands: one group per command, one bar per allocator. Pairs with no
// row render as a zero-height bar.
func TopCommandsChart(t *Table, n int, outDir string) (string, error) {
	top := t.TopCommands(n)
	allocators := t.Allocators()

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Top %d Longest Running Commands", len(top))
	p.X.Label.Text = "Command"
	p.Y.Label.Text = "Total Time (s)"

	byPair := make(map[string]float64, len(t.Rows))
	for _, r := range t.Rows {
		key := r.Command + "\x00" + r.Allocator
		if _, ok := byPair[key]; !ok {
			byPair[key] = r.TotalMean
		}
	}

	width := vg.Points(60) / vg.Length(len(allocators))
	for i, a := range allocators {
		values := make(plotter.Values, len(top))
		for j, cmd := range top {
			values[j] = byPair[cmd+"\x00"+a] // missing pairs stay 0
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return "", err
		}
		bars.Color = groupColors[i%len(groupColors)]
		bars.Offset = width * vg.Length(i-len(allocators)/2)
		p.Add(bars)
		p.Legend.Add(a, bars)
	}
	p.Legend.Top = true
	p.NominalX(top...)

	path := filepath.Join(outDir, TopCommandsFile)
	if err := savePNG(p, 14*vg.Inch, 8*vg.Inch, path); err != nil {
		return "", err
	}
	return path, nil
}
