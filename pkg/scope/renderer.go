package scope

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/chewxy/math32"

	"github.com/softrobo/musclerig/pkg/device"
)

var (
	colorBackground = color.NRGBA{R: 0x10, G: 0x14, B: 0x18, A: 0xFF}
	colorGrid       = color.NRGBA{R: 0x30, G: 0x38, B: 0x40, A: 0xFF}
	colorForce      = color.NRGBA{R: 0xFF, G: 0xA5, B: 0x00, A: 0xFF} // orange
	colorDistance   = color.NRGBA{R: 0x64, G: 0xB4, B: 0xFF, A: 0xFF} // light blue
	colorPressure   = color.NRGBA{R: 0x90, G: 0xEE, B: 0x90, A: 0xFF} // light green
)

// scopeRenderer renders the scope widget. The three traces carry different
// units, so each one is normalized to its own observed range; the value
// labels carry the physical numbers.
type scopeRenderer struct {
	scope *ScopeWidget

	bg      *canvas.Rectangle
	objects []fyne.CanvasObject

	lastSize fyne.Size
}

func newRenderer(s *ScopeWidget) *scopeRenderer {
	bg := canvas.NewRectangle(colorBackground)
	return &scopeRenderer{
		scope:   s,
		bg:      bg,
		objects: []fyne.CanvasObject{bg},
	}
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 240)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)

	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh redraws the traces from the current display buffer.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	readings := r.scope.display
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = r.objects[:1] // keep the background

	marginLeft := float32(10)
	marginRight := float32(10)
	marginTop := float32(10)
	marginBottom := float32(10)

	plotX := marginLeft
	plotY := marginTop
	plotW := size.Width - marginLeft - marginRight
	plotH := size.Height - marginTop - marginBottom

	r.drawGrid(plotX, plotY, plotW, plotH)

	if len(readings) > 1 {
		xMin := readings[0].Timestamp
		xMax := readings[len(readings)-1].Timestamp

		r.drawTrace(readings, func(rd device.Reading) float64 { return rd.Force }, colorForce, plotX, plotY, plotW, plotH, xMin, xMax)
		r.drawTrace(readings, func(rd device.Reading) float64 { return rd.Distance }, colorDistance, plotX, plotY, plotW, plotH, xMin, xMax)
		r.drawTrace(readings, func(rd device.Reading) float64 { return rd.Pressure }, colorPressure, plotX, plotY, plotW, plotH, xMin, xMax)
	}

	r.drawLabels(readings, plotX, plotY)

	canvas.Refresh(r.scope)
}

// Objects returns the canvas objects to draw.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up renderer resources.
func (r *scopeRenderer) Destroy() {}

func (r *scopeRenderer) drawGrid(plotX, plotY, plotW, plotH float32) {
	const hLines, vLines = 4, 8

	for i := 0; i <= hLines; i++ {
		y := plotY + plotH*float32(i)/hLines
		line := canvas.NewLine(colorGrid)
		line.StrokeWidth = 1
		line.Position1 = fyne.NewPos(plotX, y)
		line.Position2 = fyne.NewPos(plotX+plotW, y)
		r.objects = append(r.objects, line)
	}
	for i := 0; i <= vLines; i++ {
		x := plotX + plotW*float32(i)/vLines
		line := canvas.NewLine(colorGrid)
		line.StrokeWidth = 1
		line.Position1 = fyne.NewPos(x, plotY)
		line.Position2 = fyne.NewPos(x, plotY+plotH)
		r.objects = append(r.objects, line)
	}
}

// drawTrace draws one polyline, normalized to its own min/max over the
// display window.
func (r *scopeRenderer) drawTrace(readings []device.Reading, get func(device.Reading) float64, col color.Color, plotX, plotY, plotW, plotH float32, xMin, xMax time.Time) {
	yMin := float32(get(readings[0]))
	yMax := yMin
	for _, rd := range readings {
		v := float32(get(rd))
		yMin = math32.Min(yMin, v)
		yMax = math32.Max(yMax, v)
	}

	span := yMax - yMin
	if math32.Abs(span) < 1e-6 {
		span = 1
	}
	// 10% margin so flat traces don't hug the plot edges
	yMin -= span * 0.1
	span *= 1.2

	xSpan := float32(xMax.Sub(xMin).Seconds())
	if xSpan <= 0 {
		xSpan = 1
	}

	toPos := func(rd device.Reading) fyne.Position {
		x := plotX + plotW*float32(rd.Timestamp.Sub(xMin).Seconds())/xSpan
		y := plotY + plotH*(1-(float32(get(rd))-yMin)/span)
		return fyne.NewPos(x, y)
	}

	prev := toPos(readings[0])
	for _, rd := range readings[1:] {
		cur := toPos(rd)
		line := canvas.NewLine(col)
		line.StrokeWidth = 2
		line.Position1 = prev
		line.Position2 = cur
		r.objects = append(r.objects, line)
		prev = cur
	}
}

func (r *scopeRenderer) drawLabels(readings []device.Reading, plotX, plotY float32) {
	force, distance, pressure := "force - N", "distance - mm", "pressure - MPa"
	if len(readings) > 0 {
		last := readings[len(readings)-1]
		force = fmt.Sprintf("force %.2f N", last.Force)
		distance = fmt.Sprintf("distance %.2f mm", last.Distance)
		pressure = fmt.Sprintf("pressure %.3f MPa", last.Pressure)
	}

	labels := []struct {
		text string
		col  color.Color
	}{
		{force, colorForce},
		{distance, colorDistance},
		{pressure, colorPressure},
	}

	y := plotY + 4
	for _, l := range labels {
		text := canvas.NewText(l.text, l.col)
		text.TextSize = 12
		text.Move(fyne.NewPos(plotX+6, y))
		r.objects = append(r.objects, text)
		y += 16
	}
}
