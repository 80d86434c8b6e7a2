package browser

import (
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/unklstewy/shipnav/pkg/coordinates"
)

// Terminal cells are about twice as tall as they are wide
const cellAspect = 2.0

// viewport maps plane coordinates onto a rectangle of terminal cells
// with one uniform scale, so shapes are not stretched.
type viewport struct {
	minX, minY float64
	scale      float64

	x, y, w, h int
}

// fitViewport returns a viewport that shows every point of sets inside
// the rectangle at x, y of size w by h. Rows grow downward; x2 grows upward.
func fitViewport(x, y, w, h int, sets ...[]coordinates.V2) viewport {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	for _, set := range sets {
		for _, p := range set {
			if !p.IsFinite() {
				continue
			}
			minX = math.Min(minX, p.X1)
			maxX = math.Max(maxX, p.X1)
			minY = math.Min(minY, p.X2)
			maxY = math.Max(maxY, p.X2)
		}
	}

	if math.IsInf(minX, 1) {
		minX, maxX, minY, maxY = -1, 1, -1, 1
	}

	spanX := maxX - minX
	if spanX == 0 {
		spanX = 1
		minX -= 0.5
	}
	spanY := maxY - minY
	if spanY == 0 {
		spanY = 1
		minY -= 0.5
	}

	scale := math.Min(
		float64(max(w-1, 1))/spanX,
		cellAspect*float64(max(h-1, 1))/spanY,
	)

	return viewport{minX: minX, minY: minY, scale: scale, x: x, y: y, w: w, h: h}
}

// project returns the cell of p.
func (v viewport) project(p coordinates.V2) (col, row int) {
	col = v.x + int(math.Round((p.X1-v.minX)*v.scale))
	row = v.y + v.h - 1 - int(math.Round((p.X2-v.minY)*v.scale/cellAspect))
	return col, row
}

func (v viewport) contains(col, row int) bool {
	return col >= v.x && col < v.x+v.w && row >= v.y && row < v.y+v.h
}

// TrajectoryView is a tview primitive that draws a ship path and its
// destination path on the plane.
type TrajectoryView struct {
	*tview.Box

	mu          sync.RWMutex
	ship        []coordinates.V2
	destination []coordinates.V2
}

// NewTrajectoryView creates an empty plot.
func NewTrajectoryView() *TrajectoryView {
	tv := &TrajectoryView{Box: tview.NewBox()}
	tv.SetBorder(true).SetTitle(" Trajectory ")
	return tv
}

// SetTrajectory replaces the plotted paths.
func (tv *TrajectoryView) SetTrajectory(ship, destination []coordinates.V2) {
	tv.mu.Lock()
	defer tv.mu.Unlock()
	tv.ship = ship
	tv.destination = destination
}

// Draw renders both paths with their start and end markers.
func (tv *TrajectoryView) Draw(screen tcell.Screen) {
	tv.Box.DrawForSubclass(screen, tv)

	x, y, width, height := tv.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}

	tv.mu.RLock()
	ship := tv.ship
	destination := tv.destination
	tv.mu.RUnlock()

	if len(ship) == 0 {
		msg := "no samples"
		for i, ch := range msg {
			screen.SetContent(x+i, y, ch, nil, tcell.StyleDefault.Foreground(tcell.ColorGray))
		}
		return
	}

	vp := fitViewport(x, y, width, height, ship, destination)

	axisStyle := tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	shipStyle := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	destStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	markStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)

	// Axes through the origin when it is on screen
	ox, oy := vp.project(coordinates.V2{})
	if vp.contains(ox, y) {
		drawLine(screen, vp, ox, y, ox, y+height-1, '│', axisStyle)
	}
	if vp.contains(x, oy) {
		drawLine(screen, vp, x, oy, x+width-1, oy, '─', axisStyle)
	}

	drawPath(screen, vp, destination, '*', destStyle)
	drawPath(screen, vp, ship, '·', shipStyle)

	setCell(screen, vp, ship[0], 'S', markStyle)
	setCell(screen, vp, ship[len(ship)-1], 'E', markStyle)
	if len(destination) > 0 {
		setCell(screen, vp, destination[len(destination)-1], 'D', destStyle.Bold(true))
	}
}

func drawPath(screen tcell.Screen, vp viewport, path []coordinates.V2, char rune, style tcell.Style) {
	for i := 1; i < len(path); i++ {
		if !path[i-1].IsFinite() || !path[i].IsFinite() {
			continue
		}
		x0, y0 := vp.project(path[i-1])
		x1, y1 := vp.project(path[i])
		drawLine(screen, vp, x0, y0, x1, y1, char, style)
	}
}

func setCell(screen tcell.Screen, vp viewport, p coordinates.V2, char rune, style tcell.Style) {
	if !p.IsFinite() {
		return
	}
	col, row := vp.project(p)
	if vp.contains(col, row) {
		screen.SetContent(col, row, char, nil, style)
	}
}

// drawLine draws a clipped line using Bresenham's algorithm
func drawLine(screen tcell.Screen, vp viewport, x0, y0, x1, y1 int, char rune, style tcell.Style) {
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		if vp.contains(x0, y0) {
			screen.SetContent(x0, y0, char, nil, style)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
