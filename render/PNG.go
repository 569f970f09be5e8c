// Package render draws hill racing snapshots
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/samuelfneumann/hillracing/environment/box2d/hillracing"
)

// Frame dimensions in pixels
const (
	Width  = int(hillracing.ScreenWidth)
	Height = int(hillracing.ScreenHeight)

	// Horizontal position of the chassis on screen
	CameraLead float64 = hillracing.ScreenWidth / 4
)

var (
	skyColour    = color.RGBA{135, 206, 235, 255}
	dirtColour   = color.RGBA{120, 72, 0, 255}
	grassColour  = color.RGBA{0, 120, 0, 255}
	carColour    = color.RGBA{200, 30, 30, 255}
	wheelColour  = color.RGBA{40, 40, 40, 255}
	skinColour   = color.RGBA{255, 210, 170, 255}
	outlineColour = color.RGBA{0, 0, 0, 255}
	textColour   = color.RGBA{255, 255, 255, 255}
)

// Draw draws a snapshot with the camera following the chassis
func Draw(s hillracing.Snapshot) image.Image {
	dc := gg.NewContext(Width, Height)
	dc.SetColor(skyColour)
	dc.Clear()

	dc.Push()
	dc.Translate(CameraLead-s.Chassis[0], 0)

	drawTerrain(dc, s.Terrain)
	for _, shape := range s.Shapes {
		drawShape(dc, shape, s.Shirt)
	}
	dc.Pop()

	dc.SetColor(textColour)
	dc.DrawString(fmt.Sprintf("Score: %v", s.Info.Score), 10, 20)
	dc.DrawString(fmt.Sprintf("Airtime: %v", s.Info.Airtime), 10, 40)
	if s.Info.Dead {
		dc.DrawStringAnchored("Game over", float64(Width)/2,
			float64(Height)/2, 0.5, 0.5)
	}

	return dc.Image()
}

func drawTerrain(dc *gg.Context, terrain [][2]float64) {
	if len(terrain) == 0 {
		return
	}

	dc.ClearPath()
	dc.MoveTo(terrain[0][0], hillracing.ScreenHeight)
	for _, vertex := range terrain {
		dc.LineTo(vertex[0], vertex[1])
	}
	dc.LineTo(terrain[len(terrain)-1][0], hillracing.ScreenHeight)
	dc.ClosePath()
	dc.SetColor(dirtColour)
	dc.Fill()

	for i := 0; i < len(terrain)-1; i++ {
		dc.DrawLine(terrain[i][0], terrain[i][1], terrain[i+1][0],
			terrain[i+1][1])
	}
	dc.SetColor(grassColour)
	dc.SetLineWidth(hillracing.GrassThickness)
	dc.Stroke()
}

func drawShape(dc *gg.Context, shape hillracing.Shape, shirt color.RGBA) {
	dc.ClearPath()
	if shape.Circle() {
		dc.DrawCircle(shape.Centre[0], shape.Centre[1], shape.Radius)
	} else {
		for _, point := range shape.Points {
			dc.LineTo(point[0], point[1])
		}
		dc.ClosePath()
	}

	dc.SetColor(fill(shape.Role, shirt))
	dc.FillPreserve()
	dc.SetColor(outlineColour)
	dc.SetLineWidth(1)
	dc.Stroke()

	// Spoke, so that turning wheels can be seen turning
	if shape.Role == hillracing.RoleWheel.String() {
		x := shape.Centre[0] + shape.Radius*math.Cos(shape.Angle)
		y := shape.Centre[1] + shape.Radius*math.Sin(shape.Angle)
		dc.DrawLine(shape.Centre[0], shape.Centre[1], x, y)
		dc.SetColor(textColour)
		dc.SetLineWidth(2)
		dc.Stroke()
	}
}

func fill(role string, shirt color.RGBA) color.Color {
	switch role {
	case hillracing.RoleWheel.String():
		return wheelColour
	case hillracing.RoleHead.String():
		return skinColour
	case hillracing.RoleTorso.String():
		return shirt
	}
	return carColour
}

// PNG is a Renderer which saves each snapshot it receives as a
// numbered PNG file
type PNG struct {
	dir   string
	frame int
}

// NewPNG returns a new PNG renderer which saves frames to dir, creating
// dir if it does not exist
func NewPNG(dir string) (*PNG, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("newPNG: could not create frame "+
			"directory: %v", err)
	}
	return &PNG{dir: dir}, nil
}

// Render saves the snapshot as the next frame
func (p *PNG) Render(s hillracing.Snapshot) error {
	filename := filepath.Join(p.dir, fmt.Sprintf("frame-%05d.png", p.frame))
	if err := gg.SavePNG(filename, Draw(s)); err != nil {
		return fmt.Errorf("render: %v", err)
	}
	p.frame++
	return nil
}

// Frames returns the number of frames saved
func (p *PNG) Frames() int {
	return p.frame
}
