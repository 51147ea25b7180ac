package skillcloud

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

// SVGOptions sizes the projected image.
type SVGOptions struct {
	Width  int
	Height int
	// FOV is the vertical field of view in degrees.
	FOV float64
	// CameraZ is the camera position on the Z axis, looking towards -Z.
	CameraZ float64
}

// DefaultSVGOptions matches a 500px-tall canvas with a stock perspective camera.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Width: 800, Height: 500, FOV: 75, CameraZ: 5}
}

type projectedPuff struct {
	x, y    float64
	r       float64
	opacity float64
	depth   float64
}

type projected struct {
	text  string
	x, y  float64
	size  float64
	depth float64
}

// WriteSVG writes an animated SVG projection of the scene. Cloud puffs are
// blurred circles painted behind the glyphs in the same rotating group.
// Rotation about Z projects to a plain 2-D rotation around the image center,
// so both springs are expressed as SMIL animations.
func WriteSVG(w io.Writer, s *Scene, opts SVGOptions) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultSVGOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}
	if opts.FOV <= 0 {
		opts.FOV = DefaultSVGOptions().FOV
	}
	if opts.CameraZ == 0 {
		opts.CameraZ = DefaultSVGOptions().CameraZ
	}

	cx, cy := float64(opts.Width)/2, float64(opts.Height)/2
	focal := cy / math.Tan(opts.FOV*math.Pi/360)

	points := make([]projected, 0, len(s.Glyphs))
	for _, g := range s.Glyphs {
		x := g.Position[0] + s.Offset[0]
		y := g.Position[1] + s.Offset[1]
		z := g.Position[2] + s.Offset[2]
		depth := opts.CameraZ - z
		if depth <= 0 {
			continue
		}
		scale := focal / depth
		points = append(points, projected{
			text:  g.Text,
			x:     cx + x*scale,
			y:     cy - y*scale,
			size:  g.FontSize * scale,
			depth: depth,
		})
	}
	// Far glyphs first so near ones paint on top.
	sort.SliceStable(points, func(i, j int) bool { return points[i].depth > points[j].depth })

	puffs := make([]projectedPuff, 0, len(s.Puffs))
	for _, p := range s.Puffs {
		pos := s.Offset.add(p.Position)
		depth := opts.CameraZ - pos[2]
		if depth <= 0 || p.Opacity <= 0 {
			continue
		}
		scale := focal / depth
		puffs = append(puffs, projectedPuff{
			x:       cx + pos[0]*scale,
			y:       cy - pos[1]*scale,
			r:       p.Scale / 2 * scale,
			opacity: p.Opacity,
			depth:   depth,
		})
	}
	sort.SliceStable(puffs, func(i, j int) bool { return puffs[i].depth > puffs[j].depth })
	puffColor := s.Cloud.Color
	if puffColor == "" {
		puffColor = DefaultCloudStyle().Color
	}

	rot := s.Animation.Rotation
	col := s.Animation.Color
	deg := func(rad float64) float64 { return -rad * 180 / math.Pi }

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" role="img" aria-label="3D Skills Cloud">`+"\n",
		opts.Width, opts.Height, opts.Width, opts.Height)
	if len(puffs) > 0 {
		bw.WriteString(`<defs><filter id="cloud-blur" primitiveUnits="objectBoundingBox" x="-50%" y="-50%" width="200%" height="200%"><feGaussianBlur stdDeviation="0.2"/></filter></defs>` + "\n")
	}
	fmt.Fprintf(bw, `<g font-family="sans-serif" text-anchor="middle" dominant-baseline="middle" fill="%s">`+"\n", col.From)
	if rot.Duration > 0 && rot.Axis == AxisZ {
		fmt.Fprintf(bw, `<animateTransform attributeName="transform" type="rotate" values="%s %s %s;%s %s %s;%s %s %s" dur="%s" repeatCount="indefinite"/>`+"\n",
			num(deg(rot.From)), num(cx), num(cy),
			num(deg(rot.To)), num(cx), num(cy),
			num(deg(rot.From)), num(cx), num(cy),
			seconds(2*rot.Duration.Seconds()))
	}
	if col.Duration > 0 {
		fmt.Fprintf(bw, `<animate attributeName="fill" values="%s;%s;%s" dur="%s" repeatCount="indefinite"/>`+"\n",
			col.From, col.To, col.From, seconds(2*col.Duration.Seconds()))
	}
	for _, p := range puffs {
		fmt.Fprintf(bw, `<circle cx="%s" cy="%s" r="%s" fill="%s" fill-opacity="%s" filter="url(#cloud-blur)"/>`+"\n",
			num(p.x), num(p.y), num(p.r), escape(puffColor), num(p.opacity))
	}
	for _, p := range points {
		fmt.Fprintf(bw, `<text x="%s" y="%s" font-size="%s">%s</text>`+"\n", num(p.x), num(p.y), num(p.size), escape(p.text))
	}
	fmt.Fprint(bw, "</g>\n</svg>\n")
	return bw.Flush()
}

func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

func seconds(v float64) string {
	return num(v) + "s"
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
