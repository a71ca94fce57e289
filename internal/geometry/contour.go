package geometry

// Component describes one 4-connected region of set pixels in a Bitmap.
type Component struct {
	Label      int
	PixelCount int
	MinX, MinY int
	MaxX, MaxY int
}

// LabelComponents finds all 4-connected components of set pixels. It returns
// the component list and a row-major label map where 0 means background and
// component pixels carry their 1-based label.
func LabelComponents(b Bitmap) ([]Component, []int32) {
	w, h := b.Width, b.Height
	labels := make([]int32, w*h)
	var comps []Component
	queue := make([]int, 0, 256)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if b.Data[idx] == 0 || labels[idx] != 0 {
				continue
			}
			label := int32(len(comps) + 1)
			comp := Component{Label: int(label), MinX: x, MinY: y, MaxX: x, MaxY: y}
			labels[idx] = label
			queue = append(queue[:0], idx)
			for len(queue) > 0 {
				ci := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				cx, cy := ci%w, ci/w
				comp.PixelCount++
				comp.MinX = min(comp.MinX, cx)
				comp.MinY = min(comp.MinY, cy)
				comp.MaxX = max(comp.MaxX, cx)
				comp.MaxY = max(comp.MaxY, cy)
				for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					ni := ny*w + nx
					if b.Data[ni] != 0 && labels[ni] == 0 {
						labels[ni] = label
						queue = append(queue, ni)
					}
				}
			}
			comps = append(comps, comp)
		}
	}
	return comps, labels
}

// ExtractContours returns the external boundary polygon of every connected
// component, in label order.
func ExtractContours(b Bitmap) []Contour {
	comps, labels := LabelComponents(b)
	out := make([]Contour, 0, len(comps))
	for _, c := range comps {
		if ct := TraceBoundary(labels, b.Width, b.Height, c); len(ct) > 0 {
			out = append(out, ct)
		}
	}
	return out
}

// TraceBoundary extracts the external boundary polygon of one labeled
// component using Moore-neighbor tracing. Collinear runs are merged so that
// straight edges contribute only their endpoints. Points are pixel centers.
func TraceBoundary(labels []int32, w, h int, comp Component) Contour {
	label := int32(comp.Label)
	sx, sy := boundaryStart(labels, w, h, label, comp)
	if sx < 0 {
		return nil
	}

	pts := make(Contour, 0, 64)
	push := func(x, y int) {
		p := Point{X: float64(x), Y: float64(y)}
		if n := len(pts); n >= 2 {
			a, b := pts[n-2], pts[n-1]
			if (b.X-a.X)*(p.Y-b.Y)-(b.Y-a.Y)*(p.X-b.X) == 0 {
				pts = pts[:n-1] // collinear, drop midpoint
			}
		}
		pts = append(pts, p)
	}
	push(sx, sy)

	cx, cy := sx, sy
	bx, by := sx-1, sy // backtrack starts left of the first pixel
	startBx, startBy := bx, by
	var fx, fy, fbx, fby int
	for steps := 0; steps < 4*w*h+8; steps++ {
		nx, ny, nbx, nby, ok := nextBoundary(labels, w, h, label, cx, cy, bx, by)
		if !ok {
			break
		}
		cx, cy, bx, by = nx, ny, nbx, nby
		if steps == 0 {
			fx, fy, fbx, fby = cx, cy, bx, by
		} else if cx == fx && cy == fy && bx == fbx && by == fby {
			// One-pixel-thick runs can revisit the first traced state without
			// ever re-entering the start state; the trace is repeating.
			break
		}
		if last := pts[len(pts)-1]; last.X != float64(cx) || last.Y != float64(cy) {
			push(cx, cy)
		}
		// Jacob stopping criterion: back at the start pixel with the original
		// backtrack. The step cap above is a safety net only.
		if cx == sx && cy == sy && bx == startBx && by == startBy {
			break
		}
	}

	if len(pts) >= 2 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return pts
}

func boundaryStart(labels []int32, w, h int, label int32, comp Component) (int, int) {
	at := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && labels[y*w+x] == label
	}
	for y := comp.MinY; y <= comp.MaxY; y++ {
		for x := comp.MinX; x <= comp.MaxX; x++ {
			if !at(x, y) {
				continue
			}
			if !at(x+1, y) || !at(x-1, y) || !at(x, y+1) || !at(x, y-1) {
				return x, y
			}
		}
	}
	return -1, -1
}

// Clockwise Moore neighborhood: E, SE, S, SW, W, NW, N, NE.
var mooreDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
var mooreDY = [8]int{0, 1, 1, 1, 0, -1, -1, -1}

func nextBoundary(labels []int32, w, h int, label int32, cx, cy, bx, by int) (int, int, int, int, bool) {
	at := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && labels[y*w+x] == label
	}
	start := 0
	for i := 0; i < 8; i++ {
		if mooreDX[i] == bx-cx && mooreDY[i] == by-cy {
			start = (i + 1) % 8
			break
		}
	}
	pbx, pby := bx, by
	for k := 0; k < 8; k++ {
		i := (start + k) % 8
		tx, ty := cx+mooreDX[i], cy+mooreDY[i]
		if at(tx, ty) {
			// The last background neighbor examined becomes the new backtrack;
			// the stopping criterion depends on it.
			return tx, ty, pbx, pby, true
		}
		pbx, pby = tx, ty
	}
	return 0, 0, pbx, pby, false
}
