package grid

// ForEachPair calls fn once for every unordered pair of particles whose
// cells are within Reach cells of each other. The window is half-open in y
// (dy in [0, Reach]) and, on the own row, in x (dx in [0, Reach]) so no
// pair of cells is visited twice. Meant for single-goroutine use.
func (g *Grid) ForEachPair(fn func(a, b int32)) {
	for cy := 0; cy < g.rows; cy++ {
		for cx := 0; cx < g.cols; cx++ {
			own := g.cells[cy*g.cols+cx].Particles()
			if len(own) == 0 {
				continue
			}
			for dy := 0; dy <= Reach; dy++ {
				ny := cy + dy
				if ny >= g.rows {
					break
				}
				dx := -Reach
				if dy == 0 {
					dx = 0
				}
				for ; dx <= Reach; dx++ {
					nx := cx + dx
					if nx < 0 || nx >= g.cols {
						continue
					}
					if dx == 0 && dy == 0 {
						for i := 0; i < len(own); i++ {
							for j := i + 1; j < len(own); j++ {
								fn(own[i], own[j])
							}
						}
						continue
					}
					other := g.cells[ny*g.cols+nx].Particles()
					for _, a := range own {
						for _, b := range other {
							fn(a, b)
						}
					}
				}
			}
		}
	}
}

// ForEachNeighbor calls fn for every particle index in the 3x3 window
// around c, clamped to the grid. The particle owning c is included; callers
// skip themselves.
func (g *Grid) ForEachNeighbor(c Coord, fn func(j int32)) {
	y0, y1 := clamp(c.Y-1, 0, g.rows-1), clamp(c.Y+1, 0, g.rows-1)
	x0, x1 := clamp(c.X-1, 0, g.cols-1), clamp(c.X+1, 0, g.cols-1)
	for y := y0; y <= y1; y++ {
		row := g.cells[y*g.cols : (y+1)*g.cols]
		for x := x0; x <= x1; x++ {
			for _, j := range row[x].Particles() {
				fn(j)
			}
		}
	}
}

// ForEachSegmentNear calls fn once per distinct segment binned in the 3x3
// window around c.
func (g *Grid) ForEachSegmentNear(c Coord, fn func(s int32)) {
	var seen [9 * CellSegments]int32
	n := 0
	y0, y1 := clamp(c.Y-1, 0, g.rows-1), clamp(c.Y+1, 0, g.rows-1)
	x0, x1 := clamp(c.X-1, 0, g.cols-1), clamp(c.X+1, 0, g.cols-1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
		next:
			for _, s := range g.cells[y*g.cols+x].Segments() {
				for _, prev := range seen[:n] {
					if prev == s {
						continue next
					}
				}
				seen[n] = s
				n++
				fn(s)
			}
		}
	}
}
