package atlas

// row is one horizontal band of the atlas. Its height is fixed by the first
// sprite placed in it.
type row struct {
	top, height int
	next        int
}

// packer places rectangles into a square of side pixels, row by row. A
// rectangle goes into the open row whose height wastes the fewest pixels;
// a new row is opened below the last one only when none fits.
type packer struct {
	side int
	rows []row
	used int
}

func newPacker(side int) *packer {
	return &packer{side: side}
}

// place reserves w by h pixels plus padding and returns the top-left corner.
func (p *packer) place(w, h int) (x, y int, ok bool) {
	pw, ph := w+padding, h+padding
	if pw > p.side {
		return 0, 0, false
	}

	best := -1
	for i, r := range p.rows {
		if r.next+pw > p.side || r.height < ph {
			continue
		}
		if best < 0 || r.height < p.rows[best].height {
			best = i
		}
	}

	if best < 0 {
		top := 0
		if n := len(p.rows); n > 0 {
			top = p.rows[n-1].top + p.rows[n-1].height
		}
		if top+ph > p.side {
			return 0, 0, false
		}
		p.rows = append(p.rows, row{top: top, height: ph})
		best = len(p.rows) - 1
	}

	r := &p.rows[best]
	x, y = r.next, r.top
	r.next += pw
	p.used += w * h
	return x, y, true
}

// utilization is the fraction of the square covered by placed rectangles.
func (p *packer) utilization() float64 {
	return float64(p.used) / float64(p.side*p.side)
}
