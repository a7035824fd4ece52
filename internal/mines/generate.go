package mines

// generate places MineCount mines, none of which is at (sx, sy) or within
// one cell of it. Each mine takes exactly one draw from the random source.
func (g *Game) generate(sx, sy int) {
	width, height, mineCount := g.params.Unpack()

	/*
	 * Write down the list of possible mine locations.
	 */
	candidates := make([]int, 0, width*height)
	for y := range height {
		for x := range width {
			if absDiff(sx, x) > 1 || absDiff(sy, y) > 1 {
				candidates = append(candidates, y*width+x)
			}
		}
	}

	/*
	 * Now pick mineCount off the list at random. GameParams.Validate
	 * guarantees the list is long enough.
	 */
	k := len(candidates)
	for range mineCount {
		i := g.rnd.IntN(k)
		g.layMine(candidates[i])
		k--
		candidates[i] = candidates[k]
	}
}

// layMine turns cell i into a mine and bumps the mine count of every
// neighbor that is not a mine itself.
func (g *Game) layMine(i int) {
	c := &g.cells[i]
	c.mine = true
	c.mineCount = 0
	for j := range g.params.neighbors(i) {
		if n := &g.cells[j]; !n.mine {
			n.mineCount++
		}
	}
}
