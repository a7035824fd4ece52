package mines

// reveal performs one direct open and then checks for a win, once.
func (g *Game) reveal(x, y int) {
	before := g.openCount
	g.open(y*g.params.Width + x)
	if g.state == Playing &&
		g.openCount != before &&
		g.openCount == g.params.SafeCount() {
		g.win()
	}
}

// open opens cell i on a direct click. The cascade runs on an explicit
// stack; the open bit of each cell doubles as the visited marker. Cascaded
// cells only ever spread when their mine count is zero.
func (g *Game) open(i int) {
	c := &g.cells[i]
	if c.flagged {
		return
	}
	if c.mine {
		g.lose(i)
		return
	}
	g.uncover(c)

	if c.mineCount != 0 && c.flagCount != c.mineCount {
		return
	}

	stack := g.pushClosed(nil, i)
	for len(stack) > 0 {
		j := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c := &g.cells[j]
		if c.open || c.flagged {
			continue
		}
		if c.mine {
			g.lose(j) /* only reachable through a wrongly flagged chord */
			return
		}
		g.uncover(c)
		if c.mineCount == 0 {
			stack = g.pushClosed(stack, j)
		}
	}
}

func (g *Game) uncover(c *Cell) {
	if !c.open {
		c.open = true
		g.openCount++
	}
}

// pushClosed appends the closed, unflagged neighbors of cell i to stack.
func (g *Game) pushClosed(stack []int, i int) []int {
	for j := range g.params.neighbors(i) {
		if n := g.cells[j]; !n.open && !n.flagged {
			stack = append(stack, j)
		}
	}
	return stack
}
