package filter

// gammaStage is one section of the generalized log-spectrum cascade.
// With γ folded into the coefficients, a forward stage realises
// 1/(1 + γC(z)) and an inverse stage 1 + γC(z); stacking 1/|γ| of them
// gives (1 + γC(z))^(∓1/γ).
type gammaStage struct {
	op      operator
	prev    []float64 // one cell: the sample fed to op on the next step
	inverse bool
}

func (g *gammaStage) step(x float64, c []float64) float64 {
	z := g.op.step(g.prev[0], c)
	if g.inverse {
		g.prev[0] = x
		return x + z
	}
	y := x - z
	g.prev[0] = y
	return y
}
