package forecast

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// arimaEvalBudget caps the optimizer so a pathological series cannot stall
// the scheduler tick.
const arimaEvalBudget = 2000

// ARIMA111 holds a fitted ARIMA(1,1,1) model over a monthly series.
type ARIMA111 struct {
	Const float64
	Phi   float64
	Theta float64

	diffed    []float64
	lastObs   float64
	lastResid float64
}

// FitARIMA111 fits an ARIMA(1,1,1) by conditional sum of squares on the
// once-differenced series, minimized with Nelder-Mead. It needs at least
// four observations so the differenced series has enough points to
// condition on.
func FitARIMA111(series []float64) (*ARIMA111, error) {
	if len(series) < 4 {
		return nil, errors.New("forecast: series too short for arima fit")
	}
	diffed := difference(series)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return cssObjective(diffed, x[0], x[1], x[2])
		},
	}
	initial := []float64{mean(diffed), 0.1, 0.1}
	result, err := optimize.Minimize(problem, initial, &optimize.Settings{
		FuncEvaluations: arimaEvalBudget,
	}, &optimize.NelderMead{})
	if err != nil {
		return nil, err
	}
	c, phi, theta := result.X[0], result.X[1], result.X[2]
	if math.Abs(phi) >= 1 || math.Abs(theta) >= 1 {
		return nil, errors.New("forecast: arima fit outside stationary region")
	}

	model := &ARIMA111{Const: c, Phi: phi, Theta: theta, diffed: diffed, lastObs: series[len(series)-1]}
	model.lastResid = model.finalResidual()
	return model, nil
}

// Forecast projects horizon months ahead, re-integrating the differenced
// predictions onto the last observed level. Each value is floored at zero
// and rounded to whole units; the running level stays unrounded so rounding
// error does not compound across the horizon.
func (m *ARIMA111) Forecast(horizon int) []float64 {
	out := make([]float64, 0, horizon)
	level := m.lastObs
	prevDiff := 0.0
	if len(m.diffed) > 0 {
		prevDiff = m.diffed[len(m.diffed)-1]
	}
	resid := m.lastResid
	for k := 0; k < horizon; k++ {
		var next float64
		if k == 0 {
			next = m.Const + m.Phi*prevDiff + m.Theta*resid
		} else {
			next = m.Const + m.Phi*prevDiff
		}
		level += next
		out = append(out, math.Round(math.Max(level, 0)))
		prevDiff = next
	}
	return out
}

// cssObjective is the conditional sum of squared one-step residuals. The
// residual recursion seeds e[0]=0; parameters outside the stationary and
// invertible region get an infinite penalty so Nelder-Mead backs off.
func cssObjective(w []float64, c, phi, theta float64) float64 {
	if math.Abs(phi) >= 0.999 || math.Abs(theta) >= 0.999 {
		return math.Inf(1)
	}
	var sum float64
	prevResid := 0.0
	for t := 1; t < len(w); t++ {
		resid := w[t] - c - phi*w[t-1] - theta*prevResid
		sum += resid * resid
		prevResid = resid
	}
	return sum
}

// finalResidual replays the residual recursion to recover e[n-1], needed to
// seed the first forecast step.
func (m *ARIMA111) finalResidual() float64 {
	prevResid := 0.0
	for t := 1; t < len(m.diffed); t++ {
		prevResid = m.diffed[t] - m.Const - m.Phi*m.diffed[t-1] - m.Theta*prevResid
	}
	return prevResid
}

func difference(series []float64) []float64 {
	out := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		out = append(out, series[i]-series[i-1])
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
