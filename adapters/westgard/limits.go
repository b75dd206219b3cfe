package westgard

// ChartPoint is one plotted day.
type ChartPoint struct {
	Day   int     `json:"day"`
	Value float64 `json:"value"`
}

// ControlLines are the horizontal reference lines of a Levey-Jennings chart.
type ControlLines struct {
	Target   float64 `json:"target"`
	Plus1SD  float64 `json:"plus_1sd"`
	Minus1SD float64 `json:"minus_1sd"`
	Plus2SD  float64 `json:"plus_2sd"`
	Minus2SD float64 `json:"minus_2sd"`
	Plus3SD  float64 `json:"plus_3sd"`
	Minus3SD float64 `json:"minus_3sd"`
}

// Chart is what the plotting collaborator needs to draw a run.
type Chart struct {
	Lines  ControlLines `json:"lines"`
	Points []ChartPoint `json:"points"`
}

// Limits returns the control lines for target and sd.
func Limits(target, sd float64) ControlLines {
	return ControlLines{
		Target:   target,
		Plus1SD:  target + sd,
		Minus1SD: target - sd,
		Plus2SD:  target + 2*sd,
		Minus2SD: target - 2*sd,
		Plus3SD:  target + 3*sd,
		Minus3SD: target - 3*sd,
	}
}

// LeveyJennings numbers values from day 1 and attaches control lines.
func LeveyJennings(values []float64, target, sd float64) Chart {
	points := make([]ChartPoint, len(values))
	for i, v := range values {
		points[i] = ChartPoint{Day: i + 1, Value: v}
	}
	return Chart{Lines: Limits(target, sd), Points: points}
}
