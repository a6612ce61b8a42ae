package anim

// TimingFunc maps linear elapsed-time progress (0..1) to eased
// progress (0..1), shaping an animation's perceived speed curve.
type TimingFunc func(progress float64) float64

func Linear(p float64) float64 { return p }

func EaseInCubic(p float64) float64 { return p * p * p }

func EaseOutCubic(p float64) float64 {
	q := 1 - p
	return 1 - q*q*q
}

func EaseInOutQuad(p float64) float64 {
	if p < 0.5 {
		return 2 * p * p
	}
	q := -2*p + 2
	return 1 - q*q/2
}
