package indicator

import "math"

// window keeps the most recent n observations of a series.
type window struct {
	max int
	buf []float64
}

func newWindow(max int) *window {
	if max <= 0 {
		max = 16
	}
	return &window{max: max, buf: make([]float64, 0, max)}
}

func (w *window) Add(v float64) {
	w.buf = append(w.buf, v)
	if len(w.buf) > w.max {
		w.buf = w.buf[len(w.buf)-w.max:]
	}
}

func (w *window) Len() int { return len(w.buf) }

func (w *window) Mean() float64 {
	if len(w.buf) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range w.buf {
		sum += v
	}
	return sum / float64(len(w.buf))
}

// stdDev is the population standard deviation around mean, as Bollinger
// bands use.
func stdDev(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	acc := 0.0
	for _, x := range xs {
		d := x - mean
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(xs)))
}

// wilder is Wilder's smoothing: a plain average over the first n inputs,
// then prev + (x-prev)/n.
type wilder struct {
	n     int
	count int
	sum   float64
	value float64
}

func (w *wilder) Add(x float64) {
	w.count++
	if w.count <= w.n {
		w.sum += x
		if w.count == w.n {
			w.value = w.sum / float64(w.n)
		}
		return
	}
	w.value += (x - w.value) / float64(w.n)
}

func (w *wilder) Ready() bool { return w.count >= w.n }

func (w *wilder) Value() float64 { return w.value }
