package telemetry

// History keeps the most recent values of a series for charting.
type History struct {
	values []float64
	next   int
	full   bool
}

func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 60
	}
	return &History{values: make([]float64, capacity)}
}

func (h *History) Push(v float64) {
	h.values[h.next] = v
	h.next++
	if h.next == len(h.values) {
		h.next = 0
		h.full = true
	}
}

func (h *History) Len() int {
	if h.full {
		return len(h.values)
	}
	return h.next
}

// Values returns the series oldest first.
func (h *History) Values() []float64 {
	if !h.full {
		return append([]float64(nil), h.values[:h.next]...)
	}
	out := make([]float64, 0, len(h.values))
	out = append(out, h.values[h.next:]...)
	return append(out, h.values[:h.next]...)
}

// Last returns the newest value, or 0 when empty.
func (h *History) Last() float64 {
	if h.Len() == 0 {
		return 0
	}
	i := h.next - 1
	if i < 0 {
		i = len(h.values) - 1
	}
	return h.values[i]
}
