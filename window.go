package inflate

// maxHistory is the farthest a DEFLATE back-reference can reach.
const maxHistory = 1 << 15

// window is the decoder's output. It doubles as the sliding window: back-references read
// behind the current write position, and everything ever written stays addressable.
// An optional preset dictionary sits in front of the output and is reachable by back-references
// but not part of the result.
type window struct {
	data    []byte
	dictLen int
	// Maximum number of output bytes, 0 for no limit
	limit int
}

func newWindow(dict []byte, limit int) *window {
	if len(dict) > maxHistory {
		dict = dict[len(dict)-maxHistory:]
	}
	data := make([]byte, len(dict), len(dict)+4096)
	copy(data, dict)
	return &window{
		data:    data,
		dictLen: len(dict),
		limit:   limit,
	}
}

// Len is the number of output bytes written so far, excluding the dictionary.
func (w *window) Len() int {
	return len(w.data) - w.dictLen
}

func (w *window) room(n int) bool {
	return w.limit <= 0 || w.Len()+n <= w.limit
}

func (w *window) Add(b byte) {
	w.data = append(w.data, b)
}

func (w *window) AddBytes(b []byte) {
	w.data = append(w.data, b...)
}

// History is how far back a back-reference may currently reach.
func (w *window) History() int {
	return len(w.data)
}

// Copy appends length bytes starting distance bytes behind the write position. The copy runs
// byte by byte so that a distance shorter than length repeats the pattern.
func (w *window) Copy(distance, length int) {
	src := len(w.data) - distance
	for i := 0; i < length; i++ {
		w.data = append(w.data, w.data[src+i])
	}
}

// Output returns the decoded bytes without the dictionary.
func (w *window) Output() []byte {
	return w.data[w.dictLen:]
}
