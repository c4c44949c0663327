package vcs

// tailBuffer is an io.Writer that retains only the final limit bytes, enough
// to explain a failed command without holding all of its stderr.
type tailBuffer struct {
	limit int
	data  []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if b.limit <= 0 {
		return n, nil
	}
	if n > b.limit {
		p = p[n-b.limit:]
	}
	if drop := len(b.data) + len(p) - b.limit; drop > 0 {
		b.data = b.data[drop:]
	}
	b.data = append(b.data, p...)
	return n, nil
}

func (b *tailBuffer) String() string { return string(b.data) }
