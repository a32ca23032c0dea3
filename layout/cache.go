package layout

import "sync"

type measureKey struct {
	text  string
	size  float64
	angle float64
	font  FontResource
}

// CachedMeasurer memoizes bounding boxes by (text, size, angle, font).
// Failed measurements are not cached. Safe for concurrent use.
type CachedMeasurer struct {
	inner Measurer

	mu      sync.Mutex
	entries map[measureKey]BBox
	limit   int
}

var _ Measurer = (*CachedMeasurer)(nil)

// NewCachedMeasurer wraps m. limit <= 0 means unbounded; once the limit is reached
// the cache is dropped and refilled.
func NewCachedMeasurer(m Measurer, limit int) *CachedMeasurer {
	return &CachedMeasurer{inner: m, entries: map[measureKey]BBox{}, limit: limit}
}

func (c *CachedMeasurer) MeasureBBox(text string, size, angle float64, font FontResource) (BBox, error) {
	key := measureKey{text: text, size: size, angle: angle, font: font}

	c.mu.Lock()
	if b, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return b, nil
	}
	c.mu.Unlock()

	b, err := c.inner.MeasureBBox(text, size, angle, font)
	if err != nil {
		return BBox{}, err
	}

	c.mu.Lock()
	if c.limit > 0 && len(c.entries) >= c.limit {
		c.entries = map[measureKey]BBox{}
	}
	c.entries[key] = b
	c.mu.Unlock()
	return b, nil
}

// Len returns the number of cached entries.
func (c *CachedMeasurer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
