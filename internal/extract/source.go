// Package extract pulls candidate images out of documents, archives and
// emails so they can be searched for QR codes.
package extract

// Source is one image blob found inside an input file.
type Source struct {
	// Name identifies where the image came from, e.g. "word/media/image1.png"
	Name string
	Data []byte
}

// Collector gathers sources up to a limit and remembers whether any
// further source was offered once it was full.
type Collector struct {
	limit    int
	sources  []Source
	overflow bool
}

// NewCollector creates a collector accepting at most limit sources.
func NewCollector(limit int) *Collector {
	return &Collector{limit: limit}
}

// Add stores src. It returns false when the collector is already full, in
// which case the caller should stop offering sources.
func (c *Collector) Add(src Source) bool {
	if len(c.sources) >= c.limit {
		c.overflow = true
		return false
	}
	c.sources = append(c.sources, src)
	return true
}

// Reject records that a source was turned away because the collector is full.
func (c *Collector) Reject() {
	c.overflow = true
}

// Full reports whether no more sources are accepted.
func (c *Collector) Full() bool {
	return len(c.sources) >= c.limit
}

// Sources returns the collected sources in discovery order.
func (c *Collector) Sources() []Source {
	return c.sources
}

// Len is the number of collected sources.
func (c *Collector) Len() int {
	return len(c.sources)
}

// Overflow reports whether sources were rejected for lack of room.
func (c *Collector) Overflow() bool {
	return c.overflow
}
