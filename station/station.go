package station

import (
	"context"
	"image"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wydy/robot36/sstv"
	"github.com/wydy/robot36/store"
)

type EventType int

const (
	EventLine EventType = iota
	EventHeader
	EventImage
)

func (t EventType) String() string {
	switch t {
	case EventLine:
		return "line"
	case EventHeader:
		return "header"
	case EventImage:
		return "image"
	}
	return "unknown"
}

// Event is one decoder happening as seen by subscribers. Pixels is a
// private copy of the row for EventLine.
type Event struct {
	Type   EventType
	Mode   string
	Code   int
	Line   int
	Width  int
	Pixels []uint32
	Image  *store.ImageRecord
}

type Option func(*Station)

func WithLogger(l *log.Logger) Option { return func(s *Station) { s.logger = l } }

func WithMetrics(m *Metrics) Option { return func(s *Station) { s.metrics = m } }

// WithStore saves every completed picture and records it in idx, which
// is written back to indexPath when indexPath is not empty.
func WithStore(is *store.ImageStore, idx *store.ImageIndex, indexPath string) Option {
	return func(s *Station) {
		s.images, s.index, s.indexPath = is, idx, indexPath
	}
}

// Station owns a decoder and its buffers and shares the results with
// any number of readers.
type Station struct {
	channel sstv.Channel
	decoder *sstv.Decoder
	scope   *sstv.Scope
	image   *sstv.PixelBuffer
	// last holds the most recent finished picture.
	last *image.NRGBA
	line int
	mu   sync.RWMutex

	subs    map[int]chan Event
	nextSub int
	submu   sync.Mutex

	images    *store.ImageStore
	index     *store.ImageIndex
	indexPath string
	// saves tracks pictures still being written; savemu keeps their
	// index updates in completion order.
	saves  sync.WaitGroup
	savemu sync.Mutex

	metrics *Metrics
	logger  *log.Logger
	now     func() time.Time
}

func New(sampleRate int, channel sstv.Channel, scopeWidth, scopeHeight int, opts ...Option) *Station {
	s := &Station{
		channel: channel,
		scope:   sstv.NewScope(scopeWidth, scopeHeight),
		image:   sstv.NewPixelBuffer(800, 616),
		subs:    make(map[int]chan Event),
		logger:  log.New(io.Discard),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.decoder = sstv.NewDecoder(s.scope, s.image, sampleRate,
		sstv.WithLogger(s.logger.WithPrefix("decoder")),
		sstv.WithObserver(observer{s}))
	return s
}

// Run feeds chunks to the decoder until the channel closes or ctx is
// done, then waits for pictures still being saved.
func (s *Station) Run(ctx context.Context, chunks <-chan []float32) error {
	defer s.Flush()
	for {
		select {
		case samps, ok := <-chunks:
			if !ok {
				return nil
			}
			s.Process(samps)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Flush waits until every finished picture has been saved.
func (s *Station) Flush() { s.saves.Wait() }

// Process decodes one chunk and reports whether any line was produced.
func (s *Station) Process(samps []float32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.samples.Add(float64(len(samps) / s.channel.Channels()))
	}
	return s.decoder.Process(samps, s.channel)
}

// SetMode locks the decoder to a mode by name; "" resumes detection.
func (s *Station) SetMode(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decoder.SetMode(name)
}

type Status struct {
	Mode     string `json:"mode"`
	Locked   bool   `json:"locked"`
	Line     int    `json:"line"`
	Height   int    `json:"height"`
	Active   bool   `json:"active"`
	Complete bool   `json:"complete"`
}

func (s *Station) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Mode:     s.decoder.ModeName(),
		Locked:   s.decoder.Locked(),
		Line:     s.image.Line,
		Height:   s.image.Height,
		Active:   s.image.Active(),
		Complete: s.image.Complete(),
	}
}

func (s *Station) ScopeImage() *image.NRGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope.Image()
}

// ScopeSnapshot copies the visible scope rows into dst, growing it if needed.
func (s *Station) ScopeSnapshot(dst []uint32) (pixels []uint32, width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vis := s.scope.Visible()
	if cap(dst) < len(vis) {
		dst = make([]uint32, len(vis))
	}
	dst = dst[:len(vis)]
	copy(dst, vis)
	return dst, s.scope.Width, s.scope.Height
}

// ImageSnapshot returns the picture in progress, or the last finished
// one when none is in progress. It is nil before the first header.
func (s *Station) ImageSnapshot() *image.NRGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.image.Active() {
		return s.image.Image()
	}
	return s.last
}

// Recent lists the newest saved pictures.
func (s *Station) Recent(n int) []store.ImageRecord {
	if s.index == nil {
		return nil
	}
	return s.index.Records(n)
}

// Subscribe returns a channel of events with room for buffer entries.
// Events are dropped rather than block the decoder when it is full.
func (s *Station) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	s.submu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.submu.Unlock()
	s.subsChanged()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.submu.Lock()
			delete(s.subs, id)
			s.submu.Unlock()
			close(ch)
			s.subsChanged()
		})
	}
}

func (s *Station) Subscribers() int {
	s.submu.Lock()
	defer s.submu.Unlock()
	return len(s.subs)
}

func (s *Station) subsChanged() {
	if s.metrics == nil {
		return
	}
	s.submu.Lock()
	s.metrics.subs.Set(float64(len(s.subs)))
	s.submu.Unlock()
}

func (s *Station) publish(ev Event) {
	s.submu.Lock()
	defer s.submu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			if s.metrics != nil {
				s.metrics.dropped.Inc()
			}
		}
	}
}

// observer receives decoder callbacks with s.mu held.
type observer struct{ s *Station }

func (o observer) ScanLine(mode sstv.Mode, row []uint32) {
	s := o.s
	pixels := make([]uint32, len(row))
	copy(pixels, row)
	s.publish(Event{Type: EventLine, Mode: mode.Name(), Line: s.line, Width: len(row), Pixels: pixels})
	s.line++
	if s.metrics != nil {
		s.metrics.lines.WithLabelValues(mode.Name()).Inc()
		if s.image.Height > 0 && s.image.Line >= 0 {
			s.metrics.progress.Set(float64(s.image.Line) / float64(s.image.Height))
		}
	}
}

func (o observer) HeaderDecoded(code int, mode sstv.Mode) {
	s := o.s
	name := "unknown"
	if mode != nil {
		name = mode.Name()
		s.line = 0
	}
	s.logger.Info("vis header", "code", code, "mode", name)
	if s.metrics != nil {
		s.metrics.headers.WithLabelValues(name).Inc()
	}
	s.publish(Event{Type: EventHeader, Mode: name, Code: code})
}

func (o observer) ImageComplete(mode sstv.Mode, pb *sstv.PixelBuffer) {
	s := o.s
	s.last = pb.Image()
	if s.metrics != nil {
		s.metrics.images.WithLabelValues(mode.Name()).Inc()
	}
	if s.images == nil {
		s.publish(Event{Type: EventImage, Mode: mode.Name()})
		return
	}
	// Disk writes stay off the decoding path.
	s.saves.Add(1)
	go s.save(s.last, mode.Name())
}

// save writes a finished picture and its index entry, then announces it.
func (s *Station) save(img *image.NRGBA, mode string) {
	defer s.saves.Done()
	s.savemu.Lock()
	defer s.savemu.Unlock()
	ev := Event{Type: EventImage, Mode: mode}
	rec, err := s.images.Save(img, mode, s.now())
	if err != nil {
		s.logger.Error("save image", "mode", mode, "err", err)
		s.publish(ev)
		return
	}
	s.logger.Info("saved image", "path", rec.Path, "mode", mode)
	ev.Image = &rec
	s.index.Add(rec)
	if s.indexPath != "" {
		if err := s.index.Save(s.indexPath); err != nil {
			s.logger.Warn("save index", "err", err)
		}
	}
	s.publish(ev)
}
