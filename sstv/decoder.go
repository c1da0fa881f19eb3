package sstv

import (
	"io"
	"math"

	"github.com/charmbracelet/log"
)

// Observer is told about decoder events from inside Process.
type Observer interface {
	// ScanLine is called for each row produced. The row is reused after
	// the call returns.
	ScanLine(mode Mode, row []uint32)
	// HeaderDecoded is called for every VIS header that passes parity.
	// mode is nil when the code is not known.
	HeaderDecoded(code int, mode Mode)
	// ImageComplete is called when the last row of a picture is written.
	ImageComplete(mode Mode, image *PixelBuffer)
}

type Option func(*Decoder)

func WithLogger(l *log.Logger) Option {
	return func(d *Decoder) { d.logger = l }
}

func WithObserver(o Observer) Option {
	return func(d *Decoder) { d.observer = o }
}

const (
	scanLineCount = 4
	markerLines   = 2
)

// Decoder turns audio chunks into scan lines. It writes every line into
// the scope and, while a picture announced by a VIS header is in
// progress, into the image buffer.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	demodulator *Demodulator
	header      *visHeader
	histories   [3]*pulseHistory
	modes       [3][]Mode
	rawMode     Mode

	scope          *Scope
	image          *PixelBuffer
	pixels         *PixelBuffer
	scopeRow       []uint32
	scanLineBuffer []float32
	scratchBuffer  []float32

	scanLineMinSamples        int
	scanLineToleranceSamples  int
	syncPulseToleranceSamples int

	currentMode            Mode
	locked                 bool
	currentSample          int
	lastSyncPulseIndex     int
	currentScanLineSamples int
	lastFrequencyOffset    float32
	// shifted counts every sample discarded from the front of the ring
	// so indices can be carried across a shift.
	shifted int

	observer Observer
	logger   *log.Logger
}

// NewDecoder creates a decoder for audio at sampleRate. The image buffer
// must hold the largest picture of any mode (800x616).
func NewDecoder(scope *Scope, image *PixelBuffer, sampleRate int, opts ...Option) *Decoder {
	d := &Decoder{
		demodulator: NewDemodulator(sampleRate),
		header:      newVISHeader(sampleRate),
		modes:       modeTable(sampleRate),
		rawMode:     RawMode(scope.Width, sampleRate),

		scope:          scope,
		image:          image,
		pixels:         NewPixelBuffer(max(800, scope.Width), 2),
		scopeRow:       make([]uint32, scope.Width),
		scanLineBuffer: make([]float32, samples(7, sampleRate)),
		scratchBuffer:  make([]float32, samples(1.1, sampleRate)),

		scanLineMinSamples:        samples(0.05, sampleRate),
		scanLineToleranceSamples:  samples(0.001, sampleRate),
		syncPulseToleranceSamples: samples(0.03, sampleRate),

		logger: log.New(io.Discard),
	}
	for i := range d.histories {
		d.histories[i] = newPulseHistory(scanLineCount)
	}
	d.image.Line = -1
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ModeName is the display name of the current mode, empty before any
// mode has been detected.
func (d *Decoder) ModeName() string {
	if d.currentMode == nil {
		return ""
	}
	return d.currentMode.Name()
}

func (d *Decoder) Mode() Mode { return d.currentMode }

func (d *Decoder) Locked() bool { return d.locked }

// SetMode forces the named mode and stops automatic detection. An empty
// name resumes detection. It reports false for an unknown name.
func (d *Decoder) SetMode(name string) bool {
	if name == "" {
		d.locked = false
		return true
	}
	mode := d.rawMode
	if name != mode.Name() {
		if mode, _ = d.findMode(func(m Mode) bool { return m.Name() == name }); mode == nil {
			return false
		}
		d.currentScanLineSamples = mode.ScanLineSamples()
	}
	if mode != d.currentMode {
		mode.Reset()
	}
	d.currentMode = mode
	d.locked = true
	return true
}

func (d *Decoder) findMode(match func(Mode) bool) (Mode, SyncPulseWidth) {
	for width, modes := range d.modes {
		for _, m := range modes {
			if match(m) {
				return m, SyncPulseWidth(width)
			}
		}
	}
	return nil, 0
}

// Process consumes one chunk of interleaved samples. The chunk is
// overwritten with the demodulated frequency trace. It reports whether at
// least one scan line was produced.
func (d *Decoder) Process(buffer []float32, channel Channel) bool {
	pulse := d.demodulator.Process(buffer, channel)
	syncPulseIndex := d.currentSample + d.demodulator.SyncPulseOffset
	mark := d.shifted
	for _, v := range buffer[:len(buffer)/channel.Channels()] {
		d.scanLineBuffer[d.currentSample] = v
		if d.currentSample++; d.currentSample >= len(d.scanLineBuffer) {
			d.shiftSamples(d.overflowShift())
		}
	}
	if d.header.ready(d.currentSample) {
		d.handleHeader()
	}
	syncPulseIndex -= d.shifted - mark
	if pulse {
		width := d.demodulator.SyncPulseWidth
		if width == NineMilliSeconds {
			d.header.arm(syncPulseIndex)
		}
		return d.processSyncPulse(width, syncPulseIndex)
	}
	if d.currentMode == nil || d.currentScanLineSamples <= 0 {
		return false
	}
	if d.currentSample <= d.lastSyncPulseIndex+(d.currentScanLineSamples*5)/4 {
		return false
	}
	// No pulse where one was due: keep going on the expected period.
	decoded := d.decodeLine(d.lastSyncPulseIndex, d.currentScanLineSamples, d.lastFrequencyOffset)
	d.lastSyncPulseIndex += d.currentScanLineSamples
	return decoded
}

func (d *Decoder) overflowShift() int {
	if d.currentScanLineSamples > 0 {
		return d.currentScanLineSamples
	}
	return len(d.scanLineBuffer) / 2
}

// shiftSamples discards shift samples from the front of the ring buffer
// and moves every stored index with them.
func (d *Decoder) shiftSamples(shift int) {
	if shift <= 0 || shift > d.currentSample {
		return
	}
	d.currentSample -= shift
	d.lastSyncPulseIndex -= shift
	d.header.shift(shift)
	for _, h := range d.histories {
		h.shift(shift)
	}
	copy(d.scanLineBuffer, d.scanLineBuffer[shift:shift+d.currentSample])
	d.shifted += shift
}

func (d *Decoder) detectMode(modes []Mode, scanLineSamples int) Mode {
	best, bestDistance := d.rawMode, d.scanLineToleranceSamples+1
	for _, m := range modes {
		distance := abs(m.ScanLineSamples() - scanLineSamples)
		if distance <= d.scanLineToleranceSamples && distance < bestDistance {
			best, bestDistance = m, distance
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (d *Decoder) processSyncPulse(width SyncPulseWidth, syncPulseIndex int) bool {
	h := d.histories[width]
	if h.count > 0 && abs(syncPulseIndex-h.latest()) <= d.syncPulseToleranceSamples {
		// Same pulse as the newest entry, e.g. one predicted by a header.
		h.refine(syncPulseIndex, d.demodulator.FrequencyOffset)
		return false
	}
	h.push(syncPulseIndex, d.demodulator.FrequencyOffset)
	if !h.full() {
		return false
	}
	mean, stddev := h.periodStats()
	scanLineSamples := int(math.Round(mean))
	if scanLineSamples < d.scanLineMinSamples || scanLineSamples > len(d.scratchBuffer) {
		return false
	}
	if stddev > float64(d.scanLineToleranceSamples) {
		return false
	}
	pictureChanged := false
	if d.locked || d.image.Active() {
		if d.currentMode != d.rawMode && abs(scanLineSamples-d.currentMode.ScanLineSamples()) > d.scanLineToleranceSamples {
			return false
		}
	} else {
		previous := d.currentMode
		d.currentMode = d.detectMode(d.modes[width], scanLineSamples)
		pictureChanged = d.currentMode != previous ||
			abs(d.currentScanLineSamples-scanLineSamples) > d.scanLineToleranceSamples ||
			abs(d.lastSyncPulseIndex+scanLineSamples-h.latest()) > d.syncPulseToleranceSamples
	}
	frequencyOffset := h.frequencyOffset()
	decoded := false
	if pictureChanged {
		d.logger.Debug("picture changed", "mode", d.currentMode.Name(), "samples", scanLineSamples)
		d.currentMode.Reset()
		d.scope.fill(Cyan, markerLines)
		// Lines older than the history may still sit in the buffer.
		oldest := h.pulses[0]
		for i := oldest % scanLineSamples; i+scanLineSamples <= oldest; i += scanLineSamples {
			decoded = d.decodeLine(i, scanLineSamples, frequencyOffset) || decoded
		}
		for i, period := range h.periods {
			decoded = d.decodeLine(h.pulses[i], period, frequencyOffset) || decoded
		}
	} else {
		last := len(h.periods) - 1
		decoded = d.decodeLine(h.pulses[last], h.periods[last], frequencyOffset)
	}
	d.lastSyncPulseIndex = h.latest()
	d.currentScanLineSamples = scanLineSamples
	d.lastFrequencyOffset = frequencyOffset
	d.shiftSamples(d.lastSyncPulseIndex + d.currentMode.DecodeBegin())
	return decoded
}

func (d *Decoder) handleHeader() {
	res, err := d.header.decode(d.scanLineBuffer)
	if err != nil {
		d.logger.Debug("vis header rejected", "err", err)
		return
	}
	mode, width := d.findMode(func(m Mode) bool { return m.Code() == res.code })
	if mode == nil {
		d.logger.Debug("unknown vis code", "code", res.code)
		d.scope.fill(Red, markerLines)
		d.headerDecoded(res.code, nil)
		return
	}
	if d.locked && mode != d.currentMode {
		d.logger.Debug("vis header ignored while locked", "mode", mode.Name(), "locked", d.ModeName())
		return
	}
	d.logger.Debug("vis header", "code", res.code, "mode", mode.Name())
	mode.Reset()
	d.currentMode = mode
	d.currentScanLineSamples = mode.ScanLineSamples()
	d.lastSyncPulseIndex = res.end + mode.FirstSyncPulseIndex()
	d.lastFrequencyOffset = res.frequencyOffset
	d.histories[width].seed(d.lastSyncPulseIndex, d.currentScanLineSamples, res.frequencyOffset)
	if mode.Width()*mode.Height() <= len(d.image.Pixels) {
		d.image.Width = mode.Width()
		d.image.Height = mode.Height()
		d.image.Line = 0
	} else {
		d.logger.Warn("image buffer too small", "mode", mode.Name())
	}
	d.shiftSamples(d.lastSyncPulseIndex + mode.DecodeBegin())
	d.scope.fill(Green, markerLines)
	d.headerDecoded(res.code, mode)
}

func (d *Decoder) headerDecoded(code int, mode Mode) {
	if d.observer != nil {
		d.observer.HeaderDecoded(code, mode)
	}
}

func (d *Decoder) decodeLine(syncPulseIndex, scanLineSamples int, frequencyOffset float32) bool {
	ok := d.currentMode.Decode(d.pixels, d.scratchBuffer, d.scanLineBuffer, syncPulseIndex, scanLineSamples, frequencyOffset)
	if !ok {
		return false
	}
	d.copyLines()
	return true
}

// copyLines moves the rows of the last decoded line into the image
// buffer and the scope.
func (d *Decoder) copyLines() {
	finished := false
	if d.image.Active() && d.pixels.Width == d.image.Width {
		for row := 0; row < d.pixels.Height && d.image.Line < d.image.Height; row++ {
			copy(d.image.Row(d.image.Line), d.pixels.Row(row))
			d.image.Line++
		}
		finished = d.image.Complete()
	}
	for row := 0; row < d.pixels.Height; row++ {
		src := d.pixels.Row(row)
		d.scaleRow(src)
		d.scope.push(d.scopeRow)
		if d.observer != nil {
			d.observer.ScanLine(d.currentMode, src)
		}
	}
	if finished {
		d.logger.Debug("image complete", "mode", d.currentMode.Name())
		d.scope.fill(Black, markerLines)
		if d.observer != nil {
			d.observer.ImageComplete(d.currentMode, d.image)
		}
	}
}

// scaleRow stretches src by a whole factor into the scope row, or crops
// it when it is wider than the scope.
func (d *Decoder) scaleRow(src []uint32) {
	dst := d.scopeRow
	scale := len(dst) / len(src)
	if scale <= 1 {
		n := copy(dst, src)
		for i := n; i < len(dst); i++ {
			dst[i] = Black
		}
		return
	}
	for i, c := range src {
		for j := 0; j < scale; j++ {
			dst[i*scale+j] = c
		}
	}
	for i := len(src) * scale; i < len(dst); i++ {
		dst[i] = Black
	}
}
