package render

import (
	"sync"

	"github.com/baldhumanity/neat-racer/geom"
)

// Buffer hands frames from the goroutine that draws them to the one that
// shows them. Drawing calls record into a back frame; Present swaps it with
// the front frame, which Show replays. Only one goroutine may draw.
type Buffer struct {
	back  *Frame
	mu    sync.Mutex
	front *Frame
	seq   uint64
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{back: &Frame{}, front: &Frame{}}
}

func (b *Buffer) DrawLayers(layers []Layer)    { b.back.DrawLayers(layers) }
func (b *Buffer) DrawBody(body Body)           { b.back.DrawBody(body) }
func (b *Buffer) DrawSensor(s Sensor)          { b.back.DrawSensor(s) }
func (b *Buffer) DrawPoints(points []geom.Vec) { b.back.DrawPoints(points) }
func (b *Buffer) DrawStatus(lines ...string)   { b.back.DrawStatus(lines...) }

func (b *Buffer) Present() {
	b.back.Present()
	b.mu.Lock()
	b.front, b.back = b.back, b.front
	b.seq++
	b.mu.Unlock()
}

// Show replays the latest presented frame onto s and returns how many frames
// have been presented so far. Nothing is drawn before the first Present.
func (b *Buffer) Show(s Surface) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq > 0 {
		b.front.Replay(s)
	}
	return b.seq
}
