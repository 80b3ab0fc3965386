//go:build cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type hostPointer struct {
	ch     chan PointerEvent
	lastX  int
	lastY  int
	primed bool
}

func newHostPointer() *hostPointer {
	return &hostPointer{ch: make(chan PointerEvent, 64)}
}

func (p *hostPointer) Events() <-chan PointerEvent { return p.ch }

func (p *hostPointer) emit(ev PointerEvent) {
	select {
	case p.ch <- ev:
	default:
	}
}

var mouseButtons = [...]ebiten.MouseButton{
	ebiten.MouseButtonLeft,
	ebiten.MouseButtonRight,
	ebiten.MouseButtonMiddle,
}

// poll converts window coordinates to framebuffer pixels with scale.
func (p *hostPointer) poll(scale int) {
	if scale < 1 {
		scale = 1
	}
	x, y := ebiten.CursorPosition()
	x /= scale
	y /= scale

	if !p.primed || x != p.lastX || y != p.lastY {
		p.primed = true
		p.lastX, p.lastY = x, y
		p.emit(PointerEvent{Kind: PointerMove, X: x, Y: y})
	}
	for i, b := range mouseButtons {
		if inpututil.IsMouseButtonJustPressed(b) {
			p.emit(PointerEvent{Kind: PointerDown, Button: i, X: x, Y: y})
		}
		if inpututil.IsMouseButtonJustReleased(b) {
			p.emit(PointerEvent{Kind: PointerUp, Button: i, X: x, Y: y})
		}
	}
	if _, wy := ebiten.Wheel(); wy != 0 {
		p.emit(PointerEvent{Kind: PointerWheel, X: x, Y: y, WheelY: wy})
	}
}
