//go:build cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type hostKeyboard struct {
	ch chan KeyEvent
}

func newHostKeyboard() *hostKeyboard {
	return &hostKeyboard{ch: make(chan KeyEvent, 64)}
}

func (k *hostKeyboard) Events() <-chan KeyEvent { return k.ch }

var navKeys = [...]struct {
	key  ebiten.Key
	code KeyCode
}{
	{ebiten.KeyArrowUp, KeyUp},
	{ebiten.KeyArrowDown, KeyDown},
	{ebiten.KeyArrowLeft, KeyLeft},
	{ebiten.KeyArrowRight, KeyRight},
	{ebiten.KeyEnter, KeyEnter},
	{ebiten.KeyEscape, KeyEscape},
	{ebiten.KeyBackspace, KeyBackspace},
	{ebiten.KeyTab, KeyTab},
	{ebiten.KeyDelete, KeyDelete},
	{ebiten.KeyHome, KeyHome},
	{ebiten.KeyEnd, KeyEnd},
	{ebiten.KeyF1, KeyF1},
	{ebiten.KeyF2, KeyF2},
	{ebiten.KeyF3, KeyF3},
}

// Shortcut letters reported with Ctrl held. Text input is suppressed for
// them so the letter does not also arrive as a plain rune.
var ctrlKeys = [...]struct {
	key ebiten.Key
	r   rune
}{
	{ebiten.KeyS, 's'},
	{ebiten.KeyO, 'o'},
	{ebiten.KeyN, 'n'},
	{ebiten.KeyQ, 'q'},
	{ebiten.KeyZ, 'z'},
	{ebiten.KeyY, 'y'},
}

func (k *hostKeyboard) emit(ev KeyEvent) {
	select {
	case k.ch <- ev:
	default:
	}
}

func (k *hostKeyboard) poll() {
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight) ||
		ebiten.IsKeyPressed(ebiten.KeyMetaLeft) || ebiten.IsKeyPressed(ebiten.KeyMetaRight)

	if ctrl {
		for _, c := range ctrlKeys {
			if inpututil.IsKeyJustPressed(c.key) {
				k.emit(KeyEvent{Press: true, Rune: c.r, Ctrl: true})
			}
		}
	} else {
		for _, r := range ebiten.AppendInputChars(nil) {
			k.emit(KeyEvent{Press: true, Rune: r})
		}
	}

	for _, n := range navKeys {
		if inpututil.IsKeyJustPressed(n.key) {
			k.emit(KeyEvent{Code: n.code, Press: true, Ctrl: ctrl})
		}
		if inpututil.IsKeyJustReleased(n.key) {
			k.emit(KeyEvent{Code: n.code, Press: false, Ctrl: ctrl})
		}
	}
}
