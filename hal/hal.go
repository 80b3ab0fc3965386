// Package hal is the editor's contact point with the desktop: a framebuffer
// to draw into, keyboard and pointer events, and file dialogs.
package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var (
	ErrNotImplemented = errors.New("not implemented")
	// ErrCancelled is returned by a Dialog when the user dismisses it.
	ErrCancelled = errors.New("dialog cancelled")
)

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
//
// The size may change between frames when the window is resized; callers
// re-read Width and Height every frame.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyTab
	KeyDelete
	KeyHome
	KeyEnd
	KeyF1
	KeyF2
	KeyF3
)

// KeyEvent is a keyboard event. Text input carries a Rune and no Code.
type KeyEvent struct {
	Code  KeyCode
	Press bool
	Rune  rune
	Ctrl  bool
}

// Keyboard provides key events (best-effort on each platform).
type Keyboard interface {
	Events() <-chan KeyEvent
}

// PointerKind is the kind of a pointer event.
type PointerKind uint8

const (
	PointerDown PointerKind = iota + 1
	PointerMove
	PointerUp
	PointerWheel
)

// PointerEvent is a mouse event in framebuffer pixels.
type PointerEvent struct {
	Kind   PointerKind
	Button int // 0 left, 1 right, 2 middle
	X, Y   int
	// WheelY is the scroll amount for PointerWheel, positive away from the user.
	WheelY float64
}

// Pointer provides mouse events.
type Pointer interface {
	Events() <-chan PointerEvent
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Input provides access to input devices (if available).
type Input interface {
	Keyboard() Keyboard
	Pointer() Pointer
}

// Dialog asks the user for files.
type Dialog interface {
	// PickOpen returns a design file to open.
	PickOpen() (string, error)
	// PickSave returns a file or directory to save to. current is the last
	// save path and may be empty.
	PickSave(current string) (string, error)
}

// HAL provides the only contact point between the editor and the outside world.
type HAL interface {
	Logger() Logger
	Display() Display
	Input() Input
	Dialog() Dialog
}
