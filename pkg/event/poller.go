package event

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// axisThreshold is the minimum change in an axis value that produces a
// JoystickAxis event.
const axisThreshold = 0.01

// InputPoller converts Ebitengine's polled input state into events.
// Poll must be called from the game's Update.
//
// Ebitengine has no trackball input, so JoystickBall is never produced here;
// applications may publish it themselves.
type InputPoller struct {
	d      *Dispatcher
	ticker *Ticker

	cursor  image.Point
	focused bool
	size    image.Point
	axes    map[ebiten.GamepadID][]float64
	hats    map[ebiten.GamepadID]HatPosition
	started bool

	keys []ebiten.Key
	pads []ebiten.GamepadID
	btns []ebiten.GamepadButton
}

// NewInputPoller creates a poller that publishes to d.
func NewInputPoller(d *Dispatcher, ticker *Ticker) *InputPoller {
	if ticker == nil {
		ticker = NewTicker(nil)
	}
	return &InputPoller{
		d:      d,
		ticker: ticker,
		axes:   make(map[ebiten.GamepadID][]float64),
		hats:   make(map[ebiten.GamepadID]HatPosition),
	}
}

// Poll publishes every input change since the previous call, followed by a
// Tick event.
func (p *InputPoller) Poll() {
	if !p.started {
		p.started = true
		p.focused = ebiten.IsFocused()
		x, y := ebiten.CursorPosition()
		p.cursor = image.Pt(x, y)
		w, h := ebiten.WindowSize()
		p.size = image.Pt(w, h)
	}

	p.pollWindow()
	p.pollKeyboard()
	p.pollMouse()
	p.pollGamepads()

	p.d.Publish(p.ticker.Next())
}

func (p *InputPoller) pollWindow() {
	if f := ebiten.IsFocused(); f != p.focused {
		p.focused = f
		p.d.Publish(Active{Focused: f})
	}
	w, h := ebiten.WindowSize()
	if sz := image.Pt(w, h); sz != p.size {
		p.size = sz
		p.d.Publish(VideoResize{Width: w, Height: h})
		p.d.Publish(VideoExpose{})
	}
	if ebiten.IsWindowBeingClosed() {
		p.d.Publish(Quit{})
	}
}

func (p *InputPoller) pollKeyboard() {
	p.keys = inpututil.AppendJustPressedKeys(p.keys[:0])
	for _, k := range p.keys {
		p.d.Publish(Keyboard{Key: k, Down: true})
	}
	p.keys = inpututil.AppendJustReleasedKeys(p.keys[:0])
	for _, k := range p.keys {
		p.d.Publish(Keyboard{Key: k, Down: false})
	}
}

func (p *InputPoller) pollMouse() {
	x, y := ebiten.CursorPosition()
	pos := image.Pt(x, y)
	if pos != p.cursor {
		p.d.Publish(MouseMotion{Position: pos, Relative: pos.Sub(p.cursor)})
		p.cursor = pos
	}
	for b := ebiten.MouseButton0; b <= ebiten.MouseButtonMax; b++ {
		if inpututil.IsMouseButtonJustPressed(b) {
			p.d.Publish(MouseButton{Button: b, Position: pos, Down: true})
		}
		if inpututil.IsMouseButtonJustReleased(b) {
			p.d.Publish(MouseButton{Button: b, Position: pos, Down: false})
		}
	}
}

func (p *InputPoller) pollGamepads() {
	p.pads = ebiten.AppendGamepadIDs(p.pads[:0])
	for _, id := range p.pads {
		p.pollAxes(id)

		p.btns = inpututil.AppendJustPressedGamepadButtons(id, p.btns[:0])
		for _, b := range p.btns {
			p.d.Publish(JoystickButton{Gamepad: id, Button: b, Down: true})
		}
		for b := ebiten.GamepadButton0; b <= ebiten.GamepadButtonMax; b++ {
			if inpututil.IsGamepadButtonJustReleased(id, b) {
				p.d.Publish(JoystickButton{Gamepad: id, Button: b, Down: false})
			}
		}

		if ebiten.IsStandardGamepadLayoutAvailable(id) {
			hat := standardHat(id)
			if hat != p.hats[id] {
				p.hats[id] = hat
				p.d.Publish(JoystickHat{Gamepad: id, Hat: 0, Position: hat})
			}
		}
	}
}

func (p *InputPoller) pollAxes(id ebiten.GamepadID) {
	n := ebiten.GamepadAxisCount(id)
	prev := p.axes[id]
	if len(prev) != n {
		prev = make([]float64, n)
		p.axes[id] = prev
	}
	for a := 0; a < n; a++ {
		v := ebiten.GamepadAxisValue(id, ebiten.GamepadAxisType(a))
		if math.Abs(v-prev[a]) >= axisThreshold {
			prev[a] = v
			p.d.Publish(JoystickAxis{Gamepad: id, Axis: a, Value: v})
		}
	}
}

// standardHat derives a hat position from the d-pad of a standard layout gamepad.
func standardHat(id ebiten.GamepadID) HatPosition {
	var h HatPosition
	if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftTop) {
		h |= HatUp
	}
	if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftRight) {
		h |= HatRight
	}
	if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftBottom) {
		h |= HatDown
	}
	if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftLeft) {
		h |= HatLeft
	}
	return h
}
