// Package event provides the typed input/system events relayed to sprites.
//
// Events are delivered synchronously: Publish calls every subscribed handler
// in subscription order before it returns.
package event

import (
	"image"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Category identifies a family of events.
type Category int

const (
	CategoryActive Category = iota
	CategoryKeyboardDown
	CategoryKeyboardUp
	CategoryMouseButtonDown
	CategoryMouseButtonUp
	CategoryMouseMotion
	CategoryJoystickAxis
	CategoryJoystickBall
	CategoryJoystickButtonDown
	CategoryJoystickButtonUp
	CategoryJoystickHat
	CategoryQuit
	CategoryUser
	CategoryVideoExpose
	CategoryVideoResize
	CategoryChannelFinished
	CategoryMusicFinished
	CategoryTick

	numCategories
)

// String returns the string representation of a Category.
func (c Category) String() string {
	switch c {
	case CategoryActive:
		return "Active"
	case CategoryKeyboardDown:
		return "KeyboardDown"
	case CategoryKeyboardUp:
		return "KeyboardUp"
	case CategoryMouseButtonDown:
		return "MouseButtonDown"
	case CategoryMouseButtonUp:
		return "MouseButtonUp"
	case CategoryMouseMotion:
		return "MouseMotion"
	case CategoryJoystickAxis:
		return "JoystickAxis"
	case CategoryJoystickBall:
		return "JoystickBall"
	case CategoryJoystickButtonDown:
		return "JoystickButtonDown"
	case CategoryJoystickButtonUp:
		return "JoystickButtonUp"
	case CategoryJoystickHat:
		return "JoystickHat"
	case CategoryQuit:
		return "Quit"
	case CategoryUser:
		return "User"
	case CategoryVideoExpose:
		return "VideoExpose"
	case CategoryVideoResize:
		return "VideoResize"
	case CategoryChannelFinished:
		return "ChannelFinished"
	case CategoryMusicFinished:
		return "MusicFinished"
	case CategoryTick:
		return "Tick"
	default:
		return "Unknown"
	}
}

// Categories returns every defined category in declaration order.
func Categories() []Category {
	out := make([]Category, 0, numCategories)
	for c := Category(0); c < numCategories; c++ {
		out = append(out, c)
	}
	return out
}

// Event is implemented by every event type.
type Event interface {
	Category() Category
}

// Active is sent when the window gains or loses focus.
type Active struct {
	Focused bool
}

// Keyboard is sent when a key is pressed or released.
type Keyboard struct {
	Key  ebiten.Key
	Down bool
}

// MouseButton is sent when a mouse button is pressed or released.
type MouseButton struct {
	Button   ebiten.MouseButton
	Position image.Point
	Down     bool
}

// MouseMotion is sent when the cursor moves.
type MouseMotion struct {
	Position image.Point
	Relative image.Point
}

// JoystickAxis is sent when a gamepad axis value changes.
type JoystickAxis struct {
	Gamepad ebiten.GamepadID
	Axis    int
	Value   float64
}

// JoystickBall is sent when a trackball reports relative motion.
type JoystickBall struct {
	Gamepad ebiten.GamepadID
	Ball    int
	Delta   image.Point
}

// JoystickButton is sent when a gamepad button is pressed or released.
type JoystickButton struct {
	Gamepad ebiten.GamepadID
	Button  ebiten.GamepadButton
	Down    bool
}

// HatPosition is a bitmask of hat switch directions.
type HatPosition int

const (
	HatCentered HatPosition = 0
	HatUp       HatPosition = 1
	HatRight    HatPosition = 2
	HatDown     HatPosition = 4
	HatLeft     HatPosition = 8
)

// JoystickHat is sent when a gamepad hat switch changes position.
type JoystickHat struct {
	Gamepad  ebiten.GamepadID
	Hat      int
	Position HatPosition
}

// Quit is sent when the application is asked to terminate.
type Quit struct{}

// User carries an application-defined code and payload.
type User struct {
	Code int
	Data any
}

// VideoExpose is sent when the screen must be redrawn.
type VideoExpose struct{}

// VideoResize is sent when the window size changes.
type VideoResize struct {
	Width, Height int
}

// ChannelFinished is sent when a sound channel stops playing.
type ChannelFinished struct {
	Channel int
}

// MusicFinished is sent when the current music track ends.
type MusicFinished struct {
	Track string
}

// Tick is sent once per frame.
type Tick struct {
	Frame   int64
	Elapsed time.Duration
	Delta   time.Duration
}

func (Active) Category() Category { return CategoryActive }

func (e Keyboard) Category() Category {
	if e.Down {
		return CategoryKeyboardDown
	}
	return CategoryKeyboardUp
}

func (e MouseButton) Category() Category {
	if e.Down {
		return CategoryMouseButtonDown
	}
	return CategoryMouseButtonUp
}

func (MouseMotion) Category() Category  { return CategoryMouseMotion }
func (JoystickAxis) Category() Category { return CategoryJoystickAxis }
func (JoystickBall) Category() Category { return CategoryJoystickBall }

func (e JoystickButton) Category() Category {
	if e.Down {
		return CategoryJoystickButtonDown
	}
	return CategoryJoystickButtonUp
}

func (JoystickHat) Category() Category     { return CategoryJoystickHat }
func (Quit) Category() Category            { return CategoryQuit }
func (User) Category() Category            { return CategoryUser }
func (VideoExpose) Category() Category     { return CategoryVideoExpose }
func (VideoResize) Category() Category     { return CategoryVideoResize }
func (ChannelFinished) Category() Category { return CategoryChannelFinished }
func (MusicFinished) Category() Category   { return CategoryMusicFinished }
func (Tick) Category() Category            { return CategoryTick }
