package sprite

import (
	"fmt"

	"github.com/zurustar/spritekit/pkg/event"
)

type eventRelayKey struct {
	d   *event.Dispatcher
	cat event.Category
}

type relay struct {
	sub event.Subscription
}

var (
	keyboardCategories       = []event.Category{event.CategoryKeyboardDown, event.CategoryKeyboardUp}
	mouseButtonCategories    = []event.Category{event.CategoryMouseButtonDown, event.CategoryMouseButtonUp}
	joystickButtonCategories = []event.Category{event.CategoryJoystickButtonDown, event.CategoryJoystickButtonUp}
)

// EnableEvents は d に発行された指定カテゴリのイベントを全メンバーの Update に中継する
// 既に中継中のカテゴリは二重に登録しない
func (c *Collection) EnableEvents(d *event.Dispatcher, cats ...event.Category) error {
	if d == nil {
		return fmt.Errorf("enable events: nil dispatcher: %w", ErrInvalidArgument)
	}
	if c.relays == nil {
		c.relays = make(map[eventRelayKey]relay)
	}
	for _, cat := range cats {
		key := eventRelayKey{d: d, cat: cat}
		if _, ok := c.relays[key]; ok {
			continue
		}
		sub := d.Subscribe(cat, c.relayEvent)
		c.relays[key] = relay{sub: sub}
		c.log.Debug("Event relay enabled", "category", cat)
	}
	return nil
}

// DisableEvents は指定カテゴリの中継をすべてのディスパッチャーで解除する
func (c *Collection) DisableEvents(cats ...event.Category) {
	for key, r := range c.relays {
		for _, cat := range cats {
			if key.cat == cat {
				key.d.Unsubscribe(r.sub)
				delete(c.relays, key)
				c.log.Debug("Event relay disabled", "category", cat)
				break
			}
		}
	}
}

// DisableAllEvents はすべての中継を解除する
func (c *Collection) DisableAllEvents() {
	for key, r := range c.relays {
		key.d.Unsubscribe(r.sub)
	}
	c.relays = nil
}

// EventsEnabled はカテゴリがいずれかのディスパッチャーから中継されているかどうかを返す
func (c *Collection) EventsEnabled(cat event.Category) bool {
	for key := range c.relays {
		if key.cat == cat {
			return true
		}
	}
	return false
}

// relayEvent は開始時点のメンバー全員にイベントを渡す
func (c *Collection) relayEvent(ev event.Event) {
	for _, s := range c.Sprites() {
		s.Update(ev)
	}
}

// EnableKeyboardEvent はキーの押下・解放を中継する
func (c *Collection) EnableKeyboardEvent(d *event.Dispatcher) error {
	return c.EnableEvents(d, keyboardCategories...)
}

// DisableKeyboardEvent はキーの押下・解放の中継を解除する
func (c *Collection) DisableKeyboardEvent() { c.DisableEvents(keyboardCategories...) }

// EnableMouseButtonEvent はマウスボタンの押下・解放を中継する
func (c *Collection) EnableMouseButtonEvent(d *event.Dispatcher) error {
	return c.EnableEvents(d, mouseButtonCategories...)
}

// DisableMouseButtonEvent はマウスボタンの中継を解除する
func (c *Collection) DisableMouseButtonEvent() { c.DisableEvents(mouseButtonCategories...) }

// EnableMouseMotionEvent はマウス移動を中継する
func (c *Collection) EnableMouseMotionEvent(d *event.Dispatcher) error {
	return c.EnableEvents(d, event.CategoryMouseMotion)
}

// DisableMouseMotionEvent はマウス移動の中継を解除する
func (c *Collection) DisableMouseMotionEvent() { c.DisableEvents(event.CategoryMouseMotion) }

// EnableJoystickButtonEvent はジョイスティックボタンを中継する
func (c *Collection) EnableJoystickButtonEvent(d *event.Dispatcher) error {
	return c.EnableEvents(d, joystickButtonCategories...)
}

// DisableJoystickButtonEvent はジョイスティックボタンの中継を解除する
func (c *Collection) DisableJoystickButtonEvent() { c.DisableEvents(joystickButtonCategories...) }

// EnableJoystickAxisEvent はジョイスティックの軸の動きを中継する
func (c *Collection) EnableJoystickAxisEvent(d *event.Dispatcher) error {
	return c.EnableEvents(d, event.CategoryJoystickAxis)
}

// DisableJoystickAxisEvent はジョイスティックの軸の中継を解除する
func (c *Collection) DisableJoystickAxisEvent() { c.DisableEvents(event.CategoryJoystickAxis) }

// EnableJoystickHatEvent はハットスイッチを中継する
func (c *Collection) EnableJoystickHatEvent(d *event.Dispatcher) error {
	return c.EnableEvents(d, event.CategoryJoystickHat)
}

// DisableJoystickHatEvent はハットスイッチの中継を解除する
func (c *Collection) DisableJoystickHatEvent() { c.DisableEvents(event.CategoryJoystickHat) }

// EnableTickEvent はフレームごとの Tick を中継する（アニメーションの進行に使う）
func (c *Collection) EnableTickEvent(d *event.Dispatcher) error {
	return c.EnableEvents(d, event.CategoryTick)
}

// DisableTickEvent は Tick の中継を解除する
func (c *Collection) DisableTickEvent() { c.DisableEvents(event.CategoryTick) }
