//go:build windows
// +build windows

package main

import "fmt"

// Modifier combos recognized for hotkey bindings. Only these six ever come
// out of the hook; anything else (Alt alone, Control+Alt, ...) classifies as
// comboNone and is ignored for matching.
const (
	comboNone            = ""
	comboControl         = "Control"
	comboShift           = "Shift"
	comboControlShift    = "Control+Shift"
	comboShiftAlt        = "Shift+Alt"
	comboControlShiftAlt = "Control+Shift+Alt"
)

var validCombos = map[string]bool{
	comboControl:         true,
	comboShift:           true,
	comboControlShift:    true,
	comboShiftAlt:        true,
	comboControlShiftAlt: true,
}

// classifyModifiers maps the live Control/Shift/Alt key state to one of the
// six recognized combos.
func classifyModifiers(ctrl, shift, alt bool) string {
	switch {
	case ctrl && shift && alt:
		return comboControlShiftAlt
	case ctrl && shift:
		return comboControlShift
	case shift && alt:
		return comboShiftAlt
	case ctrl && !alt:
		return comboControl
	case shift:
		return comboShift
	default:
		return comboNone
	}
}

// Virtual-key codes for the accepted key set. Both the numpad and the OEM
// variants of plus/minus map to the same symbolic name.
var vkKeyNames = map[uint32]string{
	0x70: "F1", 0x71: "F2", 0x72: "F3", 0x73: "F4",
	0x74: "F5", 0x75: "F6", 0x76: "F7", 0x77: "F8",
	0x78: "F9", 0x79: "F10", 0x7A: "F11", 0x7B: "F12",
	0x7C: "F13", 0x7D: "F14", 0x7E: "F15", 0x7F: "F16",
	0x80: "F17", 0x81: "F18", 0x82: "F19", 0x83: "F20",
	0x84: "F21", 0x85: "F22", 0x86: "F23", 0x87: "F24",
	0x21: "PageUp",
	0x22: "PageDown",
	0x23: "End",
	0x24: "Home",
	0x26: "Up",
	0x28: "Down",
	0x6B: "+", 0xBB: "+",
	0x6D: "-", 0xBD: "-",
}

var validKeys = func() map[string]bool {
	m := make(map[string]bool, len(vkKeyNames))
	for _, name := range vkKeyNames {
		m[name] = true
	}
	return m
}()

// decodeKey translates a raw virtual-key code into a symbolic key name.
// Returns false for anything outside the accepted set.
func decodeKey(vk uint32) (string, bool) {
	name, ok := vkKeyNames[vk]
	return name, ok
}

// HotkeyBinding assigns a modifier combo plus key to one of the brightness
// actions. Compared by value.
type HotkeyBinding struct {
	Modifiers string
	Key       string
}

// validateHotkey checks that a binding uses one of the six non-empty combos
// and a key from the accepted set.
func validateHotkey(combo, key string) error {
	if !validCombos[combo] {
		return fmt.Errorf("invalid modifier combo %q", combo)
	}
	if !validKeys[key] {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
