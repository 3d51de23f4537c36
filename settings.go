//go:build windows
// +build windows

package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// Settings is the durable record. Field names match the on-disk JSON
// document; brightness values are absolute boost values in
// [minBrightness, maxBrightness], stepSize is a fraction of the full range.
type Settings struct {
	IncreaseModifiers string  `json:"increaseModifiers"`
	IncreaseKey       string  `json:"increaseKey"`
	DecreaseModifiers string  `json:"decreaseModifiers"`
	DecreaseKey       string  `json:"decreaseKey"`
	CustomModifiers   string  `json:"customModifiers"`
	CustomKey         string  `json:"customKey"`
	CurrentBrightness float64 `json:"currentBrightness"`
	StepSize          float64 `json:"stepSize"`
	CustomBrightness  float64 `json:"customBrightness"`
	StartWithWindows  bool    `json:"startWithWindows"`
}

const defaultStepSize = 0.05

func defaultSettings() Settings {
	return Settings{
		IncreaseModifiers: comboControl,
		IncreaseKey:       "F2",
		DecreaseModifiers: comboControl,
		DecreaseKey:       "F1",
		CustomModifiers:   comboControlShift,
		CustomKey:         "F3",
		CurrentBrightness: 3.6,
		StepSize:          defaultStepSize,
		CustomBrightness:  3.6,
	}
}

func (s Settings) increaseBinding() HotkeyBinding {
	return HotkeyBinding{s.IncreaseModifiers, s.IncreaseKey}
}

func (s Settings) decreaseBinding() HotkeyBinding {
	return HotkeyBinding{s.DecreaseModifiers, s.DecreaseKey}
}

func (s Settings) customBinding() HotkeyBinding {
	return HotkeyBinding{s.CustomModifiers, s.CustomKey}
}

// repairStep pulls an out-of-range step size back to the default. Used on
// load, where bad fields are repaired silently instead of rejected.
func repairStep(step float64) float64 {
	if step <= 0.01 || step > 0.5 {
		return defaultStepSize
	}
	return step
}

// repair clamps every field of a loaded record into its legal range and
// falls back to the default bindings when the stored ones are unusable.
func (s Settings) repair() Settings {
	s.StepSize = repairStep(s.StepSize)
	s.CurrentBrightness = clampBrightness(s.CurrentBrightness)
	s.CustomBrightness = clampBrightness(s.CustomBrightness)

	bad := validateHotkey(s.IncreaseModifiers, s.IncreaseKey) != nil ||
		validateHotkey(s.DecreaseModifiers, s.DecreaseKey) != nil ||
		validateHotkey(s.CustomModifiers, s.CustomKey) != nil ||
		s.increaseBinding() == s.decreaseBinding() ||
		s.increaseBinding() == s.customBinding() ||
		s.decreaseBinding() == s.customBinding()
	if bad {
		d := defaultSettings()
		s.IncreaseModifiers, s.IncreaseKey = d.IncreaseModifiers, d.IncreaseKey
		s.DecreaseModifiers, s.DecreaseKey = d.DecreaseModifiers, d.DecreaseKey
		s.CustomModifiers, s.CustomKey = d.CustomModifiers, d.CustomKey
	}
	return s
}

// validateSettings rejects edits a user could get wrong in the dialog.
// Load-time repair is separate (repair); edits report a specific reason and
// leave the previous record untouched.
func validateSettings(s Settings) error {
	if err := validateHotkey(s.IncreaseModifiers, s.IncreaseKey); err != nil {
		return fmt.Errorf("increase binding: %w", err)
	}
	if err := validateHotkey(s.DecreaseModifiers, s.DecreaseKey); err != nil {
		return fmt.Errorf("decrease binding: %w", err)
	}
	if err := validateHotkey(s.CustomModifiers, s.CustomKey); err != nil {
		return fmt.Errorf("custom binding: %w", err)
	}
	if s.increaseBinding() == s.decreaseBinding() ||
		s.increaseBinding() == s.customBinding() ||
		s.decreaseBinding() == s.customBinding() {
		return fmt.Errorf("bindings must be distinct")
	}
	if s.StepSize <= 0 || s.StepSize > 0.5 {
		return fmt.Errorf("step size %.3f outside (0, 0.5]", s.StepSize)
	}
	if pct := brightnessToPct(s.CustomBrightness); pct < 0 || pct > 100 {
		return fmt.Errorf("custom brightness %.2f outside [%.1f, %.1f]",
			s.CustomBrightness, minBrightness, maxBrightness)
	}
	return nil
}

// loadSettings reads the persisted record. A missing file writes the
// defaults back immediately; an unreadable or corrupt file falls back to
// defaults in memory without touching disk.
func (ctx *EngineContext) loadSettings() {
	ctx.settings = defaultSettings()

	data, err := os.ReadFile(ctx.settingsFile)
	if os.IsNotExist(err) {
		if err := ctx.saveSettings(); err != nil && logger != nil {
			logger.Printf("[SETTINGS] initial save failed: %v", err)
		}
		return
	}
	if err != nil {
		if logger != nil {
			logger.Printf("[SETTINGS] read failed, using defaults: %v", err)
		}
		return
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		if logger != nil {
			logger.Printf("[SETTINGS] parse failed, using defaults: %v", err)
		}
		return
	}
	ctx.settings = s.repair()
}

// saveSettings serializes the current record. Failures are surfaced to the
// caller; the process keeps running with unsaved changes.
func (ctx *EngineContext) saveSettings() error {
	data, err := json.MarshalIndent(ctx.settings, "", "  ")
	if err != nil {
		return err
	}
	ctx.fileMu.Lock()
	err = os.WriteFile(ctx.settingsFile, data, 0644)
	ctx.fileMu.Unlock()
	return err
}

// updateSettings replaces the record wholesale after validation, persists
// it, and snaps the engine to the new current brightness. Rejections leave
// the prior settings in place.
func (ctx *EngineContext) updateSettings(next Settings) error {
	if err := validateSettings(next); err != nil {
		return err
	}
	next.StepSize = repairStep(next.StepSize)
	next.CurrentBrightness = clampBrightness(next.CurrentBrightness)
	next.CustomBrightness = clampBrightness(next.CustomBrightness)

	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	ctx.settings = next
	ctx.lastWasCustom = false
	ctx.commit(next.CurrentBrightness, false)
	return nil
}
