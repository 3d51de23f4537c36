//go:build windows
// +build windows

package main

import (
	"math"
	"runtime/debug"
	"sync"
)

const (
	minBrightness = 1.2
	maxBrightness = 6.0

	// Changes smaller than this are treated as no-ops.
	changeEpsilon = 0.001
)

// brightnessPort is the capability produced by the DWM bridge. getCurrent
// never fails: a transient query failure falls back to last, the engine's
// last-known value.
type brightnessPort interface {
	getCurrent(last float64) float64
	apply(value float64) error
}

// displayObserver receives brightness-changed notifications (tray tooltip,
// settings page) and failure reports. exact reports whether the value came
// from the custom action, which is displayed as an exact percentage instead
// of a step-rounded one.
type displayObserver interface {
	brightnessChanged(value float64, pct int, exact bool)
	reportFailure(title, message string)
}

// EngineContext owns the brightness state and the persisted settings. It is
// constructed once at startup and shared by reference with the hook, the
// tray, and the settings server. mu serializes the hook thread against
// settings edits arriving from the dialog.
type EngineContext struct {
	mu     sync.Mutex
	fileMu sync.Mutex

	settingsFile string
	settings     Settings

	value         float64
	lastWasCustom bool

	port     brightnessPort
	observer displayObserver
}

func newEngineContext(settingsFile string) *EngineContext {
	ctx := &EngineContext{settingsFile: settingsFile}
	ctx.loadSettings()
	ctx.value = ctx.settings.CurrentBrightness
	return ctx
}

func safeDefer(where string) {
	if r := recover(); r != nil {
		if logger != nil {
			logger.Printf("[RECOVER] %s: %v\n%s", where, r, debug.Stack())
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampBrightness(v float64) float64 {
	if v < minBrightness {
		v = minBrightness
	}
	if v > maxBrightness {
		v = maxBrightness
	}
	return round2(v)
}

func brightnessToPct(v float64) float64 {
	return (v - minBrightness) / (maxBrightness - minBrightness) * 100
}

func pctToBrightness(pct float64) float64 {
	return minBrightness + pct/100*(maxBrightness-minBrightness)
}

// snapSteps divides pct by stepPct and treats a value near a step boundary
// as on-grid rather than pushing it to the neighboring multiple. Committed
// values are rounded to two decimals, which can land up to 0.005 brightness
// (0.105 percentage points) away from the boundary they represent; the
// tolerance absorbs that quantum plus float noise.
func snapSteps(pct, stepPct float64) float64 {
	q := pct / stepPct
	if r := math.Round(q); math.Abs(q-r) <= 0.105/stepPct {
		return r
	}
	return q
}

// increase advances brightness to the next step multiple above the live
// value. Reading the live value (not the cached one) tolerates out-of-band
// changes made through OS settings between hotkey presses.
func (ctx *EngineContext) increase() {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.increaseLocked()
}

func (ctx *EngineContext) increaseLocked() {
	live := ctx.port.getCurrent(ctx.value)
	ctx.value = live

	stepPct := ctx.settings.StepSize * 100
	newPct := math.Ceil(snapSteps(brightnessToPct(live), stepPct))*stepPct + stepPct
	if newPct > 100 {
		newPct = 100
	}
	ctx.lastWasCustom = false

	next := clampBrightness(pctToBrightness(newPct))
	if math.Abs(next-live) <= changeEpsilon {
		return
	}
	ctx.commit(next, false)
}

// decrease mirrors increase toward the previous step multiple.
func (ctx *EngineContext) decrease() {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.decreaseLocked()
}

func (ctx *EngineContext) decreaseLocked() {
	live := ctx.port.getCurrent(ctx.value)
	ctx.value = live

	stepPct := ctx.settings.StepSize * 100
	newPct := math.Floor(snapSteps(brightnessToPct(live), stepPct))*stepPct - stepPct
	if newPct < 0 {
		newPct = 0
	}
	ctx.lastWasCustom = false

	next := clampBrightness(pctToBrightness(newPct))
	if math.Abs(next-live) <= changeEpsilon {
		return
	}
	ctx.commit(next, false)
}

// applyCustom jumps straight to the configured custom brightness.
func (ctx *EngineContext) applyCustom() {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.applyCustomLocked()
}

func (ctx *EngineContext) applyCustomLocked() {
	next := clampBrightness(ctx.settings.CustomBrightness)
	ctx.lastWasCustom = true
	if math.Abs(next-ctx.value) <= changeEpsilon {
		return
	}
	ctx.commit(next, true)
}

// commit pushes an accepted value to the compositor, notifies the observer,
// and persists. The logical value is updated first and is not rolled back on
// a platform failure; the next operation re-syncs from the live value.
// Caller holds mu.
func (ctx *EngineContext) commit(value float64, exact bool) {
	ctx.value = value
	ctx.settings.CurrentBrightness = value

	if err := ctx.port.apply(value); err != nil {
		if logger != nil {
			logger.Printf("[ENGINE] apply %.2f failed: %v", value, err)
		}
		if ctx.observer != nil {
			ctx.observer.reportFailure("SDR Brightness", "Could not change display brightness.")
		}
	}
	if ctx.observer != nil {
		ctx.observer.brightnessChanged(value, summaryPercent(value, ctx.settings.StepSize, exact), exact)
	}
	if err := ctx.saveSettings(); err != nil {
		if logger != nil {
			logger.Printf("[ENGINE] save after commit failed: %v", err)
		}
		if ctx.observer != nil {
			ctx.observer.reportFailure("SDR Brightness", "Could not save settings.")
		}
	}
}

// applyStartupBrightness pushes the persisted brightness to the display at
// startup so the saved level survives a reboot.
func (ctx *EngineContext) applyStartupBrightness() {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.commit(ctx.value, false)
}

// handleHotkey matches a decoded (combo, key) pair against the configured
// bindings in fixed priority order: increase, decrease, custom. Runs inline
// on the hook thread.
func (ctx *EngineContext) handleHotkey(combo, key string) {
	if combo == comboNone {
		return
	}
	pressed := HotkeyBinding{combo, key}

	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	switch pressed {
	case ctx.settings.increaseBinding():
		ctx.increaseLocked()
	case ctx.settings.decreaseBinding():
		ctx.decreaseLocked()
	case ctx.settings.customBinding():
		ctx.applyCustomLocked()
	}
}

// summaryPercent renders a brightness value as the percentage shown in the
// tray tooltip and the settings page. A custom apply shows the exact
// percentage; a step apply rounds to the nearest step multiple.
func summaryPercent(value, step float64, exact bool) int {
	pct := brightnessToPct(value)
	if !exact {
		stepPct := step * 100
		pct = math.Round(pct/stepPct) * stepPct
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return int(math.Round(pct))
}

// snapshot returns a copy of the current settings for read-only use by the
// HTTP layer.
func (ctx *EngineContext) snapshot() (Settings, float64, bool) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.settings, ctx.value, ctx.lastWasCustom
}
