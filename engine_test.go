//go:build windows

package main

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

type fakePort struct {
	value     float64
	applied   []float64
	failApply bool
	failGet   bool
}

func (p *fakePort) getCurrent(last float64) float64 {
	if p.failGet {
		return last
	}
	return p.value
}

func (p *fakePort) apply(v float64) error {
	if p.failApply {
		return errors.New("set boost failed")
	}
	p.value = v
	p.applied = append(p.applied, v)
	return nil
}

type fakeObserver struct {
	values   []float64
	percents []int
	exacts   []bool
	failures []string
}

func (o *fakeObserver) brightnessChanged(value float64, pct int, exact bool) {
	o.values = append(o.values, value)
	o.percents = append(o.percents, pct)
	o.exacts = append(o.exacts, exact)
}

func (o *fakeObserver) reportFailure(title, message string) {
	o.failures = append(o.failures, title+": "+message)
}

func newTestContext(t *testing.T, brightness float64) (*EngineContext, *fakePort, *fakeObserver) {
	t.Helper()
	ctx := newEngineContext(filepath.Join(t.TempDir(), "settings.json"))
	port := &fakePort{value: brightness}
	obs := &fakeObserver{}
	ctx.port = port
	ctx.observer = obs
	ctx.value = brightness
	ctx.settings.CurrentBrightness = brightness
	return ctx, port, obs
}

func TestIncreaseStepsToNextMultiple(t *testing.T) {
	// 3.6 is 50% of [1.2, 6.0]; a 5% step lands on 55% = 3.84.
	ctx, port, obs := newTestContext(t, 3.6)

	ctx.increase()

	if got := ctx.value; math.Abs(got-3.84) > 0.001 {
		t.Errorf("increase() value = %.4f, want 3.84", got)
	}
	if len(port.applied) != 1 || math.Abs(port.applied[0]-3.84) > 0.001 {
		t.Errorf("applied = %v, want [3.84]", port.applied)
	}
	if len(obs.percents) != 1 || obs.percents[0] != 55 {
		t.Errorf("notified percent = %v, want [55]", obs.percents)
	}
	if ctx.lastWasCustom {
		t.Error("increase() must reset lastWasCustom")
	}
}

func TestDecreaseStepsToPreviousMultiple(t *testing.T) {
	ctx, port, _ := newTestContext(t, 3.6)

	ctx.decrease()

	if got := ctx.value; math.Abs(got-3.36) > 0.001 {
		t.Errorf("decrease() value = %.4f, want 3.36", got)
	}
	if len(port.applied) != 1 || math.Abs(port.applied[0]-3.36) > 0.001 {
		t.Errorf("applied = %v, want [3.36]", port.applied)
	}
}

func TestIncreaseAtMaxIsNoOp(t *testing.T) {
	ctx, port, obs := newTestContext(t, maxBrightness)

	ctx.increase()

	if ctx.value != maxBrightness {
		t.Errorf("value = %.4f, want %.1f", ctx.value, maxBrightness)
	}
	if len(port.applied) != 0 {
		t.Errorf("applied = %v, want no calls", port.applied)
	}
	if len(obs.values) != 0 {
		t.Errorf("notifications = %v, want none", obs.values)
	}
}

func TestDecreaseAtMinIsNoOp(t *testing.T) {
	ctx, port, _ := newTestContext(t, minBrightness)

	ctx.decrease()

	if ctx.value != minBrightness {
		t.Errorf("value = %.4f, want %.1f", ctx.value, minBrightness)
	}
	if len(port.applied) != 0 {
		t.Errorf("applied = %v, want no calls", port.applied)
	}
}

func TestIncreaseThenDecreaseReturnsToBoundary(t *testing.T) {
	// Fine grids matter here: a 2% boundary like 1.296 commits as 1.30, and
	// the step snapping must still treat the rounded value as on-grid instead
	// of skipping a full step on the way back down.
	steps := []float64{0.02, 0.03, 0.04, 0.05, 0.1, 0.25, 0.5}
	for _, step := range steps {
		stepPct := step * 100
		// Walk the step boundaries away from the edges so both moves land.
		for pct := stepPct; pct <= 100-stepPct; pct += stepPct {
			b := clampBrightness(pctToBrightness(pct))
			ctx, _, _ := newTestContext(t, b)
			ctx.settings.StepSize = step

			ctx.increase()
			ctx.decrease()

			if math.Abs(ctx.value-b) > 0.01 {
				t.Errorf("step=%.2f start=%.2f: increase+decrease = %.4f, want %.4f",
					step, b, ctx.value, b)
			}
		}
	}
}

func TestIncreaseOffGridAdvances(t *testing.T) {
	// 3.7 sits between the 50% and 55% boundaries; increase must still
	// move forward, to the snapped multiple above plus one step.
	ctx, _, _ := newTestContext(t, 3.7)

	ctx.increase()

	if ctx.value <= 3.7 {
		t.Errorf("increase() from off-grid value did not advance: %.4f", ctx.value)
	}
	if got := brightnessToPct(ctx.value); math.Abs(got-60) > 0.1 {
		t.Errorf("increase() percent = %.2f, want 60", got)
	}
}

func TestApplyCustomSetsExactValue(t *testing.T) {
	ctx, port, obs := newTestContext(t, 3.6)
	ctx.settings.CustomBrightness = 5.13

	ctx.applyCustom()

	if math.Abs(ctx.value-5.13) > 0.001 {
		t.Errorf("applyCustom() value = %.4f, want 5.13", ctx.value)
	}
	if !ctx.lastWasCustom {
		t.Error("applyCustom() must set lastWasCustom")
	}
	if len(port.applied) != 1 || math.Abs(port.applied[0]-5.13) > 0.001 {
		t.Errorf("applied = %v, want [5.13]", port.applied)
	}
	if len(obs.exacts) != 1 || !obs.exacts[0] {
		t.Errorf("notified exact = %v, want [true]", obs.exacts)
	}

	// A following step operation clears the flag again.
	ctx.increase()
	if ctx.lastWasCustom {
		t.Error("increase() after applyCustom() must reset lastWasCustom")
	}
}

func TestApplyCustomUnchangedIsNoOp(t *testing.T) {
	ctx, port, _ := newTestContext(t, 5.13)
	ctx.settings.CustomBrightness = 5.13

	ctx.applyCustom()

	if len(port.applied) != 0 {
		t.Errorf("applied = %v, want no calls", port.applied)
	}
}

func TestIncreaseReadsLiveValue(t *testing.T) {
	// Cached value says 3.6 but the OS settings slider moved it to 2.4
	// (25%); the step must start from the live value.
	ctx, port, _ := newTestContext(t, 3.6)
	port.value = 2.4

	ctx.increase()

	if got := brightnessToPct(ctx.value); math.Abs(got-30) > 0.1 {
		t.Errorf("increase() percent = %.2f, want 30 (from live 25)", got)
	}
}

func TestApplyFailureKeepsLogicalValue(t *testing.T) {
	ctx, port, obs := newTestContext(t, 3.6)
	port.failApply = true

	ctx.increase()

	if math.Abs(ctx.value-3.84) > 0.001 {
		t.Errorf("value after failed apply = %.4f, want 3.84 (no rollback)", ctx.value)
	}
	if len(obs.failures) == 0 {
		t.Error("apply failure was not reported")
	}
	if len(obs.values) != 1 {
		t.Errorf("observer notifications = %d, want 1 (notify even on failure)", len(obs.values))
	}
}

func TestHandleHotkeyMatching(t *testing.T) {
	tests := []struct {
		name  string
		combo string
		key   string
		want  float64
	}{
		{"increase binding", comboControl, "F2", 3.84},
		{"decrease binding", comboControl, "F1", 3.36},
		{"custom binding", comboControlShift, "F3", 5.0},
		{"unbound key", comboControl, "F4", 3.6},
		{"wrong combo", comboShift, "F2", 3.6},
		{"none combo never matches", comboNone, "F2", 3.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _, _ := newTestContext(t, 3.6)
			ctx.settings.CustomBrightness = 5.0

			ctx.handleHotkey(tt.combo, tt.key)

			if math.Abs(ctx.value-tt.want) > 0.001 {
				t.Errorf("handleHotkey(%q, %q) value = %.4f, want %.4f",
					tt.combo, tt.key, ctx.value, tt.want)
			}
		})
	}
}

func TestSummaryPercent(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		step  float64
		exact bool
		want  int
	}{
		{"on boundary step", 3.84, 0.05, false, 55},
		{"off grid rounds to step", 3.7, 0.05, false, 50},
		{"exact custom", 3.7, 0.05, true, 52},
		{"min", 1.2, 0.05, false, 0},
		{"max", 6.0, 0.05, false, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := summaryPercent(tt.value, tt.step, tt.exact); got != tt.want {
				t.Errorf("summaryPercent(%.2f, %.2f, %v) = %d, want %d",
					tt.value, tt.step, tt.exact, got, tt.want)
			}
		})
	}
}

func TestClampBrightness(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 1.2},
		{1.2, 1.2},
		{3.845, 3.85},
		{6.0, 6.0},
		{7.3, 6.0},
	}
	for _, tt := range tests {
		if got := clampBrightness(tt.in); got != tt.want {
			t.Errorf("clampBrightness(%.3f) = %.3f, want %.3f", tt.in, got, tt.want)
		}
	}
}
