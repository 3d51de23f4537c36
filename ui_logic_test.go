package main_test

import (
	"testing"

	"github.com/dop251/goja"
)

// Mirror of the summary logic embedded in ui.html. Keep in sync with the
// page script; these cases pin the exact-vs-step display rule.
const summaryScript = `
const MIN_BRIGHTNESS = 1.2;
const MAX_BRIGHTNESS = 6.0;

function toPct(v) {
    return (v - MIN_BRIGHTNESS) / (MAX_BRIGHTNESS - MIN_BRIGHTNESS) * 100;
}

function summarizeBrightness(state) {
    let pct = toPct(state.brightness);
    if (!state.exact) {
        const stepPct = state.stepSize * 100;
        pct = Math.round(pct / stepPct) * stepPct;
    }
    pct = Math.max(0, Math.min(100, Math.round(pct)));
    const kind = state.exact ? 'custom' : 'step';
    return {
        percentText: pct + '%',
        detailText: state.brightness.toFixed(2) + ' boost (' + kind + ')',
        percent: pct,
    };
}
`

type summaryView struct {
	PercentText string `json:"percentText"`
	DetailText  string `json:"detailText"`
	Percent     int64  `json:"percent"`
}

func runSummary(t *testing.T, brightness, stepSize float64, exact bool) summaryView {
	t.Helper()
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	if _, err := vm.RunString(summaryScript); err != nil {
		t.Fatalf("script failed to evaluate: %v", err)
	}

	fn, ok := goja.AssertFunction(vm.Get("summarizeBrightness"))
	if !ok {
		t.Fatal("summarizeBrightness is not a function")
	}
	state := vm.NewObject()
	state.Set("brightness", brightness)
	state.Set("stepSize", stepSize)
	state.Set("exact", exact)

	res, err := fn(goja.Undefined(), state)
	if err != nil {
		t.Fatalf("summarizeBrightness threw: %v", err)
	}
	var view summaryView
	if err := vm.ExportTo(res, &view); err != nil {
		t.Fatalf("export result: %v", err)
	}
	return view
}

func TestSummarizeBrightnessStepRounding(t *testing.T) {
	tests := []struct {
		name        string
		brightness  float64
		stepSize    float64
		exact       bool
		wantPercent int64
		wantDetail  string
	}{
		{"step boundary", 3.84, 0.05, false, 55, "3.84 boost (step)"},
		{"off grid snaps to step", 3.7, 0.05, false, 50, "3.70 boost (step)"},
		{"custom shows exact", 3.7, 0.05, true, 52, "3.70 boost (custom)"},
		{"minimum", 1.2, 0.05, false, 0, "1.20 boost (step)"},
		{"maximum", 6.0, 0.05, false, 100, "6.00 boost (step)"},
		{"coarse step", 4.08, 0.25, false, 50, "4.08 boost (step)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := runSummary(t, tt.brightness, tt.stepSize, tt.exact)
			if view.Percent != tt.wantPercent {
				t.Errorf("percent = %d, want %d", view.Percent, tt.wantPercent)
			}
			if view.DetailText != tt.wantDetail {
				t.Errorf("detail = %q, want %q", view.DetailText, tt.wantDetail)
			}
		})
	}
}

func TestSummarizeBrightnessClampsPercent(t *testing.T) {
	// Values outside the range should never render as more than 100% or
	// less than 0%, whatever the step.
	for _, b := range []float64{0.5, 7.5} {
		view := runSummary(t, b, 0.05, true)
		if view.Percent < 0 || view.Percent > 100 {
			t.Errorf("brightness %.2f rendered percent %d outside [0, 100]", b, view.Percent)
		}
	}
}
