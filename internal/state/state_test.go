package state

import (
	"math"
	"testing"
)

type fakeFont struct {
	name string
	decodeFunc func(string) (string, float64)
}

func (f fakeFont) Name() string { return f.name }
func (f fakeFont) Decode(raw string) (string, float64) {
	if f.decodeFunc != nil {
		return f.decodeFunc(raw)
	}
	return raw, float64(len(raw)) * 500
}

type recordedRender struct {
	x, y, w, h, fontSize float64
	font, text           string
}

type recordingRenderer struct {
	calls []recordedRender
}

func (r *recordingRenderer) Render(x, y, w, h, fontSize float64, font, s string) {
	r.calls = append(r.calls, recordedRender{x, y, w, h, fontSize, font, s})
}

func Test_Text_Tj_rendersAtOrigin(t *testing.T) {
	var txt Text
	txt.BT()
	txt.Tf(fakeFont{name: "F1"}, 12)

	var r recordingRenderer
	txt.Tj(identity(), &r, "hi")

	if len(r.calls) != 1 {
		t.Fatalf("len(calls) = %d, want 1", len(r.calls))
	}
	got := r.calls[0]
	if got.font != "F1" || got.fontSize != 12 || got.text != "hi" {
		t.Errorf("Render call = %+v, want font=F1 fontSize=12 text=hi", got)
	}
	if got.x != 0 || got.y != 0 {
		t.Errorf("Render position = (%v, %v), want (0, 0) at text origin", got.x, got.y)
	}
}

func Test_Text_Tj_advancesCursor(t *testing.T) {
	var txt Text
	txt.BT()
	txt.Tf(fakeFont{name: "F1"}, 10)

	var r recordingRenderer
	txt.Tj(identity(), &r, "ab")
	txt.Tj(identity(), &r, "cd")

	if len(r.calls) != 2 {
		t.Fatalf("len(calls) = %d, want 2", len(r.calls))
	}
	if r.calls[1].x <= r.calls[0].x {
		t.Errorf("second Tj x = %v, want > first Tj x = %v (cursor must advance)", r.calls[1].x, r.calls[0].x)
	}
}

func Test_Text_TjMeasure_matchesTj(t *testing.T) {
	var txt Text
	txt.BT()
	txt.Tf(fakeFont{name: "F2"}, 14)

	x, y, w, h, font, fontSize, s := txt.TjMeasure(identity(), "xy")
	if font != "F2" || fontSize != 14 || s != "xy" {
		t.Errorf("TjMeasure = font=%q fontSize=%v text=%q, want F2 14 xy", font, fontSize, s)
	}
	_ = w
	_ = h
	if x != 0 || y != 0 {
		t.Errorf("TjMeasure position = (%v, %v), want (0, 0)", x, y)
	}
}

func Test_Text_Td_setsLineMatrix(t *testing.T) {
	var txt Text
	txt.BT()
	txt.Tf(fakeFont{name: "F1"}, 10)
	txt.Td(100, 200)

	var r recordingRenderer
	txt.Tj(identity(), &r, "x")

	got := r.calls[0]
	if got.x != 100 || got.y != 200 {
		t.Errorf("Tj position after Td(100,200) = (%v, %v), want (100, 200)", got.x, got.y)
	}
}

func Test_Text_TD_setsLeadingFromTy(t *testing.T) {
	var txt Text
	txt.BT()
	txt.Tf(fakeFont{name: "F1"}, 10)
	txt.TD(0, -15)
	txt.Tstar()

	var r recordingRenderer
	txt.Tj(identity(), &r, "x")

	// TD(0, -15) sets TL to 15 and moves by (0,-15); Tstar moves by
	// (0,-TL) again, so the final y must be -30.
	if got := r.calls[0].y; got != -30 {
		t.Errorf("y after TD then T* = %v, want -30", got)
	}
}

func Test_Text_ET_clearsMatrices(t *testing.T) {
	var txt Text
	txt.BT()
	txt.Td(10, 10)
	txt.ET()
	if txt.tm != nil || txt.tlm != nil {
		t.Error("ET did not clear tm/tlm")
	}
}

func Test_Graphics_PushPop_restoresState(t *testing.T) {
	var g Graphics
	g.Tf(fakeFont{name: "F1"}, 10)
	g.BT()
	g.Push()
	g.Tf(fakeFont{name: "F2"}, 20)

	g.Pop()

	var r recordingRenderer
	g.Tj(&r, "x")
	if r.calls[0].font != "F1" {
		t.Errorf("font after Pop = %q, want F1 (restored)", r.calls[0].font)
	}
}

func Test_Graphics_CM_composesWithIdentity(t *testing.T) {
	var g Graphics
	g.CM(1, 0, 0, 1, 50, 60)
	g.BT()
	g.Tf(fakeFont{name: "F1"}, 10)

	var r recordingRenderer
	g.Tj(&r, "x")
	if r.calls[0].x != 50 || r.calls[0].y != 60 {
		t.Errorf("position under cm translate(50,60) = (%v, %v), want (50, 60)", r.calls[0].x, r.calls[0].y)
	}
}

func Test_Text_Tz_scalesHorizontalAdvance(t *testing.T) {
	makeTxt := func(scale float64) *Text {
		txt := &Text{}
		txt.BT()
		txt.Tf(fakeFont{name: "F1"}, 10)
		if scale != 100 {
			txt.Tz(scale)
		}
		return txt
	}

	base := makeTxt(100)
	var r1 recordingRenderer
	base.Tj(identity(), &r1, "a")
	base.Tj(identity(), &r1, "a")
	normalAdvance := r1.calls[1].x - r1.calls[0].x

	scaled := makeTxt(200)
	var r2 recordingRenderer
	scaled.Tj(identity(), &r2, "a")
	scaled.Tj(identity(), &r2, "a")
	scaledAdvance := r2.calls[1].x - r2.calls[0].x

	if math.Abs(scaledAdvance-2*normalAdvance) > 1e-9 {
		t.Errorf("Tz(200) advance = %v, want ~2x normal advance %v", scaledAdvance, normalAdvance)
	}
}
