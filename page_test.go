package pdf

import (
	"testing"

	"github.com/dsanderman/pdfcore/internal/types"
)

func dictValue(d types.Dict) Value {
	return Value{data: d}
}

func Test_Page_Rotate(t *testing.T) {
	testCases := map[string]struct {
		dict types.Dict
		want int
	}{
		"no rotate": {
			dict: types.Dict{},
			want: 0,
		},
		"0": {
			dict: types.Dict{"Rotate": int64(0)},
			want: 0,
		},
		"90": {
			dict: types.Dict{"Rotate": int64(90)},
			want: 90,
		},
		"negative 90 normalizes to 270": {
			dict: types.Dict{"Rotate": int64(-90)},
			want: 270,
		},
		"450 normalizes to 90": {
			dict: types.Dict{"Rotate": int64(450)},
			want: 90,
		},
		"non-multiple of 90 coerces to 0": {
			dict: types.Dict{"Rotate": int64(45)},
			want: 0,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			p := Page{V: dictValue(tc.dict)}
			if got := p.Rotate(); got != tc.want {
				t.Errorf("Rotate() = %d, want %d", got, tc.want)
			}
		})
	}
}

func Test_Page_Rotate_inheritedFromParent(t *testing.T) {
	parent := types.Dict{"Rotate": int64(180)}
	page := dictValue(types.Dict{"Parent": parent})

	p := Page{V: page}
	if got := p.Rotate(); got != 180 {
		t.Errorf("Rotate() = %d, want 180 (inherited)", got)
	}
}

func Test_Page_MediaBoxRect(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		p := Page{V: dictValue(types.Dict{
			"MediaBox": types.Array{int64(0), int64(0), int64(612), int64(792)},
		})}
		rect, err := p.MediaBoxRect()
		if err != nil {
			t.Fatalf("MediaBoxRect: %v", err)
		}
		want := [4]float64{0, 0, 612, 792}
		if rect != want {
			t.Errorf("MediaBoxRect() = %v, want %v", rect, want)
		}
	})

	t.Run("missing", func(t *testing.T) {
		p := Page{V: dictValue(types.Dict{})}
		if _, err := p.MediaBoxRect(); err == nil {
			t.Fatal("MediaBoxRect() on page with no MediaBox = nil error, want CorruptedPDF")
		}
	})

	t.Run("inherited", func(t *testing.T) {
		parent := types.Dict{
			"MediaBox": types.Array{int64(0), int64(0), int64(100), int64(200)},
		}
		p := Page{V: dictValue(types.Dict{"Parent": parent})}
		rect, err := p.MediaBoxRect()
		if err != nil {
			t.Fatalf("MediaBoxRect: %v", err)
		}
		want := [4]float64{0, 0, 100, 200}
		if rect != want {
			t.Errorf("MediaBoxRect() = %v, want %v", rect, want)
		}
	})
}

func Test_Page_EffectiveMediaBox(t *testing.T) {
	testCases := map[string]struct {
		rotate int64
		want   [4]float64
	}{
		"unrotated":       {rotate: 0, want: [4]float64{0, 0, 612, 792}},
		"90 swaps w and h": {rotate: 90, want: [4]float64{0, 0, 792, 612}},
		"180 keeps w and h": {rotate: 180, want: [4]float64{0, 0, 612, 792}},
		"270 swaps w and h": {rotate: 270, want: [4]float64{0, 0, 792, 612}},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			p := Page{V: dictValue(types.Dict{
				"MediaBox": types.Array{int64(0), int64(0), int64(612), int64(792)},
				"Rotate":   tc.rotate,
			})}
			got, err := p.EffectiveMediaBox()
			if err != nil {
				t.Fatalf("EffectiveMediaBox: %v", err)
			}
			if got != tc.want {
				t.Errorf("EffectiveMediaBox() = %v, want %v", got, tc.want)
			}
		})
	}
}

func Test_Page_findInherited_depthBound(t *testing.T) {
	// A self-referential /Parent chain (a malformed document) must not
	// spin forever; findInherited bails out after maxPageTreeDepth hops
	// and reports no value found rather than looping.
	var self types.Dict
	self = types.Dict{}
	loop := dictValue(self)
	self["Parent"] = loop.data

	p := Page{V: loop}
	if got := p.findInherited("MediaBox"); !got.IsNull() {
		t.Errorf("findInherited on a cyclic chain = %v, want null", got)
	}
}

// newFakeDocument builds a *Document whose catalog/page tree is a plain
// types.Dict graph with no indirect references, so Catalog/PagesDict/Key
// resolve it without needing an xref table or backing source: resolveOnce
// passes any non-Objptr value straight through.
func newFakeDocument(pagesDict types.Dict) *Document {
	d := &Document{objCache: newObjectCache(16), pageCache: newPageCache(16)}
	d.trailer = types.Dict{"Root": types.Dict{"Pages": pagesDict}}
	return d
}

func Test_GetPage_flatTree(t *testing.T) {
	page0 := types.Dict{"Type": types.Name("Page"), "Label": types.Name("p0")}
	page1 := types.Dict{"Type": types.Name("Page"), "Label": types.Name("p1")}
	d := newFakeDocument(types.Dict{
		"Type":  types.Name("Pages"),
		"Count": int64(2),
		"Kids":  types.Array{page0, page1},
	})

	got, err := d.GetPage(1)
	if err != nil {
		t.Fatalf("GetPage(1): %v", err)
	}
	if got.V.Key("Label").Name() != "p1" {
		t.Errorf("GetPage(1).Label = %q, want p1", got.V.Key("Label").Name())
	}
}

func Test_GetPage_nestedTree(t *testing.T) {
	// A /Pages node with its own Pages subtree; GetPage must fast-skip
	// the first subtree by its /Count without descending into it.
	leftPage := types.Dict{"Type": types.Name("Page"), "Label": types.Name("left")}
	rightPage := types.Dict{"Type": types.Name("Page"), "Label": types.Name("right")}
	left := types.Dict{"Type": types.Name("Pages"), "Count": int64(1), "Kids": types.Array{leftPage}}
	right := types.Dict{"Type": types.Name("Pages"), "Count": int64(1), "Kids": types.Array{rightPage}}
	d := newFakeDocument(types.Dict{
		"Type":  types.Name("Pages"),
		"Count": int64(2),
		"Kids":  types.Array{left, right},
	})

	got, err := d.GetPage(1)
	if err != nil {
		t.Fatalf("GetPage(1): %v", err)
	}
	if got.V.Key("Label").Name() != "right" {
		t.Errorf("GetPage(1).Label = %q, want right", got.V.Key("Label").Name())
	}
}

func Test_GetPage_outOfRange(t *testing.T) {
	d := newFakeDocument(types.Dict{
		"Type":  types.Name("Pages"),
		"Count": int64(1),
		"Kids":  types.Array{types.Dict{"Type": types.Name("Page")}},
	})

	if _, err := d.GetPage(5); err == nil {
		t.Fatal("GetPage(5) on a 1-page tree = nil error, want CorruptedPDF")
	}
}

func Test_GetPage_cachesResult(t *testing.T) {
	d := newFakeDocument(types.Dict{
		"Type":  types.Name("Pages"),
		"Count": int64(1),
		"Kids":  types.Array{types.Dict{"Type": types.Name("Page"), "Label": types.Name("only")}},
	})

	first, err := d.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage(0): %v", err)
	}
	if _, ok := d.pageCache.get(0); !ok {
		t.Fatal("GetPage(0) did not populate pageCache")
	}
	second, err := d.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage(0) second call: %v", err)
	}
	if first.V.Key("Label").Name() != second.V.Key("Label").Name() {
		t.Errorf("cached GetPage(0) returned a different page")
	}
}
