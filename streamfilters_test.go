package pdf

import (
	"bytes"
	"io"
	"testing"
)

func readAll(t *testing.T, r io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return b
}

func Test_alphaReader_stripsLineBreaks(t *testing.T) {
	in := "ab\r\ncd\nef\f"
	got := readAll(t, newAlphaReader(bytes.NewReader([]byte(in))))
	if string(got) != "abcdef" {
		t.Errorf("alphaReader = %q, want abcdef", got)
	}
}

func Test_hexFilterReader(t *testing.T) {
	testCases := map[string]struct {
		in   string
		want string
	}{
		"simple pairs":        {in: "48656c6c6f>", want: "Hello"},
		"whitespace ignored":  {in: "48 65 6c\n6c 6f>", want: "Hello"},
		"odd digits pad zero": {in: "4869 6>", want: "Hi\x60"},
		"no terminator":       {in: "4869", want: "Hi"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got := readAll(t, newHexFilterReader(bytes.NewReader([]byte(tc.in))))
			if string(got) != tc.want {
				t.Errorf("hexFilterReader(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func Test_runLengthReader(t *testing.T) {
	testCases := map[string]struct {
		in   []byte
		want string
	}{
		"literal run": {
			in:   append([]byte{2, 'a', 'b', 'c'}, 128),
			want: "abc",
		},
		"repeat run": {
			// 257-255=2 copies of 'x', then EOD.
			in:   append([]byte{255, 'x'}, 128),
			want: "xx",
		},
		"mixed runs": {
			in:   append([]byte{1, 'h', 'i', 254, 'y'}, 128),
			want: "hiyyy",
		},
		"no EOD relies on EOF": {
			in:   []byte{1, 'h', 'i'},
			want: "hi",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got := readAll(t, newRunLengthReader(bytes.NewReader(tc.in)))
			if string(got) != tc.want {
				t.Errorf("runLengthReader = %q, want %q", got, tc.want)
			}
		})
	}
}

func Test_runLengthReader_truncatedLiteralRun(t *testing.T) {
	r := newRunLengthReader(bytes.NewReader([]byte{5, 'a', 'b'}))
	_, err := io.ReadAll(r)
	if err == nil {
		t.Error("expected error for truncated literal run, got nil")
	}
}

func Test_lzwReader_earlyChangeWrapsStdlib(t *testing.T) {
	// newLZWReader with earlyChange=true must return compress/lzw's
	// Reader directly (no wrapping), since its MSB/8 default already
	// matches PDF's EarlyChange=1 default.
	r := newLZWReader(bytes.NewReader(nil), true)
	if _, ok := r.(io.ReadCloser); !ok {
		t.Errorf("newLZWReader(earlyChange=true) = %T, want an io.ReadCloser (compress/lzw.Reader)", r)
	}
}
