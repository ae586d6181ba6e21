package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"golang.org/x/image/font"
)

func encodePNG(t *testing.T, width, height int, fill color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestComposer(t *testing.T) *StandardCardComposer {
	t.Helper()
	composer, err := NewStandardCardComposer(nil)
	if err != nil {
		t.Fatalf("new composer: %v", err)
	}
	return composer
}

func TestComposeProducesFrameSizedPNG(t *testing.T) {
	t.Parallel()
	composer := newTestComposer(t)

	frame := encodePNG(t, 488, 680, color.RGBA{R: 40, G: 40, B: 40, A: 255})
	art := encodePNG(t, 1024, 1024, color.RGBA{R: 200, G: 50, B: 50, A: 255})

	dataURL, err := composer.Compose(frame, art, "Droid Forgemaster")
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		t.Fatalf("missing data URL prefix: %q", dataURL[:32])
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("payload is not a PNG: %v", err)
	}
	if got := decoded.Bounds(); got.Dx() != 488 || got.Dy() != 680 {
		t.Fatalf("unexpected output size: got=%dx%d want=488x680", got.Dx(), got.Dy())
	}
}

func TestComposeAcceptsScaledStandardFrames(t *testing.T) {
	t.Parallel()
	composer := newTestComposer(t)
	art := encodePNG(t, 512, 512, color.RGBA{R: 10, G: 120, B: 60, A: 255})

	// Scryfall serves the same frame at several resolutions.
	sizes := []struct{ w, h int }{
		{488, 680},
		{672, 936},
		{745, 1040},
	}
	for _, size := range sizes {
		frame := encodePNG(t, size.w, size.h, color.RGBA{A: 255})
		if _, err := composer.Compose(frame, art, "Title"); err != nil {
			t.Fatalf("Compose rejected %dx%d: %v", size.w, size.h, err)
		}
	}
}

func TestComposeRejectsNonStandardLayouts(t *testing.T) {
	t.Parallel()
	composer := newTestComposer(t)
	art := encodePNG(t, 512, 512, color.RGBA{A: 255})

	tests := []struct {
		name string
		w, h int
	}{
		{name: "square frame", w: 600, h: 600},
		{name: "landscape frame", w: 680, h: 488},
		{name: "too small", w: 244, h: 340},
		{name: "ratio outside tolerance", w: 520, h: 680},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			frame := encodePNG(t, tc.w, tc.h, color.RGBA{A: 255})
			_, err := composer.Compose(frame, art, "Title")
			if !errors.Is(err, ErrUnsupportedLayout) {
				t.Fatalf("expected unsupported layout error, got %v", err)
			}
		})
	}
}

func TestComposeRejectsUndecodableInputs(t *testing.T) {
	t.Parallel()
	composer := newTestComposer(t)
	frame := encodePNG(t, 488, 680, color.RGBA{A: 255})

	if _, err := composer.Compose([]byte("not an image"), nil, "Title"); !errors.Is(err, ErrUnsupportedLayout) {
		t.Fatalf("expected unsupported layout for bad frame, got %v", err)
	}
	if _, err := composer.Compose(frame, []byte("not an image"), "Title"); !errors.Is(err, ErrUnsupportedLayout) {
		t.Fatalf("expected unsupported layout for bad art, got %v", err)
	}
}

func TestComposeRequiresTitle(t *testing.T) {
	t.Parallel()
	composer := newTestComposer(t)
	frame := encodePNG(t, 488, 680, color.RGBA{A: 255})
	art := encodePNG(t, 512, 512, color.RGBA{A: 255})

	_, err := composer.Compose(frame, art, "   ")
	if err == nil {
		t.Fatal("expected error for blank title")
	}
	if errors.Is(err, ErrUnsupportedLayout) {
		t.Fatalf("blank title is not a layout problem: %v", err)
	}
}

func TestCoverSourceRect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                     string
		srcW, srcH, tgtW, tgtH   int
		want                     image.Rectangle
	}{
		{name: "wide source trims sides", srcW: 200, srcH: 100, tgtW: 100, tgtH: 100, want: image.Rect(50, 0, 150, 100)},
		{name: "tall source trims top and bottom", srcW: 100, srcH: 200, tgtW: 100, tgtH: 100, want: image.Rect(0, 50, 100, 150)},
		{name: "matching aspect keeps everything", srcW: 400, srcH: 200, tgtW: 200, tgtH: 100, want: image.Rect(0, 0, 400, 200)},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := coverSourceRect(tc.srcW, tc.srcH, tc.tgtW, tc.tgtH)
			if err != nil {
				t.Fatalf("coverSourceRect failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("unexpected crop: got=%v want=%v", got, tc.want)
			}
		})
	}

	if _, err := coverSourceRect(0, 100, 50, 50); !errors.Is(err, ErrUnsupportedLayout) {
		t.Fatalf("expected unsupported layout for empty source, got %v", err)
	}
}

func TestToPixelRectStaysInsideFrame(t *testing.T) {
	t.Parallel()

	for _, rect := range []normalizedRect{standardArtRect, standardTitleRect} {
		px, err := toPixelRect(rect, 488, 680)
		if err != nil {
			t.Fatalf("toPixelRect failed: %v", err)
		}
		if px.left < 0 || px.top < 0 {
			t.Fatalf("negative origin: %+v", px)
		}
		if px.left+px.width > 488 || px.top+px.height > 680 {
			t.Fatalf("rect leaves frame: %+v", px)
		}
		if px.width <= 0 || px.height <= 0 {
			t.Fatalf("degenerate rect: %+v", px)
		}
	}
}

func TestTitleFontSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		width, height int
		title         string
		want          int
	}{
		{name: "height bound for short titles", width: 400, height: 33, title: "Bolt", want: 23},
		{name: "width bound for long titles", width: 317, height: 60, title: "Goblin Warchief X", want: 24},
		{name: "floor of fifteen", width: 100, height: 100, title: strings.Repeat("x", 80), want: 15},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := titleFontSize(tc.width, tc.height, tc.title)
			if got != tc.want {
				t.Fatalf("unexpected size: got=%d want=%d", got, tc.want)
			}
		})
	}
}

func TestTitleFaceShrinksToFitWidth(t *testing.T) {
	t.Parallel()
	composer, err := NewStandardCardComposer(nil)
	if err != nil {
		t.Fatalf("NewStandardCardComposer failed: %v", err)
	}

	t.Run("short title keeps estimated size", func(t *testing.T) {
		rect := pixelRect{width: 317, height: 60}
		face, size := composer.titleFaceFor("Goblin Warchief X", rect)
		if size != titleFontSize(rect.width, rect.height, "Goblin Warchief X") {
			t.Fatalf("unexpected shrink: got=%d", size)
		}
		advance := float64(font.MeasureString(face, "Goblin Warchief X")) / 64
		if advance > float64(rect.width) {
			t.Fatalf("title overruns bar: advance=%.1f width=%d", advance, rect.width)
		}
	})

	t.Run("long title never overruns the bar", func(t *testing.T) {
		rect := pixelRect{width: 120, height: 60}
		title := "Sorin, Imperious Bloodlord of the Endless Night"
		face, size := composer.titleFaceFor(title, rect)
		if size >= 15 {
			t.Fatalf("expected shrink below the estimate floor, got=%d", size)
		}
		if size > minTitleRenderSize {
			advance := float64(font.MeasureString(face, title)) / 64
			if advance > float64(rect.width) {
				t.Fatalf("title overruns bar: advance=%.1f width=%d", advance, rect.width)
			}
		}
	})
}
