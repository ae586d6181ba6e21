package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// ErrUnsupportedLayout marks frame geometry the compositor cannot handle.
// It is a permanent classification: retrying with the same frame image
// can never succeed.
var ErrUnsupportedLayout = errors.New("unsupported-layout")

func unsupportedLayout(reason string) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedLayout, reason)
}

const (
	standardCardAspectRatio     = 488.0 / 680.0
	standardCardAspectTolerance = 0.03
	minStandardCardWidth        = 320
	minStandardCardHeight       = 450
)

// normalizedRect is a rectangle expressed as fractions of frame size.
type normalizedRect struct {
	x, y, width, height float64
}

type pixelRect struct {
	left, top, width, height int
}

var (
	standardArtRect   = normalizedRect{x: 0.080, y: 0.114, width: 0.842, height: 0.440}
	standardTitleRect = normalizedRect{x: 0.085, y: 0.050, width: 0.65, height: 0.048}

	titleMaskColor   = color.NRGBA{R: 223, G: 209, B: 184, A: 255}
	titleFillColor   = color.NRGBA{R: 0x1F, G: 0x16, B: 0x10, A: 255}
	titleStrokeColor = color.NRGBA{R: 0xEF, G: 0xE8, B: 0xD8, A: 255}
)

// StandardCardComposer renders a themed card: the original frame, the
// generated art cover-fitted into the art window, and the themed title
// over a repainted title bar. Pure pixel work, no persistence access.
type StandardCardComposer struct {
	font *truetype.Font
}

// NewStandardCardComposer parses the title font. An empty fontTTF selects
// the bundled Go Regular face.
func NewStandardCardComposer(fontTTF []byte) (*StandardCardComposer, error) {
	if len(fontTTF) == 0 {
		fontTTF = goregular.TTF
	}
	parsed, err := truetype.Parse(fontTTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse title font TTF: %w", err)
	}
	return &StandardCardComposer{font: parsed}, nil
}

// Compose validates frame geometry, lays the art and title onto the frame,
// and returns the finished card as a PNG data URL.
func (c *StandardCardComposer) Compose(frame, art []byte, title string) (string, error) {
	normalizedTitle := strings.TrimSpace(title)
	if normalizedTitle == "" {
		return "", errors.New("Themed card title is required.")
	}

	frameImage, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return "", unsupportedLayout("base card image dimensions unavailable.")
	}
	width := frameImage.Bounds().Dx()
	height := frameImage.Bounds().Dy()

	if width < minStandardCardWidth || height < minStandardCardHeight {
		return "", unsupportedLayout("base card image too small for standard-frame compositing.")
	}
	ratioDelta := math.Abs(float64(width)/float64(height) - standardCardAspectRatio)
	if ratioDelta > standardCardAspectTolerance {
		return "", unsupportedLayout("card image is not a standard single-face frame ratio.")
	}

	artRect, err := toPixelRect(standardArtRect, width, height)
	if err != nil {
		return "", err
	}
	titleRect, err := toPixelRect(standardTitleRect, width, height)
	if err != nil {
		return "", err
	}

	artImage, _, err := image.Decode(bytes.NewReader(art))
	if err != nil {
		return "", unsupportedLayout("themed art dimensions unavailable.")
	}

	fitted, err := coverFit(artImage, artRect.width, artRect.height)
	if err != nil {
		return "", err
	}

	dc := gg.NewContext(width, height)
	dc.DrawImage(frameImage, 0, 0)
	dc.DrawImage(fitted, artRect.left, artRect.top)

	// gg has no luminosity blend mode, so the title bar is repainted with
	// the plain opaque mask fill.
	dc.SetColor(titleMaskColor)
	dc.DrawRectangle(float64(titleRect.left), float64(titleRect.top), float64(titleRect.width), float64(titleRect.height))
	dc.Fill()

	c.drawTitle(dc, normalizedTitle, titleRect)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return "", fmt.Errorf("failed to encode composite PNG: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// coverFit center-crops the source to the target aspect ratio and resizes
// it to exactly fill the target rectangle.
func coverFit(src image.Image, targetWidth, targetHeight int) (image.Image, error) {
	srcRect, err := coverSourceRect(src.Bounds().Dx(), src.Bounds().Dy(), targetWidth, targetHeight)
	if err != nil {
		return nil, err
	}
	cropped := imaging.Crop(src, srcRect.Add(src.Bounds().Min))
	return imaging.Resize(cropped, targetWidth, targetHeight, imaging.Lanczos), nil
}

// coverSourceRect computes the centered source crop whose aspect ratio
// matches the target: the longer source dimension is trimmed
// symmetrically, the shorter one is kept whole.
func coverSourceRect(sourceWidth, sourceHeight, targetWidth, targetHeight int) (image.Rectangle, error) {
	if sourceWidth <= 0 || sourceHeight <= 0 {
		return image.Rectangle{}, unsupportedLayout("themed art dimensions unavailable.")
	}
	if targetWidth <= 0 || targetHeight <= 0 {
		return image.Rectangle{}, unsupportedLayout("invalid cover target dimensions.")
	}

	sourceAspect := float64(sourceWidth) / float64(sourceHeight)
	targetAspect := float64(targetWidth) / float64(targetHeight)

	if sourceAspect > targetAspect {
		cropWidth := int(math.Round(float64(sourceHeight) * targetAspect))
		if cropWidth < 1 {
			cropWidth = 1
		}
		left := (sourceWidth - cropWidth) / 2
		return image.Rect(left, 0, left+cropWidth, sourceHeight), nil
	}

	cropHeight := int(math.Round(float64(sourceWidth) / targetAspect))
	if cropHeight < 1 {
		cropHeight = 1
	}
	top := (sourceHeight - cropHeight) / 2
	return image.Rect(0, top, sourceWidth, top+cropHeight), nil
}

// toPixelRect scales a fractional rectangle to frame pixels, clamping so
// it never leaves the frame. A rectangle clamped to nothing means the
// frame proportions cannot host the layout.
func toPixelRect(rect normalizedRect, frameWidth, frameHeight int) (pixelRect, error) {
	left := int(math.Round(rect.x * float64(frameWidth)))
	if left < 0 {
		left = 0
	}
	top := int(math.Round(rect.y * float64(frameHeight)))
	if top < 0 {
		top = 0
	}
	width := int(math.Round(rect.width * float64(frameWidth)))
	if width > frameWidth-left {
		width = frameWidth - left
	}
	height := int(math.Round(rect.height * float64(frameHeight)))
	if height > frameHeight-top {
		height = frameHeight - top
	}

	if width <= 0 || height <= 0 {
		return pixelRect{}, unsupportedLayout("invalid target frame coordinates.")
	}
	return pixelRect{left: left, top: top, width: width, height: height}, nil
}

// titleFontSize balances a height ceiling against an estimated
// per-character width allowance, with a fixed legibility floor.
func titleFontSize(rectWidth, rectHeight int, title string) int {
	maxForHeight := int(math.Floor(float64(rectHeight) * 0.72))
	length := len([]rune(title))
	if length < 1 {
		length = 1
	}
	estimated := int(math.Floor((float64(rectWidth) * 0.86) / (float64(length) * 0.66)))

	size := estimated
	if size > maxForHeight {
		size = maxForHeight
	}
	if size < 15 {
		size = 15
	}
	return size
}

// minTitleRenderSize bounds the width-fit shrink loop; anything smaller
// is illegible regardless of fit.
const minTitleRenderSize = 8

// titleFaceFor builds the title face, shrinking below the estimated size
// whenever the measured string would overrun the title bar.
func (c *StandardCardComposer) titleFaceFor(title string, rect pixelRect) (font.Face, int) {
	size := titleFontSize(rect.width, rect.height, title)
	for {
		face := truetype.NewFace(c.font, &truetype.Options{Size: float64(size), DPI: 72})
		if size <= minTitleRenderSize {
			return face, size
		}
		advance := float64(font.MeasureString(face, title)) / 64
		if advance <= float64(rect.width) {
			return face, size
		}
		size--
	}
}

func (c *StandardCardComposer) drawTitle(dc *gg.Context, title string, rect pixelRect) {
	face, fontSize := c.titleFaceFor(title, rect)
	strokeWidth := math.Round(float64(fontSize) * 0.1)
	if strokeWidth < 1 {
		strokeWidth = 1
	}

	dc.SetFontFace(face)

	textX := float64(rect.left)
	textY := float64(rect.top) + float64(rect.height)/2

	// gg cannot stroke text directly; drawing the string offset around a
	// circle approximates the outline.
	dc.SetColor(titleStrokeColor)
	const outlineSteps = 16
	for i := 0; i < outlineSteps; i++ {
		angle := 2 * math.Pi * float64(i) / outlineSteps
		dx := strokeWidth * math.Cos(angle)
		dy := strokeWidth * math.Sin(angle)
		dc.DrawStringAnchored(title, textX+dx, textY+dy, 0, 0.35)
	}

	dc.SetColor(titleFillColor)
	dc.DrawStringAnchored(title, textX, textY, 0, 0.35)
}

