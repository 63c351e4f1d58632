package tools

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"

	// webp references are decodable but re-encode as png
	_ "golang.org/x/image/webp"
)

// Attachment normalization: the image edit endpoint requires every reference
// in one request to share a single aspect ratio, so everything is center
// cropped and scaled to the first attachment's dimensions.

func DecodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// NormalizeToSize center-crops src to the target aspect ratio and scales the
// crop to exactly targetW x targetH. A source wider than the target loses
// width symmetrically, a taller one loses height.
func NormalizeToSize(src image.Image, targetW, targetH int) image.Image {
	b := src.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if srcW == targetW && srcH == targetH {
		return src
	}

	sx, sy, sw, sh := 0, 0, srcW, srcH
	srcRatio := float64(srcW) / float64(srcH)
	targetRatio := float64(targetW) / float64(targetH)
	if srcRatio > targetRatio {
		sw = int(math.Round(targetRatio * float64(srcH)))
		sx = (srcW - sw) / 2
	} else if srcRatio < targetRatio {
		sh = int(math.Round(float64(srcW) / targetRatio))
		sy = (srcH - sh) / 2
	}
	crop := image.Rect(b.Min.X+sx, b.Min.Y+sy, b.Min.X+sx+sw, b.Min.Y+sy+sh)

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}

// EncodeImage re-encodes a normalized image. WebP input comes out as PNG:
// there is no webp encoder in the x/image tree, and the edit endpoint takes
// PNG references anyway.
func EncodeImage(img image.Image, format string) ([]byte, error) {
	buf := &bytes.Buffer{}
	switch format {
	case "jpeg":
		if err := jpeg.Encode(buf, img, nil); err != nil {
			return nil, err
		}
	default:
		if err := png.Encode(buf, img); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
