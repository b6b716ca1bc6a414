package qr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	FormatPNG = "png"
	FormatJPG = "jpg"
	FormatSVG = "svg"
)

// JPEGQuality is the quality used for jpg output.
const JPEGQuality = 95

var palette = color.Palette{color.White, color.Black}

// Modules returns the dark/light module matrix of the smallest QR symbol that
// holds data, without quiet zone. Rows are indexed first.
func Modules(data string) ([][]bool, error) {
	code, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode QR symbol: %w", err)
	}
	code.DisableBorder = true
	return code.Bitmap(), nil
}

// Render encodes data as a QR symbol drawn with boxSize pixels per module and
// a quiet zone of border modules on every side.
func Render(data, format string, boxSize, border int) ([]byte, error) {
	if boxSize < 1 {
		return nil, fmt.Errorf("box size must be at least 1, got %d", boxSize)
	}
	if border < 0 {
		return nil, fmt.Errorf("border cannot be negative, got %d", border)
	}

	modules, err := Modules(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case FormatPNG:
		if err := png.Encode(&buf, rasterize(modules, boxSize, border)); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case FormatJPG:
		if err := jpeg.Encode(&buf, flatten(rasterize(modules, boxSize, border)), &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case FormatSVG:
		writeSVG(&buf, modules, boxSize, border)
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	return buf.Bytes(), nil
}

func rasterize(modules [][]bool, boxSize, border int) *image.Paletted {
	side := (len(modules) + 2*border) * boxSize
	img := image.NewPaletted(image.Rect(0, 0, side, side), palette)

	dark := image.NewUniform(color.Black)
	offset := border * boxSize
	for y, row := range modules {
		for x, on := range row {
			if !on {
				continue
			}
			x0, y0 := offset+x*boxSize, offset+y*boxSize
			draw.Draw(img, image.Rect(x0, y0, x0+boxSize, y0+boxSize), dark, image.Point{}, draw.Src)
		}
	}
	return img
}

// flatten composes src over an opaque white canvas; jpeg has no alpha channel.
func flatten(src image.Image) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Over)
	return dst
}

// writeSVG draws dark modules as one path, merging horizontal runs.
// Physical size is box/10 mm per module.
func writeSVG(buf *bytes.Buffer, modules [][]bool, boxSize, border int) {
	side := (len(modules) + 2*border) * boxSize
	mm := float64(side) / 10

	fmt.Fprintf(buf, `<?xml version="1.0" encoding="UTF-8"?>`+"\n")
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%gmm" height="%gmm" viewBox="0 0 %d %d">`, mm, mm, side, side)
	fmt.Fprintf(buf, `<rect width="%d" height="%d" fill="#ffffff"/>`, side, side)

	var path strings.Builder
	offset := border * boxSize
	for y, row := range modules {
		for x := 0; x < len(row); {
			if !row[x] {
				x++
				continue
			}
			run := x
			for run < len(row) && row[run] {
				run++
			}
			width := (run - x) * boxSize
			fmt.Fprintf(&path, "M%d,%dh%dv%dh-%dz", offset+x*boxSize, offset+y*boxSize, width, boxSize, width)
			x = run
		}
	}

	fmt.Fprintf(buf, `<path d="%s" fill="#000000"/>`, path.String())
	buf.WriteString("</svg>\n")
}
