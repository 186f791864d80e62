package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

var placeholderPNG = renderPlaceholder(256)

// renderPlaceholder draws a flat grey square with a darker frame
func renderPlaceholder(size int) []byte {
	img := image.NewGray(image.Rect(0, 0, size, size))

	for y := range size {
		for x := range size {
			c := color.Gray{Y: 0xdd}
			if x < 4 || y < 4 || x >= size-4 || y >= size-4 {
				c = color.Gray{Y: 0xaa}
			}
			img.SetGray(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}

	return buf.Bytes()
}
