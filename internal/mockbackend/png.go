package mockbackend

import (
	"bytes"
	"encoding/base64"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
)

const placeholderSize = 64

// renderPlaceholder draws a small PNG whose colour is derived from text and
// returns it base64-encoded.
func renderPlaceholder(text string) (string, error) {
	h := fnv.New32a()
	h.Write([]byte(text))
	sum := h.Sum32()
	fill := color.RGBA{R: uint8(sum), G: uint8(sum >> 8), B: uint8(sum >> 16), A: 0xff}
	border := color.RGBA{A: 0xff}

	img := image.NewRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	for y := 0; y < placeholderSize; y++ {
		for x := 0; x < placeholderSize; x++ {
			c := fill
			if x < 2 || y < 2 || x >= placeholderSize-2 || y >= placeholderSize-2 {
				c = border
			}
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
