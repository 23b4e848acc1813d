package api

import (
	"encoding/base64"
	"fmt"
)

// Reply is the normalized result of one turn: TextReply or ImageSetReply.
type Reply interface {
	reply()
}

// TextReply carries the assistant's markdown text.
type TextReply struct {
	Text string
}

// ImageSetReply carries generated diagrams in backend order.
type ImageSetReply struct {
	Images []Image
}

func (TextReply) reply()     {}
func (ImageSetReply) reply() {}

// Image is one generated diagram. Base64 is kept exactly as received.
type Image struct {
	Base64 string
	MIME   string
}

// DataURI renders the image as a data: URL.
func (i Image) DataURI() string {
	return "data:" + i.MIME + ";base64," + i.Base64
}

// Bytes decodes the payload.
func (i Image) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(i.Base64)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return data, nil
}
