package components

import (
	"encoding/base64"
	"errors"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultQRSize is the edge length in pixels of rendered QR codes.
const DefaultQRSize = 256

// ErrEmptyQRValue is returned when there is nothing to encode.
var ErrEmptyQRValue = errors.New("components: empty qr value")

// UserQRCode encodes a person id for scanning at the counter.
type UserQRCode struct {
	QRValue string
}

// Props returns the encoded value.
func (q UserQRCode) Props() string { return q.QRValue }

// Template implements Component.
func (UserQRCode) Template() string { return "components/user_qrcode" }

// PNG renders the code as a size x size PNG image.
func (q UserQRCode) PNG(size int) ([]byte, error) {
	if q.QRValue == "" {
		return nil, ErrEmptyQRValue
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	return qrcode.Encode(q.QRValue, qrcode.Medium, size)
}

// DataURI returns the PNG inlined for an <img src>. Empty on failure.
func (q UserQRCode) DataURI() string {
	png, err := q.PNG(DefaultQRSize)
	if err != nil {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
