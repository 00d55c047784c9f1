// qrcode.go renders the optional QR badge stamped onto a scene.

package paint

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// QRLevel maps a configured recovery level name to its go-qrcode constant.
// An empty name selects medium.
func QRLevel(name string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(name) {
	case "low":
		return qrcode.Low, nil
	case "", "medium":
		return qrcode.Medium, nil
	case "high":
		return qrcode.High, nil
	case "highest":
		return qrcode.Highest, nil
	default:
		return 0, fmt.Errorf("unknown qr level %q", name)
	}
}

// QRCode encodes payload as a size×size image in fg on bg without the
// quiet-zone border.
func QRCode(payload string, size int, level qrcode.RecoveryLevel, fg, bg color.NRGBA) (image.Image, error) {
	q, err := qrcode.New(payload, level)
	if err != nil {
		return nil, fmt.Errorf("encode qr payload: %w", err)
	}
	q.DisableBorder = true
	q.ForegroundColor = Opaque(fg)
	q.BackgroundColor = Opaque(bg)
	return q.Image(size), nil
}
