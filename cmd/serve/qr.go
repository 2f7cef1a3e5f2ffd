package serve

import (
	"fmt"
	"io"
	"strings"

	"github.com/skip2/go-qrcode"
)

// ANSI background blocks, two cells per module so the code stays square.
const (
	darkModule  = "\033[40m  \033[0m"
	lightModule = "\033[47m  \033[0m"
)

// WriteQR renders text as a terminal QR code, dark modules on a light
// background, so a phone camera can open the board.
func WriteQR(out io.Writer, text string) error {
	qr, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("generating qr code: %w", err)
	}

	var b strings.Builder
	for _, row := range qr.Bitmap() {
		for _, dark := range row {
			if dark {
				b.WriteString(darkModule)
			} else {
				b.WriteString(lightModule)
			}
		}
		b.WriteString("\033[0m\n")
	}
	_, err = io.WriteString(out, b.String())
	return err
}
