package services

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize = 256
	MinQRSize     = 128
	MaxQRSize     = 1024
)

type QROptions struct {
	Content string
	Size    int
	FgColor string // Hex code e.g. "#000000"
	BgColor string // Hex code e.g. "#FFFFFF"
}

// QRService renders QR codes that point at public portfolio pages.
type QRService struct{}

func NewQRService() *QRService {
	return &QRService{}
}

// PortfolioURL is the address encoded in a user's QR code.
func PortfolioURL(baseURL, username string) string {
	return strings.TrimRight(baseURL, "/") + "/" + username
}

func (s *QRService) PNG(opts QROptions) ([]byte, error) {
	opts = normalizeQROptions(opts)

	qr, err := qrcode.New(opts.Content, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	qr.ForegroundColor = parseHexColor(opts.FgColor, color.Black)
	qr.BackgroundColor = parseHexColor(opts.BgColor, color.White)

	return qr.PNG(opts.Size)
}

// SVG renders the code as one path of unit squares on a background rect.
func (s *QRService) SVG(opts QROptions) (string, error) {
	opts = normalizeQROptions(opts)

	qr, err := qrcode.New(opts.Content, qrcode.Medium)
	if err != nil {
		return "", err
	}

	qr.DisableBorder = true
	bitmap := qr.Bitmap()
	size := len(bitmap)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d" shape-rendering="crispEdges">`, size, size, opts.Size, opts.Size))
	sb.WriteString(fmt.Sprintf(`<rect width="100%%" height="100%%" fill="%s"/>`, opts.BgColor))
	sb.WriteString(fmt.Sprintf(`<path fill="%s" d="`, opts.FgColor))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if bitmap[y][x] {
				sb.WriteString(fmt.Sprintf("M%d %dh1v1h-1z ", x, y))
			}
		}
	}
	sb.WriteString(`"/>`)
	sb.WriteString("</svg>")
	return sb.String(), nil
}

// normalizeQROptions clamps the size and replaces anything that is not a
// six digit hex color, so the values are safe to inline into SVG.
func normalizeQROptions(opts QROptions) QROptions {
	if opts.Size == 0 {
		opts.Size = DefaultQRSize
	}
	if opts.Size < MinQRSize {
		opts.Size = MinQRSize
	}
	if opts.Size > MaxQRSize {
		opts.Size = MaxQRSize
	}
	if !isHexColor(opts.FgColor) {
		opts.FgColor = "#000000"
	}
	if !isHexColor(opts.BgColor) {
		opts.BgColor = "#FFFFFF"
	}
	return opts
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

func parseHexColor(s string, defaultColor color.Color) color.Color {
	if !isHexColor(s) {
		return defaultColor
	}

	hexToByte := func(c byte) byte {
		switch {
		case c >= '0' && c <= '9':
			return c - '0'
		case c >= 'a' && c <= 'f':
			return c - 'a' + 10
		default:
			return c - 'A' + 10
		}
	}

	r := (hexToByte(s[1]) << 4) + hexToByte(s[2])
	g := (hexToByte(s[3]) << 4) + hexToByte(s[4])
	b := (hexToByte(s[5]) << 4) + hexToByte(s[6])

	return color.RGBA{R: r, G: g, B: b, A: 255}
}
