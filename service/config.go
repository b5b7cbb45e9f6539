package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/zenvpn/zen-console/client"
	"github.com/zenvpn/zen-console/model"
	"github.com/zenvpn/zen-console/singbox"
)

// qrSize is the pixel edge of generated QR images.
const qrSize = 256

// ConfigService retrieves per-user distribution artifacts. Every Get is a
// fresh fetch — the artifact goes stale the moment any attached inbound or
// node changes, so nothing here is ever cached.
type ConfigService struct {
	api *client.Client
}

// Get fetches the user's current Config artifact.
func (s *ConfigService) Get(ctx context.Context, userID uint) (*model.UserConfig, error) {
	return s.api.GetUserConfig(ctx, userID)
}

// Singbox parses the artifact's structured client configuration.
func (s *ConfigService) Singbox(cfg *model.UserConfig) (*singbox.ClientConfig, error) {
	return singbox.Parse(cfg.Singbox)
}

// SingboxJSON renders the artifact's client configuration as indented JSON.
func (s *ConfigService) SingboxJSON(cfg *model.UserConfig) ([]byte, error) {
	parsed, err := singbox.Parse(cfg.Singbox)
	if err != nil {
		return nil, fmt.Errorf("malformed singbox config in artifact: %w", err)
	}
	return parsed.JSON()
}

// QRCode renders content as a PNG QR image for distribution.
func (s *ConfigService) QRCode(content string) ([]byte, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return qr.PNG(qrSize)
}

// QRCodeBase64 renders content as a data-URI PNG QR image.
func (s *ConfigService) QRCodeBase64(content string) (string, error) {
	png, err := s.QRCode(content)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// Subscription encodes the artifact's share URLs as a base64 subscription
// blob, one URL per line, the format subscription clients expect.
func (s *ConfigService) Subscription(cfg *model.UserConfig) string {
	urls := make([]string, 0, len(cfg.URLs))
	for _, u := range cfg.URLs {
		urls = append(urls, u.URL)
	}
	return base64.StdEncoding.EncodeToString([]byte(strings.Join(urls, "\n")))
}
