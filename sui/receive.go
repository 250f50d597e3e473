package sui

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/AlexZinkM/hoh-vault/internal/model"

	"github.com/skip2/go-qrcode"
)

var ErrInvalidName = errors.New("name must end with .sui")

// Receive returns address with a QR code for sharing it
func Receive(address string) (*model.ReceiveResponse, error) {
	qr, err := generateQRCode(address)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	return &model.ReceiveResponse{
		Address: address,
		QR:      qr,
	}, nil
}

// ResolveName resolves a SuiNS name to an address
func ResolveName(ctx context.Context, chain Chain, name string) (*model.ResolveResponse, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !strings.HasSuffix(name, ".sui") || len(name) <= len(".sui") {
		return nil, ErrInvalidName
	}

	address, err := chain.ResolveNameServiceAddress(ctx, name)
	if err != nil {
		return nil, err
	}

	return &model.ResolveResponse{Name: name, Address: address}, nil
}

// generateQRCode generates QR code of address in base64
func generateQRCode(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	// Get PNG image
	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	// Encode to base64
	return base64.StdEncoding.EncodeToString(png), nil
}
