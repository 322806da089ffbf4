package utils

import (
	qrcode "github.com/skip2/go-qrcode" // QR code encoder
)

// EncodeReceiptQR renders a receipt number as a 256px PNG QR code.
// The decoded payload is exactly the receipt number.
func EncodeReceiptQR(receiptNumber string) ([]byte, error) {
	return qrcode.Encode(receiptNumber, qrcode.Medium, 256)
}
