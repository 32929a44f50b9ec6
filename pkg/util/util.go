package util

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeDataURL accepts either a bare base64 payload or a
// "data:image/png;base64,xxxx" URL. The MIME type is sniffed from the bytes.
func DecodeDataURL(s string) ([]byte, string, error) {
	payload := strings.TrimSpace(s)
	if strings.HasPrefix(payload, "data:") {
		parts := strings.SplitN(payload, ",", 2)
		if len(parts) != 2 {
			return nil, "", fmt.Errorf("malformed data URL")
		}
		payload = parts[1]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	return data, DetectMimeType(data), nil
}

func EncodeDataURL(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = DetectMimeType(data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func DetectMimeType(data []byte) string {
	if len(data) < 4 {
		return "application/octet-stream"
	}

	if data[0] == 0xFF && data[1] == 0xD8 {
		return "image/jpeg"
	}
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 {
		return "image/gif"
	}
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 {
		return "image/webp"
	}

	return "image/jpeg"
}

func ExtensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "application/zip":
		return ".zip"
	default:
		return ".bin"
	}
}
