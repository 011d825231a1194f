package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// AssetPathPrefix is the URL path under which stored assets are served.
const AssetPathPrefix = "/assets/"

// DefaultMaxAssetSize bounds a decoded asset payload.
const DefaultMaxAssetSize = 5 << 20

var (
	// ErrInvalidAsset is returned for a payload that is not valid base64 or a data URL.
	ErrInvalidAsset = errors.New("invalid asset payload")

	// ErrAssetTooLarge is returned when the decoded payload exceeds the size limit.
	ErrAssetTooLarge = errors.New("asset too large")

	// ErrAssetType is returned when the payload's content type is not accepted
	// for the asset kind.
	ErrAssetType = errors.New("unsupported asset type")
)

// AssetKind selects the folder and accepted content types of an asset.
type AssetKind string

const (
	AssetProfilePhoto AssetKind = "photos"
	AssetProductImage AssetKind = "products"
	AssetResume       AssetKind = "resumes"
)

var acceptedTypes = map[AssetKind][]string{
	AssetProfilePhoto: {"image/png", "image/jpeg", "image/gif", "image/webp"},
	AssetProductImage: {"image/png", "image/jpeg", "image/gif", "image/webp"},
	AssetResume: {
		"application/pdf", "image/png", "image/jpeg",
		"application/msword", "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	},
}

// Assets turns inline payloads into served references.
type Assets struct {
	objects ObjectStorage
	baseURL string
	maxSize int
}

// NewAssets serves stored objects under baseURL + AssetPathPrefix.
func NewAssets(objects ObjectStorage, baseURL string) *Assets {
	return &Assets{
		objects: objects,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		maxSize: DefaultMaxAssetSize,
	}
}

// Resolve returns the reference to keep for payload. Empty payloads and
// http(s) URLs are returned unchanged. Anything else must be a data URL or
// raw base64; it is stored under a fresh key and its served URL returned.
func (a *Assets) Resolve(ctx context.Context, kind AssetKind, payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" || isReference(payload, a.baseURL) {
		return payload, nil
	}

	contentType, data, err := decodePayload(payload)
	if err != nil {
		return "", err
	}
	if len(data) > a.maxSize {
		return "", ErrAssetTooLarge
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	contentType, _, _ = strings.Cut(contentType, ";")
	if !accepted(kind, contentType) {
		return "", fmt.Errorf("%w: %s", ErrAssetType, contentType)
	}

	key := path.Join(string(kind), uuid.NewString()+extensionFor(contentType))
	if err := a.objects.Put(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("store asset: %w", err)
	}
	return a.baseURL + AssetPathPrefix + key, nil
}

// Open returns the stored object for a key taken from a served URL.
func (a *Assets) Open(ctx context.Context, key string) (Object, error) {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" || key == "." {
		return Object{}, ErrObjectNotFound
	}
	return a.objects.Get(ctx, key)
}

func isReference(payload, baseURL string) bool {
	lower := strings.ToLower(payload)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return true
	}
	return strings.HasPrefix(payload, baseURL+AssetPathPrefix)
}

func decodePayload(payload string) (string, []byte, error) {
	contentType := ""
	encoded := payload
	if strings.HasPrefix(payload, "data:") {
		meta, body, ok := strings.Cut(strings.TrimPrefix(payload, "data:"), ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return "", nil, ErrInvalidAsset
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		encoded = body
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return "", nil, ErrInvalidAsset
		}
	}
	if len(data) == 0 {
		return "", nil, ErrInvalidAsset
	}
	return strings.ToLower(contentType), data, nil
}

func accepted(kind AssetKind, contentType string) bool {
	for _, t := range acceptedTypes[kind] {
		if t == contentType {
			return true
		}
	}
	return false
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	}
	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
