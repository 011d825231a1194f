package services

import (
	"context"
	"errors"

	"github.com/startup-vidyapith/apiserver/internal/storage"
)

// resolveAsset stores payload through r and reports bad uploads against field.
func resolveAsset(ctx context.Context, r AssetResolver, kind storage.AssetKind, field, payload string) (string, error) {
	if r == nil || payload == "" {
		return payload, nil
	}
	ref, err := r.Resolve(ctx, kind, payload)
	switch {
	case err == nil:
		return ref, nil
	case errors.Is(err, storage.ErrInvalidAsset):
		return "", invalid(field, "must be a URL, a data URL or base64 content")
	case errors.Is(err, storage.ErrAssetTooLarge):
		return "", invalid(field, "file is too large")
	case errors.Is(err, storage.ErrAssetType):
		return "", invalid(field, "file type is not supported")
	default:
		return "", err
	}
}
