package i18n

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// LocaleSource resolves the locale configured for a reseller ("" if unset).
type LocaleSource interface {
	ResellerLocale(ctx context.Context, resellerID int64) (string, error)
}

// Renderer renders catalog messages in the reseller's locale.
type Renderer struct {
	catalog *Catalog
	locales LocaleSource
	logger  *zap.Logger
}

func NewRenderer(catalog *Catalog, locales LocaleSource, logger *zap.Logger) *Renderer {
	return &Renderer{
		catalog: catalog,
		locales: locales,
		logger:  logger,
	}
}

// Render resolves the reseller's locale and translates key with fields.
func (r *Renderer) Render(ctx context.Context, key string, fields map[string]string, resellerID int64) (string, error) {
	locale, err := r.locales.ResellerLocale(ctx, resellerID)
	if err != nil {
		return "", fmt.Errorf("resolve locale for reseller %d: %w", resellerID, err)
	}
	if locale == "" {
		locale = r.catalog.defaultLocale
	}

	msg := r.catalog.Translate(locale, key, fields)
	if msg == key {
		r.logger.Debug("missing translation",
			zap.String("key", key),
			zap.String("locale", locale),
			zap.Int64("reseller_id", resellerID),
		)
	}
	return msg, nil
}
