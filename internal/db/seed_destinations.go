package db

import (
	"context"

	"github.com/geocoder89/triple/internal/domain/destination"
)

type CatalogWriter interface {
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, d destination.Destination) error
}

func ptr(f float64) *float64 { return &f }

// SeedCatalog is a development convenience: it fills an empty catalog with a
// few destinations. A catalog that already has rows is left alone.
func SeedCatalog(ctx context.Context, w CatalogWriter) (int, error) {
	n, err := w.Count(ctx)

	if err != nil {
		return 0, err
	}

	if n > 0 {
		return 0, nil
	}

	for _, d := range sampleCatalog {
		if err := w.Insert(ctx, d); err != nil {
			return 0, err
		}
	}

	return len(sampleCatalog), nil
}

var sampleCatalog = []destination.Destination{
	{
		Name:        "Haeundae Beach",
		Description: "Busan's best-known beach with a long sandy shoreline.",
		Location:    "Busan, South Korea",
		Category:    "beach",
		Latitude:    ptr(35.1587),
		Longitude:   ptr(129.1604),
		Rating:      ptr(4.6),
	},
	{
		Name:        "Seongsan Ilchulbong",
		Description: "Tuff cone on Jeju famous for sunrise views.",
		Location:    "Jeju, South Korea",
		Category:    "nature",
		Latitude:    ptr(33.4581),
		Longitude:   ptr(126.9425),
		Rating:      ptr(4.8),
	},
	{
		Name:        "Gyeongbokgung Palace",
		Description: "The main royal palace of the Joseon dynasty.",
		Location:    "Seoul, South Korea",
		Category:    "culture",
		Latitude:    ptr(37.5796),
		Longitude:   ptr(126.9770),
		Rating:      ptr(4.7),
	},
	{
		Name:        "Seoraksan National Park",
		Description: "Granite peaks, trails and autumn foliage.",
		Location:    "Sokcho, South Korea",
		Category:    "mountain",
		Latitude:    ptr(38.1195),
		Longitude:   ptr(128.4656),
		Rating:      ptr(4.7),
	},
	{
		Name:        "Jeonju Hanok Village",
		Description: "Hundreds of traditional houses and street food.",
		Location:    "Jeonju, South Korea",
		Category:    "culture",
		Latitude:    ptr(35.8150),
		Longitude:   ptr(127.1530),
		Rating:      ptr(4.4),
	},
}
