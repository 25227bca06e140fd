package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/go-directory-search/internal/types"
)

var ErrLocationDenied = errors.New("location not shared")

// Locator produces the caller's position. It may block and must honour ctx.
type Locator func(ctx context.Context) (types.GeoPoint, error)

// ResolveOrigin runs locate under timeout and falls back to fallback on any
// failure. It never returns an error: a missing position only changes the origin.
func ResolveOrigin(ctx context.Context, locate Locator, timeout time.Duration, fallback types.GeoPoint, logger *slog.Logger) (types.GeoPoint, bool) {
	if locate == nil {
		return fallback, false
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type located struct {
		point types.GeoPoint
		err   error
	}
	ch := make(chan located, 1)
	go func() {
		p, err := locate(ctx)
		ch <- located{point: p, err: err}
	}()

	var res located
	select {
	case res = <-ch:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if res.err == nil && res.point.IsZero() {
		res.err = ErrLocationDenied
	}
	if res.err != nil {
		logger.WarnContext(ctx, "Falling back to home origin",
			slog.String("fallback_city", fallback.City),
			slog.Any("error", res.err))
		return fallback, false
	}
	return res.point, true
}

// HeaderLocator reads a "lat,lon" pair as sent in X-Geo-Position.
func HeaderLocator(value string) Locator {
	return func(context.Context) (types.GeoPoint, error) {
		if strings.TrimSpace(value) == "" {
			return types.GeoPoint{}, ErrLocationDenied
		}
		latStr, lonStr, ok := strings.Cut(value, ",")
		if !ok {
			return types.GeoPoint{}, fmt.Errorf("malformed position %q", value)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil || !(lat >= -90 && lat <= 90) {
			return types.GeoPoint{}, fmt.Errorf("malformed latitude %q", latStr)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if err != nil || !(lon >= -180 && lon <= 180) {
			return types.GeoPoint{}, fmt.Errorf("malformed longitude %q", lonStr)
		}
		return types.GeoPoint{Coordinates: &types.Coordinates{Latitude: lat, Longitude: lon}}, nil
	}
}
