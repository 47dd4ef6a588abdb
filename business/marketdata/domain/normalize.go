package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDepthLimit caps how many levels per book side survive normalization.
const DefaultDepthLimit = 5

const millisecondEpochThreshold = 1_000_000_000_000

// NormalizeTicker converts a raw ticker into the canonical shape. Unparseable
// fields are dropped rather than failing the whole record.
func NormalizeTicker(raw RawTicker) NormalizedTicker {
	return NormalizedTicker{
		Exchange:  raw.Exchange,
		Product:   raw.Product,
		Timestamp: normalizeTimestamp(raw.Timestamp),
		Bid:       parseOptionalDecimal(raw.Bid),
		Ask:       parseOptionalDecimal(raw.Ask),
		BidSize:   parseOptionalDecimal(raw.BidSize),
		AskSize:   parseOptionalDecimal(raw.AskSize),
		Volume:    parseOptionalDecimal(raw.Volume),
		Metadata:  copyExtra(raw.Extra),
	}
}

// NormalizeOrderBook converts a raw order book into the canonical shape,
// keeping at most depthLimit levels per side. Levels with a non-positive or
// unparseable price are skipped.
func NormalizeOrderBook(raw RawOrderBook, depthLimit int) NormalizedOrderBook {
	if depthLimit <= 0 {
		depthLimit = DefaultDepthLimit
	}

	return NormalizedOrderBook{
		Exchange:  raw.Exchange,
		Product:   raw.Product,
		Timestamp: normalizeTimestamp(raw.Timestamp),
		Bids:      normalizeLevels(raw.Bids, depthLimit),
		Asks:      normalizeLevels(raw.Asks, depthLimit),
		Metadata:  copyExtra(raw.Extra),
	}
}

func copyExtra(extra map[string]string) map[string]string {
	out := make(map[string]string, len(extra))
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func normalizeLevels(raw []RawLevel, limit int) []NormalizedLevel {
	levels := make([]NormalizedLevel, 0, limit)
	for _, rl := range raw {
		if len(levels) >= limit {
			break
		}

		price := parseOptionalDecimal(rl.Price)
		if !price.Valid || !price.Decimal.IsPositive() {
			continue
		}

		size := parseOptionalDecimal(rl.Size)
		if !size.Valid || size.Decimal.IsNegative() {
			continue
		}

		levels = append(levels, NormalizedLevel{
			Price: price.Decimal,
			Size:  size.Decimal,
		})
	}
	return levels
}

// parseOptionalDecimal accepts the number encodings exchanges actually emit:
// JSON numbers, numeric strings and integers.
func parseOptionalDecimal(v any) decimal.NullDecimal {
	switch t := v.(type) {
	case nil:
		return decimal.NullDecimal{}
	case decimal.Decimal:
		return decimal.NullDecimal{Decimal: t, Valid: true}
	case float64:
		return decimal.NullDecimal{Decimal: decimal.NewFromFloat(t), Valid: true}
	case float32:
		return decimal.NullDecimal{Decimal: decimal.NewFromFloat32(t), Valid: true}
	case int:
		return decimal.NullDecimal{Decimal: decimal.NewFromInt(int64(t)), Valid: true}
	case int64:
		return decimal.NullDecimal{Decimal: decimal.NewFromInt(t), Valid: true}
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.NullDecimal{}
		}
		return decimal.NullDecimal{Decimal: d, Valid: true}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return decimal.NullDecimal{}
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.NullDecimal{}
		}
		return decimal.NullDecimal{Decimal: d, Valid: true}
	default:
		return decimal.NullDecimal{}
	}
}

// normalizeTimestamp renders upstream timestamps as RFC3339 UTC with a "Z"
// suffix. Numeric epochs above 1e12 are treated as milliseconds.
func normalizeTimestamp(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return ""
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			return parsed.UTC().Format(time.RFC3339)
		}
		// Bare ISO-8601 without a zone designator is assumed UTC.
		if parsed, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
			return parsed.UTC().Format(time.RFC3339)
		}
		if parsed, err := time.Parse("2006-01-02T15:04:05.999999999", s); err == nil {
			return parsed.UTC().Format(time.RFC3339)
		}
		return s
	case float64:
		return epochToRFC3339(int64(t))
	case int64:
		return epochToRFC3339(t)
	case int:
		return epochToRFC3339(int64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return ""
		}
		return epochToRFC3339(int64(f))
	default:
		return ""
	}
}

func epochToRFC3339(epoch int64) string {
	if epoch <= 0 {
		return ""
	}
	if epoch >= millisecondEpochThreshold {
		return time.UnixMilli(epoch).UTC().Format(time.RFC3339)
	}
	return time.Unix(epoch, 0).UTC().Format(time.RFC3339)
}
