package codec

import (
	"context"
	"time"

	goklab "github.com/reoring/goklab"
	"github.com/reoring/goklab/i18n"
)

// EpochMillis returns a Codec that converts between Unix epoch milliseconds,
// the engine's timestamp format, and time.Time in UTC.
func EpochMillis() goklab.Codec[int64, time.Time] {
	return epochMillisCodec{}
}

type epochMillisCodec struct{}

func (epochMillisCodec) Decode(ctx context.Context, a int64) (time.Time, error) {
	return time.UnixMilli(a).UTC(), nil
}

func (epochMillisCodec) Encode(ctx context.Context, b time.Time) (int64, error) {
	if b.IsZero() {
		return 0, invalidTime("zero time")
	}
	return b.UnixMilli(), nil
}

// TimeExtent reads the tstart/tend parameters of a time dimension as a
// half-open interval [start, end).
func TimeExtent(d *goklab.Dimension) (start, end time.Time, err error) {
	if d == nil || d.Type != goklab.Time {
		return time.Time{}, time.Time{}, invalidTime("not a time dimension")
	}
	ms := EpochMillis()
	s, ok := d.Parameters[goklab.ParamTimeStart].Int()
	if !ok {
		return time.Time{}, time.Time{}, invalidTime(goklab.ParamTimeStart)
	}
	e, ok := d.Parameters[goklab.ParamTimeEnd].Int()
	if !ok {
		return time.Time{}, time.Time{}, invalidTime(goklab.ParamTimeEnd)
	}
	if e < s {
		return time.Time{}, time.Time{}, invalidTime(goklab.ParamTimeEnd)
	}
	start, _ = ms.Decode(context.Background(), s)
	end, _ = ms.Decode(context.Background(), e)
	return start, end, nil
}

func invalidTime(v string) goklab.Issues {
	return goklab.Issues{{
		Path:    "/",
		Code:    goklab.CodeInvalidTime,
		Message: i18n.T(goklab.CodeInvalidTime, map[string]string{"value": v}),
		Offset:  -1,
		Params:  map[string]any{"value": v},
	}}
}
