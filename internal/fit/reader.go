// Package fit adapts the muktihari FIT decoder to the frame sequence the
// pipeline consumes. The decoder owns all byte-level validation: a
// malformed, truncated, or non-FIT stream fails the whole decode and the
// failure propagates to the caller unchanged in meaning.
package fit

import (
	"context"
	"io"
	"strings"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/kit/datetime"
	"github.com/muktihari/fit/profile"
	"github.com/muktihari/fit/proto"

	"github.com/fitgrid/fitgrid/internal/errors"
	"github.com/fitgrid/fitgrid/pkg/types"
)

// FrameRecord is the frame name carrying one per-sample telemetry snapshot.
const FrameRecord = "record"

// Field is one decoded, named field of a frame.
type Field struct {
	Name  string
	Value types.Value
}

// Frame is one decoded FIT data message: a name tag plus its fields in
// wire order. Frames are handed to the collector and then discarded; the
// pipeline retains no ownership beyond the current iteration.
type Frame struct {
	Name   string
	Fields []Field
}

// Decode parses one complete FIT byte stream into its frame sequence.
// Chained FIT sequences in a single stream are flattened in order.
func Decode(ctx context.Context, r io.Reader) ([]Frame, error) {
	dec := decoder.New(r)

	var frames []Frame
	for dec.Next() {
		f, err := dec.DecodeWithContext(ctx)
		if err != nil {
			return nil, errors.NewDecodeError("not a parseable FIT stream", err)
		}
		for i := range f.Messages {
			frames = append(frames, convertMessage(&f.Messages[i]))
		}
	}
	return frames, nil
}

// convertMessage maps one proto message to a Frame. Fields whose values
// are the FIT invalid sentinel, or that hold array values, do not appear
// in the frame; downstream they read as missing for that sample.
func convertMessage(m *proto.Message) Frame {
	frame := Frame{Name: frameName(m.Num.String())}
	for i := range m.Fields {
		v, ok := convertField(&m.Fields[i])
		if !ok {
			continue
		}
		frame.Fields = append(frame.Fields, Field{Name: m.Fields[i].Name, Value: v})
	}
	return frame
}

// frameName canonicalizes profile message names to the lowercase form the
// collector filters on ("record", "session", "event", ...).
func frameName(name string) string {
	return strings.ToLower(name)
}

func convertField(f *proto.Field) (types.Value, bool) {
	v := f.Value
	if !v.Valid(f.BaseType) {
		return types.Missing, false
	}

	// date_time fields surface as timestamps rather than raw epoch offsets.
	if f.Type == profile.DateTime {
		return types.TimeValue(datetime.ToTime(v.Uint32())), true
	}

	switch v.Type() {
	case proto.TypeString:
		return types.StringValue(v.String()), true
	case proto.TypeFloat32:
		return scaledFloat(float64(v.Float32()), f), true
	case proto.TypeFloat64:
		return scaledFloat(v.Float64(), f), true
	case proto.TypeInt8:
		return scaledInt(int64(v.Int8()), f), true
	case proto.TypeUint8:
		return scaledInt(int64(v.Uint8()), f), true
	case proto.TypeInt16:
		return scaledInt(int64(v.Int16()), f), true
	case proto.TypeUint16:
		return scaledInt(int64(v.Uint16()), f), true
	case proto.TypeInt32:
		return scaledInt(int64(v.Int32()), f), true
	case proto.TypeUint32:
		return scaledInt(int64(v.Uint32()), f), true
	case proto.TypeInt64:
		return scaledInt(v.Int64(), f), true
	case proto.TypeUint64:
		return scaledInt(int64(v.Uint64()), f), true
	default:
		// Array-valued and boolean fields are not tabulated.
		return types.Missing, false
	}
}

// scaledInt applies the profile's scale/offset. A scaled integer becomes a
// float measurement; an unscaled one stays integral (position fields keep
// their raw semicircle encoding here, degrees conversion happens in the
// normalizer).
func scaledInt(raw int64, f *proto.Field) types.Value {
	if f.Scale != 1 || f.Offset != 0 {
		return types.FloatValue(float64(raw)/f.Scale - f.Offset)
	}
	return types.IntValue(raw)
}

func scaledFloat(raw float64, f *proto.Field) types.Value {
	if f.Scale != 1 || f.Offset != 0 {
		return types.FloatValue(raw/f.Scale - f.Offset)
	}
	return types.FloatValue(raw)
}
