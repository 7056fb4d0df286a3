package changefeed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/kirychukyurii/hostbeat/internal/model"
)

// Image field names as written to the store
const (
	FieldHostID        = "host_id"
	FieldExpirationUTC = "expiration_utc"
	FieldTTL           = "ttl"
	FieldRegion        = "region"
	FieldTest          = "test"
)

// ErrMalformedImage is wrapped by every image decoding failure
var ErrMalformedImage = errors.New("malformed heartbeat image")

// Image is the raw field map of a stored heartbeat record
type Image map[string]any

// Record is one raw change reported by the change feed
type Record struct {
	Kind     model.ChangeKind
	Key      string
	Revision int64
	OldImage Image
	NewImage Image
}

// DecodeError describes the field that could not be decoded
type DecodeError struct {
	Field string
	Value any
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: field %q: %v", ErrMalformedImage, e.Field, e.Value)
	}
	return fmt.Sprintf("%s: field %q: %v", ErrMalformedImage, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedImage}
	}
	return []error{ErrMalformedImage, e.Err}
}

// ParseImage decodes a JSON document into an Image
func ParseImage(data []byte) (Image, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Field: "image", Err: errors.New("empty payload")}
	}

	var img Image
	if err := json.Unmarshal(data, &img); err != nil {
		return nil, &DecodeError{Field: "image", Err: err}
	}
	if img == nil {
		return nil, &DecodeError{Field: "image", Err: errors.New("null payload")}
	}

	return img, nil
}

// EncodeImage renders a heartbeat in the stored image format
func EncodeImage(hb model.HeartBeat) ([]byte, error) {
	img := Image{
		FieldHostID: hb.HostID,
		FieldRegion: hb.Region,
		FieldTest:   "0",
	}
	if hb.IsTest {
		img[FieldTest] = "1"
	}
	if hb.HasExpiration() {
		img[FieldExpirationUTC] = hb.ExpirationUTC.Format(time.RFC3339Nano)
		img[FieldTTL] = hb.ExpirationUTC.Unix()
	}

	data, err := json.Marshal(img)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal heartbeat image: %w", err)
	}

	return data, nil
}

// DecodeImage maps a raw image onto a HeartBeat. host_id is required;
// expiration, region and test flag are optional but must be well formed
// when present.
func DecodeImage(img Image) (model.HeartBeat, error) {
	if img == nil {
		return model.HeartBeat{}, &DecodeError{Field: "image", Err: errors.New("missing image")}
	}

	hostID, err := decodeHostID(img)
	if err != nil {
		return model.HeartBeat{}, err
	}

	expiration, err := decodeExpiration(img)
	if err != nil {
		return model.HeartBeat{}, err
	}

	region, err := decodeString(img, FieldRegion)
	if err != nil {
		return model.HeartBeat{}, err
	}

	isTest, err := decodeTestFlag(img)
	if err != nil {
		return model.HeartBeat{}, err
	}

	return model.NewHeartBeat(hostID, expiration, region, isTest), nil
}

func decodeHostID(img Image) (string, error) {
	raw, ok := img[FieldHostID]
	if !ok || raw == nil {
		return "", &DecodeError{Field: FieldHostID, Err: errors.New("required")}
	}

	hostID, err := cast.ToStringE(raw)
	if err != nil {
		return "", &DecodeError{Field: FieldHostID, Value: raw, Err: err}
	}
	if strings.TrimSpace(hostID) == "" {
		return "", &DecodeError{Field: FieldHostID, Value: raw, Err: errors.New("blank")}
	}

	return hostID, nil
}

// decodeExpiration prefers the ISO timestamp and falls back to ttl epoch seconds
func decodeExpiration(img Image) (time.Time, error) {
	if raw, ok := img[FieldExpirationUTC]; ok && !isBlank(raw) {
		s, err := cast.ToStringE(raw)
		if err != nil {
			return time.Time{}, &DecodeError{Field: FieldExpirationUTC, Value: raw, Err: err}
		}

		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
		if err != nil {
			return time.Time{}, &DecodeError{Field: FieldExpirationUTC, Value: raw, Err: err}
		}

		return t, nil
	}

	if raw, ok := img[FieldTTL]; ok && !isBlank(raw) {
		switch v := raw.(type) {
		case string:
			raw = strings.TrimSpace(v)
		case bool:
			return time.Time{}, &DecodeError{Field: FieldTTL, Value: raw, Err: errors.New("not numeric")}
		}

		seconds, err := cast.ToInt64E(raw)
		if err != nil {
			return time.Time{}, &DecodeError{Field: FieldTTL, Value: raw, Err: err}
		}

		return time.Unix(seconds, 0), nil
	}

	return time.Time{}, nil
}

func decodeString(img Image, field string) (string, error) {
	raw, ok := img[field]
	if !ok || raw == nil {
		return "", nil
	}

	s, err := cast.ToStringE(raw)
	if err != nil {
		return "", &DecodeError{Field: field, Value: raw, Err: err}
	}

	return s, nil
}

func decodeTestFlag(img Image) (bool, error) {
	raw, ok := img[FieldTest]
	if !ok || isBlank(raw) {
		return false, nil
	}

	if s, isString := raw.(string); isString {
		raw = strings.TrimSpace(s)
	}

	isTest, err := cast.ToBoolE(raw)
	if err != nil {
		return false, &DecodeError{Field: FieldTest, Value: raw, Err: err}
	}

	return isTest, nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}

	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
