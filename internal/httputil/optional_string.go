package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString distinguishes an absent JSON field from an explicit null,
// which a plain *string cannot. A PATCH body that omits parent_id means
// "leave it alone"; one that sends null means "move to root". Present is
// false only when the field never appeared; null leaves Value nil with
// Present set.
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON records that the field appeared and captures its value.
// encoding/json only invokes it for fields present in the payload, so
// absence is represented by the zero value.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}
