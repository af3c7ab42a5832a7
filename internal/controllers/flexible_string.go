package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FlexibleString allows JSON fields to be provided as string, number or bool.
// Exam passwords are often typed as numbers and admin forms post "true".
type FlexibleString string

func (fs *FlexibleString) UnmarshalJSON(data []byte) error {
	if fs == nil {
		return fmt.Errorf("FlexibleString: nil receiver")
	}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*fs = FlexibleString(s)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err == nil {
		*fs = FlexibleString(num.String())
		return nil
	}

	var b bool
	if err := json.Unmarshal(trimmed, &b); err == nil {
		*fs = FlexibleString(fmt.Sprint(b))
		return nil
	}

	return fmt.Errorf("FlexibleString: expected string, number or bool, got %s", string(data))
}

func (fs FlexibleString) String() string {
	return string(fs)
}

func (fs FlexibleString) Trimmed() string {
	return strings.TrimSpace(string(fs))
}
