package provider

import (
	"encoding/json"
	"strconv"
)

// TTL of a record in seconds. The zero value means the provider picks the
// TTL ("automatic"), which goes over the wire as 1.
type TTL uint32

const (
	TTLAuto TTL = 0
	// TTLMax is the largest TTL Cloudflare accepts.
	TTLMax TTL = 86400
)

// TTLFromSeconds maps a wire value onto TTL. Values up to 1 mean automatic;
// values above TTLMax are clamped.
func TTLFromSeconds(seconds int) TTL {
	if seconds <= 1 {
		return TTLAuto
	}
	if seconds > int(TTLMax) {
		return TTLMax
	}
	return TTL(seconds)
}

func (t TTL) Auto() bool {
	return t <= 1
}

// Seconds returns the wire value.
func (t TTL) Seconds() int {
	if t.Auto() {
		return 1
	}
	return int(t)
}

func (t TTL) String() string {
	return strconv.Itoa(t.Seconds())
}

func (t TTL) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Seconds())
}

func (t *TTL) UnmarshalJSON(b []byte) error {
	var seconds int
	if err := json.Unmarshal(b, &seconds); err != nil {
		return err
	}
	*t = TTLFromSeconds(seconds)
	return nil
}
