package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Sample is one timestamped value. It encodes as a two-element array
// [ts, value] in both JSON and CBOR.
type Sample struct {
	_     struct{} `cbor:",toarray"`
	Ts    int64
	Value any
}

// MarshalJSON encodes the sample as [ts, value].
func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Ts, s.Value})
}

// UnmarshalJSON decodes a [ts, value] pair.
func (s *Sample) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("sample: want [ts, value], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &s.Ts); err != nil {
		return fmt.Errorf("sample timestamp: %w", err)
	}
	return json.Unmarshal(pair[1], &s.Value)
}

// KeySamples holds the samples delivered for one key.
type KeySamples struct {
	_       struct{} `cbor:",toarray"`
	Key     string
	Samples []Sample
}

// Latest returns the first sample, which carries the current value.
func (k KeySamples) Latest() (Sample, bool) {
	if len(k.Samples) == 0 {
		return Sample{}, false
	}
	return k.Samples[0], true
}

// Frame is the ordered set of key updates carried by one push message.
// In JSON it is an object keyed by key name; in CBOR an array of
// [key, samples] pairs.
type Frame []KeySamples

// Add appends a single-sample entry for key and returns the frame.
func (f Frame) Add(key string, ts int64, value any) Frame {
	return append(f, KeySamples{Key: key, Samples: []Sample{{Ts: ts, Value: value}}})
}

// Get returns the samples for key.
func (f Frame) Get(key string) ([]Sample, bool) {
	for _, ks := range f {
		if ks.Key == key {
			return ks.Samples, true
		}
	}
	return nil, false
}

// Keys returns the key names in frame order.
func (f Frame) Keys() []string {
	keys := make([]string, 0, len(f))
	for _, ks := range f {
		keys = append(keys, ks.Key)
	}
	return keys
}

// MarshalJSON encodes the frame as an object preserving key order.
func (f Frame) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ks := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ks.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		samples := ks.Samples
		if samples == nil {
			samples = []Sample{}
		}
		val, err := json.Marshal(samples)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of key -> samples, keeping the key order of
// the input.
func (f *Frame) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("frame: want object, got %v", tok)
	}

	var out Frame
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("frame: want key, got %v", tok)
		}
		var samples []Sample
		if err := dec.Decode(&samples); err != nil {
			return fmt.Errorf("frame key %q: %w", key, err)
		}
		out = append(out, KeySamples{Key: key, Samples: samples})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}
