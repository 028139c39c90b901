package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-clave/transcode"
)

// Duration decodes a JSON duration written as a Go duration string ("10s",
// "1m30s") or as a bare number of seconds
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(v * float64(time.Second))
	default:
		return fmt.Errorf("invalid duration %s", data)
	}
	return nil
}

// UnmarshalJSON overlays data on s, reading timeouts through Duration
func (s *ServerConfig) UnmarshalJSON(data []byte) error {
	type plain ServerConfig
	aux := struct {
		*plain
		ReadTimeout     *Duration `json:"read_timeout"`
		WriteTimeout    *Duration `json:"write_timeout"`
		ShutdownTimeout *Duration `json:"shutdown_timeout"`
	}{
		plain:           (*plain)(s),
		ReadTimeout:     (*Duration)(&s.ReadTimeout),
		WriteTimeout:    (*Duration)(&s.WriteTimeout),
		ShutdownTimeout: (*Duration)(&s.ShutdownTimeout),
	}
	return json.Unmarshal(data, &aux)
}

// decoderSection is the decoder config as it appears in a config file
type decoderSection transcode.DecoderConfig

func (d *decoderSection) UnmarshalJSON(data []byte) error {
	type plain transcode.DecoderConfig
	aux := struct {
		*plain
		MaxDuration *Duration `json:"max_duration"`
		Timeout     *Duration `json:"timeout"`
	}{
		plain:       (*plain)(d),
		MaxDuration: (*Duration)(&d.MaxDuration),
		Timeout:     (*Duration)(&d.Timeout),
	}
	return json.Unmarshal(data, &aux)
}

// UnmarshalJSON overlays data on c, reading the decoder section through
// decoderSection
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	aux := struct {
		*plain
		Decoder *decoderSection `json:"decoder"`
	}{
		plain:   (*plain)(c),
		Decoder: (*decoderSection)(&c.Decoder),
	}
	return json.Unmarshal(data, &aux)
}
