package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownProfile = errors.New("unknown encoding profile")
	ErrUnknownQuality = errors.New("unknown quality preset")
)

// EncodingProfile bundles a codec with its rate control and extra flags.
// Exactly one of CRF, CQ or VQuality is expected to be set.
type EncodingProfile struct {
	VideoCodec string   `yaml:"vcodec"`
	Preset     string   `yaml:"preset,omitempty"`
	Tune       string   `yaml:"tune,omitempty"`
	CRF        *int     `yaml:"crf,omitempty"`
	CQ         *int     `yaml:"cq,omitempty"`
	VQuality   *int     `yaml:"vquality,omitempty"`
	ExtraArgs  []string `yaml:"extra_args,omitempty"`
}

// QualityPreset overrides the rate-control value of whichever family the
// selected profile belongs to.
type QualityPreset struct {
	CRF      int `yaml:"crf"`
	CQ       int `yaml:"cq"`
	VQuality int `yaml:"vquality"`
}

// Flag is one encoder option
type Flag struct {
	Key   string
	Value string
}

// RateControl returns the encoder option name and value for the profile
func (p EncodingProfile) RateControl() (string, int, bool) {
	switch {
	case p.CRF != nil:
		return "crf", *p.CRF, true
	case p.CQ != nil:
		return "cq", *p.CQ, true
	case p.VQuality != nil:
		return "global_quality", *p.VQuality, true
	}
	return "", 0, false
}

// ExtraFlags splits the free-form extra arguments into key/value options.
// "-movflags +faststart" becomes {movflags, +faststart}; a flag with no
// value gets an empty Value.
func (p EncodingProfile) ExtraFlags() []Flag {
	var flags []Flag
	for _, arg := range p.ExtraArgs {
		fields := strings.Fields(arg)
		for i := 0; i < len(fields); i++ {
			if !strings.HasPrefix(fields[i], "-") {
				continue
			}
			flag := Flag{Key: strings.TrimPrefix(fields[i], "-")}
			if i+1 < len(fields) && !strings.HasPrefix(fields[i+1], "-") {
				flag.Value = fields[i+1]
				i++
			}
			flags = append(flags, flag)
		}
	}
	return flags
}

// Encoding resolves the selected profile with the selected quality preset
// applied.
func (c *Config) Encoding() (EncodingProfile, error) {
	profile, ok := c.Output.Profiles[c.Output.Profile]
	if !ok {
		return EncodingProfile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, c.Output.Profile)
	}

	if c.Output.Quality == "" {
		return profile, nil
	}

	quality, ok := c.Output.Qualities[c.Output.Quality]
	if !ok {
		return EncodingProfile{}, fmt.Errorf("%w: %q", ErrUnknownQuality, c.Output.Quality)
	}

	switch {
	case profile.CRF != nil:
		profile.CRF = intPtr(quality.CRF)
	case profile.CQ != nil:
		profile.CQ = intPtr(quality.CQ)
	case profile.VQuality != nil:
		profile.VQuality = intPtr(quality.VQuality)
	}

	return profile, nil
}
