package scene

import (
	"encoding/json"
	"fmt"
	"log"
	"reflect"
	"sort"
	"strings"
)

// AnimationParameters are the user-tunable knobs. Values are expected to
// stay inside the slider ranges of whatever UI edits them; nothing here
// clamps them.
type AnimationParameters struct {
	EffectIntensity   float64 `json:"effectIntensity"`
	ContrastPower     float64 `json:"contrastPower"`
	ColorSaturation   float64 `json:"colorSaturation"`
	HeatSensitivity   float64 `json:"heatSensitivity"`
	VideoBlendAmount  float64 `json:"videoBlendAmount"`
	GradientShift     float64 `json:"gradientShift"`
	HeatDecay         float64 `json:"heatDecay"`
	InteractionRadius float64 `json:"interactionRadius"`
	Reactivity        float64 `json:"reactivity"`

	// Palette optionally overrides the seven gradient stops with CSS colours.
	Palette []string `json:"palette,omitempty"`
}

func DefaultParameters() AnimationParameters {
	return AnimationParameters{
		EffectIntensity:   1.0,
		ContrastPower:     0.8,
		ColorSaturation:   1.1,
		HeatSensitivity:   0.5,
		VideoBlendAmount:  0.6,
		GradientShift:     0,
		HeatDecay:         0.95,
		InteractionRadius: 1.0,
		Reactivity:        1.0,
	}
}

// ParameterNames lists the scalar parameter keys in declaration order.
func ParameterNames() []string {
	var names []string
	t := reflect.TypeOf(AnimationParameters{})
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Type.Kind() == reflect.Float64 {
			names = append(names, jsonName(t.Field(i)))
		}
	}
	return names
}

func jsonName(f reflect.StructField) string {
	return strings.Split(f.Tag.Get("json"), ",")[0]
}

// field returns a pointer to the scalar parameter with the given key.
func (p *AnimationParameters) field(name string) (*float64, bool) {
	v := reflect.ValueOf(p).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Float64 && jsonName(f) == name {
			return v.Field(i).Addr().Interface().(*float64), true
		}
	}
	return nil, false
}

// Get returns a scalar parameter by key.
func (p *AnimationParameters) Get(name string) (float64, bool) {
	ptr, ok := p.field(name)
	if !ok {
		return 0, false
	}
	return *ptr, true
}

// Set assigns a scalar parameter by key.
func (p *AnimationParameters) Set(name string, value float64) error {
	ptr, ok := p.field(name)
	if !ok {
		return fmt.Errorf("unknown parameter %q", name)
	}
	*ptr = value
	return nil
}

// ParseParameters decodes a saved blob on top of the defaults, one key at
// a time, so a single bad entry only costs that entry. An unreadable blob
// yields the defaults and an error.
func ParseParameters(blob string) (AnimationParameters, error) {
	params := DefaultParameters()
	if strings.TrimSpace(blob) == "" {
		return params, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return params, fmt.Errorf("invalid parameter blob: %w", err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := raw[key]
		if key == "palette" {
			var palette []string
			if err := json.Unmarshal(value, &palette); err != nil {
				log.Printf("Warning: ignoring invalid palette setting: %v", err)
				continue
			}
			params.Palette = palette
			continue
		}
		ptr, ok := params.field(key)
		if !ok {
			log.Printf("Warning: unrecognised setting key '%s'", key)
			continue
		}
		// null leaves f untouched, so the default survives.
		f := *ptr
		if err := json.Unmarshal(value, &f); err != nil {
			log.Printf("Warning: invalid value for %s, using default %.2f: %v", key, *ptr, err)
			continue
		}
		*ptr = f
	}
	return params, nil
}

// Encode serialises the parameters into the blob format ParseParameters reads.
func (p AnimationParameters) Encode() (string, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
