package parser

import (
	"bytes"
	"encoding/json"
	"iter"
)

// Key names a field of a Record. Recognized keys are listed below; any other
// key produced by a source is kept verbatim as a passthrough parameter.
type Key = string

const (
	KeyPrompt            Key = "Prompt"
	KeyNegativePrompt    Key = "Negative prompt"
	KeySteps             Key = "Steps"
	KeySampler           Key = "Sampler"
	KeyCFGScale          Key = "CFG scale"
	KeySeed              Key = "Seed"
	KeyWidth             Key = "Size-1"
	KeyHeight            Key = "Size-2"
	KeyClipSkip          Key = "Clip skip"
	KeyModel             Key = "Model"
	KeyModelHash         Key = "Model hash"
	KeyHiresUpscaler     Key = "Hires upscaler"
	KeyHiresUpscale      Key = "Hires upscale"
	KeyDenoisingStrength Key = "Denoising strength"
	KeyScheduleType      Key = "Schedule type"
	KeyScheduleMaxSigma  Key = "Schedule max sigma"
	KeyScheduleMinSigma  Key = "Schedule min sigma"
	KeyScheduleRho       Key = "Schedule rho"
	KeyRNG               Key = "RNG"
	KeyVAEEncoder        Key = "VAE Encoder"
	KeyVAEDecoder        Key = "VAE Decoder"
	KeyComfyUIParams     Key = "ComfyUI AI Params"
	KeyNovelAIParams     Key = "Novel AI Params"
)

// Passthrough keys written by the SwarmUI normalizer and the WebUI post-processing.
const (
	KeyHypernet         Key = "Hypernet"
	KeyHypernetStrength Key = "Hypernet strength"
	KeyRefinerSteps     Key = "Refiner steps"
	KeyGenerationDate   Key = "Generation date"
	KeyGenerationTime   Key = "Generation time"
	KeySwarmUIVersion   Key = "SwarmUI version"
	KeyVAE              Key = "VAE"
	KeyAspectRatio      Key = "Aspect ratio"
)

var recognized = map[Key]struct{}{
	KeyPrompt: {}, KeyNegativePrompt: {}, KeySteps: {}, KeySampler: {},
	KeyCFGScale: {}, KeySeed: {}, KeyWidth: {}, KeyHeight: {}, KeyClipSkip: {},
	KeyModel: {}, KeyModelHash: {}, KeyHiresUpscaler: {}, KeyHiresUpscale: {},
	KeyDenoisingStrength: {}, KeyScheduleType: {}, KeyScheduleMaxSigma: {},
	KeyScheduleMinSigma: {}, KeyScheduleRho: {}, KeyRNG: {}, KeyVAEEncoder: {},
	KeyVAEDecoder: {}, KeyComfyUIParams: {}, KeyNovelAIParams: {},
}

// IsRecognized reports whether key belongs to the fixed schema vocabulary.
func IsRecognized(key Key) bool {
	_, ok := recognized[key]
	return ok
}

// UIType identifies the producer of the metadata.
type UIType string

const (
	UIUnknown UIType = ""
	UIWebUI   UIType = "webui"
	UIComfyUI UIType = "comfyui"
	UINovelAI UIType = "novelai"
	UISwarmUI UIType = "swarmui"
)

// Field is a single key/value entry of a Record.
type Field struct {
	Key   Key
	Value string
}

// Record is the normalized generation-parameter set of one image.
// Values are always text, even when numeric, so the source formatting survives.
// A Record returned by this package is never modified afterwards.
type Record struct {
	UIType UIType

	fields []Field
	index  map[Key]int
}

func newRecord(ui UIType) *Record {
	return &Record{UIType: ui, index: make(map[Key]int)}
}

// set inserts or overwrites a value. Overwriting keeps the original position.
func (r *Record) set(key Key, value string) {
	if i, ok := r.index[key]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, Field{Key: key, Value: value})
}

func (r *Record) setDefault(key Key, value string) {
	if !r.Has(key) {
		r.set(key, value)
	}
}

// Get returns the value stored under key.
func (r Record) Get(key Key) (string, bool) {
	i, ok := r.index[key]
	if !ok {
		return "", false
	}
	return r.fields[i].Value, true
}

// Value returns the value stored under key, or "" when absent.
func (r Record) Value(key Key) string {
	v, _ := r.Get(key)
	return v
}

func (r Record) Has(key Key) bool {
	_, ok := r.index[key]
	return ok
}

func (r Record) Len() int { return len(r.fields) }

// Keys returns every key in insertion order.
func (r Record) Keys() []Key {
	keys := make([]Key, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

// All iterates over the entries in insertion order.
func (r Record) All() iter.Seq2[Key, string] {
	return func(yield func(Key, string) bool) {
		for _, f := range r.fields {
			if !yield(f.Key, f.Value) {
				return
			}
		}
	}
}

// Fields returns a copy of the entries in insertion order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Other returns the passthrough entries, i.e. those outside the recognized vocabulary.
func (r Record) Other() []Field {
	var out []Field
	for _, f := range r.fields {
		if !IsRecognized(f.Key) {
			out = append(out, f)
		}
	}
	return out
}

// Size returns the Size-1/Size-2 pair.
func (r Record) Size() (width, height string, ok bool) {
	w, wok := r.Get(KeyWidth)
	h, hok := r.Get(KeyHeight)
	if !wok || !hok {
		return "", "", false
	}
	return w, h, true
}

const uiTypeJSONKey = "ui_type"

// MarshalJSON writes the record as an object, ui_type first, then the entries
// in insertion order. An entry keyed ui_type is left out of the output.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(k, v string) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return nil
	}
	if r.UIType != UIUnknown {
		if err := write(uiTypeJSONKey, string(r.UIType)); err != nil {
			return nil, err
		}
	}
	for _, f := range r.fields {
		// A parameter named ui_type must not shadow the discriminator.
		if f.Key == uiTypeJSONKey {
			continue
		}
		if err := write(f.Key, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
