package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

const (
	hashLen            = 10
	defaultClipSkip    = "2"
	postApplyRefiner   = "PostApply"
	safetensorsSuffix  = ".safetensors"
	upscaleModelPrefix = "model-"
	upscaleModelSuffix = ".pt"
)

// ParseSwarmUI maps a SwarmUI JSON document onto the normalized schema.
// Invalid JSON yields an empty Record.
func (p *Parser) ParseSwarmUI(raw string) Record {
	rec := newRecord(UIUnknown)
	if !gjson.Valid(raw) {
		p.logger().Warn("discarding SwarmUI metadata: invalid JSON")
		return *rec
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		p.logger().Warn("discarding SwarmUI metadata: not a JSON object")
		return *rec
	}
	rec.UIType = UISwarmUI

	params := doc.Get(swarmParamsKey)
	if !params.IsObject() {
		params = gjson.Result{}
	}
	extra := doc.Get("sui_extra_data")
	if !extra.IsObject() {
		extra = gjson.Result{}
	}

	copyField := func(from gjson.Result, name string, to Key) {
		if v := from.Get(name); v.Exists() {
			rec.set(to, text(v))
		}
	}

	copyField(params, "prompt", KeyPrompt)
	copyField(params, "negativeprompt", KeyNegativePrompt)
	copyField(params, "steps", KeySteps)
	copyField(params, "cfgscale", KeyCFGScale)
	copyField(params, "seed", KeySeed)
	copyField(params, "sampler", KeySampler)
	rec.set(KeyClipSkip, p.clipSkip(params.Get("clipstopatlayer")))

	width, height := params.Get("width"), params.Get("height")
	if width.Exists() && height.Exists() {
		rec.set(KeyWidth, text(width))
		rec.set(KeyHeight, text(height))
	}

	p.resolveModel(rec, params, doc.Get("sui_models"))

	if scheduler := text(params.Get("scheduler")); scheduler != "" {
		rec.set(KeyScheduleType, capitalize(scheduler))
	}

	upscale := params.Get("refinerupscale")
	if params.Get("refinermethod").String() == postApplyRefiner &&
		upscale.Type == gjson.Number && upscale.Num > 1.0 {
		rec.set(KeyHiresUpscale, text(upscale))
		if method := text(params.Get("refinerupscalemethod")); method != "" {
			method = strings.TrimPrefix(method, upscaleModelPrefix)
			rec.set(KeyHiresUpscaler, strings.TrimSuffix(method, upscaleModelSuffix))
		}
		// SwarmUI records no denoising strength; refiner steps stand in for it.
		copyField(params, "refinersteps", KeyRefinerSteps)
	}

	copyField(extra, "date", KeyGenerationDate)
	copyField(extra, "generation_time", KeyGenerationTime)
	copyField(params, "swarm_version", KeySwarmUIVersion)
	if truthy(params.Get("automaticvae")) {
		rec.set(KeyVAE, "Automatic")
	}
	copyField(params, "aspectratio", KeyAspectRatio)
	return *rec
}

// resolveModel prefers the first sui_models entry and falls back to the flat
// model parameter.
func (p *Parser) resolveModel(rec *Record, params, models gjson.Result) {
	if !models.IsArray() || len(models.Array()) == 0 {
		if m := params.Get("model"); m.Exists() {
			rec.set(KeyModel, text(m))
		}
		return
	}
	first := models.Array()[0]
	if name := first.Get("name"); name.Exists() {
		rec.set(KeyModel, strings.TrimSuffix(text(name), safetensorsSuffix))
	}
	hash := text(first.Get("hash"))
	switch {
	case strings.HasPrefix(hash, "0x"):
		rec.set(KeyModelHash, truncate(hash[2:], hashLen))
	case hash != "":
		rec.set(KeyModelHash, truncate(hash, hashLen))
	}
}

// clipSkip is |clipstopatlayer|, which SwarmUI stores as a negative layer index.
func (p *Parser) clipSkip(v gjson.Result) string {
	if !v.Exists() {
		return defaultClipSkip
	}
	if v.Type != gjson.Number {
		p.logger().Warn("ignoring non-numeric clipstopatlayer", "value", v.Raw)
		return defaultClipSkip
	}
	return strings.TrimPrefix(v.Raw, "-")
}

// text renders a JSON value as record text: strings decoded, everything else
// in its source form.
func text(v gjson.Result) string {
	if v.Type == gjson.String {
		return v.Str
	}
	return v.Raw
}

func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return v.Num != 0
	case gjson.String:
		return v.Str != ""
	case gjson.JSON:
		if v.IsArray() {
			return len(v.Array()) > 0
		}
		return len(v.Map()) > 0
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
