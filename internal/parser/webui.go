package parser

import (
	"fmt"
	"strings"
)

const negativePrefix = "Negative prompt:"

// webuiDefaults are filled in, in this order, for keys the tail did not set.
var webuiDefaults = []Field{
	{Key: KeyRNG, Value: "GPU"},
	{Key: KeyScheduleType, Value: "Automatic"},
	{Key: KeyScheduleMaxSigma, Value: "0"},
	{Key: KeyScheduleMinSigma, Value: "0"},
	{Key: KeyScheduleRho, Value: "0"},
	{Key: KeyVAEEncoder, Value: "Full"},
	{Key: KeyVAEDecoder, Value: "Full"},
}

type promptState int

const (
	inPrompt promptState = iota
	inNegative
)

// promptLines accumulates prose lines into the prompt and negative prompt.
type promptLines struct {
	state            promptState
	prompt, negative strings.Builder
}

func (pl *promptLines) add(line string) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, negativePrefix) {
		pl.state = inNegative
		line = strings.TrimSpace(line[len(negativePrefix):])
	}
	b := &pl.prompt
	if pl.state == inNegative {
		b = &pl.negative
	}
	if b.Len() > 0 {
		b.WriteByte('\n')
	}
	b.WriteString(line)
}

// ParseWebUI parses the text form: prompt lines, an optional "Negative prompt:"
// block, and a final line of comma separated "Key: value" pairs.
func (p *Parser) ParseWebUI(raw string) Record {
	rec := newRecord(UIUnknown)
	text := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	if text == "" {
		return *rec
	}
	rec.UIType = UIWebUI

	lines := strings.Split(text, "\n")
	last := lines[len(lines)-1]
	lines = lines[:len(lines)-1]

	tail := Tokenize(last)
	if len(tail) < minTailTokens {
		lines = append(lines, last)
		tail = nil
	}

	var pl promptLines
	for _, line := range lines {
		pl.add(line)
	}
	rec.set(KeyPrompt, pl.prompt.String())
	rec.set(KeyNegativePrompt, pl.negative.String())

	for _, tok := range tail {
		if err := p.storeToken(rec, tok); err != nil {
			p.logger().Warn("dropping parameter", "key", tok.Key, "value", tok.Raw, "error", err)
		}
	}

	rec.setDefault(KeyClipSkip, "1")
	if hypernet := rec.Value(KeyHypernet); hypernet != "" {
		strength, ok := rec.Get(KeyHypernetStrength)
		if !ok {
			strength = "1.0"
		}
		rec.set(KeyPrompt, rec.Value(KeyPrompt)+fmt.Sprintf("<hypernet:%s:%s>", hypernet, strength))
	}
	for _, d := range webuiDefaults {
		rec.setDefault(d.Key, d.Value)
	}
	return *rec
}

func (p *Parser) storeToken(rec *Record, tok Token) error {
	tok.Key = cleanKey(tok.Key)
	if tok.Key == "" {
		return fmt.Errorf("empty key")
	}
	for _, f := range normalizeToken(tok) {
		rec.set(f.Key, f.Value)
	}
	return nil
}
