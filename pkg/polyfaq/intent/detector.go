package intent

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/cockroachdb/errors"

	"github.com/cognicore/polyfaq/pkg/polyfaq/internalerr"
	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
)

// Detector identifies the language of free text. Errors mean the language
// could not be determined; callers fall back to a default.
type Detector interface {
	Detect(text string) (lang.Code, error)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(text string) (lang.Code, error)

// Detect implements Detector.
func (f DetectorFunc) Detect(text string) (lang.Code, error) { return f(text) }

var whatlangCodes = map[lang.Code]whatlanggo.Lang{
	lang.English:    whatlanggo.Eng,
	lang.Hindi:      whatlanggo.Hin,
	lang.Indonesian: whatlanggo.Ind,
}

// WhatlangDetector detects languages with whatlanggo, restricted to a
// whitelist. The trigram model has no randomness, so results are stable.
type WhatlangDetector struct {
	options whatlanggo.Options
	codes   map[whatlanggo.Lang]lang.Code
}

// NewWhatlangDetector restricts detection to languages; codes whatlanggo
// does not know are ignored.
func NewWhatlangDetector(languages []lang.Code) *WhatlangDetector {
	d := &WhatlangDetector{
		options: whatlanggo.Options{Whitelist: make(map[whatlanggo.Lang]bool)},
		codes:   make(map[whatlanggo.Lang]lang.Code),
	}
	for _, code := range languages {
		if wl, ok := whatlangCodes[code]; ok {
			d.options.Whitelist[wl] = true
			d.codes[wl] = code
		}
	}
	return d
}

// Detect implements Detector. Unreliable guesses are reported as errors.
func (d *WhatlangDetector) Detect(text string) (lang.Code, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.Wrap(internalerr.ErrDetection, "empty text")
	}
	if len(d.codes) == 0 {
		return "", errors.Wrap(internalerr.ErrDetection, "no detectable languages configured")
	}
	info := whatlanggo.DetectWithOptions(text, d.options)
	code, ok := d.codes[info.Lang]
	if !ok {
		return "", errors.Wrapf(internalerr.ErrDetection, "unsupported language %s", info.Lang.Iso6391())
	}
	if !info.IsReliable() {
		return "", errors.Wrapf(internalerr.ErrDetection, "unreliable guess %s (confidence %.2f)", code, info.Confidence)
	}
	return code, nil
}
