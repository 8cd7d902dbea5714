// Package translate defines the text-translation abstraction used to rephrase
// evidence queries into a domain's regional language.
package translate

import "context"

// Translation is the outcome of a translation request.
type Translation struct {
	// Text is the translated text, or the original when no translation
	// happened.
	Text string
	// Translated reports whether the text actually changed language.
	Translated bool
}

// Client is implemented by translation providers.
type Client interface {
	// Translate renders text from English into the target language, given
	// as an ISO 639-1 code.
	Translate(ctx context.Context, text, targetLang string) (Translation, error)
}
