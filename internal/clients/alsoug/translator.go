package alsoug

import "context"

// Translator converts scraped cell text to the serving language before
// normalization. The core treats cell text as opaque; translation only
// needs to keep the price columns numeric-parseable.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

type noopTranslator struct{}

func (noopTranslator) Translate(_ context.Context, text string) (string, error) {
	return text, nil
}

// NoopTranslator passes cell text through unchanged.
func NoopTranslator() Translator { return noopTranslator{} }
