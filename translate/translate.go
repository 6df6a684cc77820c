// Package translate formats user facing messages for the host locale.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Fallback is used when the host locale can not be determined.
const Fallback = "en-US"

var printer = message.NewPrinter(language.MustParse(Fallback))

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("dcpu: locale: %v", err)
	}

	SetLocales(locales...)
}

// SetLocales selects the printer for the first supported locale in the list.
func SetLocales(locales ...string) {
	if len(locales) == 0 {
		locales = []string{Fallback}
	}
	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From formats an en-US Sprintf() key for the current locale.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}

// Wrap annotates err with a translated message.
func Wrap(err error, key message.Reference, args ...any) error {
	return errors.Wrap(err, From(key, args...))
}
