package validate

import (
	"strings"

	"golang.org/x/text/language"
)

// RegionalLanguage maps a country-code TLD to the ISO 639-1 code of the
// language most likely spoken there, or "" when the suffix is not a
// recognized ccTLD or the likely language is English (the query is already
// English, so a retry would be pointless).
func RegionalLanguage(suffix string) string {
	if len(suffix) != 2 {
		return ""
	}

	cc := strings.ToUpper(suffix)
	// ccTLDs that differ from their ISO 3166-1 region code
	if cc == "UK" {
		cc = "GB"
	}

	region, err := language.ParseRegion(cc)
	if err != nil {
		return ""
	}
	tag, err := language.Compose(region)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}

	lang := base.String()
	if lang == "en" || len(lang) != 2 {
		return ""
	}

	return lang
}
