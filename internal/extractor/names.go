package extractor

import "regexp"

var (
	pollingStationPrefix = regexp.MustCompile(`^((Stembureau )|(Briefstembureau ))+`)
	reportingUnitPrefix  = regexp.MustCompile(`^\d+::SB`)
	postcodeFragment     = regexp.MustCompile(` \(postcode: (\d{4} \w{2})\)`)
)

// Authority types used in the "Gebied" header and in generated file names.
const (
	AuthorityTypeMunicipality = "Gemeente"
	AuthorityTypePublicBody   = "Openbaar lichaam"
)

// publicBodies are the Caribbean special municipalities.
var publicBodies = map[string]bool{
	"Bonaire":        true,
	"Saba":           true,
	"Sint Eustatius": true,
}

// AuthorityType returns "Openbaar lichaam" for the Caribbean special
// municipalities and "Gemeente" for everything else.
func AuthorityType(authorityName string) string {
	if publicBodies[authorityName] {
		return AuthorityTypePublicBody
	}
	return AuthorityTypeMunicipality
}

// CleanReportingUnitName strips the leading "Stembureau "/"Briefstembureau "
// prefixes and the postcode fragment from a reporting unit name.
func CleanReportingUnitName(name string) string {
	name = pollingStationPrefix.ReplaceAllString(name, "")
	return postcodeFragment.ReplaceAllString(name, "")
}

// ExtractZip returns the postcode from a " (postcode: 1234 AB)" fragment in
// name, or "" when there is none.
func ExtractZip(name string) string {
	m := postcodeFragment.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return m[1]
}

// ExtractReportingUnitID strips the "<authority>::SB" prefix from a reporting
// unit identifier, so "0668::SB12" becomes "12".
func ExtractReportingUnitID(id string) string {
	return reportingUnitPrefix.ReplaceAllString(id, "")
}
