// Package idutils detects and normalizes persistent identifier schemes (DOI, ORCID, ISBN, ...).
package idutils

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
)

type Scheme string

const (
	DOI    Scheme = "doi"
	ARK    Scheme = "ark"
	ArXiv  Scheme = "arxiv"
	ADS    Scheme = "ads"
	Handle Scheme = "handle"
	ORCID  Scheme = "orcid"
	ISBN   Scheme = "isbn"
	ISSN   Scheme = "issn"
	PMCID  Scheme = "pmcid"
	PMID   Scheme = "pmid"
	GND    Scheme = "gnd"
	ROR    Scheme = "ror"
	LSID   Scheme = "lsid"
	URN    Scheme = "urn"
	PURL   Scheme = "purl"
	SWH    Scheme = "swh"
	EAN13  Scheme = "ean13"
	URL    Scheme = "url"
)

var (
	doiRegexp      = regexp.MustCompile(`(?i)^(doi:\s*|https?://(dx\.)?doi\.org/)?(10\.\d{4,9}/\S+)$`)
	arkRegexp      = regexp.MustCompile(`^(https?://[^/]+/)?ark:/?\d{5,9}/\S+$`)
	arxivRegexp    = regexp.MustCompile(`(?i)^(arxiv:)?(\d{4}\.\d{4,5}|[a-z\-]+(\.[a-z]{2})?/\d{7})(v\d+)?$`)
	adsRegexp      = regexp.MustCompile(`^(ads:|ADS:)?\d{4}[A-Za-z&.]{5}[\w.]{4}[ELPQ-Z.][\d.]{4}[A-Z]$`)
	handleRegexp   = regexp.MustCompile(`^(hdl:\s*|https?://hdl\.handle\.net/)?\d[\d.]*/\S+$`)
	orcidRegexp    = regexp.MustCompile(`^(https?://orcid\.org/)?(\d{4}-\d{4}-\d{4}-\d{3}[\dX])$`)
	pmcidRegexp    = regexp.MustCompile(`^PMC\d+$`)
	pmidRegexp     = regexp.MustCompile(`^(pmid:|https?://pubmed\.ncbi\.nlm\.nih\.gov/)?(\d+)/?$`)
	gndRegexp      = regexp.MustCompile(`^(gnd:|GND:|https?://d-nb\.info/gnd/)?(1[01]?\d{7}[\dX]|[47]\d{6}-\d|[1-9]\d{0,7}-[\dX]|3\d{7}[\dX])$`)
	rorRegexp      = regexp.MustCompile(`^(https?://ror\.org/)?(0[a-hj-km-np-tv-z0-9]{6}\d{2})$`)
	lsidRegexp     = regexp.MustCompile(`(?i)^urn:lsid:[^:]+(:[^:]+){2,3}$`)
	urnRegexp      = regexp.MustCompile(`(?i)^urn:[a-z0-9][a-z0-9-]{0,31}:\S+$`)
	purlRegexp     = regexp.MustCompile(`^https?://purl\.\S+$`)
	swhRegexp      = regexp.MustCompile(`^swh:1:(cnt|dir|rel|rev|snp):[0-9a-f]{40}(;\S*)?$`)
	isxnCleaner    = strings.NewReplacer("-", "", " ", "")
	isbnPrefix     = regexp.MustCompile(`(?i)^isbn(-1[03])?:?\s*`)
	issnShapeRegex = regexp.MustCompile(`^\d{4}-?\d{3}[\dXx]$`)
)

type detector struct {
	scheme Scheme
	fn     func(string) bool
}

// detectors are consulted in priority order, the first detected scheme is the preferred one.
var detectors = []detector{
	{DOI, doiRegexp.MatchString},
	{ARK, arkRegexp.MatchString},
	{ArXiv, arxivRegexp.MatchString},
	{ADS, adsRegexp.MatchString},
	{ORCID, IsORCID},
	{ISBN, IsISBN},
	{ISSN, IsISSN},
	{EAN13, IsEAN13},
	{PMCID, pmcidRegexp.MatchString},
	{PMID, pmidRegexp.MatchString},
	{GND, gndRegexp.MatchString},
	{ROR, rorRegexp.MatchString},
	{Handle, handleRegexp.MatchString},
	{LSID, lsidRegexp.MatchString},
	{URN, urnRegexp.MatchString},
	{PURL, purlRegexp.MatchString},
	{SWH, swhRegexp.MatchString},
	{URL, IsURL},
}

// DetectSchemes returns every scheme the value is a valid identifier for, most specific first.
// Plain URLs are only reported when no other scheme matches, since most resolvable identifiers are URLs too.
func DetectSchemes(value string) []Scheme {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	var schemes []Scheme
	for _, d := range detectors {
		if d.fn(value) {
			schemes = append(schemes, d.scheme)
		}
	}

	if len(schemes) > 1 && slices.Contains(schemes, URL) {
		schemes = slices.DeleteFunc(schemes, func(s Scheme) bool { return s == URL })
	}

	return schemes
}

// Detect returns the preferred scheme of the value.
func Detect(value string) (Scheme, bool) {
	schemes := DetectSchemes(value)
	if len(schemes) == 0 {
		return "", false
	}
	return schemes[0], true
}

// IsValid returns true if the value is a valid identifier of the given scheme.
func IsValid(scheme Scheme, value string) bool {
	for _, d := range detectors {
		if d.scheme == scheme {
			return d.fn(strings.TrimSpace(value))
		}
	}
	return false
}

func IsURL(value string) bool {
	parsed, err := url.Parse(value)
	if err != nil || parsed.Host == "" {
		return false
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "ftp":
		return !strings.ContainsAny(value, " \t\n")
	default:
		return false
	}
}

// Normalize strips resolver prefixes from identifiers that have a canonical compact form.
func Normalize(scheme Scheme, value string) string {
	value = strings.TrimSpace(value)
	switch scheme {
	case DOI:
		if match := doiRegexp.FindStringSubmatch(value); match != nil {
			return match[3]
		}
	case ORCID:
		if match := orcidRegexp.FindStringSubmatch(value); match != nil {
			return match[2]
		}
	case ROR:
		if match := rorRegexp.FindStringSubmatch(value); match != nil {
			return match[2]
		}
	case PMID:
		if match := pmidRegexp.FindStringSubmatch(value); match != nil {
			return match[2]
		}
	case GND:
		if match := gndRegexp.FindStringSubmatch(value); match != nil {
			return "gnd:" + match[2]
		}
	case ArXiv:
		lower := strings.ToLower(value)
		if !strings.HasPrefix(lower, "arxiv:") {
			return "arXiv:" + value
		}
		return "arXiv:" + value[len("arxiv:"):]
	case ISBN, ISSN:
		return strings.ToUpper(isbnPrefix.ReplaceAllString(value, ""))
	}
	return value
}
