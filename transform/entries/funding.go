package entries

import "strings"

// funderDOIToROR maps the FundRef DOIs of the legacy funders vocabulary onto ROR ids.
var funderDOIToROR = map[string]string{
	"10.13039/100000001":    "021nxhr62", // NSF
	"10.13039/100000002":    "01cwqze88", // NIH
	"10.13039/100000936":    "03a8z6x15", // Gordon and Betty Moore Foundation
	"10.13039/100010269":    "029chgv08", // Wellcome Trust
	"10.13039/501100000024": "01gavpb45", // CIHR
	"10.13039/501100000038": "01h531d29", // NSERC
	"10.13039/501100000155": "006cvnv84", // SSHRC
	"10.13039/501100000690": "00dq2kk65", // RCUK
	"10.13039/501100000780": "00k4n6c32", // European Commission
	"10.13039/501100000806": "02k4b9v70", // European Environment Agency
	"10.13039/501100000923": "05mmh0f86", // ARC
	"10.13039/501100000925": "011kf5r70", // NHMRC
	"10.13039/501100001602": "0271asj38", // SFI
	"10.13039/501100001665": "00rbzpz17", // ANR
	"10.13039/501100001711": "00yjd3n13", // SNSF
	"10.13039/501100001871": "00snfqn58", // FCT
	"10.13039/501100002341": "05k73zm37", // Academy of Finland
	"10.13039/501100002428": "013tf3c58", // FWF
	"10.13039/501100003246": "04jsz6e67", // NWO
	"10.13039/501100004488": "03n51vw80", // HRZZ
	"10.13039/501100004564": "01znas443", // MESTD
	"10.13039/501100006364": "03m8vkq32", // INCa
}

// FunderROR translates a legacy funder DOI into its ROR id. Funders without one keep their DOI.
func FunderROR(doi string) string {
	doi = strings.TrimSpace(doi)
	if ror, isOk := funderDOIToROR[doi]; isOk {
		return ror
	}
	return doi
}

// grantID extracts `<funder doi>::<number>` from a legacy grant, either a `$ref` link or a plain id.
func grantID(entry map[string]any) string {
	if ref := str(entry, "$ref"); ref != "" {
		if _, after, isOk := strings.Cut(ref, "/grants/"); isOk {
			return after
		}
		return ref
	}
	return str(entry, "id")
}

func Funding(legacy map[string]any) []any {
	var out []any
	for _, entry := range objects(legacy, "grants") {
		id := grantID(entry)
		if id == "" {
			continue
		}

		funderDOI, number, isOk := strings.Cut(id, "::")
		funder := FunderROR(funderDOI)
		if !isOk || number == "" {
			out = append(out, map[string]any{"funder": vocabulary(funder)})
			continue
		}

		out = append(out, map[string]any{
			"funder": vocabulary(funder),
			"award":  vocabulary(funder + "::" + number),
		})
	}
	return out
}
